package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store/drivers/sqlite/gen"
	msqlite "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

type Store struct {
	db  *sql.DB
	q   *gen.Queries
	dsn string
}

// FileDSN builds the DSN for a database file. Every pooled connection gets
// the same pragmas, and transactions start with BEGIN IMMEDIATE so
// concurrent writers queue on the busy timeout instead of failing part way
// through a read-then-write.
func FileDSN(path string) string {
	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "foreign_keys(1)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: open %s: %w", dsn, err)
	}

	return &Store{
		db:  db,
		q:   gen.New(db),
		dsn: dsn,
	}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Tx starts a read/write transaction and returns a Tx-scoped Store.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return newTx(tx), nil
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, err := s.Tx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback() // no-op after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Users() store.Users                           { return &usersRepo{q: s.q} }
func (s *Store) Clients() store.Clients                       { return &clientsRepo{q: s.q} }
func (s *Store) Tokens() store.Tokens                         { return &tokensRepo{q: s.q} }
func (s *Store) AuthorizationCodes() store.AuthorizationCodes { return &authorizationCodesRepo{q: s.q} }
func (s *Store) Images() store.Images                         { return &imagesRepo{q: s.q} }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// mapConstraint turns unique and primary key violations into
// store.ErrAlreadyExists.
func mapConstraint(err error) error {
	var se *msqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
		}
	}
	return err
}

// affected maps a zero-row compare-and-swap update to store.ErrNotFound.
func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func mapNullString(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func mapStringNull(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mapNullUnixPtr(n sql.NullInt64) *time.Time {
	if !n.Valid {
		return nil
	}
	t := time.Unix(n.Int64, 0).UTC()
	return &t
}

func fromUnix(sec int64) time.Time { return time.Unix(sec, 0).UTC() }

func joinFields(fields []string) string { return strings.Join(fields, " ") }

// splitFields parses a space-joined column, dropping blanks and duplicates.
func splitFields(s string) []string {
	parts := strings.Fields(s)
	if len(parts) == 0 {
		return nil
	}
	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}

func mapUser(row gen.User) domain.User {
	return domain.User{
		ID:           row.ID,
		Username:     row.Username,
		PasswordHash: row.PasswordHash,
		CreatedAt:    fromUnix(row.CreatedAt),
	}
}

func mapClient(row gen.Client) domain.Client {
	return domain.Client{
		ID:                      row.ID,
		SecretHash:              mapNullString(row.SecretHash),
		UserID:                  row.UserID,
		Name:                    row.Name,
		URI:                     row.Uri,
		GrantTypes:              splitFields(row.GrantTypes),
		RedirectURIs:            splitFields(row.RedirectUris),
		ResponseTypes:           splitFields(row.ResponseTypes),
		Scopes:                  splitFields(row.Scopes),
		TokenEndpointAuthMethod: row.TokenEndpointAuthMethod,
		IssuedAt:                fromUnix(row.IssuedAt),
	}
}

func mapToken(row gen.Token) domain.Token {
	return domain.Token{
		ID:               row.ID,
		ClientID:         row.ClientID,
		UserID:           row.UserID,
		Scopes:           splitFields(row.Scopes),
		AccessTokenHash:  row.AccessTokenHash,
		RefreshTokenHash: mapNullString(row.RefreshTokenHash),
		IssuedAt:         fromUnix(row.IssuedAt),
		ExpiresIn:        time.Duration(row.ExpiresIn) * time.Second,
		AccessRevoked:    row.AccessRevoked,
		RefreshRevoked:   row.RefreshRevoked,
	}
}

func mapAuthorizationCode(row gen.AuthorizationCode) domain.AuthorizationCode {
	return domain.AuthorizationCode{
		ID:                  row.ID,
		ClientID:            row.ClientID,
		UserID:              row.UserID,
		CodeHash:            row.CodeHash,
		RedirectURI:         row.RedirectUri,
		Scopes:              splitFields(row.Scopes),
		CodeChallenge:       row.CodeChallenge,
		CodeChallengeMethod: row.CodeChallengeMethod,
		ExpiresAt:           fromUnix(row.ExpiresAt),
		UsedAt:              mapNullUnixPtr(row.UsedAt),
		CreatedAt:           fromUnix(row.CreatedAt),
	}
}

func mapImage(row gen.Image) domain.Image {
	return domain.Image{
		ID:          row.ID,
		GUID:        row.Guid,
		Title:       row.Title,
		ContentType: row.ContentType,
		Size:        row.Size,
		UserID:      row.UserID,
		CreatedAt:   fromUnix(row.CreatedAt),
	}
}
