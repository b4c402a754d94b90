package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by each driver. It
// hands out sub-repositories rather than exposing the queries directly, so
// a Tx-scoped store can hand out the same repositories bound to the tx.
type Store interface {
	Users() Users
	Clients() Clients
	Tokens() Tokens
	AuthorizationCodes() AuthorizationCodes
	Images() Images

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing if fn returns nil and
	// rolling back otherwise.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. Nested transactions are not supported.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// CreateUser inserts u and returns its new id. Returns ErrAlreadyExists
	// when the username is taken.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByUsername matches the username exactly (case sensitive).
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// ListUsers returns all users ordered by id.
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type Clients interface {
	// CreateClient inserts c. Returns ErrAlreadyExists on an id collision.
	CreateClient(ctx context.Context, c domain.Client) error

	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// ListClientsByUser returns the clients a developer registered, newest first.
	ListClientsByUser(ctx context.Context, userID int64) ([]domain.Client, error)
}

type Tokens interface {
	// CreateToken inserts t. Returns ErrAlreadyExists when either
	// fingerprint collides with an existing row.
	CreateToken(ctx context.Context, t domain.Token) error

	GetTokenByAccessHash(ctx context.Context, hash string) (domain.Token, error)
	GetTokenByRefreshHash(ctx context.Context, hash string) (domain.Token, error)

	// RevokeAccessToken sets the access revoked flag. Returns ErrNotFound
	// when there is no row or it was already revoked.
	RevokeAccessToken(ctx context.Context, id string) error

	// RevokeRefreshToken sets the refresh revoked flag with the same
	// compare-and-swap semantics as RevokeAccessToken; refresh rotation
	// relies on it.
	RevokeRefreshToken(ctx context.Context, id string) error

	// DeleteTokensBefore removes rows whose refresh window ended before
	// cutoff. Returns the number of rows removed.
	DeleteTokensBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type AuthorizationCodes interface {
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error

	// GetAuthorizationCodeByHash fetches a code by its fingerprint,
	// whether or not it was used.
	GetAuthorizationCodeByHash(ctx context.Context, hash string) (domain.AuthorizationCode, error)

	// MarkAuthorizationCodeUsed consumes the code. Returns ErrNotFound when
	// the code was already consumed, so at most one caller wins.
	MarkAuthorizationCodeUsed(ctx context.Context, id string, at time.Time) error

	// DeleteExpiredAuthorizationCodes removes expired and consumed codes.
	DeleteExpiredAuthorizationCodes(ctx context.Context, now time.Time) (int64, error)
}

type Images interface {
	// CreateImage inserts img and returns its new id.
	CreateImage(ctx context.Context, img domain.Image) (int64, error)

	GetImage(ctx context.Context, id int64) (domain.Image, error)

	// ListImagesByUser returns a user's images, oldest first.
	ListImagesByUser(ctx context.Context, userID int64) ([]domain.Image, error)

	// DeleteImage removes the row. Returns ErrNotFound if it did not exist.
	DeleteImage(ctx context.Context, id int64) error
}
