package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(FileDSN(filepath.Join(t.TempDir(), "pixhost.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.ApplyMigrations())
	return s
}

func seedUserAndClient(t *testing.T, s *Store) (int64, domain.Client) {
	t.Helper()
	ctx := context.Background()

	now := time.Unix(1_700_000_000, 0).UTC()
	uid, err := s.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "h", CreatedAt: now})
	require.NoError(t, err)

	c := domain.Client{
		ID:                      "client-1",
		SecretHash:              "secret-hash",
		UserID:                  uid,
		Name:                    "Gallery",
		GrantTypes:              []string{domain.GrantAuthorizationCode, domain.GrantRefreshToken},
		RedirectURIs:            []string{"https://app.example/cb"},
		ResponseTypes:           []string{domain.ResponseTypeCode},
		Scopes:                  []string{"profile", "images"},
		TokenEndpointAuthMethod: domain.AuthMethodClientSecretBasic,
		IssuedAt:                now,
	}
	require.NoError(t, s.Clients().CreateClient(ctx, c))
	return uid, c
}

func TestApplyMigrationsIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	require.NoError(t, s.ApplyMigrations())
	require.NoError(t, s.Ping(context.Background()))
}

func TestUsers(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	now := time.Unix(1_700_000_000, 0).UTC()
	id, err := s.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "h", CreatedAt: now})
	require.NoError(t, err)
	require.Positive(t, id)

	t.Run("duplicate username", func(t *testing.T) {
		_, err := s.Users().CreateUser(ctx, domain.User{Username: "alice", PasswordHash: "x", CreatedAt: now})
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("username is case sensitive", func(t *testing.T) {
		_, err := s.Users().GetUserByUsername(ctx, "Alice")
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("lookup", func(t *testing.T) {
		u, err := s.Users().GetUserByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "alice", u.Username)
		require.True(t, u.CreatedAt.Equal(now))

		_, err = s.Users().GetUserByID(ctx, id+100)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestClientsRoundTripFields(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	uid, c := seedUserAndClient(t, s)

	got, err := s.Clients().GetClientByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, c.GrantTypes, got.GrantTypes)
	require.Equal(t, c.RedirectURIs, got.RedirectURIs)
	require.Equal(t, c.Scopes, got.Scopes)
	require.Equal(t, "secret-hash", got.SecretHash)

	require.ErrorIs(t, s.Clients().CreateClient(ctx, c), store.ErrAlreadyExists)

	list, err := s.Clients().ListClientsByUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestTokenRevocation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	uid, c := seedUserAndClient(t, s)
	issued := time.Unix(1_700_000_000, 0).UTC()

	tok := domain.Token{
		ID:               "tok-1",
		ClientID:         c.ID,
		UserID:           uid,
		Scopes:           []string{"profile"},
		AccessTokenHash:  "access-fp",
		RefreshTokenHash: "refresh-fp",
		IssuedAt:         issued,
		ExpiresIn:        time.Hour,
	}
	require.NoError(t, s.Tokens().CreateToken(ctx, tok))

	got, err := s.Tokens().GetTokenByRefreshHash(ctx, "refresh-fp")
	require.NoError(t, err)
	require.Equal(t, time.Hour, got.ExpiresIn)

	t.Run("access revoke leaves refresh intact", func(t *testing.T) {
		require.NoError(t, s.Tokens().RevokeAccessToken(ctx, tok.ID))
		require.ErrorIs(t, s.Tokens().RevokeAccessToken(ctx, tok.ID), store.ErrNotFound)

		got, err := s.Tokens().GetTokenByAccessHash(ctx, "access-fp")
		require.NoError(t, err)
		require.True(t, got.AccessRevoked)
		require.False(t, got.RefreshRevoked)
	})

	t.Run("duplicate fingerprint", func(t *testing.T) {
		dup := tok
		dup.ID = "tok-2"
		dup.RefreshTokenHash = ""
		require.ErrorIs(t, s.Tokens().CreateToken(ctx, dup), store.ErrAlreadyExists)
	})

	t.Run("access-only rows have no refresh", func(t *testing.T) {
		only := tok
		only.ID = "tok-3"
		only.AccessTokenHash = "access-only"
		only.RefreshTokenHash = ""
		require.NoError(t, s.Tokens().CreateToken(ctx, only))
		require.ErrorIs(t, s.Tokens().RevokeRefreshToken(ctx, only.ID), store.ErrNotFound)
	})

	t.Run("sweep removes rows past the refresh window", func(t *testing.T) {
		n, err := s.Tokens().DeleteTokensBefore(ctx, issued.Add(2*time.Hour))
		require.NoError(t, err)
		require.Zero(t, n)

		n, err = s.Tokens().DeleteTokensBefore(ctx, issued.Add(3*time.Hour))
		require.NoError(t, err)
		require.EqualValues(t, 2, n)
	})
}

func TestAuthorizationCodeSingleUse(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	uid, c := seedUserAndClient(t, s)
	now := time.Unix(1_700_000_000, 0).UTC()

	code := domain.AuthorizationCode{
		ID:          "code-1",
		ClientID:    c.ID,
		UserID:      uid,
		CodeHash:    "code-fp",
		RedirectURI: "https://app.example/cb",
		Scopes:      []string{"profile"},
		ExpiresAt:   now.Add(5 * time.Minute),
		CreatedAt:   now,
	}
	require.NoError(t, s.AuthorizationCodes().CreateAuthorizationCode(ctx, code))

	const racers = 8
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.AuthorizationCodes().MarkAuthorizationCodeUsed(ctx, code.ID, now); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 1, wins)

	got, err := s.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, "code-fp")
	require.NoError(t, err)
	require.NotNil(t, got.UsedAt)

	n, err := s.AuthorizationCodes().DeleteExpiredAuthorizationCodes(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
}

func TestImages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	uid, _ := seedUserAndClient(t, s)
	now := time.Unix(1_700_000_000, 0).UTC()

	id, err := s.Images().CreateImage(ctx, domain.Image{
		GUID: "abc", Title: "cat", ContentType: "image/png", Size: 4, UserID: uid, CreatedAt: now,
	})
	require.NoError(t, err)

	list, err := s.Images().ListImagesByUser(ctx, uid)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "abc", list[0].GUID)

	require.NoError(t, s.Images().DeleteImage(ctx, id))
	require.ErrorIs(t, s.Images().DeleteImage(ctx, id), store.ErrNotFound)

	_, err = s.Images().GetImage(ctx, id)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestWithTxRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	err := s.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().CreateUser(ctx, domain.User{Username: "bob", PasswordHash: "h", CreatedAt: time.Now()})
		require.NoError(t, err)
		return store.ErrNotFound
	})
	require.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.Users().GetUserByUsername(ctx, "bob")
	require.ErrorIs(t, err, store.ErrNotFound)
}
