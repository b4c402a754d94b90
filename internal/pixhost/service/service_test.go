package service

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/blob"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store/drivers/sqlite"
	"github.com/aussiebroadwan/pixhost/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

const testRedirect = "https://app.example/cb"

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

type testEnv struct {
	store     *sqlite.Store
	blobDir   string
	clock     *fakeClock
	users     *UserService
	clients   *ClientService
	tokens    *TokenService
	authorize *AuthorizeService
	guard     *GuardService
	images    *ImageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "pixhost.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	hasher, err := cryptox.NewHasher("test-pepper")
	require.NoError(t, err)

	blobDir := t.TempDir()
	blobs, err := blob.NewFileStore(blobDir, "http://pixhost.test")
	require.NoError(t, err)

	clk := &fakeClock{t: time.Unix(1_700_000_000, 0).UTC()}

	users := &UserService{Store: st, Hasher: hasher, Now: clk.Now}
	clients := &ClientService{Store: st, Hasher: hasher, Now: clk.Now}
	tokens := &TokenService{
		Store:     st,
		Users:     users,
		Clients:   clients,
		AccessTTL: time.Hour,
		CodeTTL:   5 * time.Minute,
		Now:       clk.Now,
	}

	return &testEnv{
		store:     st,
		blobDir:   blobDir,
		clock:     clk,
		users:     users,
		clients:   clients,
		tokens:    tokens,
		authorize: &AuthorizeService{Clients: clients, Tokens: tokens},
		guard:     &GuardService{Tokens: tokens},
		images:    &ImageService{Store: st, Blobs: blobs, Now: clk.Now},
	}
}

func (e *testEnv) user(t *testing.T, username string) domain.User {
	t.Helper()
	u, err := e.users.Register(t.Context(), username, username+"-password")
	require.NoError(t, err)
	return u
}

func defaultMetadata() domain.ClientMetadata {
	return domain.ClientMetadata{
		Name: "gallery",
		GrantTypes: []string{
			domain.GrantAuthorizationCode,
			domain.GrantPassword,
			domain.GrantImplicit,
			domain.GrantRefreshToken,
		},
		RedirectURIs: []string{testRedirect},
		Scopes:       []string{"profile", "images"},
	}
}

func (e *testEnv) client(t *testing.T, owner int64, meta domain.ClientMetadata) (domain.Client, string) {
	t.Helper()
	c, secret, err := e.clients.Register(t.Context(), owner, meta)
	require.NoError(t, err)
	return c, secret
}
