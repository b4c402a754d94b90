package http_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/blob"
	pixhttp "github.com/aussiebroadwan/pixhost/internal/pixhost/http"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/service"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store/drivers/sqlite"
	"github.com/aussiebroadwan/pixhost/pkg/authsdk"
	"github.com/aussiebroadwan/pixhost/pkg/cryptox"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
	"github.com/aussiebroadwan/pixhost/pkg/jwtx"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

const (
	testRedirect = "https://gallery.example/cb"
	testSecret   = "0123456789abcdef0123456789abcdef"
)

// pngBytes starts with the PNG signature so content sniffing reports image/png.
var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x42}, 64)...)

// newTestServer wires the full router over a temporary sqlite database and
// a file blob store served from the same origin.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	var router *pixhttp.Router
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	st, err := sqlite.NewStore(sqlite.FileDSN(filepath.Join(t.TempDir(), "pixhost.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	hasher, err := cryptox.NewHasher("test-pepper")
	require.NoError(t, err)

	blobs, err := blob.NewFileStore(t.TempDir(), srv.URL)
	require.NoError(t, err)

	signer, err := jwtx.NewSessionSigner([]byte(testSecret), srv.URL)
	require.NoError(t, err)

	users := &service.UserService{Store: st, Hasher: hasher}
	clients := &service.ClientService{Store: st, Hasher: hasher}
	tokens := &service.TokenService{
		Store:     st,
		Users:     users,
		Clients:   clients,
		AccessTTL: time.Hour,
		CodeTTL:   5 * time.Minute,
	}

	router = pixhttp.NewRouter("test", st, blobs, slogx.Discard())
	router.Sessions = &pixhttp.Sessions{Signer: signer, Issuer: srv.URL}
	router.UserService = users
	router.ClientService = clients
	router.TokenService = tokens
	router.AuthorizeService = &service.AuthorizeService{Clients: clients, Tokens: tokens}
	router.GuardService = &service.GuardService{Tokens: tokens}
	router.ImageService = &service.ImageService{Store: st, Blobs: blobs}
	router.ServeBlobs = true
	router.StrictLimit = httpx.RateLimitConfig{}
	router.ModerateLimit = httpx.RateLimitConfig{}
	router.ApplyRoutes()

	return srv
}

// loggedIn registers username and returns a client holding its session.
func loggedIn(t *testing.T, srv *httptest.Server, username string) (*authsdk.SDKClient, int64) {
	t.Helper()
	ctx := context.Background()

	c := authsdk.NewSDKClient(srv.URL)
	_, err := c.Register(ctx, username, "pw-"+username)
	require.NoError(t, err)

	account, err := c.Login(ctx, username, "pw-"+username)
	require.NoError(t, err)
	require.True(t, account.Success)
	return c, account.User.ID
}

func newApp(t *testing.T, c *authsdk.SDKClient, method string) *authsdk.ClientInfo {
	t.Helper()

	app, err := c.CreateClient(context.Background(), authsdk.CreateClientRequest{
		ClientName:              "gallery",
		GrantTypes:              []string{"authorization_code", "implicit", "password", "refresh_token"},
		RedirectURIs:            []string{testRedirect},
		ResponseTypes:           []string{"code", "token"},
		Scope:                   "profile email",
		TokenEndpointAuthMethod: method,
	})
	require.NoError(t, err)
	return app
}

func requireOAuth2Error(t *testing.T, err error, status int, code string) {
	t.Helper()

	var oe *authsdk.OAuth2Error
	require.True(t, errors.As(err, &oe), "expected *OAuth2Error, got %v", err)
	require.Equal(t, status, oe.StatusCode)
	require.Equal(t, code, oe.Code)
}

func TestAccounts(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	ctx := context.Background()

	c := authsdk.NewSDKClient(srv.URL)

	t.Run("register", func(t *testing.T) {
		account, err := c.Register(ctx, "alice", "pw1")
		require.NoError(t, err)
		require.True(t, account.Success)
		require.Equal(t, "alice", account.User.Username)
		require.NotZero(t, account.User.ID)
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := c.Register(ctx, "alice", "other")
		requireOAuth2Error(t, err, http.StatusConflict, authsdk.ErrorCodeInvalidRequest)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := c.Login(ctx, "alice", "nope")
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidGrant)
	})

	t.Run("unknown user looks like wrong password", func(t *testing.T) {
		_, err := c.Login(ctx, "mallory", "nope")
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidGrant)
	})

	t.Run("client registration needs a session", func(t *testing.T) {
		_, err := c.ListClients(ctx)
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeLoginRequired)
	})

	t.Run("login then logout", func(t *testing.T) {
		_, err := c.Login(ctx, "alice", "pw1")
		require.NoError(t, err)

		list, err := c.ListClients(ctx)
		require.NoError(t, err)
		require.Empty(t, list.Clients)

		require.NoError(t, c.Logout(ctx))
		_, err = c.ListClients(ctx)
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeLoginRequired)
	})

	t.Run("form encoded register", func(t *testing.T) {
		resp, err := http.PostForm(srv.URL+"/register", url.Values{"username": {"bob"}, "password": {"pw"}})
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("unsupported body", func(t *testing.T) {
		resp, err := http.Post(srv.URL+"/register", "text/plain", strings.NewReader("alice"))
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
	})
}

func TestClientRegistration(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	ctx := context.Background()

	c, _ := loggedIn(t, srv, "alice")

	t.Run("confidential client gets a secret once", func(t *testing.T) {
		app := newApp(t, c, authsdk.AuthMethodClientSecretBasic)
		require.NotEmpty(t, app.ClientID)
		require.NotEmpty(t, app.ClientSecret)
		require.Equal(t, "profile email", app.Scope)

		list, err := c.ListClients(ctx)
		require.NoError(t, err)
		require.Len(t, list.Clients, 1)
		require.Equal(t, app.ClientID, list.Clients[0].ClientID)
		require.Empty(t, list.Clients[0].ClientSecret)
	})

	t.Run("public client has no secret", func(t *testing.T) {
		app := newApp(t, c, authsdk.AuthMethodNone)
		require.Empty(t, app.ClientSecret)
	})

	t.Run("relative redirect rejected", func(t *testing.T) {
		_, err := c.CreateClient(ctx, authsdk.CreateClientRequest{
			GrantTypes:   []string{"authorization_code"},
			RedirectURIs: []string{"/cb"},
		})
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
	})
}

func TestPasswordGrantAndImages(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	ctx := context.Background()

	c, aliceID := loggedIn(t, srv, "alice")
	app := newApp(t, c, authsdk.AuthMethodClientSecretBasic)
	auth := authsdk.ClientAuth{ClientID: app.ClientID, ClientSecret: app.ClientSecret}

	t.Run("wrong client secret", func(t *testing.T) {
		_, err := c.PasswordGrant(ctx, authsdk.ClientAuth{ClientID: app.ClientID, ClientSecret: "wrong"},
			"alice", "pw-alice", nil)
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidClient)
	})

	t.Run("registered method is enforced", func(t *testing.T) {
		_, err := c.PasswordGrant(ctx, authsdk.ClientAuth{
			ClientID:     app.ClientID,
			ClientSecret: app.ClientSecret,
			Method:       authsdk.AuthMethodClientSecretPost,
		}, "alice", "pw-alice", nil)
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidClient)
	})

	t.Run("wrong user password", func(t *testing.T) {
		_, err := c.PasswordGrant(ctx, auth, "alice", "nope", nil)
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant)
	})

	t.Run("scope outside registration", func(t *testing.T) {
		_, err := c.PasswordGrant(ctx, auth, "alice", "pw-alice", []string{"admin"})
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidScope)
	})

	session, err := c.AuthenticateWithPassword(ctx, auth, "alice", "pw-alice", []string{"profile"})
	require.NoError(t, err)
	require.NotEmpty(t, session.RefreshToken())
	require.True(t, session.HasScope("profile"))

	t.Run("list users", func(t *testing.T) {
		users, err := session.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users.Users, 1)
		require.Equal(t, "alice", users.Users[0].Username)
		require.Equal(t, "/api/users", users.Links.Self.Href)
	})

	t.Run("garbage token", func(t *testing.T) {
		bogus := c.NewSessionFromTokens(auth, "not-a-token", "", "profile", 3600)
		_, err := bogus.ListUsers(ctx)
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)
	})

	t.Run("missing bearer", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/users")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer")
	})

	t.Run("image lifecycle", func(t *testing.T) {
		upload, err := session.UploadImage(ctx, "sunset", "sunset.png", bytes.NewReader(pngBytes))
		require.NoError(t, err)
		require.True(t, upload.Success)
		require.Equal(t, "sunset", upload.Image.Title)
		require.Equal(t, "image/png", upload.Image.ContentType)
		imageID := upload.Image.ID

		img, err := session.GetImage(ctx, aliceID, imageID)
		require.NoError(t, err)
		require.Equal(t, "sunset", img.Title)
		require.Equal(t, srv.URL+"/blobs/"+img.GUID, img.URL)

		user, err := session.GetUser(ctx, aliceID)
		require.NoError(t, err)
		require.Len(t, user.Images, 1)

		location, err := session.ImageLocation(ctx, aliceID, imageID)
		require.NoError(t, err)
		require.Equal(t, img.URL, location)

		resp, err := http.Get(location)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
		require.Equal(t, "inline", resp.Header.Get("Content-Disposition"))
		require.Contains(t, resp.Header.Get("Content-Security-Policy"), "sandbox")
		require.Equal(t, pngBytes, body)

		require.NoError(t, session.DeleteImage(ctx, aliceID, imageID))

		_, err = session.GetImage(ctx, aliceID, imageID)
		requireOAuth2Error(t, err, http.StatusNotFound, "not_found")
	})

	t.Run("upload needs a title", func(t *testing.T) {
		_, err := session.UploadImage(ctx, "  ", "x.png", bytes.NewReader(pngBytes))
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
	})

	t.Run("image under another user is not found", func(t *testing.T) {
		upload, err := session.UploadImage(ctx, "mine", "m.png", bytes.NewReader(pngBytes))
		require.NoError(t, err)

		_, err = session.GetImage(ctx, aliceID+1, upload.Image.ID)
		requireOAuth2Error(t, err, http.StatusNotFound, "not_found")
	})

	t.Run("bad path id", func(t *testing.T) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/user/abc", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+session.AccessToken())

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("html upload is served as a download", func(t *testing.T) {
		page := []byte("<html><body><script>fetch('/auth/authorize',{method:'POST'})</script></body></html>")
		upload, err := session.UploadImage(ctx, "page", "page.html", bytes.NewReader(page))
		require.NoError(t, err)
		require.Contains(t, upload.Image.ContentType, "text/html")

		img, err := session.GetImage(ctx, aliceID, upload.Image.ID)
		require.NoError(t, err)

		resp, err := http.Get(img.URL)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.Equal(t, "application/octet-stream", resp.Header.Get("Content-Type"))
		require.Equal(t, "attachment", resp.Header.Get("Content-Disposition"))
		require.Equal(t, "sandbox; default-src 'none'", resp.Header.Get("Content-Security-Policy"))
		require.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
		require.Equal(t, page, body)
	})
}

func TestDeleteRequiresOwner(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	ctx := context.Background()

	alice, aliceID := loggedIn(t, srv, "alice")
	aliceApp := newApp(t, alice, authsdk.AuthMethodClientSecretPost)
	aliceAuth := authsdk.ClientAuth{
		ClientID:     aliceApp.ClientID,
		ClientSecret: aliceApp.ClientSecret,
		Method:       authsdk.AuthMethodClientSecretPost,
	}
	aliceSession, err := alice.AuthenticateWithPassword(ctx, aliceAuth, "alice", "pw-alice", nil)
	require.NoError(t, err)

	upload, err := aliceSession.UploadImage(ctx, "cat", "cat.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	_, _ = loggedIn(t, srv, "bob")
	bobSession, err := alice.AuthenticateWithPassword(ctx, aliceAuth, "bob", "pw-bob", nil)
	require.NoError(t, err)

	// Bob can see alice's image but not delete it.
	_, err = bobSession.GetImage(ctx, aliceID, upload.Image.ID)
	require.NoError(t, err)

	err = bobSession.DeleteImage(ctx, aliceID, upload.Image.ID)
	requireOAuth2Error(t, err, http.StatusForbidden, "forbidden")

	require.NoError(t, aliceSession.DeleteImage(ctx, aliceID, upload.Image.ID))
}

func TestScopeEnforcement(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	ctx := context.Background()

	c, _ := loggedIn(t, srv, "alice")
	app := newApp(t, c, authsdk.AuthMethodClientSecretBasic)
	auth := authsdk.ClientAuth{ClientID: app.ClientID, ClientSecret: app.ClientSecret}

	session, err := c.AuthenticateWithPassword(ctx, auth, "alice", "pw-alice", []string{"email"})
	require.NoError(t, err)

	t.Run("checked locally", func(t *testing.T) {
		_, err := session.ListUsers(ctx)
		require.Error(t, err)
		require.Contains(t, err.Error(), "missing required scope")
	})

	t.Run("checked by the server", func(t *testing.T) {
		raw := authsdk.NewSDKClient(srv.URL)
		raw.CheckScopes = false
		s := raw.NewSessionFromTokens(auth, session.AccessToken(), "", "email", 3600)

		_, err := s.ListUsers(ctx)
		requireOAuth2Error(t, err, http.StatusForbidden, authsdk.ErrorCodeInsufficientScope)
	})
}

func TestAuthorizationCodeFlow(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	ctx := context.Background()

	owner, _ := loggedIn(t, srv, "alice")
	app := newApp(t, owner, authsdk.AuthMethodClientSecretBasic)
	auth := authsdk.ClientAuth{ClientID: app.ClientID, ClientSecret: app.ClientSecret}

	bob, _ := loggedIn(t, srv, "bob")

	t.Run("owner is not asked", func(t *testing.T) {
		res, err := owner.Authorize(ctx, authsdk.AuthorizeParams{
			ClientID:    app.ClientID,
			RedirectURI: testRedirect,
			State:       "xyz",
		})
		require.NoError(t, err)
		require.Nil(t, res.Prompt)

		cb, err := authsdk.ParseAuthorizationCallback(res.Location)
		require.NoError(t, err)
		require.NotEmpty(t, cb.Code)
		require.Equal(t, "xyz", cb.State)
	})

	t.Run("other user sees the prompt", func(t *testing.T) {
		res, err := bob.Authorize(ctx, authsdk.AuthorizeParams{
			ClientID:    app.ClientID,
			RedirectURI: testRedirect,
			Scopes:      []string{"profile"},
			State:       "s1",
		})
		require.NoError(t, err)
		require.NotNil(t, res.Prompt)
		require.Equal(t, "gallery", res.Prompt.ClientName)
		require.Equal(t, "profile", res.Prompt.Scope)
		require.Equal(t, "bob", res.Prompt.User)
		require.Equal(t, "s1", res.Prompt.State)
	})

	t.Run("denied consent redirects with access_denied", func(t *testing.T) {
		location, err := bob.Consent(ctx, authsdk.AuthorizeParams{
			ClientID:    app.ClientID,
			RedirectURI: testRedirect,
			State:       "s2",
		}, false)
		require.NoError(t, err)
		require.True(t, strings.HasPrefix(location, testRedirect+"?"))

		_, err = authsdk.ParseAuthorizationCallback(location)
		var oe *authsdk.OAuth2Error
		require.True(t, errors.As(err, &oe))
		require.Equal(t, authsdk.ErrorCodeAccessDenied, oe.Code)

		u, err := url.Parse(location)
		require.NoError(t, err)
		require.Equal(t, "s2", u.Query().Get("state"))
	})

	t.Run("tampered redirect is answered directly", func(t *testing.T) {
		_, err := bob.Authorize(ctx, authsdk.AuthorizeParams{
			ClientID:    app.ClientID,
			RedirectURI: "https://evil.example/cb",
		})
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidRequest)
	})

	t.Run("unknown client is answered directly", func(t *testing.T) {
		_, err := bob.Authorize(ctx, authsdk.AuthorizeParams{
			ClientID:    "nope",
			RedirectURI: testRedirect,
		})
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidClient)
	})

	t.Run("consent needs a login", func(t *testing.T) {
		anon := authsdk.NewSDKClient(srv.URL)
		_, err := anon.Consent(ctx, authsdk.AuthorizeParams{
			ClientID:    app.ClientID,
			RedirectURI: testRedirect,
		}, true)
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeLoginRequired)
	})

	t.Run("code exchange with PKCE", func(t *testing.T) {
		session, err := bob.AuthorizeAndExchange(ctx, auth, testRedirect, []string{"profile"})
		require.NoError(t, err)

		users, err := session.ListUsers(ctx)
		require.NoError(t, err)
		require.Len(t, users.Users, 2)
	})

	t.Run("code is single use and needs the verifier", func(t *testing.T) {
		pkce, err := authsdk.GeneratePKCEChallenge()
		require.NoError(t, err)
		p := authsdk.AuthorizeParams{ClientID: app.ClientID, RedirectURI: testRedirect, PKCE: pkce}

		location, err := bob.Consent(ctx, p, true)
		require.NoError(t, err)
		cb, err := authsdk.ParseAuthorizationCallback(location)
		require.NoError(t, err)

		_, err = bob.ExchangeAuthorizationCode(ctx, auth, cb.Code, testRedirect, "wrong-verifier")
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant)

		_, err = bob.ExchangeAuthorizationCode(ctx, auth, cb.Code, "https://other.example/cb", pkce.Verifier)
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant)

		tokens, err := bob.ExchangeAuthorizationCode(ctx, auth, cb.Code, testRedirect, pkce.Verifier)
		require.NoError(t, err)
		require.NotEmpty(t, tokens.AccessToken)

		_, err = bob.ExchangeAuthorizationCode(ctx, auth, cb.Code, testRedirect, pkce.Verifier)
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant)
	})

	t.Run("implicit grant", func(t *testing.T) {
		location, err := bob.Consent(ctx, authsdk.AuthorizeParams{
			ResponseType: authsdk.ResponseTypeToken,
			ClientID:     app.ClientID,
			RedirectURI:  testRedirect,
			State:        "imp",
		}, true)
		require.NoError(t, err)

		cb, err := authsdk.ParseAuthorizationCallback(location)
		require.NoError(t, err)
		require.NotEmpty(t, cb.AccessToken)
		require.Equal(t, "Bearer", cb.TokenType)
		require.Equal(t, "imp", cb.State)
		require.Positive(t, cb.ExpiresIn)
	})
}

func TestRefreshRevokeIntrospect(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	ctx := context.Background()

	c, aliceID := loggedIn(t, srv, "alice")
	app := newApp(t, c, authsdk.AuthMethodClientSecretBasic)
	auth := authsdk.ClientAuth{ClientID: app.ClientID, ClientSecret: app.ClientSecret}

	tokens, err := c.PasswordGrant(ctx, auth, "alice", "pw-alice", []string{"profile", "email"})
	require.NoError(t, err)
	require.Equal(t, "Bearer", tokens.TokenType)
	require.Equal(t, 3600, tokens.ExpiresIn)

	t.Run("introspect active access token", func(t *testing.T) {
		info, err := c.Introspect(ctx, auth, tokens.AccessToken, "")
		require.NoError(t, err)
		require.True(t, info.Active)
		require.Equal(t, app.ClientID, info.ClientID)
		require.Equal(t, "alice", info.Username)
		require.Equal(t, "profile email", info.Scope)
		require.Equal(t, "Bearer", info.TokenType)
		require.Positive(t, info.Exp)
		require.Equal(t, strconv.FormatInt(aliceID, 10), info.Sub)
	})

	t.Run("introspect unknown token", func(t *testing.T) {
		info, err := c.Introspect(ctx, auth, "garbage", "")
		require.NoError(t, err)
		require.False(t, info.Active)
	})

	t.Run("refresh rotates and may narrow scope", func(t *testing.T) {
		refreshed, err := c.RefreshGrant(ctx, auth, tokens.RefreshToken, []string{"profile"})
		require.NoError(t, err)
		require.NotEqual(t, tokens.RefreshToken, refreshed.RefreshToken)
		require.Equal(t, "profile", refreshed.Scope)

		_, err = c.RefreshGrant(ctx, auth, tokens.RefreshToken, nil)
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant)

		tokens = refreshed
	})

	t.Run("revoke access token", func(t *testing.T) {
		require.NoError(t, c.RevokeToken(ctx, auth, tokens.AccessToken, authsdk.TokenTypeHintAccessToken))

		info, err := c.Introspect(ctx, auth, tokens.AccessToken, "")
		require.NoError(t, err)
		require.False(t, info.Active)

		s := c.NewSessionFromTokens(auth, tokens.AccessToken, "", "profile", 3600)
		_, err = s.ListUsers(ctx)
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidToken)
	})

	t.Run("revoke refresh token", func(t *testing.T) {
		require.NoError(t, c.RevokeToken(ctx, auth, tokens.RefreshToken, authsdk.TokenTypeHintRefreshToken))

		_, err := c.RefreshGrant(ctx, auth, tokens.RefreshToken, nil)
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeInvalidGrant)
	})

	t.Run("revoke unknown token succeeds", func(t *testing.T) {
		require.NoError(t, c.RevokeToken(ctx, auth, "garbage", ""))
	})

	t.Run("revoke with bad hint", func(t *testing.T) {
		err := c.RevokeToken(ctx, auth, "garbage", "id_token")
		requireOAuth2Error(t, err, http.StatusBadRequest, authsdk.ErrorCodeUnsupportedTokenType)
	})

	t.Run("revoke needs client authentication", func(t *testing.T) {
		err := c.RevokeToken(ctx, authsdk.ClientAuth{ClientID: app.ClientID, ClientSecret: "wrong"}, "garbage", "")
		requireOAuth2Error(t, err, http.StatusUnauthorized, authsdk.ErrorCodeInvalidClient)
	})
}

func TestTokenEndpointRequests(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)

	post := func(t *testing.T, contentType, body string) *http.Response {
		t.Helper()
		resp, err := http.Post(srv.URL+"/auth/token", contentType, strings.NewReader(body))
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	t.Run("json body rejected", func(t *testing.T) {
		resp := post(t, "application/json", `{"grant_type":"password"}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("missing grant type", func(t *testing.T) {
		resp := post(t, "application/x-www-form-urlencoded", "client_id=x")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
	})

	t.Run("unknown client", func(t *testing.T) {
		resp := post(t, "application/x-www-form-urlencoded", "grant_type=password&client_id=nope&client_secret=x")
		require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		require.Contains(t, resp.Header.Get("WWW-Authenticate"), "Basic")
	})
}

func TestHealth(t *testing.T) {
	t.Parallel()
	srv := newTestServer(t)
	ctx := context.Background()

	c := authsdk.NewSDKClient(srv.URL)

	live, err := c.GetLiveness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)
	require.Equal(t, "test", live.Version)

	ready, err := c.GetReadiness(ctx)
	require.NoError(t, err)
	require.Equal(t, "ok", ready.Status)
	require.Equal(t, "ok", ready.Checks.Database)
	require.Equal(t, "ok", ready.Checks.BlobStore)
}
