/*
Package authsdk provides a client SDK for the pixhost service: an OAuth2
authorization server in front of an image hosting API.

# Overview

The package is organized around two main types:

  - SDKClient: account operations, OAuth2 flows and health checks
  - Session: image API operations with automatic token refresh

SDKClient keeps a cookie jar, so once logged in it acts as a browser would
at the account and consent endpoints:

	client := authsdk.NewSDKClient("https://pixhost.example.com")

	_, err := client.Register(ctx, "alice", "secret")
	_, err = client.Login(ctx, "alice", "secret")

	app, err := client.CreateClient(ctx, authsdk.CreateClientRequest{
		ClientName:              "gallery",
		GrantTypes:              []string{"authorization_code", "refresh_token"},
		RedirectURIs:            []string{"https://gallery.example.com/callback"},
		ResponseTypes:           []string{"code"},
		Scope:                   "profile",
		TokenEndpointAuthMethod: authsdk.AuthMethodClientSecretBasic,
	})

# Authentication Flows

Clients authenticate at the token endpoint with ClientAuth. An empty Method
picks HTTP Basic when a secret is set and a bare client_id otherwise.

	auth := authsdk.ClientAuth{ClientID: app.ClientID, ClientSecret: app.ClientSecret}

Authorization code with PKCE, as the logged-in user:

	session, err := client.AuthorizeAndExchange(ctx, auth, redirectURI, []string{"profile"})

Or step by step, when a real browser answers the consent prompt:

	pkce, _ := authsdk.GeneratePKCEChallenge()
	u := client.BuildAuthorizeURL(authsdk.AuthorizeParams{ClientID: app.ClientID, RedirectURI: redirectURI, PKCE: pkce})
	// ... browser lands on the callback ...
	cb, err := authsdk.ParseAuthorizationCallback(callbackURL)
	tokens, err := client.ExchangeAuthorizationCode(ctx, auth, cb.Code, redirectURI, pkce.Verifier)

Password grant:

	session, err := client.AuthenticateWithPassword(ctx, auth, "alice", "secret", []string{"profile"})

Refresh token grant:

	session, err := client.AuthenticateWithRefreshToken(ctx, auth, refreshToken)

Revocation and introspection:

	err := client.RevokeToken(ctx, auth, token, authsdk.TokenTypeHintRefreshToken)
	info, err := client.Introspect(ctx, auth, token, "")

# Sessions

Sessions refresh the access token shortly before it expires. Refresh tokens
rotate: each refresh spends the old one.

	users, err := session.ListUsers(ctx)
	upload, err := session.UploadImage(ctx, "sunset", "sunset.png", file)
	image, err := session.GetImage(ctx, userID, upload.Image.ID)
	err = session.DeleteImage(ctx, userID, upload.Image.ID)

# Scope Checking

With CheckScopes enabled (the default) Session methods fail locally when
the token lacks ResourceScope, instead of making a request the server would
reject with insufficient_scope.

# Errors

Server errors are returned as *OAuth2Error, carrying the HTTP status and the
RFC 6749 error code:

	var oe *authsdk.OAuth2Error
	if errors.As(err, &oe) && oe.Code == authsdk.ErrorCodeInvalidGrant {
		// log in again
	}
*/
package authsdk
