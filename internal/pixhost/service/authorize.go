package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

// AuthorizeState is where an authorization request is in the consent flow.
type AuthorizeState int

const (
	StateRequestReceived AuthorizeState = iota
	StateClientValidated
	StateNeedsConsent
	StateAutoConsent
	StateGranted
	StateDenied
)

func (s AuthorizeState) String() string {
	switch s {
	case StateRequestReceived:
		return "request_received"
	case StateClientValidated:
		return "client_validated"
	case StateNeedsConsent:
		return "needs_consent"
	case StateAutoConsent:
		return "auto_consent"
	case StateGranted:
		return "granted"
	case StateDenied:
		return "denied"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// AuthorizeService drives the authorization endpoint.
type AuthorizeService struct {
	Clients *ClientService
	Tokens  *TokenService
}

// AuthorizeRequest is the raw query of an authorization request.
type AuthorizeRequest struct {
	ResponseType        string
	ClientID            string
	RedirectURI         string
	Scopes              []string
	State               string
	CodeChallenge       string
	CodeChallengeMethod string
}

// ConsentRequest is an authorization request whose client and redirect URI
// are trusted. From here on every failure goes back to RedirectURI.
type ConsentRequest struct {
	State        AuthorizeState
	Client       domain.Client
	ResponseType string
	RedirectURI  string

	// RequestedRedirectURI is empty when the request relied on the
	// client's only registered URI.
	RequestedRedirectURI string
	Scopes               []string
	OAuthState           string
	PKCE                 PKCE
}

// AuthorizeResult is a finished authorization request.
type AuthorizeResult struct {
	State       AuthorizeState
	RedirectURL string
}

// RedirectError is an authorization failure that is reported to the
// client by redirecting the user agent.
type RedirectError struct {
	Err         error
	RedirectURL string
}

func (e *RedirectError) Error() string { return e.Err.Error() }
func (e *RedirectError) Unwrap() error { return e.Err }

// Validate checks the client and redirect URI first, since a request
// failing those must not redirect anywhere, and then the rest of the
// request.
func (s *AuthorizeService) Validate(ctx context.Context, req AuthorizeRequest) (*ConsentRequest, error) {
	client, err := s.Clients.Lookup(ctx, req.ClientID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidClient
		}
		return nil, err
	}

	redirectURI := req.RedirectURI
	if redirectURI == "" {
		if len(client.RedirectURIs) != 1 {
			return nil, ErrRedirectURIMismatch
		}
		redirectURI = client.RedirectURIs[0]
	} else if !s.Clients.ValidateRedirect(client, redirectURI) {
		slogx.FromContext(ctx).Warn("authorize redirect_uri mismatch",
			slog.String("client_id", client.ID),
			slog.String("redirect_uri", redirectURI),
		)
		return nil, ErrRedirectURIMismatch
	}

	consent := &ConsentRequest{
		State:                StateClientValidated,
		Client:               client,
		ResponseType:         req.ResponseType,
		RedirectURI:          redirectURI,
		RequestedRedirectURI: req.RedirectURI,
		OAuthState:           req.State,
	}

	fail := func(err error) (*ConsentRequest, error) {
		return nil, &RedirectError{Err: err, RedirectURL: consent.errorRedirect(err)}
	}

	switch req.ResponseType {
	case domain.ResponseTypeCode, domain.ResponseTypeToken:
	default:
		consent.ResponseType = ""
		return fail(ErrUnsupportedResponseType)
	}
	if !client.AllowsResponseType(req.ResponseType) {
		return fail(ErrUnsupportedResponseType)
	}

	grant := domain.GrantAuthorizationCode
	if req.ResponseType == domain.ResponseTypeToken {
		grant = domain.GrantImplicit
	}
	if !client.AllowsGrant(grant) {
		return fail(ErrUnauthorizedClient)
	}

	consent.Scopes, err = s.Clients.ValidateScope(client, dedupe(req.Scopes))
	if err != nil {
		return fail(err)
	}

	if req.CodeChallenge != "" {
		if req.ResponseType != domain.ResponseTypeCode {
			return fail(validationError("code_challenge is only valid with response_type=code"))
		}
		method := req.CodeChallengeMethod
		if method == "" {
			method = "plain"
		}
		if method != "plain" && method != "S256" {
			return fail(validationError(fmt.Sprintf("unsupported code_challenge_method %q", method)))
		}
		consent.PKCE = PKCE{Challenge: req.CodeChallenge, Method: method}
	}

	return consent, nil
}

// Prompt finishes a GET on the authorization endpoint. The owner of a
// client consents implicitly; everyone else is shown the NeedsConsent
// prompt.
func (s *AuthorizeService) Prompt(ctx context.Context, consent *ConsentRequest, userID int64) (AuthorizeResult, error) {
	if userID != 0 && consent.Client.UserID == userID {
		consent.State = StateAutoConsent
		return s.Decide(ctx, consent, userID, true)
	}
	consent.State = StateNeedsConsent
	return AuthorizeResult{State: StateNeedsConsent}, nil
}

// Decide applies the user's answer to the consent prompt.
func (s *AuthorizeService) Decide(
	ctx context.Context,
	consent *ConsentRequest,
	userID int64,
	confirmed bool,
) (AuthorizeResult, error) {
	l := slogx.FromContext(ctx)

	if !confirmed {
		consent.State = StateDenied
		l.Info("authorization denied", slog.String("client_id", consent.Client.ID))
		return AuthorizeResult{State: StateDenied, RedirectURL: consent.errorRedirect(ErrAccessDenied)}, nil
	}
	if userID == 0 {
		return AuthorizeResult{}, ErrLoginRequired
	}

	var location string
	switch consent.ResponseType {
	case domain.ResponseTypeCode:
		code, err := s.Tokens.IssueAuthorizationCode(ctx, consent.Client, userID,
			consent.RequestedRedirectURI, consent.Scopes, consent.PKCE)
		if err != nil {
			return AuthorizeResult{}, err
		}
		params := url.Values{"code": {code}}
		if consent.OAuthState != "" {
			params.Set("state", consent.OAuthState)
		}
		location = withQuery(consent.RedirectURI, params)

	case domain.ResponseTypeToken:
		tok, err := s.Tokens.IssueAccessToken(ctx, consent.Client, userID, consent.Scopes, false)
		if err != nil {
			return AuthorizeResult{}, err
		}
		params := url.Values{
			"access_token": {tok.AccessToken},
			"token_type":   {domain.BearerTokenType},
			"expires_in":   {strconv.FormatInt(int64(tok.ExpiresIn.Seconds()), 10)},
			"scope":        {strings.Join(tok.Scopes, " ")},
		}
		if consent.OAuthState != "" {
			params.Set("state", consent.OAuthState)
		}
		location = withFragment(consent.RedirectURI, params)

	default:
		return AuthorizeResult{}, ErrUnsupportedResponseType
	}

	consent.State = StateGranted
	l.Info("authorization granted",
		slog.String("client_id", consent.Client.ID),
		slog.Int64("user_id", userID),
		slog.String("response_type", consent.ResponseType),
	)
	return AuthorizeResult{State: StateGranted, RedirectURL: location}, nil
}

// errorRedirect builds the RFC 6749 error redirect. Implicit requests
// carry errors in the fragment.
func (c *ConsentRequest) errorRedirect(err error) string {
	params := url.Values{}
	var se *Error
	if errors.As(err, &se) {
		params.Set("error", se.Code)
		if se.Description != "" {
			params.Set("error_description", se.Description)
		}
	} else {
		params.Set("error", "server_error")
	}
	if c.OAuthState != "" {
		params.Set("state", c.OAuthState)
	}

	if c.ResponseType == domain.ResponseTypeToken {
		return withFragment(c.RedirectURI, params)
	}
	return withQuery(c.RedirectURI, params)
}

func withQuery(base string, params url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func withFragment(base string, params url.Values) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Fragment = ""
	u.RawFragment = ""
	return u.String() + "#" + params.Encode()
}
