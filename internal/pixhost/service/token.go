package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store"
	"github.com/aussiebroadwan/pixhost/pkg/cryptox"
	"github.com/aussiebroadwan/pixhost/pkg/idx"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

const (
	DefaultAccessTTL = time.Hour
	DefaultCodeTTL   = 5 * time.Minute
)

// Token type hints accepted by revocation and introspection (RFC 7009).
const (
	HintAccessToken  = "access_token"
	HintRefreshToken = "refresh_token"
)

type TokenService struct {
	Store     store.Store
	Users     *UserService
	Clients   *ClientService
	AccessTTL time.Duration
	CodeTTL   time.Duration
	Now       func() time.Time
}

// PKCE is the proof key a public client bound to an authorization request.
type PKCE struct {
	Challenge string
	Method    string
}

// TokenRequest is a parsed token endpoint body.
type TokenRequest struct {
	GrantType    string
	Username     string
	Password     string
	Code         string
	RedirectURI  string
	CodeVerifier string
	RefreshToken string
	Scopes       []string
}

func (s *TokenService) now() time.Time {
	return clock(s.Now).UTC().Truncate(time.Second)
}

func (s *TokenService) accessTTL() time.Duration {
	if s.AccessTTL <= 0 {
		return DefaultAccessTTL
	}
	return s.AccessTTL.Truncate(time.Second)
}

func (s *TokenService) codeTTL() time.Duration {
	if s.CodeTTL <= 0 {
		return DefaultCodeTTL
	}
	return s.CodeTTL
}

// Exchange dispatches an authenticated client's token request to the
// handler for its grant type.
func (s *TokenService) Exchange(ctx context.Context, client domain.Client, req TokenRequest) (domain.IssuedToken, error) {
	switch req.GrantType {
	case domain.GrantPassword:
		return s.PasswordGrant(ctx, client, req.Username, req.Password, req.Scopes)
	case domain.GrantAuthorizationCode:
		return s.AuthorizationCodeGrant(ctx, client, req.Code, req.RedirectURI, req.CodeVerifier)
	case domain.GrantRefreshToken:
		return s.RefreshGrant(ctx, client, req.RefreshToken, req.Scopes)
	default:
		// implicit tokens are only handed out through the authorize redirect
		return domain.IssuedToken{}, ErrUnsupportedGrantType
	}
}

// PasswordGrant implements the resource owner password credentials grant.
func (s *TokenService) PasswordGrant(
	ctx context.Context,
	client domain.Client,
	username, password string,
	scopes []string,
) (domain.IssuedToken, error) {
	if !client.AllowsGrant(domain.GrantPassword) {
		return domain.IssuedToken{}, ErrInvalidGrant
	}
	if username == "" || password == "" {
		return domain.IssuedToken{}, validationError("username and password are required")
	}

	u, err := s.Users.Verify(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return domain.IssuedToken{}, ErrInvalidGrant
		}
		return domain.IssuedToken{}, err
	}

	granted, err := s.Clients.ValidateScope(client, scopes)
	if err != nil {
		return domain.IssuedToken{}, err
	}

	return s.IssueAccessToken(ctx, client, u.ID, granted, client.AllowsGrant(domain.GrantRefreshToken))
}

// AuthorizationCodeGrant redeems a code and issues a token pair for the
// code's user and scope. The redemption and the issuance share a
// transaction. Like the password grant, the refresh token is only paired
// for clients allowed the refresh_token grant.
func (s *TokenService) AuthorizationCodeGrant(
	ctx context.Context,
	client domain.Client,
	code, redirectURI, verifier string,
) (domain.IssuedToken, error) {
	if !client.AllowsGrant(domain.GrantAuthorizationCode) {
		return domain.IssuedToken{}, ErrUnauthorizedClient
	}
	if code == "" {
		return domain.IssuedToken{}, validationError("code is required")
	}

	var issued domain.IssuedToken
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		ac, err := s.redeemCode(ctx, tx, client, code, redirectURI, verifier)
		if err != nil {
			return err
		}
		issued, err = s.issueAccessToken(ctx, tx, client, ac.UserID, ac.Scopes, client.AllowsGrant(domain.GrantRefreshToken))
		return err
	})
	if err != nil {
		return domain.IssuedToken{}, err
	}

	slogx.FromContext(ctx).Info("authorization code redeemed",
		slog.String("client_id", client.ID),
		slog.Int64("user_id", issued.UserID),
	)
	return issued, nil
}

// RefreshGrant rotates a refresh token: the presented one is revoked and a
// new pair is issued. A requested scope may only narrow the original.
func (s *TokenService) RefreshGrant(
	ctx context.Context,
	client domain.Client,
	refreshToken string,
	scopes []string,
) (domain.IssuedToken, error) {
	if !client.AllowsGrant(domain.GrantRefreshToken) {
		return domain.IssuedToken{}, ErrUnauthorizedClient
	}
	if refreshToken == "" {
		return domain.IssuedToken{}, validationError("refresh_token is required")
	}

	now := s.now()
	fp := cryptox.FingerprintToken(refreshToken)

	var issued domain.IssuedToken
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		old, err := tx.Tokens().GetTokenByRefreshHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidGrant
			}
			return err
		}

		if old.ClientID != client.ID || !old.RefreshActive(now) {
			return ErrInvalidGrant
		}

		granted := old.Scopes
		if requested := dedupe(scopes); len(requested) > 0 {
			if !isSubset(requested, old.Scopes) {
				return ErrInvalidScope
			}
			granted = requested
		}

		// A concurrent rotation of the same token loses here.
		if err := tx.Tokens().RevokeRefreshToken(ctx, old.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidGrant
			}
			return err
		}

		issued, err = s.issueAccessToken(ctx, tx, client, old.UserID, granted, true)
		return err
	})
	if err != nil {
		return domain.IssuedToken{}, err
	}
	return issued, nil
}

// IssueAccessToken mints a token (and optionally a paired refresh token)
// and stores its fingerprints.
func (s *TokenService) IssueAccessToken(
	ctx context.Context,
	client domain.Client,
	userID int64,
	scopes []string,
	withRefresh bool,
) (domain.IssuedToken, error) {
	return s.issueAccessToken(ctx, s.Store, client, userID, scopes, withRefresh)
}

func (s *TokenService) issueAccessToken(
	ctx context.Context,
	st store.Store,
	client domain.Client,
	userID int64,
	scopes []string,
	withRefresh bool,
) (domain.IssuedToken, error) {
	now := s.now()

	for attempt := 1; ; attempt++ {
		access, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return domain.IssuedToken{}, err
		}

		var refresh string
		if withRefresh {
			if refresh, err = cryptox.GenerateToken(cryptox.TokenSize256); err != nil {
				return domain.IssuedToken{}, err
			}
		}

		tok := domain.Token{
			ID:              idx.NewAt(now).String(),
			ClientID:        client.ID,
			UserID:          userID,
			Scopes:          scopes,
			AccessTokenHash: cryptox.FingerprintToken(access),
			IssuedAt:        now,
			ExpiresIn:       s.accessTTL(),
		}
		if refresh != "" {
			tok.RefreshTokenHash = cryptox.FingerprintToken(refresh)
		}

		err = st.Tokens().CreateToken(ctx, tok)
		if err == nil {
			return domain.IssuedToken{Token: tok, AccessToken: access, RefreshToken: refresh}, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) || attempt == maxIDAttempts {
			return domain.IssuedToken{}, err
		}
		slogx.FromContext(ctx).Warn("token fingerprint collision, regenerating", slog.Int("attempt", attempt))
	}
}

// IssueAuthorizationCode mints a single-use code bound to the client,
// user, redirect URI, scope and PKCE challenge. Only its fingerprint is
// stored.
func (s *TokenService) IssueAuthorizationCode(
	ctx context.Context,
	client domain.Client,
	userID int64,
	redirectURI string,
	scopes []string,
	pkce PKCE,
) (string, error) {
	now := s.now()

	for attempt := 1; ; attempt++ {
		code, err := cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return "", err
		}

		err = s.Store.AuthorizationCodes().CreateAuthorizationCode(ctx, domain.AuthorizationCode{
			ID:                  idx.NewAt(now).String(),
			ClientID:            client.ID,
			UserID:              userID,
			CodeHash:            cryptox.FingerprintToken(code),
			RedirectURI:         redirectURI,
			Scopes:              scopes,
			CodeChallenge:       pkce.Challenge,
			CodeChallengeMethod: pkce.Method,
			ExpiresAt:           now.Add(s.codeTTL()),
			CreatedAt:           now,
		})
		if err == nil {
			return code, nil
		}
		if !errors.Is(err, store.ErrAlreadyExists) || attempt == maxIDAttempts {
			return "", err
		}
	}
}

// RedeemCode consumes an authorization code in its own transaction.
func (s *TokenService) RedeemCode(
	ctx context.Context,
	client domain.Client,
	code, redirectURI, verifier string,
) (domain.AuthorizationCode, error) {
	var ac domain.AuthorizationCode
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		ac, err = s.redeemCode(ctx, tx, client, code, redirectURI, verifier)
		return err
	})
	return ac, err
}

// redeemCode checks every binding of the code and then marks it used with
// a compare-and-swap, so at most one caller ever wins a given code.
func (s *TokenService) redeemCode(
	ctx context.Context,
	tx store.Tx,
	client domain.Client,
	code, redirectURI, verifier string,
) (domain.AuthorizationCode, error) {
	now := s.now()

	ac, err := tx.AuthorizationCodes().GetAuthorizationCodeByHash(ctx, cryptox.FingerprintToken(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthorizationCode{}, ErrInvalidGrant
		}
		return domain.AuthorizationCode{}, err
	}

	switch {
	case !ac.Redeemable(now):
		return domain.AuthorizationCode{}, ErrInvalidGrant
	case ac.ClientID != client.ID:
		return domain.AuthorizationCode{}, ErrInvalidGrant
	case ac.RedirectURI != "" && ac.RedirectURI != redirectURI:
		return domain.AuthorizationCode{}, ErrInvalidGrant
	}

	if ac.CodeChallenge != "" {
		if verifier == "" || !cryptox.VerifyPKCE(verifier, ac.CodeChallenge, ac.CodeChallengeMethod) {
			return domain.AuthorizationCode{}, ErrInvalidGrant
		}
	}

	if err := tx.AuthorizationCodes().MarkAuthorizationCodeUsed(ctx, ac.ID, now); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.AuthorizationCode{}, ErrInvalidGrant
		}
		return domain.AuthorizationCode{}, err
	}
	ac.UsedAt = &now
	return ac, nil
}

// Introspect resolves an access token for the resource guard.
func (s *TokenService) Introspect(ctx context.Context, accessToken string) (domain.TokenInfo, error) {
	if accessToken == "" {
		return domain.TokenInfo{}, ErrInactiveToken
	}

	tok, err := s.Store.Tokens().GetTokenByAccessHash(ctx, cryptox.FingerprintToken(accessToken))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenInfo{}, ErrInactiveToken
		}
		return domain.TokenInfo{}, err
	}
	if !tok.AccessActive(s.now()) {
		return domain.TokenInfo{}, ErrInactiveToken
	}
	return s.tokenInfo(ctx, tok, HintAccessToken)
}

// IntrospectAny implements RFC 7662 for the calling client. Tokens issued
// to other clients are reported as inactive.
func (s *TokenService) IntrospectAny(
	ctx context.Context,
	client domain.Client,
	token, hint string,
) (domain.TokenInfo, error) {
	tok, kind, err := s.findToken(ctx, token, hint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenInfo{}, ErrInactiveToken
		}
		return domain.TokenInfo{}, err
	}
	if tok.ClientID != client.ID {
		return domain.TokenInfo{}, ErrInactiveToken
	}

	now := s.now()
	active := tok.AccessActive(now)
	if kind == HintRefreshToken {
		active = tok.RefreshActive(now)
	}
	if !active {
		return domain.TokenInfo{}, ErrInactiveToken
	}
	return s.tokenInfo(ctx, tok, kind)
}

// Revoke implements RFC 7009. Only the presented token is revoked; its
// pair stays usable. Unknown tokens and tokens of other clients are
// ignored.
func (s *TokenService) Revoke(ctx context.Context, client domain.Client, token, hint string) error {
	l := slogx.FromContext(ctx)

	tok, kind, err := s.findToken(ctx, token, hint)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if tok.ClientID != client.ID {
		l.Warn("client tried to revoke a foreign token", slog.String("client_id", client.ID))
		return nil
	}

	if kind == HintRefreshToken {
		err = s.Store.Tokens().RevokeRefreshToken(ctx, tok.ID)
	} else {
		err = s.Store.Tokens().RevokeAccessToken(ctx, tok.ID)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}

	l.Info("token revoked", slog.String("token_id", tok.ID), slog.String("token_type", kind))
	return nil
}

// findToken looks a raw token up as the hinted type first and then as the
// other type, returning which one matched.
func (s *TokenService) findToken(ctx context.Context, raw, hint string) (domain.Token, string, error) {
	if raw == "" {
		return domain.Token{}, "", store.ErrNotFound
	}

	order := []string{HintAccessToken, HintRefreshToken}
	switch hint {
	case "", HintAccessToken:
	case HintRefreshToken:
		order = []string{HintRefreshToken, HintAccessToken}
	default:
		return domain.Token{}, "", ErrUnsupportedTokenType
	}

	fp := cryptox.FingerprintToken(raw)
	for _, kind := range order {
		var (
			tok domain.Token
			err error
		)
		if kind == HintAccessToken {
			tok, err = s.Store.Tokens().GetTokenByAccessHash(ctx, fp)
		} else {
			tok, err = s.Store.Tokens().GetTokenByRefreshHash(ctx, fp)
		}
		if err == nil {
			return tok, kind, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return domain.Token{}, "", err
		}
	}
	return domain.Token{}, "", store.ErrNotFound
}

func (s *TokenService) tokenInfo(ctx context.Context, tok domain.Token, kind string) (domain.TokenInfo, error) {
	info := domain.TokenInfo{
		TokenID:   tok.ID,
		ClientID:  tok.ClientID,
		UserID:    tok.UserID,
		Scopes:    tok.Scopes,
		TokenType: kind,
		IssuedAt:  tok.IssuedAt,
		ExpiresAt: tok.AccessExpiresAt(),
	}
	if kind == HintRefreshToken {
		info.ExpiresAt = tok.RefreshExpiresAt()
	}

	u, err := s.Store.Users().GetUserByID(ctx, tok.UserID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return domain.TokenInfo{}, err
	}
	info.Username = u.Username
	return info, nil
}
