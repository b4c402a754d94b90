package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store"
	"github.com/aussiebroadwan/pixhost/pkg/cryptox"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

// maxIDAttempts bounds regeneration of random identifiers on collision.
const maxIDAttempts = 5

var (
	supportedGrantTypes = []string{
		domain.GrantAuthorizationCode,
		domain.GrantPassword,
		domain.GrantImplicit,
		domain.GrantRefreshToken,
	}
	supportedResponseTypes = []string{domain.ResponseTypeCode, domain.ResponseTypeToken}
	supportedAuthMethods   = []string{
		domain.AuthMethodClientSecretBasic,
		domain.AuthMethodClientSecretPost,
		domain.AuthMethodNone,
	}
)

type ClientService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Now    func() time.Time
}

// ClientCredentials is what a caller presented at the token endpoint.
// Method records how it was presented, not what the client registered.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string
	Method       string
}

// Register creates a client owned by ownerUserID. The plaintext secret is
// returned once and is empty for clients using the "none" auth method.
func (s *ClientService) Register(
	ctx context.Context,
	ownerUserID int64,
	meta domain.ClientMetadata,
) (domain.Client, string, error) {
	l := slogx.FromContext(ctx)

	if ownerUserID == 0 {
		return domain.Client{}, "", ErrLoginRequired
	}

	meta, err := normalizeMetadata(meta)
	if err != nil {
		return domain.Client{}, "", err
	}

	var secret, secretHash string
	if meta.TokenEndpointAuthMethod != domain.AuthMethodNone {
		secret, err = cryptox.GenerateToken(cryptox.TokenSize256)
		if err != nil {
			return domain.Client{}, "", err
		}
		secretHash, err = s.Hasher.Hash(secret)
		if err != nil {
			return domain.Client{}, "", err
		}
	}

	c := domain.Client{
		SecretHash:              secretHash,
		UserID:                  ownerUserID,
		Name:                    meta.Name,
		URI:                     meta.URI,
		GrantTypes:              meta.GrantTypes,
		RedirectURIs:            meta.RedirectURIs,
		ResponseTypes:           meta.ResponseTypes,
		Scopes:                  meta.Scopes,
		TokenEndpointAuthMethod: meta.TokenEndpointAuthMethod,
		IssuedAt:                clock(s.Now).UTC().Truncate(time.Second),
	}

	for attempt := 1; ; attempt++ {
		c.ID, err = cryptox.GenerateToken(cryptox.TokenSize144)
		if err != nil {
			return domain.Client{}, "", err
		}

		err = s.Store.Clients().CreateClient(ctx, c)
		if err == nil {
			break
		}
		if !errors.Is(err, store.ErrAlreadyExists) || attempt == maxIDAttempts {
			l.Error("failed to create client", slog.Any("error", err), slog.Int("attempt", attempt))
			return domain.Client{}, "", err
		}
	}

	l.Info("client registered",
		slog.String("client_id", c.ID),
		slog.Int64("user_id", ownerUserID),
		slog.String("auth_method", c.TokenEndpointAuthMethod),
	)
	return c, secret, nil
}

// normalizeMetadata validates client metadata and fills defaults.
func normalizeMetadata(meta domain.ClientMetadata) (domain.ClientMetadata, error) {
	meta.Name = strings.TrimSpace(meta.Name)
	meta.URI = strings.TrimSpace(meta.URI)
	meta.GrantTypes = dedupe(meta.GrantTypes)
	meta.RedirectURIs = dedupe(meta.RedirectURIs)
	meta.ResponseTypes = dedupe(meta.ResponseTypes)
	meta.Scopes = dedupe(meta.Scopes)

	if len(meta.GrantTypes) == 0 {
		return meta, validationError("at least one grant_type is required")
	}
	for _, g := range meta.GrantTypes {
		if !slices.Contains(supportedGrantTypes, g) {
			return meta, validationError(fmt.Sprintf("unsupported grant_type %q", g))
		}
	}

	if len(meta.RedirectURIs) == 0 {
		return meta, validationError("at least one redirect_uri is required")
	}
	for _, raw := range meta.RedirectURIs {
		u, err := url.Parse(raw)
		if err != nil || !u.IsAbs() || u.Fragment != "" {
			return meta, validationError(fmt.Sprintf("redirect_uri %q must be absolute without a fragment", raw))
		}
	}

	if len(meta.ResponseTypes) == 0 {
		if slices.Contains(meta.GrantTypes, domain.GrantAuthorizationCode) {
			meta.ResponseTypes = append(meta.ResponseTypes, domain.ResponseTypeCode)
		}
		if slices.Contains(meta.GrantTypes, domain.GrantImplicit) {
			meta.ResponseTypes = append(meta.ResponseTypes, domain.ResponseTypeToken)
		}
	}
	for _, rt := range meta.ResponseTypes {
		if !slices.Contains(supportedResponseTypes, rt) {
			return meta, validationError(fmt.Sprintf("unsupported response_type %q", rt))
		}
	}

	if meta.TokenEndpointAuthMethod == "" {
		meta.TokenEndpointAuthMethod = domain.AuthMethodClientSecretBasic
	}
	if !slices.Contains(supportedAuthMethods, meta.TokenEndpointAuthMethod) {
		return meta, validationError(fmt.Sprintf("unsupported token_endpoint_auth_method %q", meta.TokenEndpointAuthMethod))
	}

	return meta, nil
}

// Lookup fetches a client by id.
func (s *ClientService) Lookup(ctx context.Context, clientID string) (domain.Client, error) {
	if clientID == "" {
		return domain.Client{}, fmt.Errorf("client: %w", ErrNotFound)
	}
	c, err := s.Store.Clients().GetClientByID(ctx, clientID)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Client{}, fmt.Errorf("client %s: %w", clientID, ErrNotFound)
	}
	return c, err
}

// ValidateRedirect reports an exact string match against the registry.
func (s *ClientService) ValidateRedirect(c domain.Client, uri string) bool {
	return uri != "" && c.HasRedirectURI(uri)
}

// ValidateScope narrows requested to what the client was registered for.
// An empty request means the client's full scope.
func (s *ClientService) ValidateScope(c domain.Client, requested []string) ([]string, error) {
	if len(requested) == 0 {
		return slices.Clone(c.Scopes), nil
	}
	granted := intersectScopes(requested, c.Scopes)
	if len(granted) == 0 {
		return nil, ErrInvalidScope
	}
	return granted, nil
}

// Authenticate enforces the client's registered token endpoint auth method.
func (s *ClientService) Authenticate(ctx context.Context, creds ClientCredentials) (domain.Client, error) {
	l := slogx.FromContext(ctx)

	if creds.ClientID == "" {
		return domain.Client{}, ErrInvalidClient
	}

	c, err := s.Store.Clients().GetClientByID(ctx, creds.ClientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = s.Hasher.VerifyDummy(creds.ClientSecret)
			return domain.Client{}, ErrInvalidClient
		}
		return domain.Client{}, err
	}

	if creds.Method != c.TokenEndpointAuthMethod {
		l.Info("client used the wrong auth method",
			slog.String("client_id", c.ID),
			slog.String("registered", c.TokenEndpointAuthMethod),
			slog.String("presented", creds.Method),
		)
		return domain.Client{}, ErrInvalidClient
	}

	if c.IsPublic() {
		if creds.ClientSecret != "" {
			return domain.Client{}, ErrInvalidClient
		}
		return c, nil
	}

	if creds.ClientSecret == "" || s.Hasher.Verify(creds.ClientSecret, c.SecretHash) != nil {
		l.Info("client secret verification failed", slog.String("client_id", c.ID))
		return domain.Client{}, ErrInvalidClient
	}
	return c, nil
}

// ListForUser returns the clients a developer registered.
func (s *ClientService) ListForUser(ctx context.Context, userID int64) ([]domain.Client, error) {
	return s.Store.Clients().ListClientsByUser(ctx, userID)
}

// intersectScopes keeps the entries of requested that allowed contains, in
// requested order and without duplicates.
func intersectScopes(requested, allowed []string) []string {
	set := make(map[string]struct{}, len(allowed))
	for _, s := range allowed {
		set[s] = struct{}{}
	}
	var out []string
	for _, s := range requested {
		if _, ok := set[s]; ok {
			out = append(out, s)
		}
	}
	return dedupe(out)
}

func isSubset(sub, super []string) bool {
	for _, s := range sub {
		if !slices.Contains(super, s) {
			return false
		}
	}
	return true
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
