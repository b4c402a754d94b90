package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/pkg/httpx"
)

// GuardService authorizes bearer tokens for the resource API.
type GuardService struct {
	Tokens *TokenService
}

var _ httpx.TokenAuthenticator = (*GuardService)(nil)

// Authorize resolves bearer and checks it carries requiredScope. An empty
// requiredScope only checks the token is active.
func (s *GuardService) Authorize(ctx context.Context, bearer, requiredScope string) (domain.TokenInfo, error) {
	info, err := s.Tokens.Introspect(ctx, bearer)
	if err != nil {
		if errors.Is(err, ErrInactiveToken) {
			return domain.TokenInfo{}, ErrInactiveToken
		}
		return domain.TokenInfo{}, err
	}
	if requiredScope != "" && !slices.Contains(info.Scopes, requiredScope) {
		return domain.TokenInfo{}, ErrInsufficientScope
	}
	return info, nil
}

// AuthenticateBearer adapts Authorize to the httpx bearer middleware; the
// scope is checked separately by httpx.RequireScope. Inactive tokens are
// reported as httpx.ErrInvalidToken, store failures are passed through.
func (s *GuardService) AuthenticateBearer(ctx context.Context, token string) (httpx.Principal, error) {
	info, err := s.Authorize(ctx, token, "")
	if err != nil {
		if errors.Is(err, ErrInactiveToken) {
			return httpx.Principal{}, fmt.Errorf("%w: %w", httpx.ErrInvalidToken, err)
		}
		return httpx.Principal{}, err
	}
	return httpx.Principal{UserID: info.UserID, ClientID: info.ClientID, Scopes: info.Scopes}, nil
}
