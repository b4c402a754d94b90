package domain

import "time"

// AuthorizationCode is a single-use grant minted at the consent step.
type AuthorizationCode struct {
	ID                  string
	ClientID            string
	UserID              int64
	CodeHash            string
	RedirectURI         string
	Scopes              []string
	CodeChallenge       string
	CodeChallengeMethod string
	ExpiresAt           time.Time
	UsedAt              *time.Time
	CreatedAt           time.Time
}

// Redeemable reports whether the code is unused and unexpired at now.
func (c AuthorizationCode) Redeemable(now time.Time) bool {
	return c.UsedAt == nil && now.Before(c.ExpiresAt)
}
