package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/pixhost/internal/pixhost/domain"
	"github.com/aussiebroadwan/pixhost/internal/pixhost/store"
	"github.com/aussiebroadwan/pixhost/pkg/cryptox"
	"github.com/aussiebroadwan/pixhost/pkg/slogx"
)

const MaxUsernameLength = 64

type UserService struct {
	Store  store.Store
	Hasher *cryptox.Hasher
	Now    func() time.Time
}

// Register creates a user. The username is stored exactly as given and
// compared case-sensitively.
func (s *UserService) Register(ctx context.Context, username, password string) (domain.User, error) {
	l := slogx.FromContext(ctx)

	if strings.TrimSpace(username) == "" {
		return domain.User{}, validationError("username is required")
	}
	if len(username) > MaxUsernameLength {
		return domain.User{}, validationError(fmt.Sprintf("username must be at most %d bytes", MaxUsernameLength))
	}
	if password == "" {
		return domain.User{}, validationError("password is required")
	}

	hash, err := s.Hasher.Hash(password)
	if err != nil {
		return domain.User{}, err
	}

	u := domain.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    clock(s.Now).UTC().Truncate(time.Second),
	}

	u.ID, err = s.Store.Users().CreateUser(ctx, u)
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateUsername
		}
		l.Error("failed to create user", slog.Any("error", err))
		return domain.User{}, err
	}

	l.Info("user registered", slog.Int64("user_id", u.ID))
	return u, nil
}

// Verify checks a username and password pair. Unknown users and wrong
// passwords both return ErrInvalidCredentials after the same hashing work.
func (s *UserService) Verify(ctx context.Context, username, password string) (domain.User, error) {
	u, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		_ = s.Hasher.VerifyDummy(password)
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrInvalidCredentials
		}
		return domain.User{}, err
	}

	if err := s.Hasher.Verify(password, u.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrPasswordMismatch) {
			slogx.FromContext(ctx).Error("stored password hash unreadable",
				slog.Int64("user_id", u.ID),
				slog.Any("error", err),
			)
		}
		return domain.User{}, ErrInvalidCredentials
	}

	return u, nil
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.Store.Users().ListUsers(ctx)
}

// Get fetches a user by id.
func (s *UserService) Get(ctx context.Context, id int64) (domain.User, error) {
	u, err := s.Store.Users().GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.User{}, fmt.Errorf("user %d: %w", id, ErrNotFound)
	}
	return u, err
}
