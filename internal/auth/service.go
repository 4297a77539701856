// Package auth verifies credentials, issues access tokens and enforces the
// role hierarchy for the admin API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"roadtrack/internal/apperr"
	"roadtrack/internal/models"
	"roadtrack/internal/store"
)

var (
	ErrInvalidCredentials = apperr.Unauthenticated("Incorrect email or password")
	ErrAccountDisabled    = apperr.Forbidden("User account is disabled")
	ErrNotAuthenticated   = apperr.Unauthenticated("Not authenticated")
)

// UserStore is the slice of persistence the credential service needs.
type UserStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
}

// Service authenticates admin users and resolves bearer tokens.
type Service struct {
	users  UserStore
	tokens *TokenIssuer
	now    func() time.Time
}

func NewService(users UserStore, tokens *TokenIssuer) *Service {
	return &Service{users: users, tokens: tokens, now: time.Now}
}

// Authenticate checks email/password and returns a fresh access token.
// A successful login records the login time on the user.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	user, err := s.users.FindUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", apperr.Internal("load user", err)
	}
	if !CheckPassword(password, user.HashedPassword) {
		return "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", ErrAccountDisabled
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now().UTC()); err != nil {
		return "", apperr.Internal("record last login", err)
	}

	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return "", apperr.Internal("sign token", err)
	}
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "email": user.Email}).Info("user logged in")
	return token, nil
}

// DecodeToken returns the verified claims of token, or false.
func (s *Service) DecodeToken(token string) (*Claims, bool) {
	return s.tokens.Decode(token)
}

// ResolveCurrentUser maps a bearer token to an active user. Invalid tokens,
// unknown users and disabled users all yield a nil user and no error.
func (s *Service) ResolveCurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, ok := s.tokens.Decode(token)
	if !ok {
		return nil, nil
	}
	id, _ := claims.UserID()
	user, err := s.users.FindUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, apperr.Internal("load current user", err)
	}
	if !user.IsActive {
		return nil, nil
	}
	return user, nil
}

// RequireAuthenticated fails with 401 when no user is present.
func RequireAuthenticated(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	return user, nil
}

// RequireRole fails with 401 without a user and 403 when the user's role
// ranks below required.
func RequireRole(user *models.User, required models.Role) (*models.User, error) {
	if _, err := RequireAuthenticated(user); err != nil {
		return nil, err
	}
	if !user.Role.AtLeast(required) {
		return nil, apperr.Forbidden(fmt.Sprintf("Insufficient permissions. Required: %s", required))
	}
	return user, nil
}
