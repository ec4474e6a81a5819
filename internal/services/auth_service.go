package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zenjournal/zenjournal-backend/internal/auth"
	"github.com/zenjournal/zenjournal-backend/internal/models"
	"github.com/zenjournal/zenjournal-backend/pkg/utils"
)

// ErrInvalidCredentials covers both unknown email and wrong password.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", models.ErrUnauthorized)

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// AuthService implements register, login, logout and session checks.
type AuthService struct {
	users   UserStore
	issuer  *auth.Issuer
	revoker auth.Revoker
}

// NewAuthService wires the stores. revoker may be nil, which disables logout revocation.
func NewAuthService(users UserStore, issuer *auth.Issuer, revoker auth.Revoker) *AuthService {
	return &AuthService{users: users, issuer: issuer, revoker: revoker}
}

// Session is an issued token and the account it belongs to.
type Session struct {
	User   *models.User
	Token  string
	Claims *auth.Claims
}

func (s *AuthService) Issuer() *auth.Issuer { return s.issuer }

// Register validates input, creates the account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*Session, error) {
	email = utils.NormalizeEmail(email)
	name = strings.TrimSpace(name)

	verr := &models.ValidationError{}
	if msg := utils.ValidateEmail(email); msg != "" {
		verr.Add("email", msg)
	}
	if msg := utils.ValidatePassword(password); msg != "" {
		verr.Add("password", msg)
	}
	if msg := utils.ValidateName(name); msg != "" {
		verr.Add("name", msg)
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{ID: uuid.New(), Email: email, Name: name, PasswordHash: hash}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return s.issue(u)
}

// Login returns ErrInvalidCredentials whichever check fails. Unknown emails
// still pay for one hash verification.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = utils.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, models.ErrNotFound) {
		utils.VerifyDummyPassword(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	ok, err := utils.VerifyPassword(password, u.PasswordHash)
	if err != nil {
		log.Error().Err(err).Str("user_id", u.ID.String()).Msg("stored password hash is unreadable")
		return nil, ErrInvalidCredentials
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *AuthService) issue(u *models.User) (*Session, error) {
	token, claims, err := s.issuer.Sign(u)
	if err != nil {
		return nil, err
	}
	return &Session{User: u, Token: token, Claims: claims}, nil
}

// Authenticate verifies the token and checks the revocation list. A
// revocation lookup failure is logged and the token is accepted.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*auth.Claims, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, err
	}
	if s.revoker == nil {
		return claims, nil
	}
	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		log.Warn().Err(err).Msg("token revocation check failed")
		return claims, nil
	}
	if revoked {
		return nil, auth.ErrTokenRevoked
	}
	return claims, nil
}

// Logout revokes the token until it would have expired.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revoker == nil || claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}
