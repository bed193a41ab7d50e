// Package auth implements account registration and the login session flow.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/karibu-app/karibu-backend/internal/users"
	"github.com/karibu-app/karibu-backend/pkg/auth"
	"github.com/karibu-app/karibu-backend/pkg/auth/session"
	"github.com/karibu-app/karibu-backend/pkg/config"
	"github.com/karibu-app/karibu-backend/pkg/db"
	"github.com/karibu-app/karibu-backend/pkg/db/models"
	"github.com/karibu-app/karibu-backend/pkg/enums"
	pkgerrors "github.com/karibu-app/karibu-backend/pkg/errors"
	"github.com/karibu-app/karibu-backend/pkg/security"
)

const minPasswordLength = 8

type userStore interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type sessionManager interface {
	Issue(ctx context.Context, accessID string, userID uuid.UUID) error
	Revoke(ctx context.Context, accessID string) error
}

// Service exposes registration, login, and logout.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Logout(ctx context.Context, accessID string) error
}

// RegisterInput holds the validated payload of a diner signup.
type RegisterInput struct {
	Email    string
	Password string
}

// LoginResult carries the minted token and the authenticated account.
type LoginResult struct {
	Token string
	User  *models.User
}

type service struct {
	users    userStore
	sessions sessionManager
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	now      func() time.Time
}

// NewService builds the auth service.
func NewService(userRepo userStore, sessions sessionManager, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) (Service, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		users:    userRepo,
		sessions: sessions,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		now:      time.Now,
	}, nil
}

// Register creates a diner account. Owner and admin accounts are provisioned
// elsewhere, never through the public signup.
func (s *service) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	email := users.NormalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hashing password")
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleClient,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating account")
	}
	return user, nil
}

// Login verifies the credentials, mints an access token, and opens the
// server-side session keyed by the token's jti.
func (s *service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.FindByEmail(ctx, users.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidCredentials()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading account")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verifying password")
	}
	if !ok {
		return nil, invalidCredentials()
	}

	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID:       user.ID,
		Role:         user.Role,
		RestaurantID: user.RestaurantID,
		JTI:          accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "minting access token")
	}

	if err := s.sessions.Issue(ctx, accessID, user.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "opening session")
	}
	return &LoginResult{Token: token, User: user}, nil
}

// Logout revokes the server-side session. The token itself expires on its
// own schedule; revocation makes it unusable immediately.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if accessID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "missing session id")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoking session")
	}
	return nil
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
