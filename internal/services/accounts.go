package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/diewo77/go-bistro/auth"
	"github.com/diewo77/go-bistro/internal/apperr"
	"github.com/diewo77/go-bistro/internal/cache"
	"github.com/diewo77/go-bistro/internal/logger"
	"github.com/diewo77/go-bistro/internal/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	// SignupProfile is assigned to self-registered users.
	SignupProfile = "viewer"

	TokenAttempts = 10
	TokenWindow   = time.Minute
)

var errBadCredentials = apperr.New(apperr.CodeUnauthorized, "invalid email or password")

// AccountService authenticates back-office users and issues API tokens.
type AccountService struct {
	base
	tokens *auth.Tokens
	limits cache.Store
}

func NewAccountService(db *gorm.DB, logg *logger.Logger, tokens *auth.Tokens, limits cache.Store) *AccountService {
	return &AccountService{base: newBase(db, logg), tokens: tokens, limits: limits}
}

// Authenticate checks the password of the user with email.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errBadCredentials
	}
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errBadCredentials
	}
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, errBadCredentials
	}
	return &user, nil
}

type SignupInput struct {
	Name     string `json:"name" validate:"max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register creates a user with the read-only profile.
func (s *AccountService) Register(ctx context.Context, in SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, apperr.New(apperr.CodeValidation, "email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "hashing password")
	}
	user := models.User{Email: email, Name: strings.TrimSpace(in.Name), Password: string(hash)}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
			return apperr.FromDB(err, "user")
		}
		if n > 0 {
			return apperr.New(apperr.CodeConflict, "email already exists")
		}
		var profile models.Profile
		switch err := tx.Where("name = ?", SignupProfile).First(&profile).Error; {
		case err == nil:
			user.ProfileID = &profile.ID
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return apperr.FromDB(err, "profile")
		}
		return apperr.FromDB(tx.Create(&user).Error, "user")
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(s.log.WithField(ctx, "user_id", user.ID), "user.registered")
	return &user, nil
}

// Exists backs the session verifier.
func (s *AccountService) Exists(ctx context.Context, id uint) bool {
	ok, err := exists(s.db.WithContext(ctx), &models.User{}, id)
	return err == nil && ok
}

type TokenInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResult struct {
	Token     string    `json:"token"`
	TokenType string    `json:"token_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IssueToken exchanges credentials for a bearer token. Attempts are limited
// per client within a fixed window.
func (s *AccountService) IssueToken(ctx context.Context, client string, in TokenInput) (*TokenResult, error) {
	if s.tokens == nil {
		return nil, apperr.New(apperr.CodeDependency, "token issuing is disabled")
	}
	if s.limits != nil {
		ok, _, err := cache.FixedWindowAllow(ctx, s.limits, "auth_token:"+client, TokenAttempts, TokenWindow)
		if err != nil {
			s.log.Warn(s.log.WithField(ctx, "error", err.Error()), "auth.rate_limit_unavailable")
		} else if !ok {
			return nil, apperr.New(apperr.CodeRateLimited, "too many attempts, retry later")
		}
	}
	user, err := s.Authenticate(ctx, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	raw, exp, err := s.tokens.Mint(s.now(), user.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInternal, err, "minting token")
	}
	return &TokenResult{Token: raw, TokenType: "Bearer", ExpiresAt: exp}, nil
}
