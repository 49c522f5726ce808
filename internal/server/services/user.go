// Package services contains server-side business logic. This file implements
// UserService: the credential store (register, verify, lookup) plus login and
// refresh-token rotation.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/dmitrijs2005/yanplatform/internal/common"
	"github.com/dmitrijs2005/yanplatform/internal/dbx"
	"github.com/dmitrijs2005/yanplatform/internal/logging"
	"github.com/dmitrijs2005/yanplatform/internal/server/auth"
	"github.com/dmitrijs2005/yanplatform/internal/server/config"
	"github.com/dmitrijs2005/yanplatform/internal/server/metrics"
	"github.com/dmitrijs2005/yanplatform/internal/server/models"
	"github.com/dmitrijs2005/yanplatform/internal/server/repositories/repomanager"
)

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 6

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// Session is the result of a successful login.
type Session struct {
	User *models.User `json:"user"`
	TokenPair
}

// Registration carries the fields accepted by Register. Role may be empty.
type Registration struct {
	Name         string
	Email        string
	Password     string
	Role         models.Role
	Organization string
}

type UserService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenService
	hasher      *auth.PasswordHasher
	refreshTTL  time.Duration
	now         func() time.Time
	log         logging.Logger
	metrics     *metrics.Collector
}

func NewUserService(tx dbx.Transactor, m repomanager.RepositoryManager, cfg *config.Config,
	log logging.Logger, mc *metrics.Collector) *UserService {
	return &UserService{
		tx:          tx,
		repomanager: m,
		tokens:      auth.NewTokenService([]byte(cfg.SecretKey), cfg.AccessTokenValidityDuration),
		hasher:      auth.NewPasswordHasher(cfg.BcryptCost),
		refreshTTL:  cfg.RefreshTokenValidityDuration,
		now:         time.Now,
		log:         log.With("module", "users"),
		metrics:     mc,
	}
}

// Tokens returns the service's token signer/verifier.
func (s *UserService) Tokens() *auth.TokenService {
	return s.tokens
}

// Register validates reg, hashes the password and stores a new user.
func (s *UserService) Register(ctx context.Context, reg Registration) (*models.User, error) {
	email, err := normalizeEmail(reg.Email)
	if err != nil {
		return nil, err
	}
	if len(reg.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, MinPasswordLength)
	}
	role := reg.Role
	if role == "" {
		role = models.DefaultRole
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", common.ErrorValidation, role)
	}

	hash, err := s.hasher.Hash(reg.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(reg.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Organization: strings.TrimSpace(reg.Organization),
	}
	u, err := s.repomanager.Users(s.tx.Handle()).Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID, "role", u.Role)
	return u.Public(), nil
}

// VerifyCredentials returns the user owning email when password matches.
// Unknown email and wrong password both yield common.ErrInvalidCredentials
// after the same bcrypt work.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repomanager.Users(s.tx.Handle()).GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.hasher.CompareDummy(password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Compare(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}
	return user, nil
}

// FindByID returns the user without its password hash.
func (s *UserService) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repomanager.Users(s.tx.Handle()).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return u.Public(), nil
}

// Login verifies credentials and mints a token pair.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.VerifyCredentials(ctx, email, password)
	s.metrics.RecordLogin(err == nil)
	if err != nil {
		return nil, err
	}

	var pair *TokenPair
	if err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return &Session{User: user.Public(), TokenPair: *pair}, nil
}

// RefreshToken consumes a refresh token and returns a fresh TokenPair.
// Unknown tokens yield ErrInvalidToken, expired ones ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var pair *TokenPair
	err := s.tx.WithinTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.repomanager.RefreshTokens(tx).Consume(ctx, refreshToken)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error consuming refresh token: %w", err)
		}
		if token.Expires.Before(s.now()) {
			return common.ErrRefreshTokenExpired
		}

		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return err
		}

		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("error generating token pair: %w", err)
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("error generating token pair: %w", err)
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, refresh, s.now().Add(s.refreshTTL)); err != nil {
		return nil, fmt.Errorf("error generating token pair: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@"):], ".") {
		return "", fmt.Errorf("%w: invalid email", common.ErrorValidation)
	}
	return email, nil
}
