package auth

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/repository"
	"github.com/renovahub/renewal-api/internal/repository/postgres"
	"github.com/renovahub/renewal-api/pkg/auth"
	"github.com/renovahub/renewal-api/pkg/errors"
	"github.com/renovahub/renewal-api/pkg/security"
)

const (
	maxLoginAttempts = 5
	lockoutDuration  = 15 * time.Minute
)

type AuthServicer interface {
	Register(ctx context.Context, email, name, password string) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.TokenResponse, *model.User, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error)
	ValidateToken(token string) (*model.TokenClaims, error)
	EnsureProfile(ctx context.Context, email, name string) (*model.User, error)
}

type Service struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	tokens auth.JWTService
	hasher security.PasswordHasher
}

func NewService(users repository.UserRepository, roles repository.RoleRepository, tokens auth.JWTService, hasher security.PasswordHasher) *Service {
	return &Service{
		users:  users,
		roles:  roles,
		tokens: tokens,
		hasher: hasher,
	}
}

func (s *Service) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.BadRequest("email is required", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, errors.Conflict("email already registered", nil)
	} else if !stderrors.Is(err, postgres.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		if stderrors.Is(err, security.ErrPasswordTooShort) {
			return nil, errors.BadRequest(fmt.Sprintf("password must be at least %d characters", security.MinPasswordLen), err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role, err := s.roles.GetByName(ctx, model.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default role: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		RoleID:       role.ID,
		RoleName:     role.Name,
		Status:       model.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenResponse, *model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return nil, nil, errors.Unauthorized(stderrors.New("invalid credentials"))
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if user.Status == model.UserStatusLocked {
		if user.LastLoginAttempt != nil && time.Since(*user.LastLoginAttempt) < lockoutDuration {
			return nil, nil, errors.Forbidden("account locked, try again later")
		}
		// lockout window elapsed, reopen the account
		user.Status = model.UserStatusActive
		user.LoginAttempts = 0
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		user.LoginAttempts++
		now := time.Now()
		user.LastLoginAttempt = &now
		if user.LoginAttempts >= maxLoginAttempts {
			user.Status = model.UserStatusLocked
		}
		if updateErr := s.users.Update(ctx, user); updateErr != nil {
			return nil, nil, fmt.Errorf("failed to record login attempt: %w", updateErr)
		}
		return nil, nil, errors.Unauthorized(stderrors.New("invalid credentials"))
	}

	now := time.Now()
	user.LoginAttempts = 0
	user.LastLoginAttempt = nil
	user.LastLoginAt = &now
	if err := s.users.Update(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to record login: %w", err)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return tokens, user, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, errors.Unauthorized(err)
	}

	user, err := s.users.Get(ctx, claims.UserID)
	if err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return nil, errors.Unauthorized(stderrors.New("user no longer exists"))
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Status != model.UserStatusActive {
		return nil, errors.Forbidden("account is not active")
	}

	return s.issueTokens(user)
}

func (s *Service) ValidateToken(token string) (*model.TokenClaims, error) {
	return s.tokens.ValidateToken(token)
}

// EnsureProfile provisions a directory entry for an email seen in license
// data. Existing profiles are returned untouched, including their role.
func (s *Service) EnsureProfile(ctx context.Context, email, name string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, errors.BadRequest("email is required", nil)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !stderrors.Is(err, postgres.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}

	role, err := s.roles.GetByName(ctx, model.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve default role: %w", err)
	}

	if name == "" {
		if at := strings.Index(email, "@"); at > 0 {
			name = email[:at]
		} else {
			name = email
		}
	}
	user = &model.User{
		Email:    email,
		Name:     name,
		RoleID:   role.ID,
		RoleName: role.Name,
		Status:   model.UserStatusActive,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to provision profile: %w", err)
	}
	return user, nil
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.tokens.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.tokens.AccessExpiry().Seconds()),
	}, nil
}
