package user

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/repository"
	"github.com/renovahub/renewal-api/internal/repository/postgres"
	"github.com/renovahub/renewal-api/pkg/errors"
)

type UserServicer interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context) ([]*model.User, error)
	AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error
	ListRoles(ctx context.Context) ([]*model.Role, error)
	RegisterFCMToken(ctx context.Context, userID uuid.UUID, token string) error
	PruneFCMTokens(ctx context.Context, userID uuid.UUID, tokens []string) error
}

type Service struct {
	users repository.UserRepository
	roles repository.RoleRepository
}

func NewService(users repository.UserRepository, roles repository.RoleRepository) *Service {
	return &Service{users: users, roles: roles}
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return nil, errors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return nil, errors.NotFound("user", err)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, user *model.User) error {
	if user.Name == "" {
		return errors.BadRequest("name is required", nil)
	}
	if err := s.users.Update(ctx, user); err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return errors.NotFound("user", err)
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	return nil
}

func (s *Service) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return errors.NotFound("user", err)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *Service) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *Service) AssignRole(ctx context.Context, userID uuid.UUID, roleName string) error {
	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return errors.BadRequest(fmt.Sprintf("unknown role %q", roleName), err)
		}
		return fmt.Errorf("failed to resolve role: %w", err)
	}

	if err := s.users.UpdateRole(ctx, userID, role.ID); err != nil {
		if stderrors.Is(err, postgres.ErrNotFound) {
			return errors.NotFound("user", err)
		}
		return fmt.Errorf("failed to assign role: %w", err)
	}
	return nil
}

func (s *Service) ListRoles(ctx context.Context) ([]*model.Role, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// RegisterFCMToken records a device token for push delivery. Duplicate
// registrations are a no-op.
func (s *Service) RegisterFCMToken(ctx context.Context, userID uuid.UUID, token string) error {
	if strings.TrimSpace(token) == "" {
		return errors.BadRequest("token is required", nil)
	}
	if err := s.users.AddFCMToken(ctx, userID, token); err != nil {
		return fmt.Errorf("failed to register fcm token: %w", err)
	}
	return nil
}

// PruneFCMTokens drops tokens the push gateway reported as dead.
func (s *Service) PruneFCMTokens(ctx context.Context, userID uuid.UUID, tokens []string) error {
	if err := s.users.RemoveFCMTokens(ctx, userID, tokens); err != nil {
		return fmt.Errorf("failed to prune fcm tokens: %w", err)
	}
	return nil
}
