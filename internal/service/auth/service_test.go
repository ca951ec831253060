package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renovahub/renewal-api/internal/model"
	"github.com/renovahub/renewal-api/internal/repository/postgres"
	pkgauth "github.com/renovahub/renewal-api/pkg/auth"
	"github.com/renovahub/renewal-api/pkg/errors"
	"github.com/renovahub/renewal-api/pkg/security"
)

type fakeUserRepo struct {
	byEmail map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]*model.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, postgres.ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, postgres.ErrNotFound
}

func (f *fakeUserRepo) Update(ctx context.Context, u *model.User) error {
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) UpdateRole(ctx context.Context, id, roleID uuid.UUID) error    { return nil }
func (f *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error                { return nil }
func (f *fakeUserRepo) List(ctx context.Context) ([]*model.User, error)               { return nil, nil }
func (f *fakeUserRepo) AddFCMToken(ctx context.Context, id uuid.UUID, t string) error { return nil }
func (f *fakeUserRepo) RemoveFCMTokens(ctx context.Context, id uuid.UUID, t []string) error {
	return nil
}

type fakeRoleRepo struct {
	roles map[string]*model.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[string]*model.Role{
		model.RoleUser:          {ID: uuid.New(), Name: model.RoleUser},
		model.RoleAdministrator: {ID: uuid.New(), Name: model.RoleAdministrator},
	}}
}

func (f *fakeRoleRepo) GetByName(ctx context.Context, name string) (*model.Role, error) {
	if r, ok := f.roles[name]; ok {
		return r, nil
	}
	return nil, postgres.ErrNotFound
}

func (f *fakeRoleRepo) List(ctx context.Context) ([]*model.Role, error) { return nil, nil }

func newTestService() (*Service, *fakeUserRepo, *fakeRoleRepo) {
	users := newFakeUserRepo()
	roles := newFakeRoleRepo()
	tokens := pkgauth.NewJWTService(pkgauth.JWTConfig{
		Secret:        "test-secret",
		RefreshSecret: "test-refresh-secret",
	})
	svc := NewService(users, roles, tokens, security.NewBcryptHasher(4))
	return svc, users, roles
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice@Corp.com", "Alice", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, "alice@corp.com", user.Email)
	assert.Equal(t, model.RoleUser, user.RoleName)
	assert.NotEqual(t, "correct-horse", user.PasswordHash)

	tokens, loggedIn, err := svc.Login(ctx, "alice@corp.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)
	assert.Equal(t, user.ID, loggedIn.ID)
	require.NotNil(t, loggedIn.LastLoginAt)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@corp.com", "Alice", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice@corp.com", "Alice Again", "other-password")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrConflict, appErr.Code)
}

func TestRegisterShortPassword(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Register(context.Background(), "alice@corp.com", "Alice", "short")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrBadRequest, appErr.Code)
}

func TestLoginLockoutAfterRepeatedFailures(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@corp.com", "Alice", "correct-horse")
	require.NoError(t, err)

	for i := 0; i < maxLoginAttempts; i++ {
		_, _, err := svc.Login(ctx, "alice@corp.com", "wrong-password")
		require.Error(t, err)
	}

	assert.Equal(t, model.UserStatusLocked, users.byEmail["alice@corp.com"].Status)

	// the right password is rejected too while locked
	_, _, err = svc.Login(ctx, "alice@corp.com", "correct-horse")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrForbidden, appErr.Code)
}

func TestLoginLockoutExpires(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@corp.com", "Alice", "correct-horse")
	require.NoError(t, err)

	for i := 0; i < maxLoginAttempts; i++ {
		_, _, _ = svc.Login(ctx, "alice@corp.com", "wrong-password")
	}

	// age the lockout past its window
	stale := time.Now().Add(-lockoutDuration - time.Minute)
	users.byEmail["alice@corp.com"].LastLoginAttempt = &stale

	_, _, err = svc.Login(ctx, "alice@corp.com", "correct-horse")
	assert.NoError(t, err)
	assert.Equal(t, model.UserStatusActive, users.byEmail["alice@corp.com"].Status)
}

func TestLoginUnknownUser(t *testing.T) {
	svc, _, _ := newTestService()

	_, _, err := svc.Login(context.Background(), "nobody@corp.com", "whatever")
	require.Error(t, err)

	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, errors.ErrUnauthorized, appErr.Code)
}

func TestRefreshRoundTrip(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@corp.com", "Alice", "correct-horse")
	require.NoError(t, err)

	tokens, _, err := svc.Login(ctx, "alice@corp.com", "correct-horse")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@corp.com", "Alice", "correct-horse")
	require.NoError(t, err)

	tokens, _, err := svc.Login(ctx, "alice@corp.com", "correct-horse")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, tokens.AccessToken)
	assert.Error(t, err)
}

func TestEnsureProfileProvisionsWithDefaultRole(t *testing.T) {
	svc, _, roles := newTestService()
	ctx := context.Background()

	user, err := svc.EnsureProfile(ctx, "new.owner@corp.com", "")
	require.NoError(t, err)

	assert.Equal(t, "new.owner@corp.com", user.Email)
	assert.Equal(t, "new.owner", user.Name)
	assert.Equal(t, roles.roles[model.RoleUser].ID, user.RoleID)
	assert.Equal(t, model.RoleUser, user.RoleName)
}

func TestEnsureProfileIsIdempotent(t *testing.T) {
	svc, users, _ := newTestService()
	ctx := context.Background()

	first, err := svc.EnsureProfile(ctx, "owner@corp.com", "Owner")
	require.NoError(t, err)

	// promote, then make sure a second ensure does not demote
	users.byEmail["owner@corp.com"].RoleName = model.RoleAdministrator

	second, err := svc.EnsureProfile(ctx, "OWNER@corp.com", "Someone Else")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.RoleAdministrator, second.RoleName)
	assert.Equal(t, "Owner", second.Name)
}
