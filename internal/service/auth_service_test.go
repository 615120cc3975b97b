package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
	"github.com/tahfidz-app/tahfidz-api/pkg/config"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
)

type fakeAuthRepo struct {
	usersByEmail  map[string]*models.User
	usersByID     map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	auditLogs     []*models.AuditLog
	revokedAll    []string
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{
		usersByEmail:  map[string]*models.User{},
		usersByID:     map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
	}
}

func (f *fakeAuthRepo) addUser(user *models.User) {
	f.usersByEmail[user.Email] = user
	f.usersByID[user.ID] = user
}

func (f *fakeAuthRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	user, ok := f.usersByEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeAuthRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	user, ok := f.usersByID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (f *fakeAuthRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := f.usersByEmail[email]
	return ok, nil
}

func (f *fakeAuthRepo) Create(_ context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-generated"
	}
	f.addUser(user)
	return nil
}

func (f *fakeAuthRepo) UpdateLastLogin(_ context.Context, id string, ts time.Time) error {
	if user, ok := f.usersByID[id]; ok {
		user.LastLogin = &ts
	}
	return nil
}

func (f *fakeAuthRepo) UpdatePassword(_ context.Context, id, hash string, _ time.Time) error {
	if user, ok := f.usersByID[id]; ok {
		user.PasswordHash = hash
	}
	return nil
}

func (f *fakeAuthRepo) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	f.refreshTokens[token.Token] = token
	return nil
}

func (f *fakeAuthRepo) FindRefreshToken(_ context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := f.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (f *fakeAuthRepo) RevokeRefreshToken(_ context.Context, id string, revokedAt time.Time) error {
	for _, token := range f.refreshTokens {
		if token.ID == id {
			token.Revoked = true
			token.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (f *fakeAuthRepo) RevokeUserRefreshTokens(_ context.Context, userID string) error {
	f.revokedAll = append(f.revokedAll, userID)
	for _, token := range f.refreshTokens {
		if token.UserID == userID {
			token.Revoked = true
		}
	}
	return nil
}

func (f *fakeAuthRepo) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func authFixture() (*AuthService, *fakeAuthRepo) {
	repo := newFakeAuthRepo()
	cfg := config.JWTConfig{
		Secret:            "test-secret",
		Expiration:        time.Hour,
		RefreshExpiration: 24 * time.Hour,
		Issuer:            "tahfidz-api",
	}
	return NewAuthService(repo, cfg, nil, zap.NewNop()), repo
}

func seedActiveUser(repo *fakeAuthRepo, password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &models.User{
		ID:           "user-1",
		Email:        "siswa@example.com",
		PasswordHash: string(hash),
		Name:         "Ahmad",
		Role:         models.RoleSiswa,
		Active:       true,
	}
	repo.addUser(user)
	return user
}

func TestAuthServiceRegister_DuplicateEmail(t *testing.T) {
	svc, repo := authFixture()
	seedActiveUser(repo, "rahasia")

	_, err := svc.Register(context.Background(), &models.RegisterRequest{
		Email:    "siswa@example.com",
		Password: "rahasia2",
		Name:     "Other",
		Role:     models.RoleSiswa,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRegister_UnknownRoleRejected(t *testing.T) {
	svc, _ := authFixture()

	_, err := svc.Register(context.Background(), &models.RegisterRequest{
		Email:    "new@example.com",
		Password: "rahasia",
		Name:     "New",
		Role:     models.UserRole("superuser"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogin_IssuesVerifiableToken(t *testing.T) {
	svc, repo := authFixture()
	seedActiveUser(repo, "rahasia")

	resp, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "siswa@example.com",
		Password: "rahasia",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleSiswa, claims.Role)
}

func TestAuthServiceLogin_WrongPassword(t *testing.T) {
	svc, repo := authFixture()
	seedActiveUser(repo, "rahasia")

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "siswa@example.com",
		Password: "salah",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLogin_InactiveAccount(t *testing.T) {
	svc, repo := authFixture()
	user := seedActiveUser(repo, "rahasia")
	user.Active = false

	_, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "siswa@example.com",
		Password: "rahasia",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshToken_RotatesToken(t *testing.T) {
	svc, repo := authFixture()
	seedActiveUser(repo, "rahasia")

	login, err := svc.Login(context.Background(), &models.LoginRequest{
		Email:    "siswa@example.com",
		Password: "rahasia",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), &models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The old token is revoked by rotation and cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), &models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword_RevokesSessions(t *testing.T) {
	svc, repo := authFixture()
	seedActiveUser(repo, "rahasia")

	err := svc.ChangePassword(context.Background(), "user-1", &models.ChangePasswordRequest{
		OldPassword: "rahasia",
		NewPassword: "rahasia-baru",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedAll, "user-1")

	_, err = svc.Login(context.Background(), &models.LoginRequest{
		Email:    "siswa@example.com",
		Password: "rahasia-baru",
	})
	assert.NoError(t, err)
}

func TestAuthServiceValidateToken_RejectsGarbage(t *testing.T) {
	svc, _ := authFixture()

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
