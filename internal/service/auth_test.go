package service

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_platform/internal/hash"
	"github.com/Skotchmaster/blog_platform/internal/models"
	"github.com/Skotchmaster/blog_platform/internal/repo"
	"github.com/Skotchmaster/blog_platform/internal/revocation"
	"github.com/Skotchmaster/blog_platform/internal/tokens"
)

func initTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Post{}, &models.Comment{}, &models.Like{}); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

func newTestService(t *testing.T) *AuthService {
	t.Helper()

	return &AuthService{
		Repo: repo.New(initTestDB(t)),
		Codec: &tokens.Codec{
			AccessSecret:  []byte("test-jwt-secret"),
			RefreshSecret: []byte("test-refresh-secret"),
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
		},
		Revoked: revocation.NewStore(revocation.NewMemoryKV(), ""),
	}
}

func seedUser(t *testing.T, svc *AuthService, username, password string, blocked bool) *models.User {
	t.Helper()

	pwHash, err := hash.HashPassword(password)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: pwHash,
		IsBlocked:    blocked,
	}
	require.NoError(t, svc.Repo.DB.Create(user).Error)
	return user
}

func TestAuthService_Login_Success_ClaimsMatchUser(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, svc, "alice", "Secret123", false)

	session, err := svc.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)
	require.NotNil(t, session)
	require.NotEmpty(t, session.AccessToken)
	require.NotEmpty(t, session.RefreshToken)
	assert.Equal(t, user.ID, session.User.ID)

	claims, err := svc.Codec.ParseAccess(session.AccessToken)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.Equal(t, "alice", claims.Username)
	assert.False(t, claims.IsBlocked)

	refreshClaims, err := svc.Codec.ParseRefresh(session.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshClaims.ID)
}

func TestAuthService_Login_Blocked_RegardlessOfPassword(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, "mallory", "Secret123", true)

	tests := []struct {
		name     string
		password string
	}{
		{name: "correct password", password: "Secret123"},
		{name: "wrong password", password: "nope"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			session, err := svc.Login(ctx, "mallory", tt.password)
			require.Error(t, err)
			assert.Nil(t, session)
			assert.ErrorIs(t, err, ErrBlocked)
		})
	}
}

func TestAuthService_Login_NoUserEnumeration(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, "alice", "Secret123", false)

	_, errUnknown := svc.Login(ctx, "nonexistent", "x")
	_, errWrongPw := svc.Login(ctx, "alice", "wrongpw")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPw)
	assert.ErrorIs(t, errUnknown, ErrInvalidCredentials)
	assert.ErrorIs(t, errWrongPw, ErrInvalidCredentials)
	assert.Equal(t, errUnknown.Error(), errWrongPw.Error())
}

func TestAuthService_Refresh_MissingToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	session, err := svc.Refresh(context.Background(), "")
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrMissingRefreshToken)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	session, err := svc.Refresh(context.Background(), "not-a-valid-jwt")
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_Refresh_RotatesAndRevokesOld(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, "alice", "Secret123", false)

	login, err := svc.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, refreshed)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// the spent token is blacklisted and can never be replayed
	replayed, err := svc.Refresh(ctx, login.RefreshToken)
	assert.Nil(t, replayed)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	// the rotated token still works
	again, err := svc.Refresh(ctx, refreshed.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, again)
}

func TestAuthService_Refresh_PicksUpCurrentBlockedFlag(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	user := seedUser(t, svc, "alice", "Secret123", false)

	login, err := svc.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Repo.DB.Model(user).Update("is_blocked", true).Error)

	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)

	claims, err := svc.Codec.ParseAccess(refreshed.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.IsBlocked)
}

func TestAuthService_Logout_Idempotent(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()
	seedUser(t, svc, "alice", "Secret123", false)

	// no session at all is still a successful logout
	require.NoError(t, svc.Logout(ctx, ""))
	require.NoError(t, svc.Logout(ctx, "garbage"))

	login, err := svc.Login(ctx, "alice", "Secret123")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, login.RefreshToken))
	require.NoError(t, svc.Logout(ctx, login.RefreshToken))

	// the blacklisted token never refreshes again
	session, err := svc.Refresh(ctx, login.RefreshToken)
	assert.Nil(t, session)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestAuthService_Register_Conflicts(t *testing.T) {
	t.Parallel()

	svc := newTestService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Secret123",
	})
	require.NoError(t, err)
	require.NotZero(t, user.ID)
	assert.NotEqual(t, "Secret123", user.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "Secret123",
	})
	assert.ErrorIs(t, err, repo.ErrUsernameTaken)

	_, err = svc.Register(ctx, RegisterInput{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "Secret123",
	})
	assert.ErrorIs(t, err, repo.ErrEmailTaken)
}
