package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/blog_platform/internal/models"
	"github.com/Skotchmaster/blog_platform/internal/repo"
	"github.com/Skotchmaster/blog_platform/internal/tokens"
)

func testCodec() *tokens.Codec {
	return &tokens.Codec{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func mintFor(t *testing.T, codec *tokens.Codec, user *models.User) string {
	t.Helper()
	token, _, err := codec.MintAccess(user, time.Now().UTC())
	require.NoError(t, err)
	return token
}

// runGate sends a request through Authenticate and reports the identity the
// downstream handler observed.
func runGate(t *testing.T, codec *tokens.Codec, decorate func(*http.Request)) *Identity {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if decorate != nil {
		decorate(req)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *Identity
	handler := NewGate(codec).Authenticate(func(c echo.Context) error {
		seen = CurrentIdentity(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return seen
}

func TestGate_BearerHeader(t *testing.T) {
	t.Parallel()

	codec := testCodec()
	token := mintFor(t, codec, &models.User{ID: 7, Username: "alice", IsStaff: true})

	ident := runGate(t, codec, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	})
	require.NotNil(t, ident)
	assert.Equal(t, uint(7), ident.UserID)
	assert.Equal(t, "alice", ident.Username)
	assert.True(t, ident.IsStaff)
}

func TestGate_AccessCookie(t *testing.T) {
	t.Parallel()

	codec := testCodec()
	token := mintFor(t, codec, &models.User{ID: 3, Username: "bob"})

	ident := runGate(t, codec, func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: token})
	})
	require.NotNil(t, ident)
	assert.Equal(t, uint(3), ident.UserID)
}

func TestGate_HeaderWinsOverCookie(t *testing.T) {
	t.Parallel()

	codec := testCodec()
	headerToken := mintFor(t, codec, &models.User{ID: 1, Username: "header"})
	cookieToken := mintFor(t, codec, &models.User{ID: 2, Username: "cookie"})

	ident := runGate(t, codec, func(req *http.Request) {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+headerToken)
		req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: cookieToken})
	})
	require.NotNil(t, ident)
	assert.Equal(t, "header", ident.Username)
}

func TestGate_AnonymousFallthrough(t *testing.T) {
	t.Parallel()

	codec := testCodec()
	expired := &tokens.Codec{
		AccessSecret:  codec.AccessSecret,
		RefreshSecret: codec.RefreshSecret,
		AccessTTL:     -time.Minute,
		RefreshTTL:    codec.RefreshTTL,
	}
	expiredToken := mintFor(t, expired, &models.User{ID: 5, Username: "eve"})

	tests := []struct {
		name     string
		decorate func(*http.Request)
	}{
		{name: "no credentials", decorate: nil},
		{name: "garbage bearer", decorate: func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer not.a.jwt")
		}},
		{name: "non-bearer scheme", decorate: func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Basic abc")
		}},
		{name: "expired token", decorate: func(req *http.Request) {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+expiredToken)
		}},
		{name: "garbage cookie", decorate: func(req *http.Request) {
			req.AddCookie(&http.Cookie{Name: tokens.AccessCookie, Value: "junk"})
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			ident := runGate(t, codec, tt.decorate)
			assert.Nil(t, ident)
		})
	}
}

func capContext(ident *Identity) echo.Context {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if ident != nil {
		setIdentity(c, ident)
	}
	return c
}

func TestIsAuthenticated(t *testing.T) {
	t.Parallel()

	err := IsAuthenticated(capContext(nil), nil)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	assert.NoError(t, IsAuthenticated(capContext(nil), &Identity{UserID: 1}))
}

func TestIsAdmin(t *testing.T) {
	t.Parallel()

	err := IsAdmin(capContext(nil), nil)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	err = IsAdmin(capContext(nil), &Identity{UserID: 1})
	httpErr, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)

	assert.NoError(t, IsAdmin(capContext(nil), &Identity{UserID: 1, IsStaff: true}))
}

func TestIsNotBlocked_LiveStatus(t *testing.T) {
	t.Parallel()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}))

	user := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	cap := IsNotBlocked(repo.New(db))

	// the claim says not blocked and the row agrees
	ident := &Identity{UserID: user.ID, Username: "alice"}
	assert.NoError(t, cap(capContext(ident), ident))

	// block the row; the stale claim no longer matters
	require.NoError(t, db.Model(user).Update("is_blocked", true).Error)
	err = cap(capContext(ident), ident)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
	assert.Equal(t, "account blocked", httpErr.Message)

	// deleted user falls back to unauthorized
	require.NoError(t, db.Delete(user).Error)
	err = cap(capContext(ident), ident)
	httpErr, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)

	// anonymous is always unauthorized
	err = cap(capContext(nil), nil)
	httpErr, ok = err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
}

func TestRequire_FirstDenyWins(t *testing.T) {
	t.Parallel()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	handler := Require(IsAuthenticated, IsAdmin)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	err := handler(c)
	require.Error(t, err)
	httpErr, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnauthorized, httpErr.Code)
	assert.False(t, called)

	// staff identity clears both capabilities
	setIdentity(c, &Identity{UserID: 1, IsStaff: true})
	require.NoError(t, handler(c))
	assert.True(t, called)
}
