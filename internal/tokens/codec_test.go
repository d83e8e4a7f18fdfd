package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_platform/internal/models"
)

func newTestCodec() *Codec {
	return &Codec{
		AccessSecret:  []byte("test-jwt-secret"),
		RefreshSecret: []byte("test-refresh-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
}

func testUser() *models.User {
	return &models.User{
		ID:       42,
		Username: "alice",
		Email:    "alice@example.com",
		IsStaff:  true,
	}
}

func TestCodec_MintAccess_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	user := testUser()
	now := time.Now().UTC()

	token, exp, err := codec.MintAccess(user, now)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, now.Add(codec.AccessTTL), exp, time.Second)

	claims, err := codec.ParseAccess(token)
	require.NoError(t, err)

	assert.Equal(t, "42", claims.Subject)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.True(t, claims.IsStaff)
	assert.False(t, claims.IsSuperuser)
	assert.False(t, claims.IsBlocked)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, uint(42), id)
}

func TestCodec_MintRefresh_RoundTrip(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	now := time.Now().UTC()

	token, jti, exp, err := codec.MintRefresh(42, now)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.NotEmpty(t, jti)

	claims, err := codec.ParseRefresh(token)
	require.NoError(t, err)
	assert.Equal(t, jti, claims.ID)
	assert.Equal(t, "42", claims.Subject)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestCodec_ParseAccess_Expired(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	codec.AccessTTL = -time.Minute

	token, _, err := codec.MintAccess(testUser(), time.Now().UTC())
	require.NoError(t, err)

	claims, err := codec.ParseAccess(token)
	assert.Nil(t, claims)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestCodec_CrossUse_Rejected(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	now := time.Now().UTC()

	refresh, _, _, err := codec.MintRefresh(42, now)
	require.NoError(t, err)

	// refresh token where an access token is required: different secret
	_, err = codec.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrBadSignature)

	access, _, err := codec.MintAccess(testUser(), now)
	require.NoError(t, err)

	_, err = codec.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrBadSignature)
}

func TestCodec_ParseRefresh_WrongTypeClaim(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	// access claims signed with the refresh secret still lack typ=refresh
	access := &Codec{
		AccessSecret:  codec.RefreshSecret,
		RefreshSecret: codec.RefreshSecret,
		AccessTTL:     codec.AccessTTL,
		RefreshTTL:    codec.RefreshTTL,
	}
	token, _, err := access.MintAccess(testUser(), time.Now().UTC())
	require.NoError(t, err)

	_, err = codec.ParseRefresh(token)
	assert.ErrorIs(t, err, ErrWrongTokenType)
}

func TestCodec_Parse_Malformed(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()

	_, err := codec.ParseAccess("not-a-valid-jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = codec.ParseRefresh("")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestCodec_Parse_TamperedSignature(t *testing.T) {
	t.Parallel()

	codec := newTestCodec()
	token, _, err := codec.MintAccess(testUser(), time.Now().UTC())
	require.NoError(t, err)

	other := newTestCodec()
	other.AccessSecret = []byte("another-secret")

	_, err = other.ParseAccess(token)
	assert.ErrorIs(t, err, ErrBadSignature)
}
