package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	accessSecret  = []byte("access-secret-access-secret-0123")
	refreshSecret = []byte("refresh-secret-refresh-secret-01")
)

func TestAccessRoundTrip(t *testing.T) {
	t.Parallel()

	userID := uuid.NewString()
	exp := time.Now().Add(15 * time.Minute)

	token, err := SignAccess(accessSecret, userID, "admin", *jwt.NewNumericDate(exp))
	require.NoError(t, err)

	claims, err := AccessClaimsFromToken(token, accessSecret)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestRefreshRoundTrip(t *testing.T) {
	t.Parallel()

	jti := NewJTI()
	token, err := SignRefresh(refreshSecret, "u1", jti, *jwt.NewNumericDate(time.Now().Add(time.Hour)))
	require.NoError(t, err)

	claims, err := RefreshClaimsFromToken(token, refreshSecret)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, jti, claims.ID)
}

func TestParseRejects(t *testing.T) {
	t.Parallel()

	expired, err := SignAccess(accessSecret, "u1", "customer", *jwt.NewNumericDate(time.Now().Add(-time.Minute)))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(expired, accessSecret)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)

	valid, err := SignAccess(accessSecret, "u1", "customer", *jwt.NewNumericDate(time.Now().Add(time.Minute)))
	require.NoError(t, err)
	_, err = AccessClaimsFromToken(valid, refreshSecret)
	require.Error(t, err)

	_, err = AccessClaimsFromToken("not-a-token", accessSecret)
	require.Error(t, err)
}

func TestCookieHelpers(t *testing.T) {
	t.Parallel()

	c := CreateCookie(AccessCookie, "v", "/", time.Now().Add(time.Minute))
	assert.True(t, c.HttpOnly)
	assert.Equal(t, "v", c.Value)

	d := DeleteCookie(RefreshCookie, "/")
	assert.Equal(t, -1, d.MaxAge)
	assert.Empty(t, d.Value)

	assert.Len(t, Sha256Hex("abc"), 64)
	assert.NotEqual(t, NewJTI(), NewJTI())
}
