package tokens

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tasklight/tasklight/internal/models"
)

const testSecret = "test-secret-0123456789abcdef"

func testUser() models.AuthUser {
	return models.AuthUser{ID: 42, Email: "alice@example.com", Role: models.RoleUser}
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	_, err := NewCodec("short", time.Minute, time.Hour)
	require.Error(t, err)
}

func TestAccessRoundTrip(t *testing.T) {
	c, err := NewCodec(testSecret, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	token, err := c.SignAccess(testUser())
	require.NoError(t, err)

	got, err := c.VerifyAccess(token)
	require.NoError(t, err)
	require.Equal(t, testUser(), got)
}

func TestRefreshRoundTrip(t *testing.T) {
	c, err := NewCodec(testSecret, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)

	token, expiresAt, err := c.SignRefresh(testUser(), "jti-1", "fam-1", "device-1")
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(30*24*time.Hour), expiresAt, time.Minute)

	claims, err := c.VerifyRefresh(token)
	require.NoError(t, err)
	require.Equal(t, testUser(), claims.User)
	require.Equal(t, "jti-1", claims.JTI)
	require.Equal(t, "fam-1", claims.FamilyID)
	require.Equal(t, "device-1", claims.DeviceID)
	require.WithinDuration(t, expiresAt, claims.ExpiresAt, time.Second)
}

func TestTokenTypeMismatchRejected(t *testing.T) {
	c, err := NewCodec(testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	access, err := c.SignAccess(testUser())
	require.NoError(t, err)
	refresh, _, err := c.SignRefresh(testUser(), "jti-1", "fam-1", "")
	require.NoError(t, err)

	_, err = c.VerifyRefresh(access)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = c.VerifyAccess(refresh)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestExpiredTokenRejected(t *testing.T) {
	c, err := NewCodec(testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := c.SignAccess(testUser())
	require.NoError(t, err)

	c.now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	_, err = c.VerifyAccess(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestWrongSecretRejected(t *testing.T) {
	a, err := NewCodec(testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)
	b, err := NewCodec("another-secret-0123456789", 15*time.Minute, time.Hour)
	require.NoError(t, err)

	token, err := a.SignAccess(testUser())
	require.NoError(t, err)

	_, err = b.VerifyAccess(token)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestInvalidSubjectRejected(t *testing.T) {
	c, err := NewCodec(testSecret, 15*time.Minute, time.Hour)
	require.NoError(t, err)

	bad := testUser()
	bad.ID = -1
	token, err := c.SignAccess(bad)
	require.NoError(t, err)
	_, err = c.VerifyAccess(token)
	require.ErrorIs(t, err, ErrInvalidSubject)

	unknownRole := testUser()
	unknownRole.Role = models.Role("superuser")
	token, err = c.SignAccess(unknownRole)
	require.NoError(t, err)
	_, err = c.VerifyAccess(token)
	require.ErrorIs(t, err, ErrInvalidSubject)
}
