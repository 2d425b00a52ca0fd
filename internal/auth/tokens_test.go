package auth

import (
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kunwarabhi7/car-rental/internal/domain"
)

var testUser = &domain.User{ID: "11111111-1111-1111-1111-111111111111", Role: domain.RoleUser}

func TestAccessToken_RoundTrip(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")
	token, err := IssueAccessToken(testUser, secret)
	require.NoError(t, err)

	claims, err := ParseAccessToken(token, secret)
	require.NoError(t, err)
	assert.Equal(t, testUser.ID, claims.UserID)
	assert.Equal(t, domain.RoleUser, claims.Role)
	assert.WithinDuration(t, time.Now().Add(AccessTokenTTL), claims.ExpiresAt.Time, time.Minute)
}

func TestParseAccessToken_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := IssueAccessToken(testUser, []byte("right-secret"))
	require.NoError(t, err)

	_, err = ParseAccessToken(token, []byte("wrong-secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
		UserID: testUser.ID,
		Role:   testUser.Role,
	})
	signed, err := expired.SignedString(secret)
	require.NoError(t, err)

	_, err = ParseAccessToken(signed, secret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_WrongSigningMethod(t *testing.T) {
	t.Parallel()

	// alg "none" must never verify even with a valid shape.
	unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: testUser.ID})
	token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ParseAccessToken(token, []byte("secret"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseAccessToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseAccessToken("not.a.jwt", []byte("k"))
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestNewRefreshToken(t *testing.T) {
	t.Parallel()

	rt, err := NewRefreshToken()
	require.NoError(t, err)

	// 32 random bytes, hex encoded: short enough for bcrypt to
	// hash rather than reject.
	assert.Len(t, rt.Plain, 64)
	assert.Less(t, len(rt.Plain), 72)
	assert.True(t, CheckPassword(rt.Plain, rt.Hash))
}

func TestRefreshToken_RotationInvalidatesOld(t *testing.T) {
	t.Parallel()

	old, err := NewRefreshToken()
	require.NoError(t, err)
	fresh, err := NewRefreshToken()
	require.NoError(t, err)

	// The old plaintext must not verify against the replacement hash.
	assert.False(t, CheckPassword(old.Plain, fresh.Hash))
	assert.True(t, CheckPassword(fresh.Plain, fresh.Hash))
}

func TestRefreshCookie_EncodeDecode(t *testing.T) {
	t.Parallel()

	value := EncodeRefreshCookie("user-id", "deadbeef")
	id, plain, err := DecodeRefreshCookie(value)
	require.NoError(t, err)
	assert.Equal(t, "user-id", id)
	assert.Equal(t, "deadbeef", plain)

	for _, bad := range []string{"", "no-separator", ".plain-only", "id-only."} {
		_, _, err := DecodeRefreshCookie(bad)
		assert.ErrorIs(t, err, ErrInvalidToken, "value %q", bad)
	}
}

func TestRefreshCookie_Flags(t *testing.T) {
	t.Parallel()

	dev := RefreshCookie("v", false)
	assert.Equal(t, RefreshCookieName, dev.Name)
	assert.Equal(t, RefreshCookiePath, dev.Path)
	assert.True(t, dev.HTTPOnly)
	assert.False(t, dev.Secure)
	assert.Equal(t, int(RefreshTokenTTL/time.Second), dev.MaxAge)

	prod := RefreshCookie("v", true)
	assert.True(t, prod.Secure)
	assert.Equal(t, fiber.CookieSameSiteStrictMode, prod.SameSite)

	cleared := ClearRefreshCookie(false)
	assert.Negative(t, cleared.MaxAge)
}
