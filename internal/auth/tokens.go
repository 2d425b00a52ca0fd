package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/kunwarabhi7/car-rental/internal/domain"
)

const (
	// AccessTokenTTL bounds how long a stolen bearer token stays usable.
	AccessTokenTTL = 15 * time.Minute
	// RefreshTokenTTL is the refresh cookie lifetime.
	RefreshTokenTTL = 7 * 24 * time.Hour

	// RefreshCookieName is the HTTP-only cookie carrying the refresh token.
	RefreshCookieName = "refresh_token"
	// RefreshCookiePath scopes the cookie to the refresh endpoint only.
	RefreshCookiePath = "/api/auth/refresh"
)

// ErrInvalidToken covers bad signatures, expiry and malformed tokens.
var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the access-token payload: the user id and role on top of
// the registered claims. Verification is stateless; the store is only
// consulted afterwards to resolve the id.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

// IssueAccessToken mints a short-lived HS256 JWT for the user.
func IssueAccessToken(user *domain.User, secret []byte) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AccessTokenTTL)),
		},
		UserID: user.ID,
		Role:   user.Role,
	})

	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies signature and expiry and returns the claims.
func ParseAccessToken(tokenString string, secret []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// RefreshToken pairs the plaintext handed to the client with the bcrypt
// hash kept on the user row. Plain is never persisted.
type RefreshToken struct {
	Plain string
	Hash  string
}

// NewRefreshToken generates an opaque 32-byte random token, hex encoded,
// and its hash. The 64-char plaintext stays under bcrypt's 72-byte input
// limit. Storing a new hash implicitly revokes the previous refresh
// session for that user.
func NewRefreshToken() (*RefreshToken, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	plain := hex.EncodeToString(buf)

	hash, err := HashPassword(plain)
	if err != nil {
		return nil, fmt.Errorf("hash refresh token: %w", err)
	}
	return &RefreshToken{Plain: plain, Hash: hash}, nil
}

// EncodeRefreshCookie builds the cookie value "<userID>.<plain>". The
// id prefix lets the refresh endpoint resolve the owning user directly
// instead of scanning for any row holding a hash.
func EncodeRefreshCookie(userID, plain string) string {
	return userID + "." + plain
}

// DecodeRefreshCookie splits a refresh cookie value into owner id and
// plaintext token.
func DecodeRefreshCookie(value string) (userID, plain string, err error) {
	id, token, found := strings.Cut(value, ".")
	if !found || id == "" || token == "" {
		return "", "", ErrInvalidToken
	}
	return id, token, nil
}

// RefreshCookie returns the HTTP-only cookie delivering the refresh
// token, scoped to the refresh endpoint path. Production hardens the
// flags the same way the original deployment did.
func RefreshCookie(value string, production bool) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if production {
		sameSite = fiber.CookieSameSiteStrictMode
	}
	return &fiber.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     RefreshCookiePath,
		MaxAge:   int(RefreshTokenTTL / time.Second),
		HTTPOnly: true,
		Secure:   production,
		SameSite: sameSite,
	}
}

// ClearRefreshCookie returns an expired cookie that removes the refresh
// token from the browser.
func ClearRefreshCookie(production bool) *fiber.Cookie {
	c := RefreshCookie("", production)
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}
