package token

import (
	"errors"
	"time"

	"chat_delivery_service/pkg/config"

	"github.com/golang-jwt/jwt/v5"
)

// Claims structure for custom claims in JWT, Subject is the username
type Claims struct {
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

// User return the identity carried by the token
func (c *Claims) User() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.Username
}

// Secret Key for JWT signing and validation
var (
	JWTSecret       = loadSecret()
	tokenExpiration = 24 * time.Hour

	// ErrInvalidToken token parsed but unusable
	ErrInvalidToken = errors.New("invalid token")
	// ErrMissingSubject token carries no user identity
	ErrMissingSubject = errors.New("token has no subject")
)

func loadSecret() []byte {
	if s := config.EnvConfig.JWTSecret; s != "" {
		return []byte(s)
	}
	return []byte("secure_secret_key")
}

// GenerateJWT generates a JWT token for username
func GenerateJWT(username, issuer string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(JWTSecret)
}

// ParseJWT parses and verifies a JWT and extracts the Claims
func ParseJWT(tokenStr string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JWTSecret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, ErrInvalidToken
	}
	if claims.User() == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// ParseUnverified decode claims without checking signature or expiry.
// Only for presence beacons, never for authorization.
func ParseUnverified(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, err
	}
	if claims.User() == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// FromHeader strip "Bearer " prefix
func FromHeader(h string) string {
	if len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	return ""
}
