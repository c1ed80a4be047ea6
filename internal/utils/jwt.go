package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
	ErrTokenInvalid          = errors.New("token invalid")
)

// Claims identifies the bearer of a token.
type Claims struct {
	UserID uuid.UUID `json:"id"`
	Role   string    `json:"role"`
	Phone  string    `json:"phone"`
}

type jwtCustomClaims struct {
	Claims
	jwt.RegisteredClaims
}

// GenerateToken creates a signed HS256 JWT carrying claims that expires after ttl.
func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &jwtCustomClaims{
		Claims: claims,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the embedded claims.
// Failures are reported as one of the ErrToken* values.
func ParseToken(secret, tokenString string) (*Claims, error) {
	parsed := &jwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, parsed, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalidSignature
		default:
			return nil, ErrTokenInvalid
		}
	}

	if !token.Valid || parsed.UserID == uuid.Nil {
		return nil, ErrTokenInvalid
	}
	return &parsed.Claims, nil
}
