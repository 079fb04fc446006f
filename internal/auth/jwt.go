package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTokenDuration is the session lifetime used when the configured
// duration is missing or invalid.
const DefaultTokenDuration = 12 * time.Hour

// Claims are the JWT claims for a panel session. The panel has a single
// admin account, so the subject is fixed.
type Claims struct {
	jwt.RegisteredClaims
}

// JWTManager issues and validates panel session tokens.
type JWTManager struct {
	secretKey           []byte
	accessTokenDuration time.Duration
}

// NewJWTManager creates a new JWT manager.
func NewJWTManager(secretKey string, accessTokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:           []byte(secretKey),
		accessTokenDuration: accessTokenDuration,
	}
}

// GenerateToken issues a new session token.
func (m *JWTManager) GenerateToken() (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// ValidateToken validates a session token and returns its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}

// TokenExpiry returns the expiry time a token issued now would carry.
func (m *JWTManager) TokenExpiry() time.Time {
	return time.Now().Add(m.accessTokenDuration)
}
