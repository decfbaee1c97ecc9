package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carries the operator identity. The rig is a single-user system,
// so there is no tenant or role dimension to the token.
type Claims struct {
	Operator string `json:"sub"`
	jwt.RegisteredClaims
}

type Manager struct {
	signingKey []byte
	ttl        time.Duration
}

func NewManager(signingKey string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Manager{signingKey: []byte(signingKey), ttl: ttl}
}

// TTL reports the token lifetime, used to size blacklist entries on logout.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

func (m *Manager) GenerateToken(operator string) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Operator: operator,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.New().String(), // jti
			Subject:   operator,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	// Add Kid for future key rotation support, even if using single key now
	token.Header["kid"] = "v1"

	return token.SignedString(m.signingKey)
}

func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.signingKey, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}
