package jwt

import (
	stderrors "errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/worktally/worktally-backend/pkg/config"
	"github.com/worktally/worktally-backend/pkg/errors"
)

// Claims represents the resolved caller identity carried by an access token.
// Tokens are issued by the identity service; this service only verifies them.
type Claims struct {
	jwt.RegisteredClaims
	UserID   string `json:"user_id"`
	Role     string `json:"role"`
	TenantID string `json:"tenant_id"`
}

// Manager handles JWT verification
type Manager struct {
	config *config.JWTConfig
}

// NewManager creates a new JWT manager
func NewManager(cfg *config.JWTConfig) *Manager {
	return &Manager{config: cfg}
}

// VerifyAccessToken validates an access token and returns its claims
func (m *Manager) VerifyAccessToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.TokenInvalid()
		}
		return []byte(m.config.Secret), nil
	}, jwt.WithIssuer(m.config.Issuer))

	if err != nil {
		if stderrors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.TokenExpired()
		}
		return nil, errors.TokenInvalid()
	}

	if !token.Valid {
		return nil, errors.TokenInvalid()
	}

	if claims.UserID == "" || claims.TenantID == "" {
		return nil, errors.TokenInvalid()
	}

	return claims, nil
}
