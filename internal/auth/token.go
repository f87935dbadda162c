package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrRevokedToken = errors.New("token has been revoked")
	ErrUnknownRole  = errors.New("unknown role")
)

const issuer = "laundry-admin"

// Role is the console role picked at login.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEmployee
}

// SessionClaims binds a token to one tenant and role.
type SessionClaims struct {
	TenantID string `json:"tenant_id"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager issues, validates and revokes session tokens. Revoked ids
// are remembered until the token would have expired anyway.
type TokenManager struct {
	secret  []byte
	ttl     time.Duration
	revoked *cache.Cache
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenManager{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: cache.New(ttl, 10*time.Minute),
	}
}

// Issue signs a token for the tenant and role.
func (m *TokenManager) Issue(tenantID string, role Role) (string, *SessionClaims, error) {
	if !role.Valid() {
		return "", nil, ErrUnknownRole
	}
	now := time.Now()
	claims := &SessionClaims{
		TenantID: tenantID,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tenantID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Validate parses the token and rejects revoked ones.
func (m *TokenManager) Validate(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.TenantID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	if _, revoked := m.revoked.Get(claims.ID); revoked {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke invalidates the token with the given claims.
func (m *TokenManager) Revoke(claims *SessionClaims) {
	ttl := cache.DefaultExpiration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
		if ttl <= 0 {
			return
		}
	}
	m.revoked.Set(claims.ID, struct{}{}, ttl)
}
