package mw

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"laundry-admin-backend/internal/auth"
)

const claimsKey = "session"

// Session validates the bearer token and stores its claims on the context.
func Session(tokens *auth.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing session token"})
			return
		}
		claims, err := tokens.Validate(token)
		if err != nil {
			msg := "Invalid session token"
			if errors.Is(err, auth.ErrExpiredToken) {
				msg = "Session expired"
			} else if errors.Is(err, auth.ErrRevokedToken) {
				msg = "Session ended"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireAdmin rejects sessions that are not in the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims := Claims(c); claims == nil || claims.Role != auth.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin role required"})
			return
		}
		c.Next()
	}
}

// Claims returns the session of the request, or nil.
func Claims(c *gin.Context) *auth.SessionClaims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*auth.SessionClaims)
	return claims
}

// TenantID returns the tenant bound to the request's session.
func TenantID(c *gin.Context) string {
	if claims := Claims(c); claims != nil {
		return claims.TenantID
	}
	return ""
}
