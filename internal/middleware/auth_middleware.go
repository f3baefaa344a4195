package middleware

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"go-hr-portal/internal/domain"
	"go-hr-portal/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const principalKey = "principal"

// AuthMiddleware resolves the request principal from a bearer token.
// The resulting Principal is trusted downstream; no handler or service
// re-validates it.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token not found", nil)
			c.Abort()
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(os.Getenv("JWT_SECRET")), nil
		})

		if err != nil || !token.Valid {
			code, msg := "INVALID_TOKEN", "Invalid token"
			if err != nil && strings.Contains(err.Error(), "expired") {
				code, msg = "TOKEN_EXPIRED", "Token has expired"
			}
			response.Error(c, http.StatusUnauthorized, code, msg, nil)
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid token claims", nil)
			c.Abort()
			return
		}

		principal, err := principalFromClaims(claims)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, "INVALID_TOKEN", err.Error(), nil)
			c.Abort()
			return
		}

		c.Set(principalKey, principal)

		// Legacy string keys kept for logging middleware
		c.Set("user_id", principal.ID.String())
		c.Set("organization_id", principal.OrganizationID.String())

		c.Next()
	}
}

func principalFromClaims(claims jwt.MapClaims) (domain.Principal, error) {
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return domain.Principal{}, fmt.Errorf("User ID not found in token")
	}
	orgID, ok := claims["organization_id"].(string)
	if !ok || orgID == "" {
		return domain.Principal{}, fmt.Errorf("Organization ID not found in token")
	}
	roleStr, ok := claims["role"].(string)
	if !ok || roleStr == "" {
		return domain.Principal{}, fmt.Errorf("Role not found in token")
	}

	id, err := uuid.Parse(userID)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("Invalid user id in token")
	}
	org, err := uuid.Parse(orgID)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("Invalid organization id in token")
	}
	role, err := domain.ParseRole(roleStr)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("Invalid role in token")
	}

	return domain.Principal{ID: id, Role: role, OrganizationID: org}, nil
}

// Principal returns the resolved request principal set by AuthMiddleware.
func Principal(c *gin.Context) (domain.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return domain.Principal{}, false
	}
	p, ok := v.(domain.Principal)
	return p, ok
}

// SetPrincipal injects a principal directly, for handler tests.
func SetPrincipal(c *gin.Context, p domain.Principal) {
	c.Set(principalKey, p)
}
