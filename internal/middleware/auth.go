package middleware

import (
	"errors"
	"strings"

	"github.com/daily-ledger/internal/policy"
	"github.com/daily-ledger/internal/service"
	"github.com/daily-ledger/pkg/logger"
	"github.com/daily-ledger/pkg/response"
	"github.com/gin-gonic/gin"
)

const (
	// ContextKeyIdentity is the key for the caller's policy.Identity in gin context
	ContextKeyIdentity = "identity"

	// tokenQueryParam carries the token for clients that cannot set headers,
	// such as browser websockets
	tokenQueryParam = "access_token"
)

// AuthMiddleware creates a JWT authentication middleware
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c, service.ErrInvalidToken.Error())
			c.Abort()
			return
		}

		identity, err := authService.ResolveIdentity(c.Request.Context(), tokenString)
		if err != nil {
			if !errors.Is(err, service.ErrInvalidToken) {
				logger.WithField("request_id", GetRequestID(c)).Errorf("resolve identity: %v", err)
				response.InternalError(c, "internal server error")
			} else {
				response.Unauthorized(c, service.ErrInvalidToken.Error())
			}
			c.Abort()
			return
		}

		c.Set(ContextKeyIdentity, identity)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query(tokenQueryParam)
		return token, token != ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Require rejects the request with 403 unless the caller may perform op.
// It must run after AuthMiddleware.
func Require(op policy.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := GetIdentity(c)
		if identity == nil {
			response.Unauthorized(c, service.ErrInvalidToken.Error())
			c.Abort()
			return
		}
		if err := policy.Authorize(*identity, op); err != nil {
			response.Forbidden(c, err.Error())
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetIdentity gets the authenticated caller from the gin context
func GetIdentity(c *gin.Context) *policy.Identity {
	value, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return nil
	}
	identity, _ := value.(*policy.Identity)
	return identity
}
