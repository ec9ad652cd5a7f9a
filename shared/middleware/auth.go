package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/auth"
	"github.com/eaglemart/platform/shared/errs"
)

const userIDKey = "userId"

// TokenVerifier resolves a bearer token to its claims.
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// AuthMiddleware rejects requests without a valid bearer token and stores the
// token subject as the caller's user id.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			RespondWithAppError(c, errs.New(errs.ErrUnauthenticated, "Not authenticated"))
			c.Abort()
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			RespondWithAppError(c, errs.New(errs.ErrUnauthenticated, "Invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			RespondWithAppError(c, err)
			c.Abort()
			return
		}

		c.Set(userIDKey, claims.Subject)
		c.Next()
	}
}

func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get(userIDKey)
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}
