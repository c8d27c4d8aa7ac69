package api

import (
	"log/slog"
	"net/http"

	"github.com/clerk/clerk-sdk-go/v2"
	clerkhttp "github.com/clerk/clerk-sdk-go/v2/http"
	"github.com/gin-gonic/gin"
)

type ctxKey string

const operatorIDKey ctxKey = "operatorID"

// RequireOperator guards the session endpoints with a Clerk session token.
// The key must have been registered with clerk.SetKey.
func RequireOperator(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	verify := clerkhttp.WithHeaderAuthorization()

	return func(c *gin.Context) {
		verify(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
			c.Request = r
		})).ServeHTTP(c.Writer, c.Request)

		claims, ok := clerk.SessionClaimsFromContext(c.Request.Context())
		if !ok {
			AbortJSONError(c, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing or invalid authentication")
			return
		}

		logger.Debug("operator authenticated", "subject", claims.Subject)
		c.Set(string(operatorIDKey), claims.Subject)
		c.Next()
	}
}

func GetOperatorID(c *gin.Context) (string, bool) {
	val, ok := c.Get(string(operatorIDKey))
	if !ok {
		return "", false
	}
	id, ok := val.(string)
	return id, ok
}
