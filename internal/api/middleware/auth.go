// Package middleware holds gin middleware shared across handlers. Unlike the
// teacher's JWT bearer-token model, this engine's access control is
// challenge/response per call (domain.AccessRequest travels inside every
// request body or query string, not a session header) — see
// original_source/src/api/requests.rs's PostRequest<T>{access, data} shape.
// RequestLogger replaces JWTMiddleware/RoleMiddleware: there is no token to
// validate at the gin layer, since engine.CheckAccess/CheckAccessForUser
// perform the actual authorization per operation against the Store.
package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestLogger logs method/path/status/duration for every request, the gin
// equivalent of the teacher's gin.Logger() but routed through slog so it
// matches the rest of this codebase's structured logging.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
