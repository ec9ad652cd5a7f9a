package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eaglemart/platform/shared/errs"
)

// RespondWithAppError writes err as a {"detail": ...} body with the status
// matching its kind. Server-side failures are logged and answered with a
// generic detail.
func RespondWithAppError(c *gin.Context, err error) {
	status := errs.Status(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", status),
			slog.Any("error", err),
		)
	}
	if status == http.StatusUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	RespondWithError(c, status, errs.Detail(err))
}

// RespondWithBindError answers a body that could not be decoded at all.
func RespondWithBindError(c *gin.Context) {
	RespondWithError(c, http.StatusBadRequest, "Invalid request body")
}
