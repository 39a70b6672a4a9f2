package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ajharbinger/guest-risk-scorer/internal/errors"
	"github.com/ajharbinger/guest-risk-scorer/internal/logger"
)

// respondError writes err as {error, code[, details]} with the status its
// code maps to. Server-side failures are logged and their cause withheld.
func respondError(c *gin.Context, log logger.Logger, err error) {
	status := errors.HTTPStatus(err)

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		log.Error("Unhandled error", err, "path", c.Request.URL.Path)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error", "code": errors.ErrCodeInternalError})
		return
	}

	if status >= http.StatusInternalServerError {
		log.Error(appErr.Message, err, "path", c.Request.URL.Path, "code", appErr.Code)
	}

	body := gin.H{"error": appErr.Message, "code": appErr.Code}
	if appErr.Details != "" && status < http.StatusInternalServerError {
		body["details"] = appErr.Details
	}
	c.JSON(status, body)
}
