package middleware

import (
	"errors"
	"net/http"

	"portfolio-backend/internal/delivery/http/response"
	"portfolio-backend/pkg/apperror"
	"portfolio-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if !errors.As(err, &appErr) {
			// Never expose internal error details to clients
			appErr = apperror.Internal(err)
		}

		switch {
		case appErr.Code >= http.StatusInternalServerError:
			logger.Log.Error("internal server error", "error", appErr.Err, "path", c.FullPath())
		case appErr.Err != nil:
			logger.Log.Warn("request failed", "status", appErr.Code, "error", appErr.Err, "path", c.FullPath())
		}

		if len(appErr.Fields) > 0 {
			response.ValidationError(c, appErr.Code, appErr.Fields)
			return
		}
		response.Error(c, appErr.Code, appErr.Message)
	}
}
