package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func RespondJSON(c *gin.Context, code int, data interface{}) {
	c.JSON(code, data)
}

// RespondError renders err and aborts the chain. Internal errors are logged
// with their cause but only a generic message reaches the client.
func RespondError(c *gin.Context, err error) {
	appErr := AsAppError(err)
	if appErr.Kind == KindInternal {
		ErrorLogger.WithFields(logrus.Fields{
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		}).Errorf("request failed: %v", appErr.Err)
	}
	c.AbortWithStatusJSON(appErr.Status(), ErrorResponse{
		Error:  appErr.Error(),
		Reason: appErr.Reason,
	})
}
