package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/logger"
)

// TimeLayout is the timestamp format used for the envelope timeStamp field.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

var now = time.Now

// ErrorBody is the envelope written for every failed request.
type ErrorBody struct {
	Success   bool   `json:"success"`
	Status    int    `json:"status"`
	Code      string `json:"code"`
	Reason    string `json:"reason"`
	TimeStamp string `json:"timeStamp"`
	Path      string `json:"path"`
}

// Success writes the success envelope. Payload keys are merged into the top level
// of the body next to success, status, timeStamp and path.
func Success(c *gin.Context, statusCode int, payload gin.H) {
	body := make(gin.H, len(payload)+4)
	for key, value := range payload {
		body[key] = value
	}
	body["success"] = true
	body["status"] = statusCode
	body["timeStamp"] = timestamp()
	body["path"] = requestPath(c)

	c.JSON(statusCode, body)
}

// Error writes the error envelope derived from an AppError. Non-AppErrors are
// rendered as INTERNAL_SERVER_ERROR and their cause is only logged.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = appErrors.ErrInternalServer
	}

	appErr := appErrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if status >= http.StatusInternalServerError {
		logger.WithModule("http").Error("request failed",
			zap.String("path", requestPath(c)),
			zap.String("code", appErr.Code),
			zap.Error(err),
		)
	}

	c.JSON(status, ErrorBody{
		Success:   false,
		Status:    status,
		Code:      appErr.Code,
		Reason:    appErr.Message,
		TimeStamp: timestamp(),
		Path:      requestPath(c),
	})
}

func timestamp() string {
	return now().UTC().Format(TimeLayout)
}

func requestPath(c *gin.Context) string {
	if c == nil || c.Request == nil || c.Request.URL == nil {
		return ""
	}
	return c.Request.URL.Path
}
