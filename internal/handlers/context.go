package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pawwalk/pawwalk/internal/middleware"
	appErrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/response"
)

// requestContext safely returns the request context with a background fallback for tests.
func requestContext(c *gin.Context) context.Context {
	if c == nil {
		return context.Background()
	}
	if req := c.Request; req != nil {
		return req.Context()
	}
	return context.Background()
}

// currentUserID returns the authenticated user id. When absent an
// unauthorized response is written and false is returned.
func currentUserID(c *gin.Context) (string, bool) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, appErrors.ErrUnauthorized)
		return "", false
	}
	return userID, true
}

// pathParam returns a trimmed path parameter, writing err when it is empty.
func pathParam(c *gin.Context, name string, err error) (string, bool) {
	value := strings.TrimSpace(c.Param(name))
	if value == "" {
		response.Error(c, err)
		return "", false
	}
	return value, true
}
