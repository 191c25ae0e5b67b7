package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"

	iauth "github.com/pawwalk/pawwalk/internal/auth"
	"github.com/pawwalk/pawwalk/internal/models"
	"github.com/pawwalk/pawwalk/internal/services"
	apperrors "github.com/pawwalk/pawwalk/pkg/errors"
	"github.com/pawwalk/pawwalk/pkg/response"
)

const (
	CtxIdentityKey = "authIdentity"
	CtxUserIDKey   = "userID"
	CtxUserKey     = "authUser"
)

// Auth verifies the bearer token and resolves the local user behind it.
// Unknown subjects are provisioned when autoProvision is set.
func Auth(resolver *iauth.Resolver, users *services.UserService, autoProvision bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := resolver.Resolve(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			c.Header("WWW-Authenticate", "Bearer")
			response.Error(c, authError(err))
			c.Abort()
			return
		}

		user, err := users.ResolveByFirebaseUID(c.Request.Context(), identity, autoProvision)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(CtxIdentityKey, identity)
		c.Set(CtxUserKey, user)
		c.Set(CtxUserIDKey, user.ID)

		c.Next()
	}
}

func authError(err error) error {
	switch {
	case errors.Is(err, iauth.ErrMissingHeader):
		return apperrors.ErrAuthMissingHeader
	case errors.Is(err, iauth.ErrMalformedHeader):
		return apperrors.ErrAuthMalformedHeader
	default:
		return apperrors.ErrAuthInvalidToken.WithInternal(err)
	}
}

// CurrentUser returns the user resolved by Auth, if any.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, ok := c.Get(CtxUserKey)
	if !ok {
		return nil, false
	}
	user, ok := value.(*models.User)
	return user, ok && user != nil
}
