package middleware

import (
	"github.com/gin-gonic/gin"

	iauth "github.com/atelierhq/backend/internal/auth"
	"github.com/atelierhq/backend/pkg/errors"
	"github.com/atelierhq/backend/pkg/response"
)

// RequireRole restricts a route group to accounts holding one of the given
// role ids. The role is read from the credential record, not the token, so a
// role change takes effect without waiting for token expiry.
func RequireRole(store iauth.CredentialStore, roleIDs ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		allowed[id] = struct{}{}
	}

	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		user, err := store.FindByID(c.Request.Context(), userID)
		if err != nil {
			response.Error(c, errors.ErrUnauthorized)
			c.Abort()
			return
		}

		if user.RoleID == nil {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}
		if _, ok := allowed[*user.RoleID]; !ok {
			response.Error(c, errors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
