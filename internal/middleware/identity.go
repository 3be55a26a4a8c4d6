package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/picstream/backend/internal/models"
	"github.com/picstream/backend/internal/services"
)

// IdentityKey is the gin context key the resolved caller is stored under.
const IdentityKey = "identity"

// Identity resolves an optional bearer token into a caller identity and
// stores it in the request context. It never aborts: requests without a
// usable token proceed anonymously, and each service operation decides
// whether an identity is required. This keeps authorization decisions out
// of ambient state and inside the operations themselves.
func Identity(authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.Next()
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		claims, err := authService.ValidateAccessToken(token)
		if err != nil {
			c.Next()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.Next()
			return
		}

		user, err := authService.GetUserByID(userID)
		if err != nil || !user.IsActive {
			c.Next()
			return
		}

		identity := user.Identity()
		c.Set(IdentityKey, &identity)
		c.Next()
	}
}

// CallerIdentity returns the identity resolved by Identity, or nil for an
// anonymous request.
func CallerIdentity(c *gin.Context) *models.Identity {
	v, exists := c.Get(IdentityKey)
	if !exists {
		return nil
	}
	identity, ok := v.(*models.Identity)
	if !ok {
		return nil
	}
	return identity
}
