package middleware

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/tgbazaar/marketplace-backend/internal/models"
	"github.com/tgbazaar/marketplace-backend/internal/services"
)

const CurrentUserKey = "current_user"

// Identity resolves the JSON-encoded "user_data" query parameter into a
// persisted user and stores it on the context. Mutating endpoints that carry
// user_data in the request body resolve it themselves in the handler.
// Absent or malformed identity means "no current user", never an error.
func Identity(identity *services.IdentityService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.Query("user_data")
		if raw != "" {
			var data models.TelegramUserData
			if err := json.Unmarshal([]byte(raw), &data); err == nil {
				if user, err := identity.Resolve(&data); err == nil && user != nil {
					c.Set(CurrentUserKey, user)
				}
			}
		}
		c.Next()
	}
}

// CurrentUser returns the user resolved by Identity, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, exists := c.Get(CurrentUserKey); exists {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}
