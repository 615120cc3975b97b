package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tahfidz-app/tahfidz-api/internal/models"
	appErrors "github.com/tahfidz-app/tahfidz-api/pkg/errors"
	"github.com/tahfidz-app/tahfidz-api/pkg/response"
)

// RequireCapability guards a route with one or more capabilities. The
// request passes when the authenticated role holds any of them.
func RequireCapability(caps ...models.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextCapabilitiesKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		set, ok := value.(models.CapabilitySet)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		for _, cap := range caps {
			if set.Has(cap) {
				c.Next()
				return
			}
		}

		response.Error(c, appErrors.ErrForbidden)
		c.Abort()
	}
}
