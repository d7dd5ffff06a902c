package middleware

import (
	"net/http"

	"github.com/fieldservice/backend/internal/domain/shared"
	"github.com/fieldservice/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	TenantHeaderKey = "X-Tenant-ID"
	UserHeaderKey   = "X-User-ID"

	// ActorKey is the gin context key holding the shared.Actor
	ActorKey = "actor"
)

// Actor resolves the tenant and acting user from the X-Tenant-ID and
// X-User-ID headers. The tenant is mandatory; a missing user means the call
// is made by the system. Authentication itself happens upstream.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(TenantHeaderKey)
		if raw == "" {
			abortBadRequest(c, dto.ErrCodeTenantRequired, "X-Tenant-ID header is required")
			return
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			abortBadRequest(c, dto.ErrCodeValidation, "X-Tenant-ID must be a UUID")
			return
		}

		var userID *uuid.UUID
		if rawUser := c.GetHeader(UserHeaderKey); rawUser != "" {
			id, err := uuid.Parse(rawUser)
			if err != nil {
				abortBadRequest(c, dto.ErrCodeValidation, "X-User-ID must be a UUID")
				return
			}
			userID = &id
		}

		c.Set(ActorKey, shared.NewActor(tenantID, userID))
		c.Next()
	}
}

// GetActor returns the actor resolved by Actor
func GetActor(c *gin.Context) (shared.Actor, bool) {
	v, ok := c.Get(ActorKey)
	if !ok {
		return shared.Actor{}, false
	}
	actor, ok := v.(shared.Actor)
	return actor, ok
}

func abortBadRequest(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponseWithRequestID(code, message, GetRequestID(c)))
}
