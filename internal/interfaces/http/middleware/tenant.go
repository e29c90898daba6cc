package middleware

import (
	"net/http"
	"strings"

	"github.com/fincore/customer/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys and headers for tenant and actor propagation
const (
	TenantIDKey     = "tenant_id"
	TenantHeaderKey = "X-Tenant-ID"
	ActorKey        = "actor"
	ActorHeaderKey  = "X-User"
	AnonymousActor  = "anonymous"
)

// MaxActorLength caps the actor header to keep audit columns bounded
const MaxActorLength = 64

// TenantMiddlewareConfig holds configuration for tenant middleware
type TenantMiddlewareConfig struct {
	// SkipPaths are paths that don't require tenant context (e.g., health check)
	SkipPaths []string
	// Required determines if tenant context is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultTenantConfig returns default tenant middleware configuration
func DefaultTenantConfig() TenantMiddlewareConfig {
	return TenantMiddlewareConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready"},
		Required:  true,
		Logger:    nil,
	}
}

// TenantMiddleware extracts the tenant from the X-Tenant-ID header and the
// acting user from the X-User header. Every customer operation is scoped to
// the extracted tenant; requests without one are rejected.
func TenantMiddleware() gin.HandlerFunc {
	return TenantMiddlewareWithConfig(DefaultTenantConfig())
}

// TenantMiddlewareWithConfig returns tenant middleware with custom configuration
func TenantMiddlewareWithConfig(cfg TenantMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		tenantID := c.GetHeader(TenantHeaderKey)
		if tenantID != "" {
			if _, err := uuid.Parse(tenantID); err != nil {
				respondUnauthorized(c, "Invalid tenant ID format")
				return
			}
		}

		if tenantID == "" && cfg.Required {
			respondUnauthorized(c, "Tenant identification required")
			return
		}

		actor := extractActor(c)
		c.Set(ActorKey, actor)

		if tenantID != "" {
			c.Set(TenantIDKey, tenantID)

			// Propagate into the request context so service-layer logs carry
			// the tenant without re-extraction
			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithTenantID(ctx, log, tenantID)
			c.Request = c.Request.WithContext(ctx)

			if cfg.Logger != nil {
				cfg.Logger.Debug("tenant identified",
					zap.String("tenant_id", tenantID),
					zap.String("actor", actor),
				)
			}
		}

		c.Next()
	}
}

// extractActor reads the acting user from the X-User header, falling back to
// an anonymous marker so audit columns are never empty
func extractActor(c *gin.Context) string {
	actor := strings.TrimSpace(c.GetHeader(ActorHeaderKey))
	if actor == "" {
		return AnonymousActor
	}
	if len(actor) > MaxActorLength {
		actor = actor[:MaxActorLength]
	}
	return actor
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetTenantID retrieves the tenant ID from gin.Context
func GetTenantID(c *gin.Context) string {
	if tenantID, exists := c.Get(TenantIDKey); exists {
		if tid, ok := tenantID.(string); ok {
			return tid
		}
	}
	return ""
}

// GetTenantUUID retrieves the tenant ID as UUID from gin.Context
func GetTenantUUID(c *gin.Context) (uuid.UUID, error) {
	tenantID := GetTenantID(c)
	if tenantID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(tenantID)
}

// GetActor retrieves the acting user from gin.Context
func GetActor(c *gin.Context) string {
	if actor, exists := c.Get(ActorKey); exists {
		if a, ok := actor.(string); ok && a != "" {
			return a
		}
	}
	return AnonymousActor
}

// OptionalTenantMiddleware creates middleware that doesn't require tenant
func OptionalTenantMiddleware() gin.HandlerFunc {
	cfg := DefaultTenantConfig()
	cfg.Required = false
	return TenantMiddlewareWithConfig(cfg)
}
