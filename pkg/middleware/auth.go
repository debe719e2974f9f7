package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/plantgate-platform/dispatch-service/pkg/logging"
	"github.com/plantgate-platform/dispatch-service/pkg/tenant"
)

// Principal header names. Authentication happens at the gateway; this
// service trusts the identity headers it forwards.
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
	HeaderUserName = "X-User-Name"
)

// Tenant scoping header names
const (
	HeaderPlantTenantID   = "X-Plant-Tenant-ID"
	HeaderPlantFactoryID  = "X-Plant-Factory-ID"
	HeaderPlantWorkshopID = "X-Plant-Workshop-ID"
)

// Context keys for the authenticated principal
const (
	ContextKeyPrincipal = "principal"
)

// Known principal roles
const (
	RoleClient   = "client"
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// Principal identifies the caller of an authenticated endpoint.
type Principal struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Name   string `json:"name,omitempty"`
}

// IsEmployee reports whether the principal can operate checkpoints.
// Admins inherit employee capabilities.
func (p *Principal) IsEmployee() bool {
	return p.Role == RoleEmployee || p.Role == RoleAdmin
}

// IsAdmin reports whether the principal can manage reference data.
func (p *Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}

// AuthConfig holds configuration for the principal middleware
type AuthConfig struct {
	// Required rejects requests without identity headers when true
	Required bool
}

// Auth middleware extracts the caller principal from gateway headers
// and stores it in both the Gin context and the request context.
func Auth(config *AuthConfig) gin.HandlerFunc {
	if config == nil {
		config = &AuthConfig{Required: true}
	}

	return func(c *gin.Context) {
		userID := c.GetHeader(HeaderUserID)
		role := c.GetHeader(HeaderUserRole)

		if userID == "" || role == "" {
			if config.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"code":    "MISSING_PRINCIPAL",
					"message": "Identity headers are required",
				})
				return
			}
			c.Next()
			return
		}

		principal := &Principal{
			UserID: userID,
			Role:   role,
			Name:   c.GetHeader(HeaderUserName),
		}

		c.Set(ContextKeyPrincipal, principal)

		ctx := logging.ContextWithUserID(c.Request.Context(), userID)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetPrincipal retrieves the caller principal from the Gin context.
func GetPrincipal(c *gin.Context) (*Principal, bool) {
	if val, exists := c.Get(ContextKeyPrincipal); exists {
		if p, ok := val.(*Principal); ok {
			return p, true
		}
	}
	return nil, false
}

// RequireRole ensures the principal holds one of the given roles.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "MISSING_PRINCIPAL",
				"message": "Identity headers are required",
			})
			return
		}

		// Admins may call every role-gated endpoint.
		if !allowed[p.Role] && p.Role != RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    "INSUFFICIENT_ROLE",
				"message": "This endpoint is not available for your role",
			})
			return
		}

		c.Next()
	}
}

// TenantAuthConfig holds configuration for tenant scoping middleware
type TenantAuthConfig struct {
	// Required rejects requests without tenant context when true
	Required bool

	// DefaultTenantID is used when no tenant header is provided and Required is false
	DefaultTenantID string

	// DefaultFactoryID is used when no factory header is provided and Required is false
	DefaultFactoryID string
}

// DefaultTenantAuthConfig returns a default configuration for single-plant deployments
func DefaultTenantAuthConfig() *TenantAuthConfig {
	return &TenantAuthConfig{
		Required:         false,
		DefaultTenantID:  tenant.DefaultTenantID,
		DefaultFactoryID: tenant.DefaultFactoryID,
	}
}

// TenantAuth middleware extracts tenant context from headers and adds it to the request context.
func TenantAuth(config *TenantAuthConfig) gin.HandlerFunc {
	if config == nil {
		config = DefaultTenantAuthConfig()
	}

	return func(c *gin.Context) {
		tenantID := c.GetHeader(HeaderPlantTenantID)
		factoryID := c.GetHeader(HeaderPlantFactoryID)
		workshopID := c.GetHeader(HeaderPlantWorkshopID)

		if tenantID == "" && !config.Required {
			tenantID = config.DefaultTenantID
		}
		if factoryID == "" && !config.Required {
			factoryID = config.DefaultFactoryID
		}

		if config.Required && tenantID == "" && factoryID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "MISSING_TENANT_CONTEXT",
				"message": "Tenant or factory context is required",
			})
			return
		}

		tc := &tenant.Context{
			TenantID:   tenantID,
			FactoryID:  factoryID,
			WorkshopID: workshopID,
		}

		ctx := tenant.ToContext(c.Request.Context(), tc)
		c.Request = c.Request.WithContext(ctx)

		// Also store in Gin context for easy access in handlers
		c.Set("tenantContext", tc)

		c.Next()
	}
}

// GetTenantContext retrieves the tenant context from Gin context
func GetTenantContext(c *gin.Context) *tenant.Context {
	if val, exists := c.Get("tenantContext"); exists {
		if tc, ok := val.(*tenant.Context); ok {
			return tc
		}
	}
	return tenant.FromContextOptional(c.Request.Context())
}

// RequireTenant is a middleware that ensures tenant context is present.
func RequireTenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		tc := GetTenantContext(c)
		if tc == nil || tc.IsEmpty() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    "MISSING_TENANT_CONTEXT",
				"message": "Tenant context is required for this endpoint",
			})
			return
		}
		c.Next()
	}
}
