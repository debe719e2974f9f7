package tenant

import (
	"context"
	"errors"
)

// Context keys for tenant information
type contextKey string

const (
	tenantIDKey   contextKey = "tenantId"
	factoryIDKey  contextKey = "factoryId"
	workshopIDKey contextKey = "workshopId"
)

// Errors for tenant context operations
var (
	ErrMissingTenantContext = errors.New("tenant context is required")
	ErrUnauthorizedAccess   = errors.New("unauthorized access to tenant resource")
	ErrMissingTenantID      = errors.New("tenantId is required")
	ErrMissingFactoryID     = errors.New("factoryId is required")
)

// Context holds the tenant identifiers scoping every query in a
// multi-plant deployment.
type Context struct {
	// TenantID is the plant operator identifier (the company running the site)
	TenantID string `json:"tenantId"`

	// FactoryID is the physical production site identifier
	FactoryID string `json:"factoryId"`

	// WorkshopID is a specific loading workshop within a factory
	WorkshopID string `json:"workshopId"`
}

// FromContext extracts the tenant Context from context.Context.
// Returns an error if no scoping identifier is present.
func FromContext(ctx context.Context) (*Context, error) {
	tc := &Context{}

	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		tc.TenantID = v
	}
	if v, ok := ctx.Value(factoryIDKey).(string); ok {
		tc.FactoryID = v
	}
	if v, ok := ctx.Value(workshopIDKey).(string); ok {
		tc.WorkshopID = v
	}

	if tc.TenantID == "" && tc.FactoryID == "" {
		return nil, ErrMissingTenantContext
	}

	return tc, nil
}

// FromContextOptional extracts the tenant Context, returning an empty
// one when none exists.
func FromContextOptional(ctx context.Context) *Context {
	tc, _ := FromContext(ctx)
	if tc == nil {
		return &Context{}
	}
	return tc
}

// ToContext adds tenant Context values to context.Context.
func ToContext(ctx context.Context, tc *Context) context.Context {
	if tc == nil {
		return ctx
	}

	if tc.TenantID != "" {
		ctx = context.WithValue(ctx, tenantIDKey, tc.TenantID)
	}
	if tc.FactoryID != "" {
		ctx = context.WithValue(ctx, factoryIDKey, tc.FactoryID)
	}
	if tc.WorkshopID != "" {
		ctx = context.WithValue(ctx, workshopIDKey, tc.WorkshopID)
	}

	return ctx
}

// WithTenantID returns a new context with the tenant ID set
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// WithFactoryID returns a new context with the factory ID set
func WithFactoryID(ctx context.Context, factoryID string) context.Context {
	return context.WithValue(ctx, factoryIDKey, factoryID)
}

// WithWorkshopID returns a new context with the workshop ID set
func WithWorkshopID(ctx context.Context, workshopID string) context.Context {
	return context.WithValue(ctx, workshopIDKey, workshopID)
}

// GetTenantID extracts tenant ID from context
func GetTenantID(ctx context.Context) string {
	if v, ok := ctx.Value(tenantIDKey).(string); ok {
		return v
	}
	return ""
}

// GetFactoryID extracts factory ID from context
func GetFactoryID(ctx context.Context) string {
	if v, ok := ctx.Value(factoryIDKey).(string); ok {
		return v
	}
	return ""
}

// GetWorkshopID extracts workshop ID from context
func GetWorkshopID(ctx context.Context) string {
	if v, ok := ctx.Value(workshopIDKey).(string); ok {
		return v
	}
	return ""
}

// IsEmpty returns true if the context has no tenant identifiers set
func (tc *Context) IsEmpty() bool {
	return tc.TenantID == "" && tc.FactoryID == "" && tc.WorkshopID == ""
}

// Validate checks that the required tenant context fields are present.
func (tc *Context) Validate() error {
	if tc.TenantID == "" {
		return ErrMissingTenantID
	}
	if tc.FactoryID == "" {
		return ErrMissingFactoryID
	}
	return nil
}

// ValidateOwnership verifies that a resource belongs to this tenant context.
func (tc *Context) ValidateOwnership(resourceTenantID, resourceFactoryID string) error {
	if tc.TenantID != "" && resourceTenantID != "" && tc.TenantID != resourceTenantID {
		return ErrUnauthorizedAccess
	}
	if tc.FactoryID != "" && resourceFactoryID != "" && tc.FactoryID != resourceFactoryID {
		return ErrUnauthorizedAccess
	}
	return nil
}

// Default identifiers used for data created before tenant scoping existed.
const (
	DefaultTenantID  = "DEFAULT_TENANT"
	DefaultFactoryID = "DEFAULT_FACTORY"
)

// Default returns a default tenant context for backward compatibility
func Default() *Context {
	return &Context{
		TenantID:  DefaultTenantID,
		FactoryID: DefaultFactoryID,
	}
}
