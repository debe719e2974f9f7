package tenant

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
)

// RepositoryHelper appends tenant scoping to mongo filters so queries
// never cross plant boundaries.
type RepositoryHelper struct{}

// NewRepositoryHelper creates a new repository helper
func NewRepositoryHelper() *RepositoryHelper {
	return &RepositoryHelper{}
}

// WithTenantFilter adds tenant filtering to a MongoDB filter.
// Returns an error if no tenant context is present.
func (h *RepositoryHelper) WithTenantFilter(ctx context.Context, filter bson.M) (bson.M, error) {
	tc, err := FromContext(ctx)
	if err != nil {
		return nil, err
	}

	if filter == nil {
		filter = bson.M{}
	}

	if tc.TenantID != "" {
		filter["tenantId"] = tc.TenantID
	}
	if tc.FactoryID != "" {
		filter["factoryId"] = tc.FactoryID
	}

	return filter, nil
}

// WithTenantFilterOptional adds tenant filtering when a tenant context
// exists and leaves the filter untouched otherwise.
func (h *RepositoryHelper) WithTenantFilterOptional(ctx context.Context, filter bson.M) bson.M {
	if filter == nil {
		filter = bson.M{}
	}

	tc := FromContextOptional(ctx)
	if tc.IsEmpty() {
		return filter
	}

	if tc.TenantID != "" {
		filter["tenantId"] = tc.TenantID
	}
	if tc.FactoryID != "" {
		filter["factoryId"] = tc.FactoryID
	}

	return filter
}

// WithWorkshopFilter narrows a filter to the workshop in context, on
// top of the tenant scoping.
func (h *RepositoryHelper) WithWorkshopFilter(ctx context.Context, filter bson.M) (bson.M, error) {
	filter, err := h.WithTenantFilter(ctx, filter)
	if err != nil {
		return nil, err
	}

	if workshopID := GetWorkshopID(ctx); workshopID != "" {
		filter["workshopId"] = workshopID
	}

	return filter, nil
}

// StampDocument sets tenant fields on a document before insertion.
func (h *RepositoryHelper) StampDocument(ctx context.Context, doc bson.M) (bson.M, error) {
	tc, err := FromContext(ctx)
	if err != nil {
		return nil, err
	}

	if doc == nil {
		doc = bson.M{}
	}

	doc["tenantId"] = tc.TenantID
	doc["factoryId"] = tc.FactoryID

	return doc, nil
}
