package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
	"github.com/plantgate-platform/dispatch-service/pkg/tenant"
)

// Read-only repositories over reference collections replicated from the
// identity and registry services. Writes happen upstream; this service
// only resolves snapshots for bookings.

// UserRepository implements domain.UserRepository on MongoDB
type UserRepository struct {
	collection   *mongo.Collection
	tenantHelper *tenant.RepositoryHelper
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection:   db.Collection("users"),
		tenantHelper: tenant.NewRepositoryHelper(),
	}
}

// FindByUserID retrieves a user by its external id, nil when absent
func (r *UserRepository) FindByUserID(ctx context.Context, userID string) (*domain.User, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{"userId": userID})

	var user domain.User
	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// OrganizationRepository implements domain.OrganizationRepository on MongoDB
type OrganizationRepository struct {
	collection   *mongo.Collection
	tenantHelper *tenant.RepositoryHelper
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *mongo.Database) *OrganizationRepository {
	return &OrganizationRepository{
		collection:   db.Collection("organizations"),
		tenantHelper: tenant.NewRepositoryHelper(),
	}
}

// FindByOrgID retrieves an organization by its external id, nil when absent
func (r *OrganizationRepository) FindByOrgID(ctx context.Context, orgID string) (*domain.Organization, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{"orgId": orgID})

	var org domain.Organization
	err := r.collection.FindOne(ctx, filter).Decode(&org)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find organization: %w", err)
	}
	return &org, nil
}

// VehicleRepository implements domain.VehicleRepository on MongoDB
type VehicleRepository struct {
	collection   *mongo.Collection
	tenantHelper *tenant.RepositoryHelper
}

// NewVehicleRepository creates a new VehicleRepository
func NewVehicleRepository(db *mongo.Database) *VehicleRepository {
	return &VehicleRepository{
		collection:   db.Collection("vehicles"),
		tenantHelper: tenant.NewRepositoryHelper(),
	}
}

// FindByVehicleID retrieves a vehicle by its external id, nil when absent
func (r *VehicleRepository) FindByVehicleID(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{"vehicleId": vehicleID})

	var vehicle domain.Vehicle
	err := r.collection.FindOne(ctx, filter).Decode(&vehicle)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find vehicle: %w", err)
	}
	return &vehicle, nil
}
