package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/plantgate-platform/dispatch-service/pkg/mongodb"
	"github.com/plantgate-platform/dispatch-service/pkg/tenant"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// BookingStepRepository implements domain.BookingStepRepository on
// MongoDB. Step rows are the booking's audit trail and are only ever
// inserted or closed, never deleted.
type BookingStepRepository struct {
	collection   *mongo.Collection
	tenantHelper *tenant.RepositoryHelper
}

// NewBookingStepRepository creates a new BookingStepRepository
func NewBookingStepRepository(db *mongo.Database) *BookingStepRepository {
	repo := &BookingStepRepository{
		collection:   db.Collection("booking_steps"),
		tenantHelper: tenant.NewRepositoryHelper(),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *BookingStepRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bookingId", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "bookingId", Value: 1}, {Key: "isPassed", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save upserts a step row by its object id
func (r *BookingStepRepository) Save(ctx context.Context, step *domain.BookingStep) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": step.ID}
	update := bson.M{"$set": step}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save booking step: %w", err)
	}
	return nil
}

// SaveAll persists several step rows at once
func (r *BookingStepRepository) SaveAll(ctx context.Context, steps []*domain.BookingStep) error {
	for _, step := range steps {
		if err := r.Save(ctx, step); err != nil {
			return err
		}
	}
	return nil
}

// FindOpenByBookingID retrieves the booking's undecided step, nil when
// none is open
func (r *BookingStepRepository) FindOpenByBookingID(ctx context.Context, bookingID string) (*domain.BookingStep, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{
		"bookingId": bookingID,
		"isPassed":  nil,
	})

	var step domain.BookingStep
	err := r.collection.FindOne(ctx, filter).Decode(&step)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open step: %w", err)
	}
	return &step, nil
}

// FindByBookingID retrieves all steps of a booking in creation order
func (r *BookingStepRepository) FindByBookingID(ctx context.Context, bookingID string) ([]*domain.BookingStep, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{"bookingId": bookingID})
	opts := options.Find().SetSort(mongodb.SortAscending("createdAt"))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find booking steps: %w", err)
	}
	defer cursor.Close(ctx)

	var steps []*domain.BookingStep
	if err := cursor.All(ctx, &steps); err != nil {
		return nil, fmt.Errorf("failed to decode booking steps: %w", err)
	}
	return steps, nil
}
