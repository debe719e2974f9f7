package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/plantgate-platform/dispatch-service/pkg/cloudevents"
	"github.com/plantgate-platform/dispatch-service/pkg/mongodb"
	outboxMongo "github.com/plantgate-platform/dispatch-service/pkg/outbox/mongodb"
	"github.com/plantgate-platform/dispatch-service/pkg/tenant"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// BookingRepository implements domain.BookingRepository on MongoDB with
// transactional outbox staging
type BookingRepository struct {
	collection   *mongo.Collection
	outboxRepo   *outboxMongo.Repository
	eventFactory *cloudevents.EventFactory
	tenantHelper *tenant.RepositoryHelper
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *BookingRepository {
	repo := &BookingRepository{
		collection:   db.Collection("bookings"),
		outboxRepo:   outboxMongo.NewRepository(db),
		eventFactory: eventFactory,
		tenantHelper: tenant.NewRepositoryHelper(),
	}
	repo.ensureIndexes(context.Background())
	_ = repo.outboxRepo.EnsureIndexes(context.Background())
	return repo
}

func (r *BookingRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "bookingId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "orderId", Value: 1}}},
		{Keys: bson.D{{Key: "workshopScheduleId", Value: 1}, {Key: "startAt", Value: 1}}},
		{Keys: bson.D{{Key: "carNumber", Value: 1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Create inserts a new booking. The interval's active bookings are
// re-counted with the caller's context first, so inside a transaction
// the count and the insert are atomic and an oversold interval is
// rejected with ErrCapacityExhausted.
func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking, maxAtOneTime int) error {
	taken, err := r.CountActiveAtStart(ctx, booking.WorkshopScheduleID, booking.StartAt)
	if err != nil {
		return fmt.Errorf("failed to count interval bookings: %w", err)
	}
	if taken >= int64(maxAtOneTime) {
		return domain.ErrCapacityExhausted
	}

	r.stampTenant(ctx, booking)
	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to insert booking: %w", err)
	}

	if err := stageDomainEvents(ctx, r.outboxRepo, r.eventFactory, booking.BookingID, "Booking", booking.DomainEvents()); err != nil {
		return err
	}
	booking.ClearDomainEvents()
	return nil
}

// Save upserts an existing booking and stages its domain events
func (r *BookingRepository) Save(ctx context.Context, booking *domain.Booking) error {
	r.stampTenant(ctx, booking)

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"bookingId": booking.BookingID}
	update := bson.M{"$set": booking}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}

	if err := stageDomainEvents(ctx, r.outboxRepo, r.eventFactory, booking.BookingID, "Booking", booking.DomainEvents()); err != nil {
		return err
	}
	booking.ClearDomainEvents()
	return nil
}

// FindByBookingID retrieves a booking by its business id, nil when absent
func (r *BookingRepository) FindByBookingID(ctx context.Context, bookingID string) (*domain.Booking, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{"bookingId": bookingID})

	var booking domain.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find booking: %w", err)
	}
	return &booking, nil
}

// FindByOrderID retrieves every booking of an order in creation order
func (r *BookingRepository) FindByOrderID(ctx context.Context, orderID string) ([]*domain.Booking, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{"orderId": orderID})
	opts := options.Find().SetSort(mongodb.SortAscending("createdAt"))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find order bookings: %w", err)
	}
	defer cursor.Close(ctx)

	var bookings []*domain.Booking
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}

// CountActiveAtStart counts active bookings of a capacity schedule
// whose interval starts exactly at the given time
func (r *BookingRepository) CountActiveAtStart(ctx context.Context, workshopScheduleID string, startAt time.Time) (int64, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{
		"workshopScheduleId": workshopScheduleID,
		"startAt":            startAt,
		"isActive":           true,
	})
	return r.collection.CountDocuments(ctx, filter)
}

func (r *BookingRepository) stampTenant(ctx context.Context, booking *domain.Booking) {
	tc := tenant.FromContextOptional(ctx)
	if tc.IsEmpty() {
		return
	}
	if booking.TenantID == "" {
		booking.TenantID = tc.TenantID
	}
	if booking.FactoryID == "" {
		booking.FactoryID = tc.FactoryID
	}
}
