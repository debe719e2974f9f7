package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/plantgate-platform/dispatch-service/pkg/cloudevents"
	outboxMongo "github.com/plantgate-platform/dispatch-service/pkg/outbox/mongodb"
	"github.com/plantgate-platform/dispatch-service/pkg/tenant"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// OrderRepository implements domain.OrderRepository on MongoDB.
// Reconciliation results are staged to the outbox in the same
// transaction as the order write.
type OrderRepository struct {
	collection   *mongo.Collection
	outboxRepo   *outboxMongo.Repository
	eventFactory *cloudevents.EventFactory
	tenantHelper *tenant.RepositoryHelper
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *mongo.Database, eventFactory *cloudevents.EventFactory) *OrderRepository {
	repo := &OrderRepository{
		collection:   db.Collection("orders"),
		outboxRepo:   outboxMongo.NewRepository(db),
		eventFactory: eventFactory,
		tenantHelper: tenant.NewRepositoryHelper(),
	}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *OrderRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderId", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "orderNumber", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save upserts an order and stages its pending domain events
func (r *OrderRepository) Save(ctx context.Context, order *domain.Order) error {
	tc := tenant.FromContextOptional(ctx)
	if !tc.IsEmpty() {
		if order.TenantID == "" {
			order.TenantID = tc.TenantID
		}
		if order.FactoryID == "" {
			order.FactoryID = tc.FactoryID
		}
	}

	opts := options.Update().SetUpsert(true)
	filter := bson.M{"orderId": order.OrderID}
	update := bson.M{"$set": order}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}

	if err := stageDomainEvents(ctx, r.outboxRepo, r.eventFactory, order.OrderID, "Order", order.DomainEvents()); err != nil {
		return err
	}
	order.ClearDomainEvents()
	return nil
}

// FindByOrderID retrieves an order by its business id, nil when absent
func (r *OrderRepository) FindByOrderID(ctx context.Context, orderID string) (*domain.Order, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{"orderId": orderID})

	var order domain.Order
	err := r.collection.FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}

// FindByOrderNumber retrieves an order by its external number
func (r *OrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	filter := r.tenantHelper.WithTenantFilterOptional(ctx, bson.M{"orderNumber": orderNumber})

	var order domain.Order
	err := r.collection.FindOne(ctx, filter).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return &order, nil
}
