package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/plantgate-platform/dispatch-service/pkg/mongodb"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// OperationRepository implements domain.OperationRepository on MongoDB
type OperationRepository struct {
	collection *mongo.Collection
}

// NewOperationRepository creates a new OperationRepository
func NewOperationRepository(db *mongo.Database) *OperationRepository {
	repo := &OperationRepository{collection: db.Collection("operations")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *OperationRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "value", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save upserts an operation by its machine value
func (r *OperationRepository) Save(ctx context.Context, op *domain.Operation) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"value": op.Value}
	update := bson.M{"$set": op}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save operation: %w", err)
	}
	return nil
}

// FindByValue retrieves an operation by its machine value, nil when absent
func (r *OperationRepository) FindByValue(ctx context.Context, value domain.OperationValue) (*domain.Operation, error) {
	var op domain.Operation
	err := r.collection.FindOne(ctx, bson.M{"value": value}).Decode(&op)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find operation: %w", err)
	}
	return &op, nil
}

// FindActive retrieves all active operations
func (r *OperationRepository) FindActive(ctx context.Context) ([]*domain.Operation, error) {
	return r.find(ctx, bson.M{"isActive": true})
}

// FindAll retrieves every operation including inactive ones
func (r *OperationRepository) FindAll(ctx context.Context) ([]*domain.Operation, error) {
	return r.find(ctx, bson.M{})
}

func (r *OperationRepository) find(ctx context.Context, filter bson.M) ([]*domain.Operation, error) {
	opts := options.Find().SetSort(mongodb.SortAscending("createdAt"))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find operations: %w", err)
	}
	defer cursor.Close(ctx)

	var operations []*domain.Operation
	if err := cursor.All(ctx, &operations); err != nil {
		return nil, fmt.Errorf("failed to decode operations: %w", err)
	}
	return operations, nil
}
