package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/plantgate-platform/dispatch-service/pkg/mongodb"

	"github.com/plantgate-platform/dispatch-service/internal/domain"
)

// BaseWeightRepository implements domain.BaseWeightRepository on MongoDB
type BaseWeightRepository struct {
	collection *mongo.Collection
}

// NewBaseWeightRepository creates a new BaseWeightRepository
func NewBaseWeightRepository(db *mongo.Database) *BaseWeightRepository {
	repo := &BaseWeightRepository{collection: db.Collection("base_weights")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *BaseWeightRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "carNumber", Value: 1}, {Key: "effectiveFrom", Value: -1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save upserts a base weight record by its object id
func (r *BaseWeightRepository) Save(ctx context.Context, weight *domain.BaseWeight) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": weight.ID}
	update := bson.M{"$set": weight}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save base weight: %w", err)
	}
	return nil
}

// FindEffective retrieves the base weight effective for the car number
// at the given moment, nil when none applies. The most recently
// effective record wins when windows overlap.
func (r *BaseWeightRepository) FindEffective(ctx context.Context, carNumber string, at time.Time) (*domain.BaseWeight, error) {
	filter := bson.M{
		"carNumber":     carNumber,
		"effectiveFrom": bson.M{"$lte": at},
		"effectiveTo":   bson.M{"$gte": at},
	}
	opts := options.FindOne().SetSort(mongodb.SortDescending("effectiveFrom"))

	var weight domain.BaseWeight
	err := r.collection.FindOne(ctx, filter, opts).Decode(&weight)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find base weight: %w", err)
	}
	return &weight, nil
}
