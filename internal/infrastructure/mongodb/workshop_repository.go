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

// WorkshopRepository implements domain.WorkshopRepository on MongoDB
type WorkshopRepository struct {
	collection *mongo.Collection
}

// NewWorkshopRepository creates a new WorkshopRepository
func NewWorkshopRepository(db *mongo.Database) *WorkshopRepository {
	repo := &WorkshopRepository{collection: db.Collection("workshops")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *WorkshopRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "sapId", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save upserts a workshop by its SAP code
func (r *WorkshopRepository) Save(ctx context.Context, workshop *domain.Workshop) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"sapId": workshop.SapID}
	update := bson.M{"$set": workshop}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save workshop: %w", err)
	}
	return nil
}

// FindBySapID retrieves a workshop by its SAP code, nil when absent
func (r *WorkshopRepository) FindBySapID(ctx context.Context, sapID string) (*domain.Workshop, error) {
	var workshop domain.Workshop
	err := r.collection.FindOne(ctx, bson.M{"sapId": sapID}).Decode(&workshop)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find workshop: %w", err)
	}
	return &workshop, nil
}

// FindAll retrieves all workshops
func (r *WorkshopRepository) FindAll(ctx context.Context) ([]*domain.Workshop, error) {
	opts := options.Find().SetSort(mongodb.SortAscending("sapId"))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find workshops: %w", err)
	}
	defer cursor.Close(ctx)

	var workshops []*domain.Workshop
	if err := cursor.All(ctx, &workshops); err != nil {
		return nil, fmt.Errorf("failed to decode workshops: %w", err)
	}
	return workshops, nil
}
