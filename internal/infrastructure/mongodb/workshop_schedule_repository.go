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

// WorkshopScheduleRepository implements domain.WorkshopScheduleRepository
// on MongoDB
type WorkshopScheduleRepository struct {
	collection *mongo.Collection
}

// NewWorkshopScheduleRepository creates a new WorkshopScheduleRepository
func NewWorkshopScheduleRepository(db *mongo.Database) *WorkshopScheduleRepository {
	repo := &WorkshopScheduleRepository{collection: db.Collection("workshop_schedules")}
	repo.ensureIndexes(context.Background())
	return repo
}

func (r *WorkshopScheduleRepository) ensureIndexes(ctx context.Context) {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "workshopSapId", Value: 1}, {Key: "dateStart", Value: 1}}},
		{Keys: bson.D{{Key: "isActive", Value: 1}}},
	}
	r.collection.Indexes().CreateMany(ctx, indexes)
}

// Save upserts a capacity schedule by its object id
func (r *WorkshopScheduleRepository) Save(ctx context.Context, schedule *domain.WorkshopSchedule) error {
	opts := options.Update().SetUpsert(true)
	filter := bson.M{"_id": schedule.ID}
	update := bson.M{"$set": schedule}

	if _, err := r.collection.UpdateOne(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("failed to save capacity schedule: %w", err)
	}
	return nil
}

// FindByID retrieves a schedule by its hex id, nil when absent
func (r *WorkshopScheduleRepository) FindByID(ctx context.Context, id string) (*domain.WorkshopSchedule, error) {
	objectID, err := mongodb.ParseID(id)
	if err != nil {
		return nil, nil
	}

	var schedule domain.WorkshopSchedule
	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&schedule)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find capacity schedule: %w", err)
	}
	return &schedule, nil
}

// FindActiveForDate retrieves the active schedule whose validity window
// covers the given date, nil when none does
func (r *WorkshopScheduleRepository) FindActiveForDate(ctx context.Context, workshopSapID string, date time.Time) (*domain.WorkshopSchedule, error) {
	day := startOfDay(date)
	filter := bson.M{
		"workshopSapId": workshopSapID,
		"isActive":      true,
		"dateStart":     bson.M{"$lte": endOfDay(day)},
		"dateEnd":       bson.M{"$gte": day},
	}

	var schedule domain.WorkshopSchedule
	err := r.collection.FindOne(ctx, filter).Decode(&schedule)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find capacity schedule: %w", err)
	}
	return &schedule, nil
}

// FindOverlapping retrieves active schedules of the workshop whose
// validity windows overlap the given window
func (r *WorkshopScheduleRepository) FindOverlapping(ctx context.Context, workshopSapID string, dateStart, dateEnd time.Time) ([]*domain.WorkshopSchedule, error) {
	filter := bson.M{
		"workshopSapId": workshopSapID,
		"isActive":      true,
		"dateStart":     bson.M{"$lte": endOfDay(dateEnd)},
		"dateEnd":       bson.M{"$gte": startOfDay(dateStart)},
	}

	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to find overlapping schedules: %w", err)
	}
	defer cursor.Close(ctx)

	var schedules []*domain.WorkshopSchedule
	if err := cursor.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("failed to decode schedules: %w", err)
	}
	return schedules, nil
}

// FindAll retrieves all capacity schedules
func (r *WorkshopScheduleRepository) FindAll(ctx context.Context) ([]*domain.WorkshopSchedule, error) {
	opts := options.Find().SetSort(mongodb.SortAscending("dateStart"))
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find capacity schedules: %w", err)
	}
	defer cursor.Close(ctx)

	var schedules []*domain.WorkshopSchedule
	if err := cursor.All(ctx, &schedules); err != nil {
		return nil, fmt.Errorf("failed to decode schedules: %w", err)
	}
	return schedules, nil
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}
