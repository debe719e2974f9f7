package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BaseWeight is a pre-measured empty-vehicle weight valid for a time
// window. While effective it lets the initial weighing checkpoint
// auto-pass for the same car number without a manual measurement.
type BaseWeight struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID      string             `bson:"tenantId" json:"tenantId"`
	FactoryID     string             `bson:"factoryId" json:"factoryId"`
	CarNumber     string             `bson:"carNumber" json:"carNumber"`
	Tara          Weight             `bson:"tara" json:"tara"`
	EffectiveFrom time.Time          `bson:"effectiveFrom" json:"effectiveFrom"`
	EffectiveTo   time.Time          `bson:"effectiveTo" json:"effectiveTo"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
}

// NewBaseWeight records a measured tara for a car number
func NewBaseWeight(carNumber string, taraTons float64, from, to time.Time) *BaseWeight {
	return &BaseWeight{
		ID:            primitive.NewObjectID(),
		CarNumber:     carNumber,
		Tara:          NewWeight(taraTons),
		EffectiveFrom: from,
		EffectiveTo:   to,
		CreatedAt:     time.Now().UTC(),
	}
}

// IsEffectiveAt reports whether the base weight may substitute a
// manual weighing at the given moment
func (w *BaseWeight) IsEffectiveAt(at time.Time) bool {
	return !at.Before(w.EffectiveFrom) && !at.After(w.EffectiveTo)
}
