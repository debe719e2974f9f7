package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workshop is a physical loading location within a factory,
// identified externally by its SAP code
type Workshop struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID  string             `bson:"tenantId" json:"tenantId"`
	FactoryID string             `bson:"factoryId" json:"factoryId"`
	SapID     string             `bson:"sapId" json:"sapId"`
	Title     string             `bson:"title" json:"title"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewWorkshop creates an active workshop
func NewWorkshop(sapID, title string) *Workshop {
	now := time.Now().UTC()
	return &Workshop{
		ID:        primitive.NewObjectID(),
		SapID:     sapID,
		Title:     title,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
