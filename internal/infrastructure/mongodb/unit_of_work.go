package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/plantgate-platform/dispatch-service/pkg/mongodb"
)

// UnitOfWork implements domain.UnitOfWork on a MongoDB transaction.
// Repository calls made with the callback's context join the session,
// so a checkpoint decision mutates its booking, steps and order
// atomically.
type UnitOfWork struct {
	client *mongodb.Client
}

// NewUnitOfWork creates a new UnitOfWork
func NewUnitOfWork(client *mongodb.Client) *UnitOfWork {
	return &UnitOfWork{client: client}
}

// Execute runs fn inside a transaction
func (u *UnitOfWork) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	return u.client.WithTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return fn(sessCtx)
	})
}
