package domain

import (
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Errors for the checkpoint pipeline configuration
var (
	ErrNoFirstOperation       = errors.New("pipeline has no first operation")
	ErrMultipleFirstOperations = errors.New("pipeline has more than one first operation")
	ErrPipelineCycle          = errors.New("pipeline chain contains a cycle")
	ErrPipelineBroken         = errors.New("pipeline chain is broken")
	ErrTerminalCount          = errors.New("pipeline must have exactly two terminal operations")
	ErrUnknownOperation       = errors.New("unknown operation")
)

// OperationValue identifies one checkpoint step
type OperationValue string

// Standard pipeline operations
const (
	OpEntryCheckpoint   OperationValue = "entry_checkpoint"
	OpInitialWeighing   OperationValue = "initial_weighing"
	OpLoadingValidation OperationValue = "loading_validation"
	OpLoadingGoods      OperationValue = "loading_goods"
	OpCompleted         OperationValue = "completed"
	OpCancelled         OperationValue = "cancelled"
)

// Operation is one configurable step of the checkpoint pipeline.
// Chain links are stored by value, not id, so the pipeline can be
// rebuilt in memory without self-joins.
type Operation struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	TenantID          string             `bson:"tenantId" json:"tenantId"`
	FactoryID         string             `bson:"factoryId" json:"factoryId"`
	Title             string             `bson:"title" json:"title"`
	Value             OperationValue     `bson:"value" json:"value"`
	RoleValue         string             `bson:"roleValue,omitempty" json:"roleValue,omitempty"`
	RoleExternalValue string             `bson:"roleExternalValue,omitempty" json:"roleExternalValue,omitempty"`
	IsFirst           bool               `bson:"isFirst" json:"isFirst"`
	IsLast            bool               `bson:"isLast" json:"isLast"`
	PrevValue         OperationValue     `bson:"prevValue,omitempty" json:"prevValue,omitempty"`
	NextValue         OperationValue     `bson:"nextValue,omitempty" json:"nextValue,omitempty"`
	CanCancel         bool               `bson:"canCancel" json:"canCancel"`
	IsActive          bool               `bson:"isActive" json:"isActive"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NewOperation creates a pipeline operation
func NewOperation(title string, value OperationValue, roleValue string, isFirst, isLast, canCancel bool) *Operation {
	now := time.Now().UTC()
	return &Operation{
		ID:        primitive.NewObjectID(),
		Title:     title,
		Value:     value,
		RoleValue: roleValue,
		IsFirst:   isFirst,
		IsLast:    isLast,
		CanCancel: canCancel,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RequiresRole reports whether acting on this step is role-gated
func (o *Operation) RequiresRole() bool {
	return o.RoleValue != ""
}

// OperationChain is the validated in-memory pipeline: a single forward
// walk from the first operation to the success terminal, plus one
// detached cancellation terminal.
type OperationChain struct {
	byValue         map[OperationValue]*Operation
	order           []OperationValue
	first           *Operation
	successTerminal *Operation
	cancelTerminal  *Operation
}

// NewOperationChain validates active operations into a chain. Exactly
// one operation must be first; following nextValue links must reach a
// terminal without revisiting a step; of the two terminals, the one the
// walk reaches is the success end and the other is the cancellation end.
func NewOperationChain(operations []*Operation) (*OperationChain, error) {
	chain := &OperationChain{
		byValue: make(map[OperationValue]*Operation, len(operations)),
	}

	var terminals []*Operation
	for _, op := range operations {
		if !op.IsActive {
			continue
		}
		if _, dup := chain.byValue[op.Value]; dup {
			return nil, fmt.Errorf("%w: duplicate value %q", ErrPipelineBroken, op.Value)
		}
		chain.byValue[op.Value] = op

		if op.IsFirst {
			if chain.first != nil {
				return nil, ErrMultipleFirstOperations
			}
			chain.first = op
		}
		if op.IsLast {
			terminals = append(terminals, op)
		}
	}

	if chain.first == nil {
		return nil, ErrNoFirstOperation
	}
	if len(terminals) != 2 {
		return nil, fmt.Errorf("%w: found %d", ErrTerminalCount, len(terminals))
	}

	// Walk forward and record the visiting order.
	visited := make(map[OperationValue]bool, len(chain.byValue))
	current := chain.first
	for {
		if visited[current.Value] {
			return nil, fmt.Errorf("%w: at %q", ErrPipelineCycle, current.Value)
		}
		visited[current.Value] = true
		chain.order = append(chain.order, current.Value)

		if current.IsLast {
			chain.successTerminal = current
			break
		}
		if current.NextValue == "" {
			return nil, fmt.Errorf("%w: %q has no successor", ErrPipelineBroken, current.Value)
		}
		next, ok := chain.byValue[current.NextValue]
		if !ok {
			return nil, fmt.Errorf("%w: %q links to unknown %q", ErrPipelineBroken, current.Value, current.NextValue)
		}
		current = next
	}

	for _, t := range terminals {
		if t.Value != chain.successTerminal.Value {
			chain.cancelTerminal = t
		}
	}

	return chain, nil
}

// First returns the entry operation of the pipeline
func (c *OperationChain) First() *Operation {
	return c.first
}

// SuccessTerminal returns the walk-reachable terminal operation
func (c *OperationChain) SuccessTerminal() *Operation {
	return c.successTerminal
}

// CancelTerminal returns the cancellation terminal operation
func (c *OperationChain) CancelTerminal() *Operation {
	return c.cancelTerminal
}

// Get looks up an operation by value
func (c *OperationChain) Get(value OperationValue) (*Operation, error) {
	op, ok := c.byValue[value]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, value)
	}
	return op, nil
}

// Next resolves the successor of the given operation. Terminals have
// no successor.
func (c *OperationChain) Next(value OperationValue) (*Operation, error) {
	op, err := c.Get(value)
	if err != nil {
		return nil, err
	}
	if op.IsLast {
		return nil, fmt.Errorf("%w: %q is terminal", ErrPipelineBroken, value)
	}
	return c.Get(op.NextValue)
}

// IsTerminal reports whether the value names a terminal operation
func (c *OperationChain) IsTerminal(value OperationValue) bool {
	op, ok := c.byValue[value]
	return ok && op.IsLast
}

// Walk returns the forward visiting order, first to success terminal
func (c *OperationChain) Walk() []OperationValue {
	out := make([]OperationValue, len(c.order))
	copy(out, c.order)
	return out
}
