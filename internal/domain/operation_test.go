package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test fixtures
func createTestPipeline() []*Operation {
	entry := NewOperation("Entry checkpoint", OpEntryCheckpoint, "security", true, false, true)
	entry.NextValue = OpInitialWeighing

	weighing := NewOperation("Initial weighing", OpInitialWeighing, "weigher", false, false, true)
	weighing.PrevValue = OpEntryCheckpoint
	weighing.NextValue = OpLoadingValidation

	validation := NewOperation("Validation before loading", OpLoadingValidation, "weigher", false, false, true)
	validation.PrevValue = OpInitialWeighing
	validation.NextValue = OpLoadingGoods

	loading := NewOperation("Loading goods", OpLoadingGoods, "loader", false, false, true)
	loading.PrevValue = OpLoadingValidation
	loading.NextValue = OpCompleted

	completed := NewOperation("Completed", OpCompleted, "", false, true, false)
	completed.PrevValue = OpLoadingGoods

	cancelled := NewOperation("Cancelled", OpCancelled, "", false, true, false)

	return []*Operation{entry, weighing, validation, loading, completed, cancelled}
}

func TestNewOperationChain(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(ops []*Operation)
		expectError error
	}{
		{
			name:        "Valid six-step pipeline",
			mutate:      func(ops []*Operation) {},
			expectError: nil,
		},
		{
			name: "No first operation",
			mutate: func(ops []*Operation) {
				ops[0].IsFirst = false
			},
			expectError: ErrNoFirstOperation,
		},
		{
			name: "Two first operations",
			mutate: func(ops []*Operation) {
				ops[1].IsFirst = true
			},
			expectError: ErrMultipleFirstOperations,
		},
		{
			name: "Broken successor link",
			mutate: func(ops []*Operation) {
				ops[1].NextValue = "no_such_step"
			},
			expectError: ErrPipelineBroken,
		},
		{
			name: "Missing successor on intermediate step",
			mutate: func(ops []*Operation) {
				ops[2].NextValue = ""
			},
			expectError: ErrPipelineBroken,
		},
		{
			name: "Cycle in the chain",
			mutate: func(ops []*Operation) {
				ops[3].NextValue = OpEntryCheckpoint
			},
			expectError: ErrPipelineCycle,
		},
		{
			name: "Single terminal only",
			mutate: func(ops []*Operation) {
				ops[5].IsActive = false
			},
			expectError: ErrTerminalCount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := createTestPipeline()
			tt.mutate(ops)

			chain, err := NewOperationChain(ops)
			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
				assert.Nil(t, chain)
			} else {
				require.NoError(t, err)
				require.NotNil(t, chain)
				assert.Equal(t, OpEntryCheckpoint, chain.First().Value)
				assert.Equal(t, OpCompleted, chain.SuccessTerminal().Value)
				assert.Equal(t, OpCancelled, chain.CancelTerminal().Value)
			}
		})
	}
}

func TestOperationChainWalk(t *testing.T) {
	chain, err := NewOperationChain(createTestPipeline())
	require.NoError(t, err)

	assert.Equal(t, []OperationValue{
		OpEntryCheckpoint,
		OpInitialWeighing,
		OpLoadingValidation,
		OpLoadingGoods,
		OpCompleted,
	}, chain.Walk())
}

func TestOperationChainNext(t *testing.T) {
	chain, err := NewOperationChain(createTestPipeline())
	require.NoError(t, err)

	next, err := chain.Next(OpEntryCheckpoint)
	require.NoError(t, err)
	assert.Equal(t, OpInitialWeighing, next.Value)

	next, err = chain.Next(OpLoadingGoods)
	require.NoError(t, err)
	assert.Equal(t, OpCompleted, next.Value)
	assert.True(t, next.IsLast)

	_, err = chain.Next(OpCompleted)
	assert.Error(t, err)

	_, err = chain.Next("no_such_step")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestOperationChainIgnoresInactive(t *testing.T) {
	ops := createTestPipeline()
	retired := NewOperation("Retired step", "retired_step", "", false, false, true)
	retired.IsActive = false
	ops = append(ops, retired)

	chain, err := NewOperationChain(ops)
	require.NoError(t, err)

	_, err = chain.Get("retired_step")
	assert.ErrorIs(t, err, ErrUnknownOperation)
}

func TestOperationChainIsTerminal(t *testing.T) {
	chain, err := NewOperationChain(createTestPipeline())
	require.NoError(t, err)

	assert.True(t, chain.IsTerminal(OpCompleted))
	assert.True(t, chain.IsTerminal(OpCancelled))
	assert.False(t, chain.IsTerminal(OpLoadingGoods))
	assert.False(t, chain.IsTerminal("no_such_step"))
}

func TestOperationRequiresRole(t *testing.T) {
	gated := NewOperation("Entry checkpoint", OpEntryCheckpoint, "security", true, false, true)
	open := NewOperation("Completed", OpCompleted, "", false, true, false)

	assert.True(t, gated.RequiresRole())
	assert.False(t, open.RequiresRole())
}
