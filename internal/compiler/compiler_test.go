package compiler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/symphony-service/internal/model"
)

func staticStrategy() *model.Strategy {
	return &model.Strategy{
		Name:        "Balanced Core",
		Description: "60/40-ish core allocation",
		Assets:      []string{"SPY", "QQQ", "AGG"},
		Weights:     map[string]float64{"SPY": 0.5, "QQQ": 0.3, "AGG": 0.2},
		Rebalance:   model.CadenceMonthly,
	}
}

func dynamicStrategy(depth int) *model.Strategy {
	leaf := &model.LogicTreeNode{
		Type:   model.NodeAllocation,
		Assets: []string{"SPY", "QQQ"},
	}
	tree := leaf
	for i := 0; i < depth; i++ {
		tree = &model.LogicTreeNode{
			Type:        model.NodeConditional,
			Condition:   "VIXY_price > 22",
			TrueBranch:  &model.LogicTreeNode{Type: model.NodeAllocation, Assets: []string{"BIL"}},
			FalseBranch: tree,
		}
	}
	return &model.Strategy{
		Name:      "Volatility Switch",
		Assets:    []string{"SPY", "QQQ", "BIL"},
		Rebalance: model.CadenceDaily,
		LogicTree: tree,
	}
}

func countStep(node *model.SchemaNode, step model.Step) int {
	if node == nil {
		return 0
	}
	count := 0
	if node.Step == step {
		count++
	}
	for _, child := range node.Children {
		count += countStep(child, step)
	}
	return count
}

func TestCompileStaticStrategy(t *testing.T) {
	doc, err := New(zap.NewNop()).Compile(staticStrategy())
	require.NoError(t, err)

	assert.Equal(t, model.StepRoot, doc.Step)
	assert.Equal(t, "Balanced Core", doc.Name)
	assert.Equal(t, model.CadenceMonthly, doc.Rebalance)
	assert.Nil(t, doc.Weight)
	assert.Nil(t, doc.SuggestedCorridorWidth)

	require.Len(t, doc.Children, 1)
	fragment := doc.Children[0]
	assert.Equal(t, model.StepWtCashSpecified, fragment.Step)
	require.Len(t, fragment.Children, 3)
	assert.Zero(t, countStep(fragment, model.StepIf))

	sum := 0.0
	for _, child := range fragment.Children {
		require.NotNil(t, child.Allocation)
		sum += *child.Allocation
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestCompileConditionalDepthProducesMatchingIfCount(t *testing.T) {
	for _, depth := range []int{1, 2, 3} {
		doc, err := New(zap.NewNop()).Compile(dynamicStrategy(depth))
		require.NoError(t, err)
		require.Len(t, doc.Children, 1)

		assert.Equal(t, depth, countStep(doc.Children[0], model.StepIf))
	}
}

func TestCompileConditionalBranchShape(t *testing.T) {
	doc, err := New(zap.NewNop()).Compile(dynamicStrategy(1))
	require.NoError(t, err)

	ifNode := doc.Children[0]
	require.Equal(t, model.StepIf, ifNode.Step)
	require.Len(t, ifNode.Children, 2)

	then := ifNode.Children[0]
	otherwise := ifNode.Children[1]

	require.NotNil(t, then.IsElseCondition)
	assert.False(t, *then.IsElseCondition)
	assert.Equal(t, model.ComparatorGT, then.Comparator)
	assert.Equal(t, "VIXY", then.LHSVal)
	assert.Equal(t, model.FnMovingAverage, then.LHSFn)
	assert.Equal(t, map[string]int{"window": 1}, then.LHSFnParams)
	assert.Equal(t, "22", then.RHSVal)
	require.NotNil(t, then.RHSFixedValue)
	assert.True(t, *then.RHSFixedValue)
	// Platform quirk: rhs-fn is always the left function, even for literals.
	assert.Equal(t, then.LHSFn, then.RHSFn)
	require.Len(t, then.Children, 1)

	require.NotNil(t, otherwise.IsElseCondition)
	assert.True(t, *otherwise.IsElseCondition)
	assert.Empty(t, otherwise.Comparator)
	assert.Empty(t, otherwise.LHSVal)
	assert.Nil(t, otherwise.RHSFixedValue)
	require.Len(t, otherwise.Children, 1)
}

// The compiler substitutes a one-day moving average wherever instantaneous
// price is requested, because the platform rejects a current-price function
// inside conditional nodes. If this test starts failing after a schema
// change, the substitution in the operand resolver can be retired.
func TestInstantaneousPriceCompilesToOneDayMovingAverage(t *testing.T) {
	doc, err := New(zap.NewNop()).Compile(dynamicStrategy(1))
	require.NoError(t, err)

	then := doc.Children[0].Children[0]
	assert.Equal(t, model.FnMovingAverage, then.LHSFn)
	assert.Equal(t, map[string]int{"window": 1}, then.LHSFnParams)
}

func TestCompileIsDeterministic(t *testing.T) {
	c := New(zap.NewNop())

	for _, strategy := range []*model.Strategy{staticStrategy(), dynamicStrategy(2)} {
		first, err := c.Compile(strategy)
		require.NoError(t, err)
		second, err := c.Compile(strategy)
		require.NoError(t, err)

		firstJSON, err := json.Marshal(first)
		require.NoError(t, err)
		secondJSON, err := json.Marshal(second)
		require.NoError(t, err)
		assert.JSONEq(t, string(firstJSON), string(secondJSON))
	}
}

func TestCompileDoesNotMutateInput(t *testing.T) {
	strategy := staticStrategy()
	original, err := json.Marshal(strategy)
	require.NoError(t, err)

	_, err = New(zap.NewNop()).Compile(strategy)
	require.NoError(t, err)

	after, err := json.Marshal(strategy)
	require.NoError(t, err)
	assert.JSONEq(t, string(original), string(after))
}

func TestCompileRejectsBadInput(t *testing.T) {
	c := New(zap.NewNop())

	tests := []struct {
		name     string
		strategy *model.Strategy
	}{
		{
			name:     "missing name",
			strategy: &model.Strategy{Assets: []string{"SPY"}, Rebalance: model.CadenceDaily},
		},
		{
			name:     "no assets",
			strategy: &model.Strategy{Name: "x", Rebalance: model.CadenceDaily},
		},
		{
			name:     "unknown cadence",
			strategy: &model.Strategy{Name: "x", Assets: []string{"SPY"}, Rebalance: "hourly"},
		},
		{
			name: "conditional without else branch",
			strategy: &model.Strategy{
				Name: "x", Assets: []string{"SPY"}, Rebalance: model.CadenceDaily,
				LogicTree: &model.LogicTreeNode{
					Type:       model.NodeConditional,
					Condition:  "SPY > 100",
					TrueBranch: &model.LogicTreeNode{Type: model.NodeAllocation, Assets: []string{"SPY"}},
				},
			},
		},
		{
			name: "unknown node type",
			strategy: &model.Strategy{
				Name: "x", Assets: []string{"SPY"}, Rebalance: model.CadenceDaily,
				LogicTree: &model.LogicTreeNode{Type: "ternary"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Compile(tt.strategy)
			assert.Error(t, err)
		})
	}
}
