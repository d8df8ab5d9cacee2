// Package compiler turns strategy candidates into symphony documents. The
// remote platform's only error signal on a malformed document is an opaque
// "not valid under any of the given schemas", so every shape rule lives here
// and in the validator package rather than being discovered at submission.
package compiler

import (
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/yourorg/symphony-service/internal/model"
)

// Compiler compiles strategies into symphony documents. It holds no mutable
// state; a single instance is safe for concurrent use across strategies.
type Compiler struct {
	logger *zap.Logger
}

// New creates a new compiler.
func New(logger *zap.Logger) *Compiler {
	return &Compiler{logger: logger}
}

// Compile builds the full document for a strategy: the compiled fragment
// (a weighting node for static strategies, a conditional node for dynamic
// ones) wrapped under a root node carrying strategy-level metadata. The input
// strategy is never mutated.
func (c *Compiler) Compile(strategy *model.Strategy) (*model.SymphonyDocument, error) {
	if strategy.Name == "" {
		return nil, &model.SchemaInvariantViolationError{Path: "name", Reason: "strategy name is required"}
	}
	if len(strategy.Assets) == 0 {
		return nil, &model.SchemaInvariantViolationError{Path: "children", Reason: "strategy has no assets"}
	}
	if !strategy.Rebalance.IsValid() {
		return nil, &model.SchemaInvariantViolationError{
			Path:   "rebalance",
			Reason: fmt.Sprintf("unknown rebalance cadence %q", strategy.Rebalance),
		}
	}

	var fragment *model.SchemaNode
	var err error
	if strategy.LogicTree == nil {
		fragment, err = BuildAllocation(strategy.Assets, strategy.Weights, c.logger)
	} else {
		fragment, err = c.compileNode(strategy.LogicTree)
	}
	if err != nil {
		return nil, err
	}

	return &model.SymphonyDocument{
		Step:        model.StepRoot,
		Name:        strategy.Name,
		Description: strategy.Description,
		Rebalance:   strategy.Rebalance,
		Children:    []*model.SchemaNode{fragment},
	}, nil
}

// compileNode recursively compiles a logic-tree node. Termination follows
// from the input tree being finite: both branches of a conditional are
// strictly smaller subtrees.
func (c *Compiler) compileNode(node *model.LogicTreeNode) (*model.SchemaNode, error) {
	switch node.Type {
	case model.NodeAllocation:
		return BuildAllocation(node.Assets, node.Weights, c.logger)
	case model.NodeConditional:
		return c.compileConditional(node)
	default:
		return nil, &model.SchemaInvariantViolationError{
			Path:   "logic_tree",
			Reason: fmt.Sprintf("unknown logic tree node type %q", node.Type),
		}
	}
}

func (c *Compiler) compileConditional(node *model.LogicTreeNode) (*model.SchemaNode, error) {
	if node.TrueBranch == nil || node.FalseBranch == nil {
		return nil, &model.SchemaInvariantViolationError{
			Path:   "logic_tree",
			Reason: "conditional node requires both a true and a false branch",
		}
	}

	condition, err := ParseCondition(node.Condition)
	if err != nil {
		return nil, err
	}

	thenSubtree, err := c.compileNode(node.TrueBranch)
	if err != nil {
		return nil, err
	}
	elseSubtree, err := c.compileNode(node.FalseBranch)
	if err != nil {
		return nil, err
	}

	return &model.SchemaNode{
		Step: model.StepIf,
		Children: []*model.SchemaNode{
			conditionBranch(condition, thenSubtree),
			elseBranch(elseSubtree),
		},
	}, nil
}

// conditionBranch builds the if-child carrying the condition fields and the
// true-branch subtree.
func conditionBranch(condition model.Condition, subtree *model.SchemaNode) *model.SchemaNode {
	isElse := false
	fixed := condition.RHS.Kind == model.OperandLiteral

	branch := &model.SchemaNode{
		Step:            model.StepIfChild,
		IsElseCondition: &isElse,
		Comparator:      condition.Comparator,
		LHSVal:          condition.LHS.Ticker,
		LHSFn:           condition.LHS.Fn,
		LHSFnParams:     map[string]int{"window": condition.LHS.Window},
		RHSFn:           condition.RHS.Fn,
		RHSFnParams:     map[string]int{"window": condition.RHS.Window},
		RHSFixedValue:   &fixed,
		Children:        []*model.SchemaNode{subtree},
	}
	if fixed {
		branch.RHSVal = strconv.FormatFloat(condition.RHS.Value, 'f', -1, 64)
	} else {
		branch.RHSVal = condition.RHS.Ticker
	}
	return branch
}

// elseBranch builds the default if-child. It carries no condition fields.
func elseBranch(subtree *model.SchemaNode) *model.SchemaNode {
	isElse := true
	return &model.SchemaNode{
		Step:            model.StepIfChild,
		IsElseCondition: &isElse,
		Children:        []*model.SchemaNode{subtree},
	}
}
