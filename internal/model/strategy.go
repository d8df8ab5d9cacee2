package model

// Cadence is the rebalancing cadence of a strategy. The platform only
// accepts the values enumerated below.
type Cadence string

const (
	CadenceNone      Cadence = "none"
	CadenceDaily     Cadence = "daily"
	CadenceWeekly    Cadence = "weekly"
	CadenceMonthly   Cadence = "monthly"
	CadenceQuarterly Cadence = "quarterly"
	CadenceYearly    Cadence = "yearly"
)

// IsValid reports whether the cadence is one of the platform-accepted values.
func (c Cadence) IsValid() bool {
	switch c {
	case CadenceNone, CadenceDaily, CadenceWeekly, CadenceMonthly, CadenceQuarterly, CadenceYearly:
		return true
	}
	return false
}

// Strategy is the upstream candidate handed to the compiler. It is produced
// by the generation/selection pipeline and is read-only from here on.
type Strategy struct {
	Name        string             `json:"name" binding:"required"`
	Description string             `json:"description"`
	Assets      []string           `json:"assets" binding:"required,min=1"`
	Weights     map[string]float64 `json:"weights,omitempty"`
	Rebalance   Cadence            `json:"rebalance" binding:"required"`
	LogicTree   *LogicTreeNode     `json:"logic_tree,omitempty"`
}

// NodeType discriminates the two logic-tree variants.
type NodeType string

const (
	NodeAllocation  NodeType = "allocation"
	NodeConditional NodeType = "conditional"
)

// LogicTreeNode is the strategy's internal conditional-allocation tree.
// An allocation node is terminal; a conditional node carries a free-text
// condition and two child subtrees.
type LogicTreeNode struct {
	Type NodeType `json:"type"`

	// Allocation variant
	Assets  []string           `json:"assets,omitempty"`
	Weights map[string]float64 `json:"weights,omitempty"`

	// Conditional variant
	Condition   string         `json:"condition,omitempty"`
	TrueBranch  *LogicTreeNode `json:"true_branch,omitempty"`
	FalseBranch *LogicTreeNode `json:"false_branch,omitempty"`
}

// Comparator is the comparison operator of a condition.
type Comparator string

const (
	ComparatorGT  Comparator = "gt"
	ComparatorLT  Comparator = "lt"
	ComparatorGTE Comparator = "gte"
	ComparatorLTE Comparator = "lte"
	ComparatorEQ  Comparator = "eq"
)

// IsValid reports whether the comparator is part of the platform vocabulary.
func (c Comparator) IsValid() bool {
	switch c {
	case ComparatorGT, ComparatorLT, ComparatorGTE, ComparatorLTE, ComparatorEQ:
		return true
	}
	return false
}

// FunctionName is a market-quantity transformation the platform can evaluate
// inside a condition.
type FunctionName string

const (
	FnMovingAverage    FunctionName = "moving-average-price"
	FnCumulativeReturn FunctionName = "cumulative-return"
	FnRSI              FunctionName = "relative-strength-index"
	FnEMA              FunctionName = "exponential-moving-average-price"
)

// OperandKind discriminates the two operand variants.
type OperandKind string

const (
	OperandLiteral   OperandKind = "literal"
	OperandReference OperandKind = "reference"
)

// OperandRef is one side of a condition: either a fixed numeric literal or a
// ticker-qualified (function, window) reference.
type OperandRef struct {
	Kind   OperandKind  `json:"kind"`
	Value  float64      `json:"value,omitempty"`
	Ticker string       `json:"ticker,omitempty"`
	Fn     FunctionName `json:"fn,omitempty"`
	Window int          `json:"window,omitempty"`
}

// Condition is the typed form of a parsed condition string.
type Condition struct {
	LHS        OperandRef `json:"lhs"`
	Comparator Comparator `json:"comparator"`
	RHS        OperandRef `json:"rhs"`
}
