package compiler

import (
	"fmt"
	"strings"

	"github.com/yourorg/symphony-service/internal/model"
)

// comparatorTokens is ordered so two-character tokens match before their
// one-character prefixes.
var comparatorTokens = []struct {
	token      string
	comparator model.Comparator
}{
	{">=", model.ComparatorGTE},
	{"<=", model.ComparatorLTE},
	{"==", model.ComparatorEQ},
	{">", model.ComparatorGT},
	{"<", model.ComparatorLT},
}

// ParseCondition turns a free-text condition of the form
// "<left> <comparator> <right>" into a typed Condition. This is the only
// place condition text is interpreted; everything downstream works on the
// typed value.
//
// The platform has no independent right-hand function in practice: when the
// right side is a computed reference its function must equal the left side's,
// and when it is a fixed literal the left-hand function is duplicated onto
// the right side because the schema requires the field regardless.
func ParseCondition(text string) (model.Condition, error) {
	lhsText, rhsText, comparator, err := splitComparator(text)
	if err != nil {
		return model.Condition{}, err
	}

	lhs, err := ResolveOperand(lhsText)
	if err != nil {
		return model.Condition{}, fmt.Errorf("condition %q: left side: %w", text, err)
	}
	if lhs.Kind != model.OperandReference {
		return model.Condition{}, &model.SchemaInvariantViolationError{
			Path:   "lhs-val",
			Reason: fmt.Sprintf("left side of %q must be a ticker-qualified reference, not a literal", text),
		}
	}

	rhs, err := ResolveOperand(rhsText)
	if err != nil {
		return model.Condition{}, fmt.Errorf("condition %q: right side: %w", text, err)
	}

	switch rhs.Kind {
	case model.OperandReference:
		if rhs.Fn != lhs.Fn {
			return model.Condition{}, &model.SchemaInvariantViolationError{
				Path: "rhs-fn",
				Reason: fmt.Sprintf("right-hand function %q must equal left-hand function %q in %q",
					rhs.Fn, lhs.Fn, text),
			}
		}
	case model.OperandLiteral:
		rhs.Fn = lhs.Fn
		rhs.Window = lhs.Window
	}

	return model.Condition{LHS: lhs, Comparator: comparator, RHS: rhs}, nil
}

func splitComparator(text string) (lhs, rhs string, comparator model.Comparator, err error) {
	for _, c := range comparatorTokens {
		idx := strings.Index(text, c.token)
		if idx < 0 {
			continue
		}
		lhs = strings.TrimSpace(text[:idx])
		rhs = strings.TrimSpace(text[idx+len(c.token):])
		if lhs == "" || rhs == "" {
			return "", "", "", fmt.Errorf("condition %q: missing operand around %q", text, c.token)
		}
		return lhs, rhs, c.comparator, nil
	}
	return "", "", "", fmt.Errorf("condition %q: no comparator found (expected one of >=, <=, ==, >, <)", text)
}
