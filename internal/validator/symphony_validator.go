// Package validator walks an assembled symphony document and checks every
// structural rule the remote schema is known to enforce. The platform rejects
// malformed documents with no field-level detail, so this walk is the only
// actionable diagnostic the caller gets. Every empirically discovered schema
// constraint belongs here.
package validator

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/yourorg/symphony-service/internal/model"
)

const weightSumTolerance = 1e-6

var validSteps = map[string]bool{
	string(model.StepRoot):            true,
	string(model.StepWtCashEqual):     true,
	string(model.StepWtCashSpecified): true,
	string(model.StepIf):              true,
	string(model.StepIfChild):         true,
	string(model.StepAsset):           true,
}

var validComparators = map[string]bool{
	string(model.ComparatorGT):  true,
	string(model.ComparatorLT):  true,
	string(model.ComparatorGTE): true,
	string(model.ComparatorLTE): true,
	string(model.ComparatorEQ):  true,
}

var validCadences = map[string]bool{
	string(model.CadenceNone):      true,
	string(model.CadenceDaily):     true,
	string(model.CadenceWeekly):    true,
	string(model.CadenceMonthly):   true,
	string(model.CadenceQuarterly): true,
	string(model.CadenceYearly):    true,
}

// ValidateSymphony checks the document against every known remote-schema
// invariant. It validates the marshaled form, not the Go structs, so a stray
// field introduced by a future refactor is caught here and not by the
// platform's opaque rejection. Pure and deterministic; must run before every
// submission attempt.
func ValidateSymphony(doc *model.SymphonyDocument) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling document for validation: %w", err)
	}
	var root map[string]interface{}
	if err := json.Unmarshal(raw, &root); err != nil {
		return fmt.Errorf("remarshaling document for validation: %w", err)
	}
	return validateRoot(root)
}

func validateRoot(node map[string]interface{}) error {
	const path = "$"

	if step, _ := node["step"].(string); step != string(model.StepRoot) {
		return violation(path+".step", fmt.Sprintf("root step must be %q, got %q", model.StepRoot, step))
	}
	if name, _ := node["name"].(string); name == "" {
		return violation(path+".name", "root must carry a non-empty name")
	}
	rebalance, _ := node["rebalance"].(string)
	if !validCadences[rebalance] {
		return violation(path+".rebalance", fmt.Sprintf("unknown rebalance cadence %q", rebalance))
	}
	corridor, present := node["suggested-corridor-width"]
	if !present || corridor != nil {
		return violation(path+".suggested-corridor-width", "corridor width must be present and null")
	}

	children, err := childNodes(node, path)
	if err != nil {
		return err
	}
	if len(children) != 1 {
		return violation(path+".children", fmt.Sprintf("root must wrap exactly one child, got %d", len(children)))
	}

	if err := checkCommon(node, path); err != nil {
		return err
	}
	return validateNode(children[0], fmt.Sprintf("%s.children[0]", path))
}

func validateNode(node map[string]interface{}, path string) error {
	if err := checkCommon(node, path); err != nil {
		return err
	}

	step, _ := node["step"].(string)
	if !validSteps[step] {
		return violation(path+".step", fmt.Sprintf("unknown step %q", step))
	}

	switch step {
	case string(model.StepAsset):
		return validateAsset(node, path)
	case string(model.StepIf):
		return validateConditional(node, path)
	case string(model.StepWtCashEqual), string(model.StepWtCashSpecified):
		return validateWeighting(node, path, step == string(model.StepWtCashSpecified))
	case string(model.StepIfChild):
		return violation(path+".step", "if-child is only valid directly under an if node")
	default:
		return violation(path+".step", fmt.Sprintf("step %q is not valid below the root", step))
	}
}

// checkCommon enforces the two rules that hold for every node: the platform
// assigns identifiers, and weight is null everywhere (per-child allocations
// use a separate field).
func checkCommon(node map[string]interface{}, path string) error {
	if _, present := node["id"]; present {
		return violation(path+".id", "no node may carry an identifier; the platform assigns them")
	}
	weight, present := node["weight"]
	if !present || weight != nil {
		return violation(path+".weight", "weight must be present and null on every node")
	}
	return nil
}

func validateAsset(node map[string]interface{}, path string) error {
	if ticker, _ := node["ticker"].(string); ticker == "" {
		return violation(path+".ticker", "asset node must carry a ticker")
	}
	if exchange, _ := node["exchange"].(string); exchange == "" {
		return violation(path+".exchange", "asset node must carry an exchange code")
	}
	if _, present := node["children"]; present {
		return violation(path+".children", "asset nodes are leaves and may not have children")
	}
	return nil
}

func validateConditional(node map[string]interface{}, path string) error {
	children, err := childNodes(node, path)
	if err != nil {
		return err
	}
	if len(children) != 2 {
		return violation(path+".children",
			fmt.Sprintf("conditional node must have exactly two branches, got %d", len(children)))
	}

	elseCount := 0
	for i, branch := range children {
		branchPath := fmt.Sprintf("%s.children[%d]", path, i)
		if step, _ := branch["step"].(string); step != string(model.StepIfChild) {
			return violation(branchPath+".step", fmt.Sprintf("conditional branches must be if-child, got %q", step))
		}
		isElse, ok := branch["is-else-condition?"].(bool)
		if !ok {
			return violation(branchPath+".is-else-condition?", "branch must carry the else flag")
		}
		if isElse {
			elseCount++
			if err := validateElseBranch(branch, branchPath); err != nil {
				return err
			}
		} else if err := validateConditionBranch(branch, branchPath); err != nil {
			return err
		}
	}
	if elseCount != 1 {
		return violation(path+".children",
			fmt.Sprintf("conditional node must have exactly one else branch, got %d", elseCount))
	}
	return nil
}

func validateConditionBranch(branch map[string]interface{}, path string) error {
	if err := checkCommon(branch, path); err != nil {
		return err
	}

	comparator, _ := branch["comparator"].(string)
	if !validComparators[comparator] {
		return violation(path+".comparator", fmt.Sprintf("unknown comparator %q", comparator))
	}
	if lhsVal, _ := branch["lhs-val"].(string); lhsVal == "" {
		return violation(path+".lhs-val", "condition branch must carry lhs-val")
	}
	lhsFn, _ := branch["lhs-fn"].(string)
	if lhsFn == "" {
		return violation(path+".lhs-fn", "condition branch must carry lhs-fn")
	}
	if _, present := branch["lhs-fn-params"]; !present {
		return violation(path+".lhs-fn-params", "condition branch must carry lhs-fn-params")
	}
	if rhsVal, _ := branch["rhs-val"].(string); rhsVal == "" {
		return violation(path+".rhs-val", "condition branch must carry rhs-val")
	}
	rhsFn, _ := branch["rhs-fn"].(string)
	if rhsFn == "" {
		return violation(path+".rhs-fn", "condition branch must carry rhs-fn")
	}
	if _, ok := branch["rhs-fixed-value?"].(bool); !ok {
		return violation(path+".rhs-fixed-value?", "condition branch must flag whether the right side is fixed")
	}

	// The platform has no independent right-hand function; re-check the
	// equality the parser already enforced.
	if rhsFn != lhsFn {
		return violation(path+".rhs-fn",
			fmt.Sprintf("right-hand function %q must equal left-hand function %q", rhsFn, lhsFn))
	}

	return validateBranchSubtree(branch, path)
}

func validateElseBranch(branch map[string]interface{}, path string) error {
	if err := checkCommon(branch, path); err != nil {
		return err
	}
	for _, field := range []string{"comparator", "lhs-val", "lhs-fn", "lhs-fn-params", "rhs-val", "rhs-fn", "rhs-fn-params", "rhs-fixed-value?"} {
		if _, present := branch[field]; present {
			return violation(path+"."+field, "else branch must not carry condition fields")
		}
	}
	return validateBranchSubtree(branch, path)
}

func validateBranchSubtree(branch map[string]interface{}, path string) error {
	children, err := childNodes(branch, path)
	if err != nil {
		return err
	}
	if len(children) != 1 {
		return violation(path+".children",
			fmt.Sprintf("branch must wrap exactly one subtree, got %d", len(children)))
	}
	return validateNode(children[0], fmt.Sprintf("%s.children[0]", path))
}

func validateWeighting(node map[string]interface{}, path string, specified bool) error {
	children, err := childNodes(node, path)
	if err != nil {
		return err
	}
	if len(children) == 0 {
		return violation(path+".children", "weighting node must have at least one child")
	}

	sum := 0.0
	for i, child := range children {
		childPath := fmt.Sprintf("%s.children[%d]", path, i)
		allocation, present := child["allocation"]
		if specified {
			fraction, ok := allocation.(float64)
			if !present || !ok {
				return violation(childPath+".allocation",
					"children of a specified-weight node must carry a numeric allocation")
			}
			sum += fraction
		} else if present {
			return violation(childPath+".allocation",
				"children of an equal-weight node must not carry an allocation")
		}
		if err := validateNode(child, childPath); err != nil {
			return err
		}
	}
	if specified && math.Abs(sum-1.0) > weightSumTolerance {
		return violation(path+".children",
			fmt.Sprintf("child allocations sum to %g, expected 1.0", sum))
	}
	return nil
}

func childNodes(node map[string]interface{}, path string) ([]map[string]interface{}, error) {
	raw, present := node["children"]
	if !present {
		return nil, nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil, violation(path+".children", "children must be an array of nodes")
	}
	children := make([]map[string]interface{}, 0, len(list))
	for i, item := range list {
		child, ok := item.(map[string]interface{})
		if !ok {
			return nil, violation(fmt.Sprintf("%s.children[%d]", path, i), "child must be an object")
		}
		children = append(children, child)
	}
	return children, nil
}

func violation(path, reason string) error {
	return &model.SchemaInvariantViolationError{Path: path, Reason: reason}
}
