package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Step is the node-kind discriminator of the remote schema.
type Step string

const (
	StepRoot            Step = "root"
	StepWtCashEqual     Step = "wt-cash-equal"
	StepWtCashSpecified Step = "wt-cash-specified"
	StepIf              Step = "if"
	StepIfChild         Step = "if-child"
	StepAsset           Step = "asset"
)

// SchemaNode is one node of the symphony document below the root. The field
// names are bit-exact what the remote platform expects; which fields are set
// depends on Step. The platform assigns identifiers itself, so no node ever
// carries an id field.
type SchemaNode struct {
	Step   Step     `json:"step"`
	Weight *float64 `json:"weight"`

	// asset leaves
	Ticker   string `json:"ticker,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Name     string `json:"name,omitempty"`

	// per-child fraction under wt-cash-specified parents
	Allocation *float64 `json:"allocation,omitempty"`

	// if-child condition fields (absent on the else branch)
	IsElseCondition *bool          `json:"is-else-condition?,omitempty"`
	Comparator      Comparator     `json:"comparator,omitempty"`
	LHSVal          string         `json:"lhs-val,omitempty"`
	LHSFn           FunctionName   `json:"lhs-fn,omitempty"`
	LHSFnParams     map[string]int `json:"lhs-fn-params,omitempty"`
	RHSVal          string         `json:"rhs-val,omitempty"`
	RHSFn           FunctionName   `json:"rhs-fn,omitempty"`
	RHSFnParams     map[string]int `json:"rhs-fn-params,omitempty"`
	RHSFixedValue   *bool          `json:"rhs-fixed-value?,omitempty"`

	Children []*SchemaNode `json:"children,omitempty"`
}

// SymphonyDocument is the root node submitted to the platform. The corridor
// width is always serialized as null; the platform tolerates nothing else in
// current usage.
type SymphonyDocument struct {
	Step                   Step          `json:"step"`
	Weight                 *float64      `json:"weight"`
	Name                   string        `json:"name"`
	Description            string        `json:"description"`
	Rebalance              Cadence       `json:"rebalance"`
	SuggestedCorridorWidth *float64      `json:"suggested-corridor-width"`
	Children               []*SchemaNode `json:"children"`
}

// Value implements driver.Valuer so documents can be stored in a JSONB column.
func (d SymphonyDocument) Value() (driver.Value, error) {
	return json.Marshal(d)
}

// Scan implements sql.Scanner for reading documents back out of JSONB.
func (d *SymphonyDocument) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, d)
}
