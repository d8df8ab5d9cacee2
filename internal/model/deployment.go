package model

import "time"

// DeployRequest pairs a strategy with the presentation metadata the platform
// wants alongside the document.
type DeployRequest struct {
	Strategy Strategy `json:"strategy" binding:"required"`
	Color    string   `json:"color"`
	Tag      string   `json:"tag"`
}

// DeploymentRecord is the durable trace of a successful submission. The
// symphony id is assigned by the platform; nothing else about the document
// persists remotely that we can read back field by field.
type DeploymentRecord struct {
	ID           int              `json:"id" db:"id"`
	StrategyName string           `json:"strategy_name" db:"strategy_name"`
	SymphonyID   string           `json:"symphony_id" db:"symphony_id"`
	Color        string           `json:"color" db:"color"`
	Tag          string           `json:"tag" db:"tag"`
	Document     SymphonyDocument `json:"document" db:"document"`
	DeployedAt   time.Time        `json:"deployed_at" db:"deployed_at"`
}

// DeployOutcome is the per-strategy result of a batch deployment. Exactly one
// of SymphonyID or Error is set; a failed sibling never aborts the batch.
type DeployOutcome struct {
	StrategyName string `json:"strategy_name"`
	SymphonyID   string `json:"symphony_id,omitempty"`
	Error        string `json:"error,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
}
