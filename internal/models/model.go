package models

import "time"

type ModelStatus string

const (
	ModelStatusProcessing ModelStatus = "Processing"
	ModelStatusReady      ModelStatus = "Ready"
	ModelStatusFailed     ModelStatus = "Failed"
)

// IsTerminal reports whether the status is final. Terminal statuses are
// sticky: a status poll must never move a model out of one.
func (s ModelStatus) IsTerminal() bool {
	return s == ModelStatusReady || s == ModelStatusFailed
}

type Model struct {
	ID          int64          `json:"id"`
	UserID      int64          `json:"user_id"`
	JobID       string         `json:"job_id"`
	Name        string         `json:"name"`
	TriggerWord string         `json:"trigger_word"`
	Status      ModelStatus    `json:"status"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
