package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// RunStatus represents lifecycle phases for a persisted solver run.
type RunStatus string

const (
	RunStatusDraft     RunStatus = "DRAFT"
	RunStatusPublished RunStatus = "PUBLISHED"
	RunStatusArchived  RunStatus = "ARCHIVED"
)

// Run captures one saved solver output: the label it was saved under,
// which algorithm produced it, and a JSON blob of the optimizer stats
// kept for audit purposes.
type Run struct {
	ID        string         `db:"id" json:"id"`
	Label     string         `db:"label" json:"label"`
	Algorithm string         `db:"algorithm" json:"algorithm"`
	Status    RunStatus      `db:"status" json:"status"`
	Score     float64        `db:"score" json:"score"`
	Stats     types.JSONText `db:"stats" json:"stats"`
	CreatedAt time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt time.Time      `db:"updated_at" json:"updated_at"`
}

// RunSummary is a lightweight listing projection.
type RunSummary struct {
	ID        string    `json:"id"`
	Label     string    `json:"label"`
	Algorithm string    `json:"algorithm"`
	Status    RunStatus `json:"status"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}
