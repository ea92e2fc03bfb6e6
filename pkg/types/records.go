package domain

import (
	"encoding/json"
	"time"
)

// Alert records a listing whose risk score crossed the alert threshold.
// At most one un-notified alert exists per listing at any time.
type Alert struct {
	ID          string     `json:"id"           db:"id"`
	ListingID   string     `json:"listing_id"   db:"listing_id"`
	RiskScore   int        `json:"risk_score"   db:"risk_score"`
	RiskFactors []string   `json:"risk_factors" db:"risk_factors"`
	Notified    bool       `json:"notified"     db:"notified"`
	NotifiedAt  *time.Time `json:"notified_at,omitempty" db:"notified_at"`
	CreatedAt   time.Time  `json:"created_at"   db:"created_at"`
}

// JobRun records one execution of a scheduled job (poll, rebuild, rescore).
type JobRun struct {
	ID           string     `json:"id"            db:"id"`
	JobName      string     `json:"job_name"      db:"job_name"`
	StartedAt    time.Time  `json:"started_at"    db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Status       string     `json:"status"        db:"status"`
	ErrorText    string     `json:"error_text,omitempty" db:"error_text"`
	RowsAffected int        `json:"rows_affected" db:"rows_affected"`
}

// StatsSnapshot is one persisted build of the market statistics table.
// The newest snapshot is the one the scorer loads on startup.
type StatsSnapshot struct {
	ID          string          `json:"id"           db:"id"`
	Table       json.RawMessage `json:"table"        db:"table_json"`
	SampleCount int             `json:"sample_count" db:"sample_count"`
	CellCount   int             `json:"cell_count"   db:"cell_count"`
	BuiltAt     time.Time       `json:"built_at"     db:"built_at"`
}

// SystemState is a point-in-time summary of pipeline progress, used by the
// status endpoint and the status gauges.
type SystemState struct {
	TotalListings    int        `json:"total_listings"`
	UnscoredListings int        `json:"unscored_listings"`
	HighRiskListings int        `json:"high_risk_listings"`
	PendingAlerts    int        `json:"pending_alerts"`
	LastSnapshotAt   *time.Time `json:"last_snapshot_at,omitempty"`
}
