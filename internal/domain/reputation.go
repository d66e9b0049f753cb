package domain

import "time"

type ReputationStatus string

const (
	ReputationStatusExcellent ReputationStatus = "excellent"
	ReputationStatusGood      ReputationStatus = "good"
	ReputationStatusNew       ReputationStatus = "new"
)

// Reputation is the per-identity score. Only return settlement writes it.
type Reputation struct {
	Identity  string           `json:"identity"`
	Score     int64            `json:"score"`
	Status    ReputationStatus `json:"status,omitempty"`
	UpdatedAt *time.Time       `json:"updated_at,omitempty"`
}

// ReputationAdjustment is applied together with a rental return. The stored
// score is clamped at zero.
type ReputationAdjustment struct {
	Identity string
	Delta    int64
}
