package dto

import (
	"time"

	"github.com/skillpulse/skillpulse-api/internal/models"
)

// RotationStatsResponse reports pool health to administrators.
type RotationStatsResponse struct {
	Stats       models.RotationStats `json:"stats"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// SweepResponse reports the outcome of a manually triggered sweep.
type SweepResponse struct {
	Evaluated    int   `json:"evaluated"`
	Rotated      int   `json:"rotated"`
	Replacements int   `json:"replacements"`
	DurationMs   int64 `json:"duration_ms"`
}
