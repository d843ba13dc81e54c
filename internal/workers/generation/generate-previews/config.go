// internal/workers/generation/generate-previews/config.go
package generatepreviews

import "f1-previews/internal/models"

type Config struct {
	Roster         []models.Driver
	MaxConcurrency int
	DefaultSeason  string
	// PredictionEnabled adds the race-prediction step to full runs.
	PredictionEnabled bool
	// SessionResults feeds {sessionContext}; see SessionContext.
	SessionResults map[string]string
	// SnapshotPath, when set, receives a copy of every saved aggregate.
	SnapshotPath string
}

func LoadConfig() *Config {
	return &Config{
		Roster:         models.Roster2025,
		MaxConcurrency: len(models.Roster2025),
		DefaultSeason:  "2025",
	}
}
