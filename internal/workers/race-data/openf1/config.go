// internal/workers/race-data/openf1/config.go
package openf1

import "time"

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
	// RecentSessions bounds SessionResults; RecentRaces bounds Positions.
	RecentSessions int
	RecentRaces    int
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:        "https://api.openf1.org/v1",
		Timeout:        15 * time.Second,
		CacheTTL:       10 * time.Minute,
		RecentSessions: 15,
		RecentRaces:    10,
	}
}
