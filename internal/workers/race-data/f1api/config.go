// internal/workers/race-data/f1api/config.go
package f1api

import "time"

type Config struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
	// RecentRounds bounds DriverResults to the last N completed rounds.
	RecentRounds int
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:      "https://f1api.dev/api",
		Timeout:      15 * time.Second,
		CacheTTL:     10 * time.Minute,
		RecentRounds: 6,
	}
}
