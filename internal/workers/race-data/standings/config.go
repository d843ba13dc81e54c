// internal/workers/race-data/standings/config.go
package standings

type Config struct {
	Season int
}

func LoadConfig() *Config {
	return &Config{Season: 2025}
}
