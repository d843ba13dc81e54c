// internal/workers/prompts/prompt-store/config.go
package promptstore

type Config struct {
	DefaultModel       string
	DefaultTemperature float64
	// EnvAPIKey is used when no key has been saved.
	EnvAPIKey string
}

func LoadConfig() *Config {
	return &Config{
		DefaultModel:       "gpt-5",
		DefaultTemperature: 0.7,
	}
}
