// internal/workers/generation/text-generation/config.go
package textgeneration

import "time"

type Config struct {
	BaseURL         string
	MaxOutputTokens int
	Timeout         time.Duration
	// WebSearch attaches the web_search tool for gpt-5 family models.
	WebSearch bool
}

func LoadConfig() *Config {
	return &Config{
		BaseURL:         "https://api.openai.com",
		MaxOutputTokens: 30000,
		Timeout:         10 * time.Minute,
	}
}
