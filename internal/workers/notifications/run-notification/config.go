// internal/workers/notifications/run-notification/config.go
package runnotification

import "time"

type Config struct {
	EmailEnabled bool
	SNSEnabled   bool
	FromEmail    string
	To           []string
	TopicARN     string
	AWSRegion    string
	// OnlyOnFailure suppresses notifications for runs whose status is "ok".
	OnlyOnFailure bool
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		AWSRegion: "us-east-1",
		Timeout:   30 * time.Second,
	}
}
