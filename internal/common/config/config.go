// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Server        ServerConfig       `mapstructure:"server"`
	Storage       StorageConfig      `mapstructure:"storage"`
	APIs          APIsConfig         `mapstructure:"apis"`
	Generation    GenerationConfig   `mapstructure:"generation"`
	Logging       LoggingConfig      `mapstructure:"logging"`
	Notifications NotificationConfig `mapstructure:"notifications"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// Storage drivers accepted by storage.driver.
const (
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type StorageConfig struct {
	Driver       string `mapstructure:"driver"`
	SnapshotPath string `mapstructure:"snapshot_path"`
	// OutputPath receives a copy of every saved aggregate; empty means
	// SnapshotPath.
	OutputPath string         `mapstructure:"output_path"`
	SQLite     SQLiteConfig   `mapstructure:"sqlite"`
	Postgres   PostgresConfig `mapstructure:"postgres"`
	Redis      RedisConfig    `mapstructure:"redis"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
	Table          string `mapstructure:"table"`
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address   string `mapstructure:"address"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

type APIsConfig struct {
	OpenAI struct {
		BaseURL         string  `mapstructure:"base_url"`
		APIKey          string  `mapstructure:"api_key"`
		Model           string  `mapstructure:"model"`
		Temperature     float64 `mapstructure:"temperature"`
		MaxOutputTokens int     `mapstructure:"max_output_tokens"`
		Timeout         int     `mapstructure:"timeout"` // milliseconds
		WebSearch       bool    `mapstructure:"web_search"`
	} `mapstructure:"openai"`

	F1API struct {
		BaseURL string `mapstructure:"base_url"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"f1api"`

	OpenF1 struct {
		BaseURL string `mapstructure:"base_url"`
		Timeout int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"openf1"`

	Cache struct {
		Enabled bool `mapstructure:"enabled"`
		TTL     int  `mapstructure:"ttl"` // milliseconds
	} `mapstructure:"cache"`
}

type GenerationConfig struct {
	Season            string `mapstructure:"season"`
	Circuit           string `mapstructure:"circuit"`
	Date              string `mapstructure:"date"`
	MaxConcurrency    int    `mapstructure:"max_concurrency"`
	ResultsSource     string `mapstructure:"results_source"`
	PredictionEnabled bool   `mapstructure:"prediction_enabled"`
	SessionContext    bool   `mapstructure:"session_context"`
	// SessionResults holds pasted results for sessions already run this
	// weekend, keyed fp1, fp2, fp3, sprint_qualifying, sprint, qualifying.
	SessionResults map[string]string `mapstructure:"session_results"`
}

type NotificationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
	} `mapstructure:"aws"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
	Email struct {
		Enabled   bool     `mapstructure:"enabled"`
		FromEmail string   `mapstructure:"from_email"`
		To        []string `mapstructure:"to"`
	} `mapstructure:"email"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
