// internal/workers/persistence/preview-store/config.go
package previewstore

type Config struct {
	// Key is the storage key holding the aggregate blob.
	Key          string
	SnapshotPath string
}

func LoadConfig() *Config {
	return &Config{
		Key:          "f1-preview-data",
		SnapshotPath: "preview_data.json",
	}
}
