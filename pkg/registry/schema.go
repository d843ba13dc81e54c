// pkg/registry/schema.go
package registry

// SchemaRegistry lists the JSON schemas the generated records are checked
// against.
type SchemaRegistry struct {
	Version     string             `json:"version"`
	LastUpdated string             `json:"lastUpdated"`
	Schemas     []SchemaDefinition `json:"schemas"`
}

type SchemaDefinition struct {
	ID          string                 `json:"id"`
	Description string                 `json:"description"`
	Schema      map[string]interface{} `json:"schema"`
}

// Schema ids used by the generator.
const (
	SchemaDriverPreview = "driver-preview"
	SchemaTop5          = "top5"
	SchemaUnderdogs     = "underdogs"
)
