// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed schemas.json
var defaultSchemas []byte

// Default returns the built-in registry.
func Default() (*SchemaRegistry, error) {
	return parse(defaultSchemas)
}

func parse(data []byte) (*SchemaRegistry, error) {
	var reg SchemaRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse schema registry: %w", err)
	}
	return &reg, nil
}
