package config

import (
	"encoding/json"
	"fmt"

	pkgconfig "github.com/goran-ethernal/ModerationIndexor/pkg/config"
	"github.com/invopop/jsonschema"
)

// GenerateSchema returns the JSON Schema of the configuration file, indented.
// Field names follow the json tags, so the schema also describes the YAML and TOML forms.
func GenerateSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		DoNotReference: true,
	}

	schema := reflector.Reflect(&pkgconfig.Config{})
	schema.Title = "Moderation indexer configuration"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config schema: %w", err)
	}

	return data, nil
}
