package config

import (
	"errors"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

var (
	ErrGeneratedSchemaIsNil = errors.New("generated JSON Schema is nil")
)

// JSONSchema describes config.yaml. Field names follow the yaml tags.
func JSONSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		FieldNameTag:              "yaml",
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.Reflect(&Config{})

	if schema == nil {
		return nil, ErrGeneratedSchemaIsNil
	}
	schema.Title = "grader configuration"

	return schema.MarshalJSON()
}

// Dump renders cfg as YAML. Secrets loaded from the environment are omitted.
func Dump(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
