package openapi

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ToJSON renders a document as indented JSON.
func ToJSON(doc map[string]any) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize OpenAPI document as JSON")
	}
	return out, nil
}

// ToYAML renders a document as YAML.
func ToYAML(doc map[string]any) ([]byte, error) {
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(err, "failed to serialize OpenAPI document as YAML")
	}
	return out, nil
}
