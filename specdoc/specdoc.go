// Package specdoc handles intake of OpenAPI/Swagger source documents: parsing
// raw JSON-or-YAML text, detecting the spec version, and flattening the
// document into the endpoint/schema/auth shape the rest of the pipeline
// consumes.
package specdoc

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// ParseText parses raw spec text, trying JSON first and falling back to YAML.
func ParseText(text string) (map[string]any, error) {
	var fromJSON map[string]any
	if err := json.Unmarshal([]byte(text), &fromJSON); err == nil {
		return fromJSON, nil
	}

	var fromYAML map[string]any
	if err := yaml.Unmarshal([]byte(text), &fromYAML); err != nil {
		return nil, errors.Wrap(err, "invalid JSON/YAML format")
	}
	return normalizeYAML(fromYAML).(map[string]any), nil
}

// normalizeYAML rewrites yaml.v3's map[string]any trees so nested maps with
// non-string keys become string-keyed, matching what json.Unmarshal produces.
func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return v
	}
}

// DetectVersion classifies the document as swagger "2.0", openapi "3.0" or
// "3.1". Unsupported and missing versions return an error alongside the raw
// version string ("unknown" when absent).
func DetectVersion(doc map[string]any) (string, error) {
	if raw, ok := doc["swagger"].(string); ok {
		if strings.HasPrefix(raw, "2") {
			return "2.0", nil
		}
		return raw, errors.Newf("unsupported Swagger version: %s", raw)
	}
	if raw, ok := doc["openapi"].(string); ok {
		switch {
		case strings.HasPrefix(raw, "3.0"):
			return "3.0", nil
		case strings.HasPrefix(raw, "3.1"):
			return "3.1", nil
		default:
			return raw, errors.Newf("unsupported OpenAPI version: %s", raw)
		}
	}
	return "unknown", errors.New("could not detect API spec version")
}

// Parse flattens a spec document into the intake shape: version, info,
// base_url, endpoints, simplified schemas, and auth.
func Parse(doc map[string]any) (map[string]any, error) {
	version, err := DetectVersion(doc)
	if err != nil {
		return nil, err
	}
	if _, ok := doc["info"]; !ok {
		return nil, errors.New("missing 'info' section")
	}
	if _, ok := doc["paths"]; !ok {
		return nil, errors.New("missing 'paths' section")
	}

	info, _ := doc["info"].(map[string]any)
	return map[string]any{
		"version": version,
		"info": map[string]any{
			"title":       stringOr(info["title"], "Unknown"),
			"version":     stringOr(info["version"], "Unknown"),
			"description": stringOr(info["description"], ""),
		},
		"base_url":  extractBaseURL(doc, version),
		"endpoints": extractEndpoints(doc),
		"schemas":   extractSchemas(doc, version),
		"auth":      extractAuth(doc, version),
	}, nil
}

var httpMethods = map[string]bool{
	"get": true, "post": true, "put": true, "patch": true,
	"delete": true, "head": true, "options": true,
}

func extractEndpoints(doc map[string]any) []any {
	endpoints := []any{}
	paths, _ := doc["paths"].(map[string]any)
	for path, rawMethods := range paths {
		methods, ok := rawMethods.(map[string]any)
		if !ok {
			continue
		}
		for method, rawDetails := range methods {
			// path-level keys like "parameters" and "servers" are not operations
			if !httpMethods[strings.ToLower(method)] {
				continue
			}
			details, _ := rawDetails.(map[string]any)
			endpoints = append(endpoints, map[string]any{
				"path":        path,
				"method":      strings.ToUpper(method),
				"summary":     stringOr(details["summary"], ""),
				"description": stringOr(details["description"], ""),
				"operationId": stringOr(details["operationId"], ""),
				"tags":        listOr(details["tags"]),
			})
		}
	}
	return endpoints
}

// extractSchemas simplifies every schema to per-field descriptors. Swagger
// 2.0 keeps schemas in "definitions", 3.x in components.schemas.
func extractSchemas(doc map[string]any, version string) map[string]any {
	var raw map[string]any
	if version == "2.0" {
		raw, _ = doc["definitions"].(map[string]any)
	} else {
		if components, ok := doc["components"].(map[string]any); ok {
			raw, _ = components["schemas"].(map[string]any)
		}
	}

	simplified := map[string]any{}
	for name, rawSchema := range raw {
		schema, ok := rawSchema.(map[string]any)
		if !ok {
			continue
		}
		simplified[name] = simplifySchema(schema)
	}
	return simplified
}

func simplifySchema(schema map[string]any) map[string]any {
	properties, _ := schema["properties"].(map[string]any)
	required := map[string]bool{}
	if list, ok := schema["required"].([]any); ok {
		for _, item := range list {
			if name, ok := item.(string); ok {
				required[name] = true
			}
		}
	}

	fields := map[string]any{}
	for name, rawProp := range properties {
		prop, ok := rawProp.(map[string]any)
		if !ok {
			continue
		}
		fields[name] = map[string]any{
			"type":        stringOr(prop["type"], "unknown"),
			"format":      prop["format"],
			"description": prop["description"],
			"required":    required[name],
			"enum":        prop["enum"],
		}
	}
	return fields
}

func extractAuth(doc map[string]any, version string) map[string]any {
	var schemes map[string]any
	if version == "2.0" {
		schemes, _ = doc["securityDefinitions"].(map[string]any)
	} else {
		if components, ok := doc["components"].(map[string]any); ok {
			schemes, _ = components["securitySchemes"].(map[string]any)
		}
	}

	auth := map[string]any{"schemes": []any{}, "details": map[string]any{}}
	schemeList := auth["schemes"].([]any)
	details := auth["details"].(map[string]any)
	for name, rawScheme := range schemes {
		scheme, _ := rawScheme.(map[string]any)
		schemeList = append(schemeList, stringOr(scheme["type"], "unknown"))
		details[name] = rawScheme
	}
	auth["schemes"] = schemeList
	return auth
}

func extractBaseURL(doc map[string]any, version string) string {
	if version == "2.0" {
		host := stringOr(doc["host"], "")
		basePath := stringOr(doc["basePath"], "")
		scheme := "https"
		if schemes, ok := doc["schemes"].([]any); ok && len(schemes) > 0 {
			scheme = stringOr(schemes[0], "https")
		}
		return fmt.Sprintf("%s://%s%s", scheme, host, basePath)
	}

	if servers, ok := doc["servers"].([]any); ok && len(servers) > 0 {
		if server, ok := servers[0].(map[string]any); ok {
			return stringOr(server["url"], "")
		}
	}
	return ""
}

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func listOr(v any) []any {
	if list, ok := v.([]any); ok {
		return list
	}
	return []any{}
}
