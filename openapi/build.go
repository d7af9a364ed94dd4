// Package openapi assembles merged extraction data into OpenAPI 3.1.0
// documents and checks their shape.
//
// Assembly never fails: missing pieces get deterministic defaults (placeholder
// server, "/" path, synthesized operationId, a single 200 response) so the
// output is always a complete document. Shape problems are reported by
// CheckShape after the fact, never by refusing to build.
package openapi

import (
	"fmt"
	"sort"
	"strings"

	"github.com/apibridge/apibridge/schema"
)

// Version is the OpenAPI version stamped on every assembled document.
const Version = "3.1.0"

var httpMethods = map[string]bool{
	"get": true, "post": true, "put": true, "delete": true,
	"patch": true, "head": true, "options": true, "trace": true,
}

// Build assembles an OpenAPI 3.1.0 document from merged extraction data.
// Expected keys: api_info, endpoints, and either components ({schemas,
// securitySchemes}) or aggregate-level schemas/auth.
func Build(data map[string]any) map[string]any {
	apiInfo, _ := data["api_info"].(map[string]any)
	endpoints := objectList(data["endpoints"])
	components, _ := data["components"].(map[string]any)

	doc := map[string]any{
		"openapi":    Version,
		"info":       buildInfo(apiInfo),
		"servers":    buildServers(apiInfo),
		"paths":      buildPaths(endpoints),
		"components": buildComponents(components, data),
		"tags":       collectTags(endpoints),
	}
	return doc
}

func buildInfo(apiInfo map[string]any) map[string]any {
	return map[string]any{
		"title":       stringOr(apiInfo["name"], "Extracted API"),
		"version":     stringOr(apiInfo["version"], "1.0.0"),
		"description": stringOr(apiInfo["description"], "API extracted from documentation"),
	}
}

func buildServers(apiInfo map[string]any) []any {
	baseURL, _ := apiInfo["base_url"].(string)
	if strings.TrimSpace(baseURL) == "" {
		return []any{map[string]any{
			"url":         "https://api.example.com",
			"description": "API server (update this URL)",
		}}
	}
	return []any{map[string]any{
		"url":         baseURL,
		"description": "Production server",
	}}
}

func buildPaths(endpoints []map[string]any) map[string]any {
	paths := map[string]any{}
	for _, ep := range endpoints {
		path := normalizePath(ep["path"])
		method := strings.ToLower(stringOr(ep["method"], "GET"))

		item, ok := paths[path].(map[string]any)
		if !ok {
			item = map[string]any{}
			paths[path] = item
		}

		operation := map[string]any{
			"summary":     stringOr(ep["summary"], ""),
			"description": stringOr(ep["description"], ""),
			"operationId": operationID(ep, method, path),
			"tags":        listOr(ep["tags"]),
			"parameters":  buildParameters(objectList(ep["parameters"])),
			"responses":   buildResponses(ep["responses"]),
		}
		if body, ok := ep["request_body"].(map[string]any); ok && len(body) > 0 {
			operation["requestBody"] = buildRequestBody(body)
		}
		if security, ok := ep["security"].([]any); ok && len(security) > 0 {
			operation["security"] = security
		}

		item[method] = operation
	}
	return paths
}

// normalizePath defaults blank or non-string paths to "/".
func normalizePath(raw any) string {
	path, ok := raw.(string)
	if !ok || strings.TrimSpace(path) == "" {
		return "/"
	}
	return path
}

// operationID uses the source-supplied id when present, otherwise derives
// one deterministically from the method and sanitized path segments.
func operationID(ep map[string]any, method, path string) string {
	if id, ok := ep["operation_id"].(string); ok && strings.TrimSpace(id) != "" {
		return id
	}
	safe := strings.Trim(path, "/")
	safe = strings.ReplaceAll(safe, "/", "_")
	safe = strings.ReplaceAll(safe, "{", "")
	safe = strings.ReplaceAll(safe, "}", "")
	if safe == "" {
		safe = "root"
	}
	return fmt.Sprintf("%s_%s", method, safe)
}

func buildParameters(params []map[string]any) []any {
	built := make([]any, 0, len(params))
	for _, param := range params {
		rawSchema, present := param["schema"]
		if !present {
			rawSchema = map[string]any{"type": "string"}
		}
		p := map[string]any{
			"name":        stringOr(param["name"], "unknown"),
			"in":          stringOr(param["in"], "query"),
			"description": stringOr(param["description"], ""),
			"required":    boolOr(param["required"], false),
			"schema":      schema.Compose(rawSchema),
		}
		if example, ok := param["example"]; ok {
			p["example"] = example
		}
		if examples, ok := param["examples"]; ok {
			p["examples"] = examples
		}
		built = append(built, p)
	}
	return built
}

func buildRequestBody(body map[string]any) map[string]any {
	built := map[string]any{
		"description": stringOr(body["description"], ""),
		"required":    boolOr(body["required"], false),
		"content":     map[string]any{},
	}

	content, _ := body["content"].(map[string]any)
	if len(content) == 0 {
		// Unspecified media type: assume JSON.
		content = map[string]any{
			"application/json": map[string]any{"schema": map[string]any{"type": "object"}},
		}
	}

	builtContent := built["content"].(map[string]any)
	for mediaType, rawMedia := range content {
		media, _ := rawMedia.(map[string]any)
		rawSchema, present := media["schema"]
		if !present {
			rawSchema = map[string]any{"type": "object"}
		}
		entry := map[string]any{"schema": schema.Compose(rawSchema)}
		if example, ok := media["example"]; ok {
			entry["example"] = example
		}
		if examples, ok := media["examples"]; ok {
			entry["examples"] = examples
		}
		builtContent[mediaType] = entry
	}
	return built
}

// buildResponses guarantees every operation ends with at least one response
// entry, defaulting to a 200 when the source supplied none.
func buildResponses(raw any) map[string]any {
	responses, _ := raw.(map[string]any)
	if len(responses) == 0 {
		return map[string]any{
			"200": map[string]any{
				"description": "Successful response",
				"content": map[string]any{
					"application/json": map[string]any{
						"schema": map[string]any{"type": "object"},
					},
				},
			},
		}
	}

	built := make(map[string]any, len(responses))
	for status, rawResponse := range responses {
		response, _ := rawResponse.(map[string]any)
		entry := map[string]any{
			"description": stringOr(response["description"], fmt.Sprintf("Response for status %s", status)),
		}
		if headers, ok := response["headers"].(map[string]any); ok {
			builtHeaders := make(map[string]any, len(headers))
			for name, rawHeader := range headers {
				header, _ := rawHeader.(map[string]any)
				rawSchema, present := header["schema"]
				if !present {
					rawSchema = map[string]any{"type": "string"}
				}
				builtHeaders[name] = map[string]any{
					"description": stringOr(header["description"], ""),
					"schema":      schema.Compose(rawSchema),
				}
			}
			entry["headers"] = builtHeaders
		}
		if content, ok := response["content"].(map[string]any); ok {
			builtContent := make(map[string]any, len(content))
			for mediaType, rawMedia := range content {
				media, _ := rawMedia.(map[string]any)
				rawSchema, present := media["schema"]
				if !present {
					rawSchema = map[string]any{"type": "object"}
				}
				mediaEntry := map[string]any{"schema": schema.Compose(rawSchema)}
				if example, ok := media["example"]; ok {
					mediaEntry["example"] = example
				}
				if examples, ok := media["examples"]; ok {
					mediaEntry["examples"] = examples
				}
				builtContent[mediaType] = mediaEntry
			}
			entry["content"] = builtContent
		}
		built[status] = entry
	}
	return built
}

// buildComponents merges explicit component schemas with any aggregate-level
// schemas discovered during extraction; explicit entries win on collision.
func buildComponents(components map[string]any, data map[string]any) map[string]any {
	built := map[string]any{
		"schemas":         map[string]any{},
		"securitySchemes": map[string]any{},
	}
	builtSchemas := built["schemas"].(map[string]any)

	if explicit, ok := components["schemas"].(map[string]any); ok {
		for name, s := range explicit {
			builtSchemas[name] = schema.Compose(s)
		}
	}
	if discovered, ok := data["schemas"].(map[string]any); ok {
		for name, s := range discovered {
			if _, exists := builtSchemas[name]; !exists {
				builtSchemas[name] = schema.Compose(s)
			}
		}
	}

	if security, ok := components["securitySchemes"].(map[string]any); ok {
		built["securitySchemes"] = security
	} else if auth, ok := data["auth"].(map[string]any); ok {
		if details, ok := auth["details"].(map[string]any); ok {
			built["securitySchemes"] = details
		}
	}
	return built
}

// collectTags returns the sorted, de-duplicated tag set across endpoints.
func collectTags(endpoints []map[string]any) []any {
	seen := map[string]bool{}
	for _, ep := range endpoints {
		for _, raw := range listOr(ep["tags"]) {
			if tag, ok := raw.(string); ok {
				seen[tag] = true
			}
		}
	}
	names := make([]string, 0, len(seen))
	for tag := range seen {
		names = append(names, tag)
	}
	sort.Strings(names)
	tags := make([]any, len(names))
	for i, name := range names {
		tags[i] = map[string]any{"name": name}
	}
	return tags
}

// --- small coercion helpers ---

func stringOr(v any, fallback string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}
	return fallback
}

func boolOr(v any, fallback bool) bool {
	if b, ok := v.(bool); ok {
		return b
	}
	return fallback
}

func listOr(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	return []any{}
}

func objectList(v any) []map[string]any {
	var out []map[string]any
	switch list := v.(type) {
	case []map[string]any:
		return list
	case []any:
		for _, item := range list {
			if obj, ok := item.(map[string]any); ok {
				out = append(out, obj)
			}
		}
	}
	return out
}
