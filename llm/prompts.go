package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/apibridge/apibridge/mapping"
)

// BuildMappingPrompt renders two schema summaries into the entity/field
// mapping prompt. The response format it demands matches the mapping_result
// contract so the reply can be validated directly.
func BuildMappingPrompt(apiA, apiB mapping.Summary) string {
	var b strings.Builder
	b.WriteString("You are an API integration expert. Analyze these two API specifications and identify how to map data between them.\n\n")
	fmt.Fprintf(&b, "API A: %s\n%s\n", apiA.Title, formatSchemas(apiA))
	fmt.Fprintf(&b, "API B: %s\n%s\n", apiB.Title, formatSchemas(apiB))
	b.WriteString(`Your task:
1. Identify common entities (e.g., if API A has "User" and API B has "Customer", they might represent the same thing)
2. For each matched entity, map fields between the two APIs
3. Rate the confidence of each mapping (HIGH, MEDIUM, LOW)
4. Note any data type mismatches or transformations needed

Respond in this EXACT JSON format:
{
  "entity_mappings": [
    {
      "api_a_entity": "User",
      "api_b_entity": "Customer",
      "confidence": "HIGH",
      "reasoning": "Both represent user accounts",
      "field_mappings": [
        {
          "api_a_field": "user_id",
          "api_b_field": "customer_id",
          "confidence": "HIGH",
          "transformation": null,
          "notes": "Direct mapping"
        }
      ]
    }
  ],
  "unmapped_entities_a": ["Order", "Payment"],
  "unmapped_entities_b": ["Invoice"]
}

Return ONLY valid JSON, no other text.`)
	return b.String()
}

// formatSchemas renders a summary's schemas as an indented field listing.
// Schema and field names are sorted so prompts are deterministic.
func formatSchemas(summary mapping.Summary) string {
	if len(summary.Schemas) == 0 {
		return fmt.Sprintf("%s has no schemas defined.\n", summary.Title)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n%s Schemas:\n", summary.Title)
	for _, schemaName := range sortedKeys(summary.Schemas) {
		fmt.Fprintf(&b, "\n  %s:\n", schemaName)
		fields := summary.Schemas[schemaName]
		for _, fieldName := range sortedKeys(fields) {
			field := fields[fieldName]
			requirement := "optional"
			if field.Required {
				requirement = "required"
			}
			fmt.Fprintf(&b, "    - %s: %s (%s)\n", fieldName, field.Type, requirement)
			if desc, ok := field.Description.(string); ok && desc != "" {
				fmt.Fprintf(&b, "        Description: %s\n", desc)
			}
		}
	}
	return b.String()
}

// BuildExtractionPrompt renders cleaned documentation text into the endpoint
// extraction prompt, with guidance tuned to the detected documentation style.
func BuildExtractionPrompt(cleanedText, url, docType string) string {
	guidance, ok := docTypeGuidance[docType]
	if !ok {
		guidance = docTypeGuidance["unknown"]
	}

	var b strings.Builder
	b.WriteString("You are an expert API documentation analyzer. Your task is to extract COMPLETE endpoint specifications including all request/response schemas and error codes.\n\n")
	b.WriteString("CRITICAL: Extract information EXACTLY as it appears in the documentation. Do not invent or assume anything not explicitly stated.\n")
	b.WriteString(guidance)
	fmt.Fprintf(&b, "\nSource URL: %s\n\n", url)
	b.WriteString(`Respond with a JSON object in this shape:
{
  "api_info": {
    "name": "API name from page title",
    "base_url": "https://api.example.com (extract from examples or text)",
    "description": "Brief description",
    "version": "version if mentioned"
  },
  "endpoints": [
    {
      "method": "GET|POST|PUT|DELETE|PATCH|HEAD|OPTIONS",
      "path": "/v1/resource/{id}",
      "summary": "Brief one-line description",
      "description": "Detailed description",
      "parameters": [
        {"name": "id", "in": "path|query|header|cookie", "required": true, "schema": {"type": "string"}}
      ],
      "request_body": {"content": {"application/json": {"schema": {"type": "object", "properties": {}}}}},
      "responses": {"200": {"description": "Success", "content": {"application/json": {"schema": {}}}}}
    }
  ],
  "schemas": {},
  "authentication": {"type": "apiKey|oauth2|http", "details": {}},
  "suggested_urls": ["other documentation pages worth visiting, at most 3"]
}

Return ONLY valid JSON, no other text.

Documentation content:

`)
	b.WriteString(cleanedText)
	return b.String()
}

var docTypeGuidance = map[string]string{
	"github": `
This is GitHub documentation. It typically has multiple endpoints on one page,
grouped by resource type, with parameters in tables and status codes listed
separately. Extract EACH endpoint separately, do not merge them.
`,
	"stripe": `
This is Stripe documentation. It typically has one main endpoint per page with
deep nested object schemas and rich error responses. Pay special attention to
nested objects and all possible error codes.
`,
	"readme": `
This is Readme.io documentation. It typically has clean structure with code
examples and clear parameter tables. Extract from both prose and code examples.
`,
	"swagger_ui": `
This page is rendered by Swagger UI or ReDoc. The underlying spec structure is
usually visible in the page; extract endpoints and schemas faithfully.
`,
	"generic_rest": `
This appears to be standard REST API documentation. Extract from whatever
structure is present: tables, code examples, or prose.
`,
	"unknown": `
Documentation format is unclear. Look for HTTP methods (GET, POST, PUT,
DELETE, PATCH) and URL paths; extract from code examples, tables, or text. Be
thorough and capture all available information.
`,
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
