// Package mapping reshapes OpenAPI documents into comparison-friendly schema
// summaries and normalizes externally-produced mapping proposals against the
// mapping_result contract.
package mapping

import (
	"github.com/apibridge/apibridge/contract"
)

// Summary is the flattened, prompt-friendly view of one API's schemas.
type Summary struct {
	Title   string
	Schemas map[string]map[string]FieldInfo
}

// FieldInfo describes one schema property for mapping purposes.
type FieldInfo struct {
	Type        string `json:"type"`
	Format      any    `json:"format"`
	Description any    `json:"description"`
	Required    bool   `json:"required"`
	Enum        any    `json:"enum"`
}

// NormalizeForMapping flattens an OpenAPI document's component schemas into
// per-field descriptors. Callers may also pass an already-summarized payload
// carrying a top-level "schemas" map of field descriptors; it passes through.
// Non-object property definitions are skipped rather than erroring.
func NormalizeForMapping(doc map[string]any) Summary {
	summary := Summary{
		Title:   "Unknown API",
		Schemas: map[string]map[string]FieldInfo{},
	}
	if doc == nil {
		return summary
	}
	if info, ok := doc["info"].(map[string]any); ok {
		if title, ok := info["title"].(string); ok && title != "" {
			summary.Title = title
		}
	}

	rawSchemas, ok := doc["schemas"].(map[string]any)
	if !ok {
		if components, isObj := doc["components"].(map[string]any); isObj {
			rawSchemas, _ = components["schemas"].(map[string]any)
		}
	}

	for name, rawSchema := range rawSchemas {
		s, ok := rawSchema.(map[string]any)
		if !ok {
			continue
		}
		summary.Schemas[name] = simplifySchema(s)
	}
	return summary
}

// simplifySchema flattens one schema's properties/required into field
// descriptors.
func simplifySchema(s map[string]any) map[string]FieldInfo {
	properties, _ := s["properties"].(map[string]any)
	required := requiredSet(s["required"])

	fields := make(map[string]FieldInfo, len(properties))
	for name, rawProp := range properties {
		prop, ok := rawProp.(map[string]any)
		if !ok {
			continue
		}
		typ, _ := prop["type"].(string)
		if typ == "" {
			typ = "unknown"
		}
		fields[name] = FieldInfo{
			Type:        typ,
			Format:      prop["format"],
			Description: prop["description"],
			Required:    required[name],
			Enum:        prop["enum"],
		}
	}
	return fields
}

func requiredSet(raw any) map[string]bool {
	set := map[string]bool{}
	if list, ok := raw.([]any); ok {
		for _, item := range list {
			if name, ok := item.(string); ok {
				set[name] = true
			}
		}
	}
	return set
}

// ProposalResult reports the outcome of accepting an external mapping
// proposal. Data is always a contract-valid mapping_result, even on failure.
type ProposalResult struct {
	Success bool
	Data    map[string]any
	Errors  []string
}

// AcceptProposal normalizes an arbitrary proposal payload, filling the four
// optional top-level keys with empty defaults, and validates it against the
// mapping_result contract. On any failure it returns a safe empty result
// carrying the validation errors as warnings, never an error value.
func AcceptProposal(raw any) ProposalResult {
	obj, ok := raw.(map[string]any)
	if !ok {
		err := "mapping proposal must be a JSON object"
		return ProposalResult{
			Success: false,
			Data:    EmptyResult([]string{err}),
			Errors:  []string{err},
		}
	}

	normalized := make(map[string]any, len(obj)+4)
	for k, v := range obj {
		normalized[k] = v
	}
	for _, key := range []string{"entity_mappings", "unmapped_entities_a", "unmapped_entities_b", "warnings"} {
		if _, present := normalized[key]; !present {
			normalized[key] = []any{}
		}
	}

	if ok, errs := contract.Validate(contract.KindMappingResult, normalized); !ok {
		warnings := append([]string{"mapping payload failed contract validation"}, errs...)
		return ProposalResult{
			Success: false,
			Data:    EmptyResult(warnings),
			Errors:  errs,
		}
	}

	return ProposalResult{Success: true, Data: normalized}
}

// EmptyResult returns an empty mapping_result payload that still satisfies
// the contract, with the given warnings attached.
func EmptyResult(warnings []string) map[string]any {
	warningList := make([]any, len(warnings))
	for i, w := range warnings {
		warningList[i] = w
	}
	return map[string]any{
		"entity_mappings":     []any{},
		"unmapped_entities_a": []any{},
		"unmapped_entities_b": []any{},
		"warnings":            warningList,
	}
}
