// Package merge accumulates partial per-page extraction results into one
// coherent API description.
//
// Pages arrive from two kinds of sources: a parsed OpenAPI document
// (authoritative, merged wholesale) or an LLM extraction (noisy, merged
// field-by-field with a completeness heuristic). The accumulator is owned by
// exactly one extraction run and must never be shared across runs.
package merge

import (
	"fmt"
)

// Source method values reported by page extractors.
const (
	MethodOpenAPI       = "openapi"
	MethodLLMExtraction = "llm_extraction"
)

// PageResult is the collaborator-boundary contract for one analyzed page.
// The merger only requires Success, Method, and Data.
type PageResult struct {
	Success bool           `json:"success"`
	Method  string         `json:"method"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error,omitempty"`
}

// PageRef records which page contributed to the aggregate and how.
type PageRef struct {
	URL    string `json:"url"`
	Method string `json:"method"`
}

// Aggregate is the accumulated API description for one extraction run.
type Aggregate struct {
	Endpoints     []map[string]any
	Schemas       map[string]any
	Auth          map[string]any
	APIInfo       map[string]any
	PagesAnalyzed []PageRef

	// Prefer decides whether an incoming endpoint field value replaces the
	// existing one. Defaults to PreferLonger.
	Prefer FieldPreference
}

// NewAggregate returns an empty accumulator with the default field
// preference.
func NewAggregate() *Aggregate {
	return &Aggregate{
		Endpoints: []map[string]any{},
		Schemas:   map[string]any{},
		APIInfo:   map[string]any{},
		Prefer:    PreferLonger,
	}
}

// FieldPreference reports whether incoming should replace existing for a
// non-parameter endpoint field. Isolated as a named type so the heuristic can
// be swapped without touching merge control flow.
type FieldPreference func(existing, incoming any) bool

// PreferLonger is the default completeness heuristic: an incoming value wins
// when the existing one is empty, or when the incoming value's stringified
// form is strictly longer. Equal lengths keep the existing value, first seen
// wins.
func PreferLonger(existing, incoming any) bool {
	if isEmpty(incoming) {
		return false
	}
	if isEmpty(existing) {
		return true
	}
	return len(stringify(incoming)) > len(stringify(existing))
}

// Merge folds one page's extraction data into the aggregate. Merging is
// deterministic and order-independent for endpoint identity (METHOD:PATH);
// see PreferLonger for the one documented order dependency.
func (a *Aggregate) Merge(data map[string]any, url, method string) {
	if a.Prefer == nil {
		a.Prefer = PreferLonger
	}
	if a.APIInfo == nil {
		a.APIInfo = map[string]any{}
	}
	if a.Schemas == nil {
		a.Schemas = map[string]any{}
	}
	a.PagesAnalyzed = append(a.PagesAnalyzed, PageRef{URL: url, Method: method})
	if data == nil {
		return
	}

	if method == MethodOpenAPI {
		a.mergeOpenAPI(data)
		return
	}
	// Anything else is treated as LLM-extracted content.
	a.mergeLLM(data)
}

// mergeOpenAPI trusts a parsed spec document: info overwrites wholesale
// (an absent info section still resets it), endpoints append, schema keys
// shallow-merge with incoming winning.
func (a *Aggregate) mergeOpenAPI(data map[string]any) {
	info, _ := data["info"].(map[string]any)
	if info == nil {
		info = map[string]any{}
	}
	a.APIInfo = info
	for _, ep := range asObjectList(data["endpoints"]) {
		a.Endpoints = append(a.Endpoints, ep)
	}
	if schemas, ok := data["schemas"].(map[string]any); ok {
		for name, s := range schemas {
			a.Schemas[name] = s
		}
	}
	if a.Auth == nil {
		if auth, ok := data["auth"].(map[string]any); ok && len(auth) > 0 {
			a.Auth = auth
		}
	}
}

func (a *Aggregate) mergeLLM(data map[string]any) {
	if info, ok := data["api_info"].(map[string]any); ok {
		for key, value := range info {
			if !isEmpty(value) {
				a.APIInfo[key] = value
			}
		}
	}

	for _, incoming := range asObjectList(data["endpoints"]) {
		key := endpointKey(incoming)
		idx := -1
		for i, existing := range a.Endpoints {
			if endpointKey(existing) == key {
				idx = i
				break
			}
		}
		if idx < 0 {
			a.Endpoints = append(a.Endpoints, incoming)
		} else {
			a.Endpoints[idx] = a.mergeEndpoint(a.Endpoints[idx], incoming)
		}
	}

	if schemas, ok := data["schemas"].(map[string]any); ok {
		for name, incoming := range schemas {
			a.mergeSchema(name, incoming)
		}
	}

	if a.Auth == nil {
		if auth, ok := data["authentication"].(map[string]any); ok && len(auth) > 0 {
			a.Auth = auth
		}
	}
}

// mergeEndpoint combines two definitions of the same METHOD:PATH endpoint,
// preferring the more complete value per field. Fields absent from incoming
// are left untouched.
func (a *Aggregate) mergeEndpoint(existing, incoming map[string]any) map[string]any {
	merged := make(map[string]any, len(existing))
	for k, v := range existing {
		merged[k] = v
	}

	for key, value := range incoming {
		if key == "parameters" {
			merged["parameters"] = mergeParameters(asObjectList(existing["parameters"]), asObjectList(value))
			continue
		}
		if a.Prefer(existing[key], value) {
			merged[key] = value
		}
	}
	return merged
}

// mergeParameters merges parameter lists by name: matching names get their
// fields updated from incoming, new names append in incoming order.
func mergeParameters(existing, incoming []map[string]any) []map[string]any {
	merged := make([]map[string]any, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))
	for _, p := range existing {
		name, _ := p["name"].(string)
		copied := make(map[string]any, len(p))
		for k, v := range p {
			copied[k] = v
		}
		index[name] = len(merged)
		merged = append(merged, copied)
	}
	for _, p := range incoming {
		name, _ := p["name"].(string)
		if i, ok := index[name]; ok {
			for k, v := range p {
				merged[i][k] = v
			}
			continue
		}
		index[name] = len(merged)
		merged = append(merged, p)
	}
	return merged
}

// mergeSchema unions same-name schema definitions at the field level rather
// than replacing wholesale.
func (a *Aggregate) mergeSchema(name string, incoming any) {
	existing, exists := a.Schemas[name].(map[string]any)
	if !exists {
		a.Schemas[name] = incoming
		return
	}
	incomingObj, ok := incoming.(map[string]any)
	if !ok {
		return
	}
	existingFields, ok := existing["fields"].(map[string]any)
	if !ok {
		existingFields = map[string]any{}
		existing["fields"] = existingFields
	}
	if incomingFields, ok := incomingObj["fields"].(map[string]any); ok {
		for field, def := range incomingFields {
			existingFields[field] = def
		}
	}
}

// ToMap renders the aggregate in the shape the spec assembler consumes.
func (a *Aggregate) ToMap() map[string]any {
	pages := make([]any, len(a.PagesAnalyzed))
	for i, p := range a.PagesAnalyzed {
		pages[i] = map[string]any{"url": p.URL, "method": p.Method}
	}
	endpoints := make([]any, len(a.Endpoints))
	for i, ep := range a.Endpoints {
		endpoints[i] = ep
	}
	out := map[string]any{
		"api_info":       a.APIInfo,
		"endpoints":      endpoints,
		"schemas":        a.Schemas,
		"pages_analyzed": pages,
	}
	if a.Auth != nil {
		out["auth"] = a.Auth
	}
	return out
}

func endpointKey(ep map[string]any) string {
	return fmt.Sprintf("%v:%v", ep["method"], ep["path"])
}

func asObjectList(v any) []map[string]any {
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

// isEmpty mirrors JSON-ish falsiness: nil, false, zero numbers, empty
// strings, and empty collections.
func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case bool:
		return !val
	case string:
		return val == ""
	case int:
		return val == 0
	case int64:
		return val == 0
	case float64:
		return val == 0
	case []any:
		return len(val) == 0
	case []map[string]any:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

func stringify(v any) string {
	return fmt.Sprintf("%v", v)
}
