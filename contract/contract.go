// Package contract defines the canonical artifact contracts exchanged between
// pipeline stages and a structural validator for each of them.
//
// Four artifact kinds flow through the pipeline:
//   - extracted_api:        per-source extraction result
//   - mapping_result:       entity/field mapping between two APIs
//   - integration_answers:  operator decisions from the questionnaire
//   - integration_plan:     final synthesized integration plan
//
// Validation is purely structural (type/shape/enum membership). It never
// mutates its input and never panics on malformed payloads; a bad payload
// produces (false, errors).
package contract

import (
	"fmt"
	"sort"
	"strings"
)

// Artifact kind names accepted by Validate.
const (
	KindExtractedAPI       = "extracted_api"
	KindMappingResult      = "mapping_result"
	KindIntegrationAnswers = "integration_answers"
	KindIntegrationPlan    = "integration_plan"
)

// ConfidenceLevels enumerates the ordinal quality ratings for mappings.
var ConfidenceLevels = newEnum("HIGH", "MEDIUM", "LOW")

// Enumerated decision values for integration_answers.
var (
	Goals              = newEnum("sync", "enrich", "migrate", "bidirectional")
	SourceOfTruth      = newEnum("api_a", "api_b", "per_entity")
	SyncDirections     = newEnum("a_to_b", "b_to_a", "bidirectional")
	TriggerModes       = newEnum("event", "polling", "manual", "batch")
	LatencySLOs        = newEnum("realtime", "near_realtime", "hourly", "daily")
	ConflictStrategies = newEnum("last_write_wins", "source_priority", "manual_review")
	ErrorStrategies    = newEnum("retry_then_dlq", "skip_and_log", "halt_pipeline")
	PIIHandlingModes   = newEnum("none", "mask", "encrypt")
	BackoffStrategies  = newEnum("exponential", "linear", "fixed")
)

// Enum is a closed set of allowed string values.
type Enum map[string]struct{}

func newEnum(values ...string) Enum {
	e := make(Enum, len(values))
	for _, v := range values {
		e[v] = struct{}{}
	}
	return e
}

// Contains reports whether value is a member of the enum. Non-string values
// are never members.
func (e Enum) Contains(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	_, ok = e[s]
	return ok
}

// Sorted returns the members in lexical order, for stable error messages.
func (e Enum) Sorted() []string {
	out := make([]string, 0, len(e))
	for v := range e {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Values returns the members for UI option lists, sorted.
func (e Enum) Values() []string { return e.Sorted() }

// Validate dispatches to the validator for the named artifact kind. An
// unknown kind yields a single error naming it. The error list is ordered and
// path-qualified; callers must surface it in full.
func Validate(kind string, data any) (bool, []string) {
	switch kind {
	case KindExtractedAPI:
		return ValidateExtractedAPI(data)
	case KindMappingResult:
		return ValidateMappingResult(data)
	case KindIntegrationAnswers:
		return ValidateIntegrationAnswers(data)
	case KindIntegrationPlan:
		return ValidateIntegrationPlan(data)
	default:
		return false, []string{fmt.Sprintf("unknown contract: %s", kind)}
	}
}

// ValidateExtractedAPI checks the extracted_api artifact shape:
//
//	{
//	  "api_id": "api_a|api_b",
//	  "source_url": "...",
//	  "openapi": {...},
//	  "normalized": {"entities": [...], "operations": [...], "auth": {...}}
//	}
func ValidateExtractedAPI(data any) (bool, []string) {
	obj, ok := asObject(data)
	if !ok {
		return false, []string{"extracted API payload must be an object"}
	}

	var errs []string
	if id, _ := obj["api_id"].(string); id != "api_a" && id != "api_b" {
		errs = append(errs, "'api_id' must be either 'api_a' or 'api_b'")
	}
	if !isNonEmptyString(obj["source_url"]) {
		errs = append(errs, "'source_url' must be a non-empty string")
	}
	if _, ok := asObject(obj["openapi"]); !ok {
		errs = append(errs, "'openapi' must be an object")
	}

	normalized, ok := asObject(obj["normalized"])
	if !ok {
		errs = append(errs, "'normalized' must be an object")
		return len(errs) == 0, errs
	}

	entities, ok := asList(normalized["entities"])
	if !ok {
		errs = append(errs, "'normalized.entities' must be a list")
	} else {
		for i, raw := range entities {
			prefix := fmt.Sprintf("'normalized.entities[%d]", i)
			entity, ok := asObject(raw)
			if !ok {
				errs = append(errs, prefix+"' must be an object")
				continue
			}
			if !isNonEmptyString(entity["name"]) {
				errs = append(errs, prefix+".name' must be a non-empty string")
			}
			fields, ok := asList(entity["fields"])
			if !ok {
				errs = append(errs, prefix+".fields' must be a list")
				continue
			}
			for j, rawField := range fields {
				fieldPrefix := fmt.Sprintf("'normalized.entities[%d].fields[%d]", i, j)
				field, ok := asObject(rawField)
				if !ok {
					errs = append(errs, fieldPrefix+"' must be an object")
					continue
				}
				if !isNonEmptyString(field["name"]) {
					errs = append(errs, fieldPrefix+".name' must be a non-empty string")
				}
				if !isNonEmptyString(field["type"]) {
					errs = append(errs, fieldPrefix+".type' must be a non-empty string")
				}
				if req, present := field["required"]; present {
					if _, ok := req.(bool); !ok {
						errs = append(errs, fieldPrefix+".required' must be boolean")
					}
				}
			}
		}
	}

	operations, ok := asList(normalized["operations"])
	if !ok {
		errs = append(errs, "'normalized.operations' must be a list")
	} else {
		for i, raw := range operations {
			prefix := fmt.Sprintf("'normalized.operations[%d]", i)
			op, ok := asObject(raw)
			if !ok {
				errs = append(errs, prefix+"' must be an object")
				continue
			}
			if !isNonEmptyString(op["method"]) {
				errs = append(errs, prefix+".method' must be a non-empty string")
			}
			if !isNonEmptyString(op["path"]) {
				errs = append(errs, prefix+".path' must be a non-empty string")
			}
		}
	}

	if auth, present := normalized["auth"]; present {
		if _, ok := asObject(auth); !ok {
			errs = append(errs, "'normalized.auth' must be an object when present")
		}
	}

	return len(errs) == 0, errs
}

// ValidateMappingResult checks the entity/field mapping artifact.
func ValidateMappingResult(data any) (bool, []string) {
	obj, ok := asObject(data)
	if !ok {
		return false, []string{"mapping result payload must be an object"}
	}

	var errs []string
	mappings, ok := asList(obj["entity_mappings"])
	if !ok {
		errs = append(errs, "'entity_mappings' must be a list")
	} else {
		for i, raw := range mappings {
			prefix := fmt.Sprintf("'entity_mappings[%d]", i)
			mapping, ok := asObject(raw)
			if !ok {
				errs = append(errs, prefix+"' must be an object")
				continue
			}
			if !isNonEmptyString(mapping["api_a_entity"]) {
				errs = append(errs, prefix+".api_a_entity' must be a non-empty string")
			}
			if !isNonEmptyString(mapping["api_b_entity"]) {
				errs = append(errs, prefix+".api_b_entity' must be a non-empty string")
			}
			if !ConfidenceLevels.Contains(mapping["confidence"]) {
				errs = append(errs, fmt.Sprintf("%s.confidence' must be one of %v", prefix, ConfidenceLevels.Sorted()))
			}

			fieldMappings, ok := asList(mapping["field_mappings"])
			if !ok {
				errs = append(errs, prefix+".field_mappings' must be a list")
				continue
			}
			for j, rawField := range fieldMappings {
				fieldPrefix := fmt.Sprintf("'entity_mappings[%d].field_mappings[%d]", i, j)
				fm, ok := asObject(rawField)
				if !ok {
					errs = append(errs, fieldPrefix+"' must be an object")
					continue
				}
				if !isNonEmptyString(fm["api_a_field"]) {
					errs = append(errs, fieldPrefix+".api_a_field' must be a non-empty string")
				}
				if !isNonEmptyString(fm["api_b_field"]) {
					errs = append(errs, fieldPrefix+".api_b_field' must be a non-empty string")
				}
				if !ConfidenceLevels.Contains(fm["confidence"]) {
					errs = append(errs, fmt.Sprintf("%s.confidence' must be one of %v", fieldPrefix, ConfidenceLevels.Sorted()))
				}
				if t, present := fm["transformation"]; present && t != nil {
					switch t.(type) {
					case string, map[string]any:
					default:
						errs = append(errs, fieldPrefix+".transformation' must be null, string, or object")
					}
				}
			}
		}
	}

	errs = validateStringList(obj, "unmapped_entities_a", errs, true)
	errs = validateStringList(obj, "unmapped_entities_b", errs, true)
	errs = validateStringList(obj, "warnings", errs, false)

	return len(errs) == 0, errs
}

// ValidateIntegrationAnswers checks the questionnaire output artifact.
func ValidateIntegrationAnswers(data any) (bool, []string) {
	obj, ok := asObject(data)
	if !ok {
		return false, []string{"integration answers payload must be an object"}
	}

	var errs []string
	errs = validateEnum(obj, "goal", Goals, errs)
	errs = validateEnum(obj, "source_of_truth", SourceOfTruth, errs)
	errs = validateEnum(obj, "sync_direction", SyncDirections, errs)
	errs = validateEnum(obj, "trigger_mode", TriggerModes, errs)
	errs = validateEnum(obj, "latency_slo", LatencySLOs, errs)
	errs = validateEnum(obj, "conflict_strategy", ConflictStrategies, errs)
	errs = validateEnum(obj, "error_strategy", ErrorStrategies, errs)
	errs = validateEnum(obj, "pii_handling", PIIHandlingModes, errs)

	retry, ok := asObject(obj["retry_policy"])
	if !ok {
		errs = append(errs, "'retry_policy' must be an object")
	} else {
		if n, ok := asInt(retry["max_retries"]); !ok || n < 0 {
			errs = append(errs, "'retry_policy.max_retries' must be an integer >= 0")
		}
		if !BackoffStrategies.Contains(retry["backoff"]) {
			errs = append(errs, fmt.Sprintf("'retry_policy.backoff' must be one of %v", BackoffStrategies.Sorted()))
		}
	}

	if _, ok := obj["idempotency"].(bool); !ok {
		errs = append(errs, "'idempotency' must be boolean")
	}
	if _, ok := obj["ownership_notes"].(string); !ok {
		errs = append(errs, "'ownership_notes' must be a string")
	}

	return len(errs) == 0, errs
}

// ValidateIntegrationPlan checks the final integration plan artifact.
func ValidateIntegrationPlan(data any) (bool, []string) {
	obj, ok := asObject(data)
	if !ok {
		return false, []string{"integration plan payload must be an object"}
	}

	var errs []string
	if _, ok := asObject(obj["summary"]); !ok {
		errs = append(errs, "'summary' must be an object")
	}

	flows, ok := asList(obj["flows"])
	if !ok {
		errs = append(errs, "'flows' must be a list")
	} else {
		for i, raw := range flows {
			prefix := fmt.Sprintf("'flows[%d]", i)
			flow, ok := asObject(raw)
			if !ok {
				errs = append(errs, prefix+"' must be an object")
				continue
			}
			for _, key := range []string{"name", "direction", "trigger"} {
				if !isNonEmptyString(flow[key]) {
					errs = append(errs, fmt.Sprintf("%s.%s' must be a non-empty string", prefix, key))
				}
			}
			for _, key := range []string{"steps", "field_map"} {
				if _, ok := asList(flow[key]); !ok {
					errs = append(errs, fmt.Sprintf("%s.%s' must be a list", prefix, key))
				}
			}
			for _, key := range []string{"error_handling", "auth", "observability"} {
				if _, ok := asObject(flow[key]); !ok {
					errs = append(errs, fmt.Sprintf("%s.%s' must be an object", prefix, key))
				}
			}
		}
	}

	errs = validateStringList(obj, "open_questions", errs, true)
	errs = validateStringList(obj, "risks", errs, true)
	errs = validateStringList(obj, "implementation_backlog", errs, true)

	return len(errs) == 0, errs
}

// --- shape helpers ---

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	switch l := v.(type) {
	case []any:
		return l, true
	case []string:
		// Tolerate typed string slices produced by in-process callers.
		out := make([]any, len(l))
		for i, s := range l {
			out[i] = s
		}
		return out, true
	case []map[string]any:
		out := make([]any, len(l))
		for i, m := range l {
			out[i] = m
		}
		return out, true
	default:
		return nil, false
	}
}

// asInt accepts the numeric types JSON decoding and in-process construction
// produce. A float is an integer only when it has no fractional part.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	default:
		return 0, false
	}
}

func isNonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) != ""
}

func validateEnum(obj map[string]any, key string, allowed Enum, errs []string) []string {
	if !allowed.Contains(obj[key]) {
		errs = append(errs, fmt.Sprintf("'%s' must be one of %v", key, allowed.Sorted()))
	}
	return errs
}

func validateStringList(obj map[string]any, key string, errs []string, required bool) []string {
	raw, present := obj[key]
	if !present {
		if required {
			errs = append(errs, fmt.Sprintf("missing required key: '%s'", key))
		}
		return errs
	}
	list, ok := asList(raw)
	if !ok {
		return append(errs, fmt.Sprintf("'%s' must be a list of strings", key))
	}
	for _, item := range list {
		if _, ok := item.(string); !ok {
			return append(errs, fmt.Sprintf("'%s' must be a list of strings", key))
		}
	}
	return errs
}
