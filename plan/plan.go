// Package plan deterministically synthesizes an integration plan from a
// validated mapping result and the operator's decision record.
//
// Synthesis is a pure function of its inputs: same mapping + same answers
// always produce the same plan. The synthesized plan is validated against
// the integration_plan contract before it is returned; a plan that fails
// validation is discarded in favor of a minimal always-valid fallback, and
// the original errors are reported to the caller.
package plan

import (
	"fmt"
	"strings"

	"github.com/apibridge/apibridge/contract"
)

// Result is the outcome of Synthesize. Data is always contract-valid; when
// Success is false, Data holds the fallback plan and ValidationErrors holds
// the violations found in the discarded one.
type Result struct {
	Success          bool
	Data             map[string]any
	Error            string
	ValidationErrors []string
}

// GenericFlowName is the name of the single fallback flow synthesized when
// the mapping produced zero entity mappings.
const GenericFlowName = "Initial generic synchronization flow"

// Synthesize derives an integration plan from the mapping result and the
// operator answers. It never returns an error value; see Result.
func Synthesize(apiATitle, apiBTitle string, mapping, answers map[string]any) Result {
	if mapping == nil {
		mapping = map[string]any{}
	}
	if answers == nil {
		answers = map[string]any{}
	}

	entityMappings := objectList(mapping["entity_mappings"])
	p := map[string]any{
		"summary": map[string]any{
			"name":            fmt.Sprintf("%s <-> %s Integration Plan", apiATitle, apiBTitle),
			"goal":            stringOr(answers["goal"], "sync"),
			"direction":       stringOr(answers["sync_direction"], "a_to_b"),
			"source_of_truth": stringOr(answers["source_of_truth"], "api_a"),
			"entities_mapped": len(entityMappings),
		},
		"flows":                  buildFlows(entityMappings, answers),
		"open_questions":         buildOpenQuestions(mapping),
		"risks":                  buildRisks(mapping),
		"implementation_backlog": buildBacklog(answers),
	}

	if ok, errs := contract.Validate(contract.KindIntegrationPlan, p); !ok {
		return Result{
			Success:          false,
			Data:             fallbackPlan(errs),
			Error:            "generated plan failed validation",
			ValidationErrors: errs,
		}
	}
	return Result{Success: true, Data: p}
}

func buildFlows(entityMappings []map[string]any, answers map[string]any) []any {
	direction := humanDirection(stringOr(answers["sync_direction"], "a_to_b"))
	trigger := stringOr(answers["trigger_mode"], "event")

	flows := make([]any, 0, len(entityMappings))
	for _, mapping := range entityMappings {
		aEntity := stringOr(mapping["api_a_entity"], "SourceEntity")
		bEntity := stringOr(mapping["api_b_entity"], "TargetEntity")

		fieldLines := []any{}
		for _, field := range objectList(mapping["field_mappings"]) {
			fieldLines = append(fieldLines, fieldMapLine(field))
		}

		flows = append(flows, map[string]any{
			"name":      fmt.Sprintf("Sync %s to %s", aEntity, bEntity),
			"direction": direction,
			"trigger":   trigger,
			"steps": []any{
				fmt.Sprintf("Capture %s change event", aEntity),
				"Apply field transformations",
				fmt.Sprintf("Upsert %s in destination API", bEntity),
				"Record outcome and retry on transient failures",
			},
			"field_map":      fieldLines,
			"error_handling": errorHandling(answers),
			"auth": map[string]any{
				"source_of_truth":      stringOr(answers["source_of_truth"], "api_a"),
				"idempotency_required": boolOr(answers["idempotency"], true),
			},
			"observability": map[string]any{
				"metrics": []any{"sync_success_rate", "sync_error_rate", "retry_count", "latency_p95"},
				"owner":   stringOr(answers["ownership_notes"], ""),
			},
		})
	}

	if len(flows) > 0 {
		return flows
	}

	// Zero mappings still produce one actionable flow, never an empty list.
	return []any{map[string]any{
		"name":      GenericFlowName,
		"direction": direction,
		"trigger":   trigger,
		"steps": []any{
			"Identify source events",
			"Transform payload to destination schema",
			"Call destination API",
			"Handle retry and observability hooks",
		},
		"field_map":      []any{},
		"error_handling": errorHandling(answers),
		"auth": map[string]any{
			"source_of_truth":      stringOr(answers["source_of_truth"], "api_a"),
			"idempotency_required": boolOr(answers["idempotency"], true),
		},
		"observability": map[string]any{
			"metrics": []any{"sync_success_rate", "sync_error_rate", "latency_p95"},
			"owner":   stringOr(answers["ownership_notes"], ""),
		},
	}}
}

// fieldMapLine renders "{aField} -> {bField} ({confidence})", appending
// " | transform: {t}" when a transformation is specified.
func fieldMapLine(field map[string]any) string {
	line := fmt.Sprintf("%s -> %s (%s)",
		stringOr(field["api_a_field"], ""),
		stringOr(field["api_b_field"], ""),
		stringOr(field["confidence"], ""))

	transformation := field["transformation"]
	if hasTransformation(transformation) {
		line += fmt.Sprintf(" | transform: %v", transformation)
	}
	return line
}

func hasTransformation(t any) bool {
	switch v := t.(type) {
	case nil:
		return false
	case string:
		return v != ""
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

func errorHandling(answers map[string]any) map[string]any {
	retry, ok := answers["retry_policy"].(map[string]any)
	if !ok {
		retry = map[string]any{"max_retries": 3, "backoff": "exponential"}
	}
	return map[string]any{
		"strategy":     stringOr(answers["error_strategy"], "retry_then_dlq"),
		"retry_policy": retry,
	}
}

// buildOpenQuestions emits one question per unmapped entity, API A entities
// first.
func buildOpenQuestions(mapping map[string]any) []any {
	questions := []any{}
	for _, entity := range stringList(mapping["unmapped_entities_a"]) {
		questions = append(questions, fmt.Sprintf("How should API A entity '%s' be represented in API B?", entity))
	}
	for _, entity := range stringList(mapping["unmapped_entities_b"]) {
		questions = append(questions, fmt.Sprintf("Should API B entity '%s' be sourced, ignored, or reverse-synced?", entity))
	}
	return questions
}

// buildRisks starts with mapping warnings verbatim, then flags LOW-confidence
// mappings. The list is never empty.
func buildRisks(mapping map[string]any) []any {
	risks := []any{}
	for _, warning := range stringList(mapping["warnings"]) {
		risks = append(risks, warning)
	}
	for _, entityMap := range objectList(mapping["entity_mappings"]) {
		if stringOr(entityMap["confidence"], "") == "LOW" {
			risks = append(risks, fmt.Sprintf("Low confidence entity mapping: %s -> %s",
				stringOr(entityMap["api_a_entity"], ""), stringOr(entityMap["api_b_entity"], "")))
		}
		for _, fieldMap := range objectList(entityMap["field_mappings"]) {
			if stringOr(fieldMap["confidence"], "") == "LOW" {
				risks = append(risks, fmt.Sprintf("Low confidence field mapping: %s -> %s",
					stringOr(fieldMap["api_a_field"], ""), stringOr(fieldMap["api_b_field"], "")))
			}
		}
	}
	if len(risks) == 0 {
		risks = append(risks, "No explicit risks detected from mapping stage")
	}
	return risks
}

func buildBacklog(answers map[string]any) []any {
	owner := strings.TrimSpace(stringOr(answers["ownership_notes"], ""))
	if owner == "" {
		owner = "TBD"
	}
	return []any{
		"Implement source connector authentication and token refresh",
		"Implement destination connector upsert operations",
		"Build transformation layer for mapped fields",
		"Implement retry/dead-letter behavior",
		fmt.Sprintf("Configure monitoring ownership: %s", owner),
	}
}

// fallbackPlan is the minimal always-valid plan substituted when synthesis
// produced an invalid structure. Its single flow documents the failure.
func fallbackPlan(errs []string) map[string]any {
	errList := make([]any, len(errs))
	for i, e := range errs {
		errList[i] = e
	}
	return map[string]any{
		"summary": map[string]any{"name": "Integration Plan (Fallback)"},
		"flows": []any{map[string]any{
			"name":      "Fallback flow",
			"direction": "A->B",
			"trigger":   "manual",
			"steps":     []any{"Review validation errors", "Fix upstream artifacts"},
			"field_map": []any{},
			"error_handling": map[string]any{
				"strategy":          "halt_pipeline",
				"validation_errors": errList,
			},
			"auth":          map[string]any{},
			"observability": map[string]any{"metrics": []any{"validation_error_count"}},
		}},
		"open_questions":         []any{"Resolve integration plan validation errors before rollout"},
		"risks":                  []any{"Plan generation produced invalid structure"},
		"implementation_backlog": []any{"Correct upstream mapping/answers payload"},
	}
}

func humanDirection(syncDirection string) string {
	switch syncDirection {
	case "b_to_a":
		return "B->A"
	case "bidirectional":
		return "A<->B"
	default:
		return "A->B"
	}
}

// --- shared coercion helpers ---

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

func stringList(v any) []string {
	var out []string
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}
