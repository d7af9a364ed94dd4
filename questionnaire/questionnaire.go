// Package questionnaire centralizes defaults and validation for the operator
// decision record (integration_answers) captured ahead of plan synthesis.
package questionnaire

import (
	"strings"

	"github.com/apibridge/apibridge/contract"
)

// Defaults returns the first-run decision record. Ownership notes start
// blank deliberately: ValidateAnswers forces the operator to fill them in.
func Defaults() map[string]any {
	return map[string]any{
		"goal":              "sync",
		"source_of_truth":   "api_a",
		"sync_direction":    "a_to_b",
		"trigger_mode":      "event",
		"latency_slo":       "near_realtime",
		"conflict_strategy": "source_priority",
		"error_strategy":    "retry_then_dlq",
		"retry_policy":      map[string]any{"max_retries": 3, "backoff": "exponential"},
		"idempotency":       true,
		"pii_handling":      "mask",
		"ownership_notes":   "",
	}
}

// MergeWithDefaults overlays potentially partial answers onto the defaults.
// retry_policy merges key-by-key so a caller can override just max_retries.
func MergeWithDefaults(raw map[string]any) map[string]any {
	merged := Defaults()
	if raw == nil {
		return merged
	}

	for key, value := range raw {
		if key == "retry_policy" {
			continue
		}
		merged[key] = value
	}

	if retry, ok := raw["retry_policy"].(map[string]any); ok {
		mergedRetry := merged["retry_policy"].(map[string]any)
		for key, value := range retry {
			mergedRetry[key] = value
		}
	}
	return merged
}

// ValidateAnswers merges with defaults, then validates against the
// integration_answers contract plus one operational requirement: ownership
// notes must not be blank, since they drive the monitoring handoff.
func ValidateAnswers(raw map[string]any) (bool, []string) {
	merged := MergeWithDefaults(raw)
	_, errs := contract.Validate(contract.KindIntegrationAnswers, merged)

	notes, ok := merged["ownership_notes"].(string)
	if !ok || strings.TrimSpace(notes) == "" {
		errs = append(errs, "'ownership_notes' cannot be empty")
	}

	return len(errs) == 0, errs
}

// OptionSets exposes the allowed values per decision for interactive
// surfaces (select/radio controls).
func OptionSets() map[string][]string {
	return map[string][]string{
		"goal":              contract.Goals.Values(),
		"source_of_truth":   contract.SourceOfTruth.Values(),
		"sync_direction":    contract.SyncDirections.Values(),
		"trigger_mode":      contract.TriggerModes.Values(),
		"latency_slo":       contract.LatencySLOs.Values(),
		"conflict_strategy": contract.ConflictStrategies.Values(),
		"error_strategy":    contract.ErrorStrategies.Values(),
		"pii_handling":      contract.PIIHandlingModes.Values(),
		"backoff":           contract.BackoffStrategies.Values(),
	}
}
