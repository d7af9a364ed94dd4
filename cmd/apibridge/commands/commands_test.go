package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apibridge/apibridge/contract"
	"github.com/apibridge/apibridge/pipeline"
)

func writeJSON(t *testing.T, dir, name string, value any) string {
	t.Helper()
	raw, err := json.Marshal(value)
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	return path
}

func extractedFixture(t *testing.T, dir, name, side, title string) string {
	artifact := pipeline.BuildExtractedAPI(side, "https://"+title+".test", map[string]any{
		"api_info": map[string]any{"name": title},
		"endpoints": []any{
			map[string]any{"method": "GET", "path": "/items"},
		},
		"schemas": map[string]any{
			"Item": map[string]any{
				"type":       "object",
				"properties": map[string]any{"id": map[string]any{"type": "string"}},
			},
		},
	})
	return writeJSON(t, dir, name, artifact)
}

func TestMapCommandWithProposal(t *testing.T) {
	dir := t.TempDir()
	apiA := extractedFixture(t, dir, "a.json", pipeline.SideA, "crm")
	apiB := extractedFixture(t, dir, "b.json", pipeline.SideB, "billing")
	proposal := writeJSON(t, dir, "proposal.json", map[string]any{
		"entity_mappings": []any{
			map[string]any{
				"api_a_entity":   "Item",
				"api_b_entity":   "Item",
				"confidence":     "HIGH",
				"field_mappings": []any{},
			},
		},
	})
	output := filepath.Join(dir, "mapping.json")

	flags := MapCmd.Flags()
	require.NoError(t, flags.Set("api-a", apiA))
	require.NoError(t, flags.Set("api-b", apiB))
	require.NoError(t, flags.Set("proposal", proposal))
	require.NoError(t, flags.Set("output", output))

	require.NoError(t, runMap(MapCmd, nil))

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	var result map[string]any
	require.NoError(t, json.Unmarshal(raw, &result))

	ok, errs := contract.Validate(contract.KindMappingResult, result)
	assert.True(t, ok, "errors: %v", errs)
	assert.Len(t, result["entity_mappings"], 1)
}

func TestPlanCommand(t *testing.T) {
	dir := t.TempDir()
	mapping := writeJSON(t, dir, "mapping.json", map[string]any{
		"entity_mappings": []any{
			map[string]any{
				"api_a_entity": "Item",
				"api_b_entity": "Product",
				"confidence":   "HIGH",
				"field_mappings": []any{
					map[string]any{"api_a_field": "id", "api_b_field": "sku", "confidence": "MEDIUM"},
				},
			},
		},
	})
	answers := writeJSON(t, dir, "answers.json", map[string]any{
		"ownership_notes": "integration team",
	})
	output := filepath.Join(dir, "plan.json")
	markdown := filepath.Join(dir, "plan.md")

	flags := PlanCmd.Flags()
	require.NoError(t, flags.Set("mapping", mapping))
	require.NoError(t, flags.Set("answers", answers))
	require.NoError(t, flags.Set("output", output))
	require.NoError(t, flags.Set("markdown", markdown))

	require.NoError(t, runPlan(PlanCmd, nil))

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	var result map[string]any
	require.NoError(t, json.Unmarshal(raw, &result))

	ok, errs := contract.Validate(contract.KindIntegrationPlan, result)
	assert.True(t, ok, "errors: %v", errs)

	md, err := os.ReadFile(markdown)
	require.NoError(t, err)
	assert.Contains(t, string(md), "### Sync Item to Product")
	assert.Contains(t, string(md), "`id -> sku (MEDIUM)`")
}

func TestPlanCommandRejectsBlankAnswers(t *testing.T) {
	dir := t.TempDir()
	mapping := writeJSON(t, dir, "mapping.json", map[string]any{"entity_mappings": []any{}})
	answers := writeJSON(t, dir, "answers.json", map[string]any{})

	flags := PlanCmd.Flags()
	require.NoError(t, flags.Set("mapping", mapping))
	require.NoError(t, flags.Set("answers", answers))
	require.NoError(t, flags.Set("output", filepath.Join(dir, "plan.json")))
	require.NoError(t, flags.Set("markdown", ""))

	err := runPlan(PlanCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ownership_notes")
}
