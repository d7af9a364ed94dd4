package plan

import (
	"fmt"
	"strings"
)

// RenderMarkdown formats a plan for human review. Section order is fixed so
// that rendered plans diff cleanly across runs.
func RenderMarkdown(p map[string]any) string {
	if p == nil {
		p = map[string]any{}
	}
	summary, _ := p["summary"].(map[string]any)
	if summary == nil {
		summary = map[string]any{}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", stringOr(summary["name"], "Integration Plan"))

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- Goal: %s\n", stringOr(summary["goal"], "unknown"))
	fmt.Fprintf(&b, "- Direction: %s\n", stringOr(summary["direction"], "unknown"))
	fmt.Fprintf(&b, "- Source of truth: %s\n", stringOr(summary["source_of_truth"], "unknown"))
	fmt.Fprintf(&b, "- Entities mapped: %v\n\n", valueOr(summary["entities_mapped"], 0))

	b.WriteString("## Flows\n\n")
	for _, flow := range objectList(p["flows"]) {
		fmt.Fprintf(&b, "### %s\n\n", stringOr(flow["name"], "Unnamed flow"))
		fmt.Fprintf(&b, "- Direction: %s\n", stringOr(flow["direction"], ""))
		fmt.Fprintf(&b, "- Trigger: %s\n", stringOr(flow["trigger"], ""))
		b.WriteString("- Steps:\n")
		for _, step := range stringList(flow["steps"]) {
			fmt.Fprintf(&b, "  1. %s\n", step)
		}
		if fields := stringList(flow["field_map"]); len(fields) > 0 {
			b.WriteString("- Field mappings:\n")
			for _, line := range fields {
				fmt.Fprintf(&b, "  - `%s`\n", line)
			}
		}
		b.WriteString("\n")
	}

	b.WriteString("## Risks\n\n")
	for _, risk := range stringList(p["risks"]) {
		fmt.Fprintf(&b, "- %s\n", risk)
	}

	b.WriteString("\n## Open Questions\n\n")
	questions := stringList(p["open_questions"])
	if len(questions) == 0 {
		b.WriteString("- None\n")
	}
	for _, q := range questions {
		fmt.Fprintf(&b, "- %s\n", q)
	}

	b.WriteString("\n## Implementation Backlog\n\n")
	for _, item := range stringList(p["implementation_backlog"]) {
		fmt.Fprintf(&b, "- [ ] %s\n", item)
	}

	return b.String()
}

func valueOr(v any, fallback any) any {
	if v == nil {
		return fallback
	}
	return v
}
