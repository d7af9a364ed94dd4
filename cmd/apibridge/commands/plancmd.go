package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apibridge/apibridge/logger"
	"github.com/apibridge/apibridge/openapi"
	"github.com/apibridge/apibridge/pipeline"
	"github.com/apibridge/apibridge/plan"
)

// PlanCmd synthesizes an integration plan from a mapping and answers.
var PlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Synthesize an integration plan from a mapping and answers",
	Long: `Derive a deterministic integration plan from a mapping result and an
integration answers file. The extracted API artifacts are optional; when
given, their titles name the plan.

The plan is emitted as JSON, and optionally as Markdown with --markdown.`,
	RunE: runPlan,
}

func init() {
	PlanCmd.Flags().String("mapping", "", "Mapping result file (required)")
	PlanCmd.Flags().String("answers", "", "Integration answers file (required)")
	PlanCmd.Flags().String("api-a", "", "Extracted API artifact for side A (optional, for titles)")
	PlanCmd.Flags().String("api-b", "", "Extracted API artifact for side B (optional, for titles)")
	PlanCmd.Flags().StringP("output", "o", "", "Plan JSON output file (default stdout)")
	PlanCmd.Flags().String("markdown", "", "Also render the plan as Markdown to this file")
	PlanCmd.MarkFlagRequired("mapping")
	PlanCmd.MarkFlagRequired("answers")
}

func runPlan(cmd *cobra.Command, args []string) error {
	session := pipeline.NewSession(logger.Logger)

	for _, side := range []struct{ flag, id string }{
		{"api-a", pipeline.SideA},
		{"api-b", pipeline.SideB},
	} {
		path, _ := cmd.Flags().GetString(side.flag)
		if path == "" {
			continue
		}
		artifact, err := readJSONObject(path)
		if err != nil {
			return err
		}
		if err := session.SetExtraction(side.id, artifact); err != nil {
			return err
		}
	}

	mappingPath, _ := cmd.Flags().GetString("mapping")
	mappingData, err := readJSONObject(mappingPath)
	if err != nil {
		return err
	}
	if result := session.AcceptMapping(mappingData); !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "mapping: %s\n", e)
		}
	}

	answersPath, _ := cmd.Flags().GetString("answers")
	answers, err := readJSONObject(answersPath)
	if err != nil {
		return err
	}
	if err := session.SetAnswers(answers); err != nil {
		return err
	}

	result, err := session.SynthesizePlan()
	if err != nil {
		return err
	}
	if !result.Success {
		fmt.Fprintf(os.Stderr, "plan: %s\n", result.Error)
		for _, e := range result.ValidationErrors {
			fmt.Fprintf(os.Stderr, "plan: %s\n", e)
		}
	}

	out, err := openapi.ToJSON(result.Data)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if err := writeArtifact(output, out); err != nil {
		return err
	}

	if markdownPath, _ := cmd.Flags().GetString("markdown"); markdownPath != "" {
		if err := writeArtifact(markdownPath, []byte(plan.RenderMarkdown(result.Data))); err != nil {
			return err
		}
	}
	return nil
}
