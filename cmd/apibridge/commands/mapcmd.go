package commands

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/apibridge/apibridge/config"
	"github.com/apibridge/apibridge/llm"
	"github.com/apibridge/apibridge/logger"
	"github.com/apibridge/apibridge/openapi"
	"github.com/apibridge/apibridge/pipeline"
)

// MapCmd proposes entity/field mappings between two extracted APIs.
var MapCmd = &cobra.Command{
	Use:   "map",
	Short: "Propose entity/field mappings between two extracted APIs",
	Long: `Load two extracted API artifacts and produce a mapping result.

By default the mapping is proposed by the model. With --proposal, a prepared
mapping proposal (JSON) is normalized and validated instead, which needs no
API key. The emitted artifact always satisfies the mapping result contract,
even when the proposal is rejected.`,
	RunE: runMap,
}

func init() {
	MapCmd.Flags().String("api-a", "", "Extracted API artifact for side A (required)")
	MapCmd.Flags().String("api-b", "", "Extracted API artifact for side B (required)")
	MapCmd.Flags().String("proposal", "", "Mapping proposal file to use instead of the model")
	MapCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	MapCmd.Flags().String("api-key", "", "Model API key (overrides config)")
	MapCmd.Flags().String("model", "", "Model name (overrides config)")
	MapCmd.MarkFlagRequired("api-a")
	MapCmd.MarkFlagRequired("api-b")
}

func runMap(cmd *cobra.Command, args []string) error {
	session := pipeline.NewSession(logger.Logger)

	for _, side := range []struct{ flag, id string }{
		{"api-a", pipeline.SideA},
		{"api-b", pipeline.SideB},
	} {
		path, _ := cmd.Flags().GetString(side.flag)
		artifact, err := readJSONObject(path)
		if err != nil {
			return err
		}
		if err := session.SetExtraction(side.id, artifact); err != nil {
			return err
		}
	}

	var rawProposal any
	if proposalPath, _ := cmd.Flags().GetString("proposal"); proposalPath != "" {
		proposal, err := readJSONObject(proposalPath)
		if err != nil {
			return err
		}
		rawProposal = proposal
	} else {
		proposal, err := proposeWithModel(cmd, session)
		if err != nil {
			return err
		}
		rawProposal = proposal
	}

	result := session.AcceptMapping(rawProposal)
	if !result.Success {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "mapping: %s\n", e)
		}
	}

	out, err := openapi.ToJSON(result.Data)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	return writeArtifact(output, out)
}

func proposeWithModel(cmd *cobra.Command, session *pipeline.Session) (map[string]any, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if apiKey, _ := cmd.Flags().GetString("api-key"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.LLM.Model = model
	}

	client := llm.NewOpenRouterClient(llm.OpenRouterConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Logger:  logger.Logger,
	})
	if !client.IsConfigured() {
		return nil, errors.New("model API key required, set --api-key or APIBRIDGE_LLM_API_KEY (or use --proposal)")
	}

	summaryA, summaryB, err := session.Summaries()
	if err != nil {
		return nil, err
	}

	resp, err := client.Chat(cmd.Context(), llm.ChatRequest{
		UserPrompt: llm.BuildMappingPrompt(summaryA, summaryB),
	})
	if err != nil {
		return nil, err
	}

	proposal := llm.ParseJSONResponse(resp.Content)
	if proposal == nil {
		return nil, errors.New("model response did not contain a JSON mapping proposal")
	}
	return proposal, nil
}
