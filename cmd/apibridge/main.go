package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/apibridge/apibridge/cmd/apibridge/commands"
	"github.com/apibridge/apibridge/logger"
)

var rootCmd = &cobra.Command{
	Use:   "apibridge",
	Short: "apibridge - API documentation extraction and integration planning",
	Long: `apibridge turns API documentation into integration artifacts.

It extracts endpoint and schema information from documentation pages or
OpenAPI/Swagger specs, assembles OpenAPI 3.1 documents, maps entities and
fields between two APIs, and synthesizes a reviewable integration plan.

Available commands:
  extract - Crawl documentation and produce an extracted API artifact
  map     - Propose entity/field mappings between two extracted APIs
  plan    - Synthesize an integration plan from a mapping and answers
  version - Show version information

Examples:
  apibridge extract https://docs.example.com/api -o api_a.json
  apibridge map --api-a api_a.json --api-b api_b.json -o mapping.json
  apibridge plan --mapping mapping.json --answers answers.json -o plan.json`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		verbose, _ := cmd.Flags().GetCount("verbose")
		if err := logger.Initialize(jsonOutput, verbose > 0); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("json", false, "Machine-readable JSON output for logs and progress")
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity")

	rootCmd.AddCommand(commands.ExtractCmd)
	rootCmd.AddCommand(commands.MapCmd)
	rootCmd.AddCommand(commands.PlanCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	defer logger.Cleanup()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
