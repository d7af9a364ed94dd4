package commands

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/apibridge/apibridge/config"
	"github.com/apibridge/apibridge/crawl"
	"github.com/apibridge/apibridge/llm"
	"github.com/apibridge/apibridge/logger"
	"github.com/apibridge/apibridge/openapi"
	"github.com/apibridge/apibridge/pipeline"
)

// ExtractCmd crawls API documentation and produces an extracted API artifact.
var ExtractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Crawl API documentation and produce an extracted API artifact",
	Long: `Crawl API documentation starting from the given URL and emit an
extracted API artifact: the assembled OpenAPI 3.1 document plus a normalized
entity view ready for mapping.

Pages that are OpenAPI/Swagger specs are parsed directly; other pages fall
back to model-driven extraction, which requires an API key (flag --api-key or
APIBRIDGE_LLM_API_KEY).`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	ExtractCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
	ExtractCmd.Flags().String("format", "", "Output format: json or yaml (default from config)")
	ExtractCmd.Flags().String("side", pipeline.SideA, "Artifact side: api_a or api_b")
	ExtractCmd.Flags().Int("max-pages", 0, "Maximum pages to crawl (default from config)")
	ExtractCmd.Flags().String("api-key", "", "Model API key (overrides config)")
	ExtractCmd.Flags().String("model", "", "Model name (overrides config)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	startURL := args[0]

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyExtractFlags(cmd, cfg)

	side, _ := cmd.Flags().GetString("side")
	if side != pipeline.SideA && side != pipeline.SideB {
		return errors.Newf("invalid --side %q, must be api_a or api_b", side)
	}

	client := llm.NewOpenRouterClient(llm.OpenRouterConfig{
		APIKey:  cfg.LLM.APIKey,
		Model:   cfg.LLM.Model,
		BaseURL: cfg.LLM.BaseURL,
		Logger:  logger.Logger,
	})

	jsonOutput, _ := cmd.Flags().GetBool("json")
	var emitter crawl.ProgressEmitter
	if jsonOutput {
		emitter = crawl.NewJSONEmitter()
	} else {
		verbose, _ := cmd.Flags().GetCount("verbose")
		emitter = crawl.NewCLIEmitter(verbose)
	}

	delay := time.Duration(cfg.Crawl.DelaySeconds * float64(time.Second))
	crawler := crawl.NewCrawler(crawl.NewDocExtractor(client, logger.Logger), crawl.Options{
		MaxPages: cfg.Crawl.MaxPages,
		Limiter:  rate.NewLimiter(rate.Every(delay), 1),
		Emitter:  emitter,
		Logger:   logger.Logger,
	})

	data, err := crawler.Crawl(cmd.Context(), startURL)
	if err != nil {
		return err
	}

	artifact := pipeline.BuildExtractedAPI(side, startURL, data)

	doc := artifact["openapi"].(map[string]any)
	if ok, problems := openapi.CheckShape(doc); !ok {
		for _, problem := range problems {
			logger.Logger.Warnw("OpenAPI shape check", "problem", problem)
		}
	}

	format, _ := cmd.Flags().GetString("format")
	var out []byte
	if format == "yaml" {
		out, err = openapi.ToYAML(artifact)
	} else {
		out, err = openapi.ToJSON(artifact)
	}
	if err != nil {
		return err
	}

	output, _ := cmd.Flags().GetString("output")
	return writeArtifact(output, out)
}

func applyExtractFlags(cmd *cobra.Command, cfg *config.Config) {
	if apiKey, _ := cmd.Flags().GetString("api-key"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.LLM.Model = model
	}
	if maxPages, _ := cmd.Flags().GetInt("max-pages"); maxPages > 0 {
		cfg.Crawl.MaxPages = maxPages
	}
	if format, _ := cmd.Flags().GetString("format"); format == "" {
		cmd.Flags().Set("format", cfg.Output.Format)
	}
}
