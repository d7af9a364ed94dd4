package crawl

import (
	"context"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/apibridge/apibridge/internal/httpclient"
	"github.com/apibridge/apibridge/llm"
	"github.com/apibridge/apibridge/merge"
	"github.com/apibridge/apibridge/specdoc"
)

// maxPromptChars bounds how much page text is sent to the model.
const maxPromptChars = 40000

// DocExtractor is the default PageExtractor. For each URL it first tries to
// parse the response as an OpenAPI/Swagger document; when that fails it falls
// back to model-driven extraction from the page text.
type DocExtractor struct {
	fetcher *specdoc.Fetcher
	client  llm.Client
	http    *httpclient.SaferClient
	logger  *zap.SugaredLogger
}

// NewDocExtractor creates an extractor using the given model client.
func NewDocExtractor(client llm.Client, logger *zap.SugaredLogger) *DocExtractor {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	httpClient := httpclient.NewSaferClient(30 * time.Second)
	return &DocExtractor{
		fetcher: specdoc.NewFetcherWithClient(httpClient),
		client:  client,
		http:    httpClient,
		logger:  logger,
	}
}

// SetHTTPClient overrides the HTTP client. Only for tests.
func (e *DocExtractor) SetHTTPClient(client *httpclient.SaferClient) {
	e.http = client
	e.fetcher = specdoc.NewFetcherWithClient(client)
}

var _ PageExtractor = (*DocExtractor)(nil)

// ExtractPage extracts API information from one URL. It never returns an
// error: failures are reported through the PageResult.
func (e *DocExtractor) ExtractPage(ctx context.Context, url string) merge.PageResult {
	if parsed := e.tryOpenAPI(url); parsed != nil {
		return merge.PageResult{Success: true, Method: merge.MethodOpenAPI, Data: parsed}
	}

	pageText, err := e.fetchPage(ctx, url)
	if err != nil {
		return merge.PageResult{Success: false, Method: merge.MethodLLMExtraction, Error: err.Error()}
	}

	docType := detectDocType(pageText, url)
	prompt := llm.BuildExtractionPrompt(cleanForPrompt(pageText), url, docType)

	resp, err := e.client.Chat(ctx, llm.ChatRequest{UserPrompt: prompt})
	if err != nil {
		return merge.PageResult{Success: false, Method: merge.MethodLLMExtraction, Error: err.Error()}
	}

	extracted := llm.ParseJSONResponse(resp.Content)
	if extracted == nil {
		return merge.PageResult{
			Success: false,
			Method:  merge.MethodLLMExtraction,
			Error:   "could not extract API information",
		}
	}
	return merge.PageResult{Success: true, Method: merge.MethodLLMExtraction, Data: extracted}
}

// tryOpenAPI attempts to treat the URL as a spec document.
func (e *DocExtractor) tryOpenAPI(url string) map[string]any {
	doc, err := e.fetcher.Fetch(url)
	if err != nil {
		return nil
	}
	if _, hasOpenAPI := doc["openapi"]; !hasOpenAPI {
		if _, hasSwagger := doc["swagger"]; !hasSwagger {
			return nil
		}
	}
	parsed, err := specdoc.Parse(doc)
	if err != nil {
		e.logger.Debugw("Spec document rejected", "url", url, "error", err)
		return nil
	}
	return parsed
}

func (e *DocExtractor) fetchPage(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "apibridge/1.0")

	resp, err := e.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

var (
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]+>`)
	spaceRe  = regexp.MustCompile(`[ \t]+`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

// cleanForPrompt strips markup and collapses whitespace so more signal fits
// in the prompt budget.
func cleanForPrompt(html string) string {
	text := scriptRe.ReplaceAllString(html, " ")
	text = tagRe.ReplaceAllString(text, "\n")
	text = spaceRe.ReplaceAllString(text, " ")
	text = blankRe.ReplaceAllString(text, "\n\n")
	text = strings.TrimSpace(text)
	if len(text) > maxPromptChars {
		text = text[:maxPromptChars]
	}
	return text
}

// detectDocType classifies the documentation style to tune the extraction
// prompt.
func detectDocType(html, url string) string {
	urlLower := strings.ToLower(url)
	htmlLower := strings.ToLower(html)

	switch {
	case strings.Contains(urlLower, "docs.github.com") || strings.Contains(urlLower, "github.io"):
		return "github"
	case strings.Contains(urlLower, "stripe.com/docs"):
		return "stripe"
	case strings.Contains(urlLower, "readme.io") || strings.Contains(htmlLower, "readme-class"):
		return "readme"
	case strings.Contains(htmlLower, "swagger-ui") || strings.Contains(htmlLower, "redoc"):
		return "swagger_ui"
	}

	for _, marker := range []string{"rest api", "api reference", "api documentation"} {
		if strings.Contains(htmlLower, marker) {
			return "generic_rest"
		}
	}
	return "unknown"
}
