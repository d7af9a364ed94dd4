package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/apibridge/apibridge/internal/httpclient"
)

// DefaultModel is the fallback model when none is specified.
const DefaultModel = "openai/gpt-4o-mini"

// DefaultBaseURL is the OpenRouter API root.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// OpenRouterConfig holds client configuration.
type OpenRouterConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float64           // nil = 0.2
	MaxTokens   *int               // nil = 8192
	Logger      *zap.SugaredLogger // nil = nop logger
	Retry       *RetryPolicy       // nil = DefaultRetryPolicy
	Clock       Clock              // nil = real clock
}

// OpenRouterClient talks to the OpenRouter chat completions endpoint.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *httpclient.SaferClient
	config     OpenRouterConfig
	retry      RetryPolicy
	clock      Clock
	logger     *zap.SugaredLogger
}

var _ Client = (*OpenRouterClient)(nil)

// NewOpenRouterClient creates a client with pipeline defaults. Outbound
// requests go through the SSRF-safer HTTP client.
func NewOpenRouterClient(config OpenRouterConfig) *OpenRouterClient {
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Temperature == nil {
		defaultTemp := 0.2
		config.Temperature = &defaultTemp
	}
	if config.MaxTokens == nil {
		defaultTokens := 8192
		config.MaxTokens = &defaultTokens
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	retry := DefaultRetryPolicy()
	if config.Retry != nil {
		retry = *config.Retry
	}

	var clock Clock = realClock{}
	if config.Clock != nil {
		clock = config.Clock
	}

	blockPrivateIP := true
	saferClient := httpclient.NewSaferClientWithOptions(120*time.Second, httpclient.SaferClientOptions{
		BlockPrivateIP: &blockPrivateIP,
	})

	return &OpenRouterClient{
		apiKey:     config.APIKey,
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		model:      config.Model,
		httpClient: saferClient,
		config:     config,
		retry:      retry,
		clock:      clock,
		logger:     logger,
	}
}

// chatCompletionRequest is the wire format of the completions endpoint.
type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	ID      string       `json:"id"`
	Model   string       `json:"model"`
	Choices []chatChoice `json:"choices"`
	Usage   Usage        `json:"usage"`
}

type chatChoice struct {
	Index        int         `json:"index"`
	Message      chatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// IsConfigured reports whether an API key is set.
func (c *OpenRouterClient) IsConfigured() bool {
	return c.apiKey != ""
}

// Chat sends a chat completion request with retry on transient failures.
func (c *OpenRouterClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, errors.New("OpenRouter API key not configured")
	}

	temperature := *c.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := *c.config.MaxTokens
	if req.MaxTokens != nil {
		maxTokens = *req.MaxTokens
	}
	model := c.model
	if req.Model != nil {
		model = *req.Model
	}

	messages := []chatMessage{}
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.UserPrompt})

	wireReq := chatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	var resp *chatCompletionResponse
	var err error
	for attempt := 1; attempt <= c.retry.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := c.retry.Backoff(attempt - 1)
			c.logger.Debugw("Retrying chat completion",
				"attempt", attempt, "max_attempts", c.retry.MaxAttempts, "delay", delay)
			c.clock.Sleep(delay)
		}

		resp, err = c.createChatCompletion(ctx, wireReq)
		if err == nil {
			if attempt > 1 {
				c.logger.Infow("Request succeeded after retries", "attempts", attempt, "model", model)
			}
			break
		}

		c.logger.Warnw("Chat completion error",
			"attempt", attempt, "max_attempts", c.retry.MaxAttempts,
			"error", err, "model", model)

		if !isRetryableError(err) {
			return nil, errors.Wrap(err, "chat completion failed")
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "chat completion failed after %d attempts", c.retry.MaxAttempts)
	}

	if len(resp.Choices) == 0 {
		return nil, errors.New("no response choices from model")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	c.logger.Debugw("Chat completion response",
		"content_length", len(content),
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens,
	)

	return &ChatResponse{Content: content, Usage: resp.Usage}, nil
}

func (c *OpenRouterClient) createChatCompletion(ctx context.Context, req chatCompletionRequest) (*chatCompletionResponse, error) {
	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("X-Title", "apibridge")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, errors.Wrap(err, "failed to send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("API request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal response")
	}
	return &chatResp, nil
}

// SetHTTPClient overrides the HTTP client. Only use in tests; production code
// should keep the default SSRF-safer client.
func (c *OpenRouterClient) SetHTTPClient(client *http.Client) {
	c.httpClient = httpclient.WrapClient(client)
}
