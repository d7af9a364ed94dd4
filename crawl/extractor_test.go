package crawl

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apibridge/apibridge/internal/httpclient"
	"github.com/apibridge/apibridge/llm"
	"github.com/apibridge/apibridge/merge"
)

type cannedLLM struct {
	response string
	err      error
	prompts  []string
}

func (c *cannedLLM) Chat(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	c.prompts = append(c.prompts, req.UserPrompt)
	if c.err != nil {
		return nil, c.err
	}
	return &llm.ChatResponse{Content: c.response}, nil
}

func (c *cannedLLM) IsConfigured() bool { return true }

func TestExtractPagePrefersOpenAPI(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"openapi": "3.1.0",
			"info": {"title": "Spec API", "version": "1.0"},
			"paths": {"/x": {"get": {"summary": "x"}}}
		}`))
	}))
	defer server.Close()

	model := &cannedLLM{}
	extractor := NewDocExtractor(model, nil)
	extractor.SetHTTPClient(httpclient.WrapClient(server.Client()))

	result := extractor.ExtractPage(context.Background(), server.URL)
	require.True(t, result.Success)
	assert.Equal(t, merge.MethodOpenAPI, result.Method)
	info := result.Data["info"].(map[string]any)
	assert.Equal(t, "Spec API", info["title"])
	// The model is never consulted when the page is a spec document.
	assert.Empty(t, model.prompts)
}

func TestExtractPageFallsBackToModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><script>ignored()</script></head>
			<body><h1>Widget REST API</h1><p>GET /widgets lists widgets</p></body></html>`))
	}))
	defer server.Close()

	model := &cannedLLM{response: "```json\n{\"endpoints\": [{\"method\": \"GET\", \"path\": \"/widgets\"}]}\n```"}
	extractor := NewDocExtractor(model, nil)
	extractor.SetHTTPClient(httpclient.WrapClient(server.Client()))

	result := extractor.ExtractPage(context.Background(), server.URL)
	require.True(t, result.Success)
	assert.Equal(t, merge.MethodLLMExtraction, result.Method)
	endpoints := result.Data["endpoints"].([]any)
	require.Len(t, endpoints, 1)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "GET /widgets lists widgets")
	assert.NotContains(t, model.prompts[0], "ignored()")
}

func TestExtractPageUnparseableModelOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>docs</body></html>"))
	}))
	defer server.Close()

	model := &cannedLLM{response: "I have no idea."}
	extractor := NewDocExtractor(model, nil)
	extractor.SetHTTPClient(httpclient.WrapClient(server.Client()))

	result := extractor.ExtractPage(context.Background(), server.URL)
	assert.False(t, result.Success)
	assert.Equal(t, "could not extract API information", result.Error)
}

func TestDetectDocType(t *testing.T) {
	cases := []struct {
		html, url, want string
	}{
		{"", "https://docs.github.com/rest", "github"},
		{"", "https://stripe.com/docs/api", "stripe"},
		{"<div class=\"readme-class\">", "https://example.com", "readme"},
		{"<div id=\"swagger-ui\">", "https://example.com", "swagger_ui"},
		{"Our REST API reference", "https://example.com", "generic_rest"},
		{"hello world", "https://example.com", "unknown"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, detectDocType(tc.html, tc.url), "url=%s", tc.url)
	}
}

func TestCleanForPromptTruncates(t *testing.T) {
	long := make([]byte, maxPromptChars*2)
	for i := range long {
		long[i] = 'a'
	}
	cleaned := cleanForPrompt(string(long))
	assert.Len(t, cleaned, maxPromptChars)
}
