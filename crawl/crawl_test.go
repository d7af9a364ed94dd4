package crawl

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/apibridge/apibridge/merge"
)

// fakeExtractor returns canned results per URL and records visit order.
type fakeExtractor struct {
	pages   map[string]merge.PageResult
	visited []string
}

func (f *fakeExtractor) ExtractPage(_ context.Context, url string) merge.PageResult {
	f.visited = append(f.visited, url)
	if result, ok := f.pages[url]; ok {
		return result
	}
	return merge.PageResult{Success: false, Method: merge.MethodLLMExtraction, Error: "not found"}
}

func fastOptions() Options {
	return Options{Limiter: rate.NewLimiter(rate.Inf, 1)}
}

func llmPage(data map[string]any) merge.PageResult {
	return merge.PageResult{Success: true, Method: merge.MethodLLMExtraction, Data: data}
}

func TestCrawlFollowsSuggestedURLs(t *testing.T) {
	extractor := &fakeExtractor{pages: map[string]merge.PageResult{
		"https://docs.test/a": llmPage(map[string]any{
			"endpoints":        []any{map[string]any{"method": "GET", "path": "/users"}},
			"needs_more_pages": true,
			"suggested_urls":   []any{"https://docs.test/b"},
		}),
		"https://docs.test/b": llmPage(map[string]any{
			"endpoints": []any{map[string]any{"method": "POST", "path": "/users"}},
		}),
	}}

	crawler := NewCrawler(extractor, fastOptions())
	data, err := crawler.Crawl(context.Background(), "https://docs.test/a")
	require.NoError(t, err)

	assert.Equal(t, []string{"https://docs.test/a", "https://docs.test/b"}, extractor.visited)
	endpoints := data["endpoints"].([]any)
	assert.Len(t, endpoints, 2)
}

func TestCrawlIgnoresSuggestionsWithoutNeedsMorePages(t *testing.T) {
	extractor := &fakeExtractor{pages: map[string]merge.PageResult{
		"https://docs.test/a": llmPage(map[string]any{
			"suggested_urls": []any{"https://docs.test/b"},
		}),
	}}

	crawler := NewCrawler(extractor, fastOptions())
	_, err := crawler.Crawl(context.Background(), "https://docs.test/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://docs.test/a"}, extractor.visited)
}

func TestCrawlCapsSuggestedURLs(t *testing.T) {
	extractor := &fakeExtractor{pages: map[string]merge.PageResult{
		"https://docs.test/a": llmPage(map[string]any{
			"needs_more_pages": true,
			"suggested_urls":   []any{"https://docs.test/1", "https://docs.test/2", "https://docs.test/3", "https://docs.test/4"},
		}),
	}}

	crawler := NewCrawler(extractor, fastOptions())
	_, err := crawler.Crawl(context.Background(), "https://docs.test/a")
	require.NoError(t, err)
	// start page + at most 3 suggestions
	assert.Len(t, extractor.visited, 4)
	assert.NotContains(t, extractor.visited, "https://docs.test/4")
}

func TestCrawlRespectsMaxPages(t *testing.T) {
	// Every page suggests another, so only the budget stops the crawl.
	extractor := &fakeExtractor{pages: map[string]merge.PageResult{}}
	for _, pair := range [][2]string{
		{"https://docs.test/0", "https://docs.test/1"},
		{"https://docs.test/1", "https://docs.test/2"},
		{"https://docs.test/2", "https://docs.test/3"},
		{"https://docs.test/3", "https://docs.test/4"},
	} {
		extractor.pages[pair[0]] = llmPage(map[string]any{
			"needs_more_pages": true,
			"suggested_urls":   []any{pair[1]},
		})
	}

	opts := fastOptions()
	opts.MaxPages = 2
	crawler := NewCrawler(extractor, opts)
	_, err := crawler.Crawl(context.Background(), "https://docs.test/0")
	require.NoError(t, err)
	assert.Len(t, extractor.visited, 2)
}

func TestCrawlDedupesVisitedURLs(t *testing.T) {
	extractor := &fakeExtractor{pages: map[string]merge.PageResult{
		"https://docs.test/a": llmPage(map[string]any{
			"needs_more_pages": true,
			"suggested_urls":   []any{"https://docs.test/a", "https://docs.test/b"},
		}),
		"https://docs.test/b": llmPage(map[string]any{}),
	}}

	crawler := NewCrawler(extractor, fastOptions())
	_, err := crawler.Crawl(context.Background(), "https://docs.test/a")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://docs.test/a", "https://docs.test/b"}, extractor.visited)
}

func TestCrawlRecordsFailedPages(t *testing.T) {
	extractor := &fakeExtractor{pages: map[string]merge.PageResult{}}

	crawler := NewCrawler(extractor, fastOptions())
	data, err := crawler.Crawl(context.Background(), "https://docs.test/broken")
	require.NoError(t, err)

	pages := data["pages_analyzed"].([]any)
	require.Len(t, pages, 1)
	assert.Equal(t, "https://docs.test/broken", pages[0].(map[string]any)["url"])
	assert.Empty(t, data["endpoints"])
}

func TestCrawlCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	extractor := &fakeExtractor{pages: map[string]merge.PageResult{}}
	// A real limiter forces a Wait that observes cancellation.
	crawler := NewCrawler(extractor, Options{Limiter: rate.NewLimiter(rate.Limit(1), 1)})

	_, err := crawler.Crawl(ctx, "https://docs.test/a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crawl canceled")
}
