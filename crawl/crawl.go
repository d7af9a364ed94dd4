// Package crawl orchestrates multi-page extraction of API documentation.
// The crawler walks pages breadth-first from a start URL, hands each page to
// a PageExtractor, and folds the results into a merge.Aggregate. Network and
// HTML specifics live entirely behind the PageExtractor interface.
package crawl

import (
	"context"
	"fmt"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/apibridge/apibridge/merge"
)

// maxSuggestedURLs bounds how many model-suggested follow-up pages are
// enqueued per page.
const maxSuggestedURLs = 3

// PageExtractor extracts API information from a single documentation page.
type PageExtractor interface {
	ExtractPage(ctx context.Context, url string) merge.PageResult
}

// Options configures a Crawler.
type Options struct {
	MaxPages int             // default 15
	Limiter  *rate.Limiter   // politeness limiter, default 1 page/sec
	Emitter  ProgressEmitter // default NopEmitter
	Logger   *zap.SugaredLogger
}

// Crawler visits documentation pages and aggregates what it finds.
type Crawler struct {
	maxPages  int
	limiter   *rate.Limiter
	extractor PageExtractor
	emitter   ProgressEmitter
	logger    *zap.SugaredLogger
}

// NewCrawler creates a crawler around the given extractor.
func NewCrawler(extractor PageExtractor, opts Options) *Crawler {
	if opts.MaxPages <= 0 {
		opts.MaxPages = 15
	}
	if opts.Limiter == nil {
		opts.Limiter = rate.NewLimiter(rate.Limit(1), 1)
	}
	if opts.Emitter == nil {
		opts.Emitter = NopEmitter{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Crawler{
		maxPages:  opts.MaxPages,
		limiter:   opts.Limiter,
		extractor: extractor,
		emitter:   opts.Emitter,
		logger:    opts.Logger,
	}
}

// Crawl walks pages starting from startURL until the queue drains or the page
// budget is exhausted, and returns the aggregated extraction. Failed pages
// are recorded and skipped; the crawl itself only fails when the context is
// canceled.
func (c *Crawler) Crawl(ctx context.Context, startURL string) (map[string]any, error) {
	aggregate := merge.NewAggregate()
	visited := map[string]bool{}
	queue := []string{startURL}

	c.emitter.EmitStage("crawl", fmt.Sprintf("Starting crawl at %s", startURL))

	iteration := 0
	for len(queue) > 0 && iteration < c.maxPages {
		url := queue[0]
		queue = queue[1:]

		if visited[url] {
			continue
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, errors.Wrap(err, "crawl canceled")
		}

		iteration++
		c.emitter.EmitProgress(iteration, map[string]any{"url": url, "max_pages": c.maxPages})
		c.logger.Debugw("Crawling page", "url", url, "iteration", iteration, "max_pages", c.maxPages)

		result := c.extractor.ExtractPage(ctx, url)
		visited[url] = true

		if !result.Success {
			c.emitter.EmitError("extract", errors.Newf("page %s: %s", url, result.Error))
			c.logger.Warnw("Page extraction failed", "url", url, "error", result.Error)
			aggregate.Merge(nil, url, result.Method)
			continue
		}

		aggregate.Merge(result.Data, url, result.Method)

		if result.Method != merge.MethodOpenAPI {
			for _, suggested := range suggestedURLs(result.Data) {
				if !visited[suggested] && !contains(queue, suggested) {
					queue = append(queue, suggested)
				}
			}
		}
	}

	c.emitter.EmitComplete(map[string]any{
		"pages_analyzed": len(visited),
		"endpoints":      len(aggregate.Endpoints),
		"schemas":        len(aggregate.Schemas),
	})

	return aggregate.ToMap(), nil
}

// suggestedURLs returns follow-up pages the extractor asked for, capped at
// maxSuggestedURLs, but only when it signaled more pages are needed.
func suggestedURLs(data map[string]any) []string {
	if data == nil {
		return nil
	}
	if wants, ok := data["needs_more_pages"].(bool); !ok || !wants {
		return nil
	}

	raw, ok := data["suggested_urls"].([]any)
	if !ok {
		return nil
	}
	urls := make([]string, 0, maxSuggestedURLs)
	for _, item := range raw {
		if url, ok := item.(string); ok && url != "" {
			urls = append(urls, url)
			if len(urls) == maxSuggestedURLs {
				break
			}
		}
	}
	return urls
}

func contains(list []string, target string) bool {
	for _, item := range list {
		if item == target {
			return true
		}
	}
	return false
}
