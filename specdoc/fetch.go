package specdoc

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/apibridge/apibridge/internal/httpclient"
)

// Fetcher retrieves spec documents over HTTP through the SSRF-safer client.
type Fetcher struct {
	client *httpclient.SaferClient
}

// NewFetcher creates a fetcher with a 15 second timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{client: httpclient.NewSaferClient(15 * time.Second)}
}

// NewFetcherWithClient creates a fetcher with a caller-supplied client.
func NewFetcherWithClient(client *httpclient.SaferClient) *Fetcher {
	return &Fetcher{client: client}
}

// Load resolves either a URL or raw spec text into a parsed document.
func (f *Fetcher) Load(urlOrText string) (map[string]any, error) {
	if strings.HasPrefix(strings.TrimSpace(urlOrText), "http") {
		return f.Fetch(urlOrText)
	}
	return ParseText(urlOrText)
}

// Fetch retrieves a spec document from a URL and parses it as JSON or YAML.
func (f *Fetcher) Fetch(url string) (map[string]any, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "invalid spec URL")
	}
	req.Header.Set("User-Agent", "apibridge/1.0")
	req.Header.Set("Accept", "application/json, application/yaml, text/yaml, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "could not fetch %s", url)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, errors.Newf("URL not found (404), verify the URL is correct: %s", url)
	case resp.StatusCode == http.StatusForbidden:
		return nil, errors.New("access forbidden (403), the API might require authentication")
	case resp.StatusCode >= 400:
		return nil, errors.Newf("HTTP error %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read spec response")
	}

	doc, err := ParseText(string(body))
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse response as JSON or YAML")
	}
	return doc, nil
}
