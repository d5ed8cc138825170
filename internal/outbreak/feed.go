package outbreak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrFeed marks any failure to obtain a usable response from the outbreak
// feed: network errors, timeouts, non-2xx statuses and malformed JSON.
var ErrFeed = errors.New("outbreak feed unavailable")

// DefaultFetchTimeout bounds a single feed request.
const DefaultFetchTimeout = 10 * time.Second

// Entry is one item of the feed's "value" array.  Title is a pointer so an
// absent field can be told apart from an empty one in logs.
type Entry struct {
	Title           *string `json:"Title"`
	Overview        string  `json:"Overview"`
	PublicationDate string  `json:"PublicationDate"`
	UrlName         string  `json:"UrlName"`
}

type feedResponse struct {
	Value *[]Entry `json:"value"`
}

// Feed fetches outbreak entries from the external source.
type Feed interface {
	Fetch(ctx context.Context, limit int) ([]Entry, error)
}

// FeedClient reads the WHO disease outbreak news API (or any endpoint with
// the same shape).  Requests are unauthenticated.
type FeedClient struct {
	URL  string
	HTTP *http.Client
}

// NewFeedClient builds a client whose requests time out after timeout.
func NewFeedClient(url string, timeout time.Duration) *FeedClient {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &FeedClient{URL: url, HTTP: &http.Client{Timeout: timeout}}
}

// Fetch returns at most limit entries in feed order (most recent first).
func (c *FeedClient) Fetch(ctx context.Context, limit int) ([]Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFeed, err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFeed, err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("%w: unexpected status %s: %s", ErrFeed, res.Status, strings.TrimSpace(string(body)))
	}

	var parsed feedResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrFeed, err)
	}
	if parsed.Value == nil {
		return nil, fmt.Errorf("%w: response has no value array", ErrFeed)
	}

	entries := *parsed.Value
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
