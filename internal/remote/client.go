// Package remote fetches random words, filler paragraphs and images from
// public content services. Every failure is reported as ErrUnavailable:
// missing remote content is expected and callers fall back or go without.
package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// ErrUnavailable wraps every transport, status and payload failure.
var ErrUnavailable = errors.New("remote content unavailable")

const (
	defaultTimeout = 25 * time.Second
	defaultPhrase  = "everything was beautiful and nothing hurt"

	// maxTextBody caps word and paragraph responses.
	maxTextBody = 1 << 20
	// maxImageBody caps downloaded images.
	maxImageBody = 16 << 20
)

var defaultTags = []string{"kids", "technology", "sports", "family", "concert", "vacation"}

// Config controls outbound requests.
type Config struct {
	Timeout      time.Duration // per request, defaults to 25s
	Insecure     bool          // skip TLS verification, off by default
	RateLimit    float64       // requests per second across all services, 0 = unlimited
	SearchPhrase string        // datamuse "means like" seed phrase
	FlickrTags   []string      // loremflickr tags picked at random
}

// Client talks to the content services.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	rng     *rand.Rand
	phrase  string
	tags    []string

	datamuseURL string
	baconURL    string
	hipsumURL   string
	dogURL      string
	flickrURL   string

	maxImage int64
}

// NewClient creates a content client. rng drives shuffling and tag choice.
func NewClient(cfg Config, rng *rand.Rand) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if cfg.Insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	c := &Client{
		http:        &http.Client{Timeout: timeout, Transport: transport},
		rng:         rng,
		phrase:      cfg.SearchPhrase,
		tags:        cfg.FlickrTags,
		datamuseURL: "https://api.datamuse.com/words",
		baconURL:    "https://baconipsum.com/api/",
		hipsumURL:   "https://hipsum.co/api/",
		dogURL:      "https://dog.ceo/api/breeds/image/random",
		flickrURL:   "https://loremflickr.com/json/600/600/",
		maxImage:    maxImageBody,
	}
	if c.phrase == "" {
		c.phrase = defaultPhrase
	}
	if len(c.tags) == 0 {
		c.tags = defaultTags
	}
	if cfg.RateLimit > 0 {
		burst := max(1, int(cfg.RateLimit))
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return c
}

// get issues a GET and returns the body of a 2xx response.
func (c *Client) get(ctx context.Context, u string, limit int64) ([]byte, http.Header, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("%w: rate limit: %w", ErrUnavailable, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: create request: %w", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", "zseed")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: http request: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, nil, fmt.Errorf("%w: %s: status %d", ErrUnavailable, req.URL.Host, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read response: %w", ErrUnavailable, err)
	}
	if int64(len(body)) > limit {
		return nil, nil, fmt.Errorf("%w: %s: response over %d bytes", ErrUnavailable, req.URL.Host, limit)
	}
	if len(body) == 0 {
		return nil, nil, fmt.Errorf("%w: %s: empty response", ErrUnavailable, req.URL.Host)
	}

	return body, resp.Header, nil
}
