package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/time/rate"
)

// maxBodyBytes caps how much of an upstream response we read. Feeds are
// small; anything larger is not a feed.
const maxBodyBytes = 10 * 1024 * 1024

// OutcomeKind tags the result of a single endpoint attempt.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeHTTPError
	OutcomeNetworkError
	OutcomeTimeout
)

// Outcome is the total result of one fetch attempt. Failures are values,
// not errors, so chains can fan out without error-propagation ceremony.
type Outcome struct {
	Kind   OutcomeKind
	Body   []byte
	Status int
	Err    error
}

// OK reports whether the attempt produced a body worth parsing.
func (o Outcome) OK() bool {
	return o.Kind == OutcomeSuccess
}

// String renders a short diagnostic, used in fallback chain trails.
func (o Outcome) String() string {
	switch o.Kind {
	case OutcomeSuccess:
		return fmt.Sprintf("ok (%d bytes)", len(o.Body))
	case OutcomeHTTPError:
		return fmt.Sprintf("http status %d", o.Status)
	case OutcomeTimeout:
		return "timeout"
	default:
		return fmt.Sprintf("network error: %v", o.Err)
	}
}

// Fetcher performs single bounded-timeout GETs against upstream endpoints.
// It never retries; trying the next mirror is the chain's job.
type Fetcher struct {
	l         log.Logger
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	timeout   time.Duration
}

// NewFetcher initializes a fetcher. Many upstream hosts reject empty or
// default agents, so userAgent should be descriptive.
func NewFetcher(l log.Logger, userAgent string, timeout time.Duration) *Fetcher {
	return &Fetcher{
		l:         l,
		client:    &http.Client{},
		limiter:   rate.NewLimiter(rate.Limit(10), 10),
		userAgent: userAgent,
		timeout:   timeout,
	}
}

// Fetch issues one GET against url with the required headers and a hard
// deadline. All failure modes are encoded in the returned Outcome; this
// never returns an error and never leaves a request hanging past the
// deadline.
func (f *Fetcher) Fetch(ctx context.Context, url string) Outcome {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if err := f.limiter.Wait(ctx); err != nil {
		return Outcome{Kind: OutcomeTimeout, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Outcome{Kind: OutcomeNetworkError, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, text/html, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			level.Debug(f.l).Log("msg", "fetch timed out", "url", url)
			return Outcome{Kind: OutcomeTimeout, Err: err}
		}
		level.Debug(f.l).Log("msg", "fetch failed", "url", url, "err", err)
		return Outcome{Kind: OutcomeNetworkError, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		level.Debug(f.l).Log("msg", "unexpected status", "url", url, "status", resp.StatusCode)
		return Outcome{Kind: OutcomeHTTPError, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return Outcome{Kind: OutcomeTimeout, Err: err}
		}
		return Outcome{Kind: OutcomeNetworkError, Err: err}
	}
	return Outcome{Kind: OutcomeSuccess, Body: body, Status: resp.StatusCode}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return os.IsTimeout(err)
}
