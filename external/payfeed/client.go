package payfeed

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/blurexe/draftcore/internal/domain/payment"
	"github.com/blurexe/draftcore/internal/platform/logging"
	"github.com/blurexe/draftcore/internal/platform/resilience"
	"github.com/blurexe/draftcore/internal/usecase"
)

const (
	defaultTimeout   = 20 * time.Second
	defaultPageLimit = 100
	maxBodyBytes     = 2 << 20
)

var errPayFeedTransient = crerr.New("payment feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	PageLimit      int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client pulls parsed payment events from the feed gateway. It implements
// usecase.PaymentFeed.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	maxRetries     int
	pageLimit      int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = defaultTimeout
	}

	pageLimit := cfg.PageLimit
	if pageLimit <= 0 {
		pageLimit = defaultPageLimit
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		maxRetries:     max(cfg.MaxRetries, 0),
		pageLimit:      pageLimit,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

type wireEvent struct {
	ID          string    `json:"id"`
	Sender      string    `json:"sender"`
	Note        string    `json:"note"`
	AmountCents int64     `json:"amount_cents"`
	Timestamp   time.Time `json:"timestamp"`
}

type eventsEnvelope struct {
	Events     []wireEvent `json:"events"`
	NextCursor string      `json:"next_cursor"`
}

// Pull fetches one page of events at cursor. The returned cursor resumes
// after the last event of the page; an unchanged cursor with no events
// means the feed is drained.
func (c *Client) Pull(ctx context.Context, cursor string) ([]payment.ParsedPaymentEvent, string, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "payment feed circuit breaker rejected request", "state", c.breaker.State())
			return nil, cursor, fmt.Errorf("%w: payment feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	values := url.Values{}
	values.Set("limit", strconv.Itoa(c.pageLimit))
	if cursor != "" {
		values.Set("cursor", cursor)
	}
	fullURL := c.baseURL + "/v1/events?" + values.Encode()

	raw, err := c.executeRequest(ctx, fullURL)
	if c.circuitEnabled {
		if err != nil && stderrors.Is(err, errPayFeedTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return nil, cursor, err
	}

	var envelope eventsEnvelope
	if err := sonic.Unmarshal(raw, &envelope); err != nil {
		return nil, cursor, fmt.Errorf("decode feed payload: %w", err)
	}

	events := make([]payment.ParsedPaymentEvent, 0, len(envelope.Events))
	for _, ev := range envelope.Events {
		events = append(events, payment.ParsedPaymentEvent{
			ID:             ev.ID,
			RawSenderLabel: ev.Sender,
			NoteToken:      ev.Note,
			AmountCents:    ev.AmountCents,
			Timestamp:      ev.Timestamp,
		})
	}

	next := envelope.NextCursor
	if next == "" {
		next = cursor
	}
	return events, next, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	c.logger.DebugContext(ctx, "payment feed request", "curl", buildCurlPreview(fullURL))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("accept", "application/json")
		if c.token != "" {
			req.Header.Set("authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("%w: send request: %s", errPayFeedTransient, sanitizeSensitiveText(err.Error(), c.token))
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = fmt.Errorf("%w: read response body: %v", errPayFeedTransient, readErr)
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			case isRetryableStatus(resp.StatusCode):
				lastErr = fmt.Errorf("%w: feed status=%d body=%s", errPayFeedTransient, resp.StatusCode, abbreviateBody(raw))
			default:
				return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(raw))
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("feed request failed")
	}
	c.logger.WarnContext(ctx, "payment feed request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func isRetryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func abbreviateBody(raw []byte) string {
	const limit = 256
	body := strings.TrimSpace(string(raw))
	if len(body) > limit {
		return body[:limit] + "..."
	}
	return body
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if token != "" {
		value = strings.ReplaceAll(value, token, "REDACTED")
	}
	return value
}

func buildCurlPreview(fullURL string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -H 'Authorization: Bearer ***' ")
	_, _ = buf.WriteString("'" + fullURL + "'")
	return buf.String()
}
