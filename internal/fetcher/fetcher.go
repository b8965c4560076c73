package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/raidwatch/raidwatch/internal/evaluator"
	"github.com/raidwatch/raidwatch/internal/types"
	"github.com/rs/zerolog"
)

// FetchError means no usable snapshot was obtained in this cycle
type FetchError struct {
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch snapshot: HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch snapshot: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options configures a Fetcher
type Options struct {
	URL      string
	Token    string
	Timeout  time.Duration
	RetryMax int
}

// Fetcher retrieves the active alerts snapshot over HTTP
type Fetcher struct {
	endpoint string
	token    string
	client   *retryablehttp.Client
	logger   zerolog.Logger
}

// New creates a fetcher. Transient transport failures and 5xx responses are
// retried up to opts.RetryMax times inside a single Fetch call.
func New(opts Options, logger zerolog.Logger) (*Fetcher, error) {
	u, err := url.Parse(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: scheme and host are required", opts.URL)
	}

	logger = logger.With().Str("component", "fetcher").Logger()

	client := retryablehttp.NewClient()
	client.RetryMax = opts.RetryMax
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.HTTPClient.Timeout = opts.Timeout
	client.Logger = leveledLogger{logger}
	// hand the last response back after retries so its status is reported
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Fetcher{
		endpoint: u.String(),
		token:    opts.Token,
		client:   client,
		logger:   logger,
	}, nil
}

// Fetch returns the current snapshot or a *FetchError
func (f *Fetcher) Fetch(ctx context.Context) (*types.Snapshot, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	req.Header.Set("Accept", "application/json")
	// The token goes in a header so it never shows up in logged URLs
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected status: %s", string(body))}
	}

	var body struct {
		Alerts []json.RawMessage `json:"alerts"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &FetchError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding body: %w", err)}
	}

	snapshot := decodeAlerts(body.Alerts)

	f.logger.Debug().
		Int("alerts", len(snapshot.Alerts)).
		Int("rejected", len(snapshot.Rejected)).
		Msg("Snapshot fetched")

	return snapshot, nil
}

// decodeAlerts decodes each entry on its own so one malformed entry
// anywhere in the feed does not discard the others.
func decodeAlerts(entries []json.RawMessage) *types.Snapshot {
	snapshot := &types.Snapshot{Alerts: make([]types.RawAlert, 0, len(entries))}
	for i, entry := range entries {
		var alert types.RawAlert
		if err := json.Unmarshal(entry, &alert); err != nil {
			snapshot.Rejected = append(snapshot.Rejected, &evaluator.ParseError{
				Index: i,
				Field: "entry",
				Value: truncate(string(entry), 120),
				Err:   err,
			})
			continue
		}
		snapshot.Alerts = append(snapshot.Alerts, alert)
	}
	return snapshot
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// leveledLogger routes retryablehttp diagnostics through zerolog
type leveledLogger struct {
	zl zerolog.Logger
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.zl.Error().Fields(kv).Msg(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.zl.Warn().Fields(kv).Msg(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.zl.Debug().Fields(kv).Msg(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.zl.Debug().Fields(kv).Msg(msg) }
