package poller

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/raidwatch/raidwatch/internal/alerter"
	"github.com/raidwatch/raidwatch/internal/evaluator"
	"github.com/raidwatch/raidwatch/internal/metrics"
	"github.com/raidwatch/raidwatch/internal/types"
	"github.com/rs/zerolog"
)

// Fetcher returns the current remote snapshot
type Fetcher interface {
	Fetch(ctx context.Context) (*types.Snapshot, error)
}

// Notifier delivers one transition event
type Notifier interface {
	Notify(ctx context.Context, event types.TransitionEvent) error
}

// Options configures a Loop
type Options struct {
	Interval   time.Duration
	Regions    map[int]string
	Categories map[string]struct{}
}

// Status is the read-only view published after every cycle
type Status struct {
	Regions     map[int]bool `json:"regions"`
	Cycles      int          `json:"cycles"`
	LastCycle   time.Time    `json:"last_cycle"`
	LastResult  string       `json:"last_result"`
	LastError   string       `json:"last_error,omitempty"`
	LastSuccess time.Time    `json:"last_success"`
}

// Loop drives fetch → filter → detect → notify on a fixed delay.
// Only one cycle runs at a time; the detector state is touched only
// from inside a cycle.
type Loop struct {
	fetcher  Fetcher
	detector *alerter.Detector
	notifier Notifier
	metrics  *metrics.Metrics
	opts     Options
	logger   zerolog.Logger
	now      func() time.Time

	cycleMu sync.Mutex

	statusMu sync.RWMutex
	status   Status
}

// New creates a poll loop. The detector must not be shared with another loop.
func New(opts Options, fetcher Fetcher, detector *alerter.Detector, notifier Notifier, m *metrics.Metrics, logger zerolog.Logger) *Loop {
	return &Loop{
		fetcher:  fetcher,
		detector: detector,
		notifier: notifier,
		metrics:  m,
		opts:     opts,
		logger:   logger.With().Str("component", "poller").Logger(),
		now:      time.Now,
		status:   Status{Regions: map[int]bool{}},
	}
}

// Run executes a cycle immediately and then one cycle per interval until
// ctx is cancelled. Cancellation is observed between cycles and by the
// in-flight fetch; it never interrupts a cycle after state was updated.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info().
		Dur("interval", l.opts.Interval).
		Int("regions", len(l.opts.Regions)).
		Msg("Poll loop started")

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Msg("Poll loop stopped")
			return nil
		case <-timer.C:
		}

		// errors are logged and counted inside the cycle
		_ = l.RunCycle(ctx)

		timer.Reset(l.opts.Interval)
	}
}

// RunCycle performs one poll cycle. It returns the fetch error, the
// recovered panic, or the joined send errors; none of them stop the loop.
func (l *Loop) RunCycle(ctx context.Context) (err error) {
	l.cycleMu.Lock()
	defer l.cycleMu.Unlock()

	started := l.now()
	result := metrics.ResultOK

	defer func() {
		if r := recover(); r != nil {
			result = metrics.ResultPanic
			err = fmt.Errorf("cycle panic: %v", r)
			l.logger.Error().
				Str("panic", fmt.Sprint(r)).
				Str("stack", string(debug.Stack())).
				Msg("Recovered from panic in poll cycle")
		}
		l.metrics.ObserveCycle(result, started)
		l.publish(result, err, started)
	}()

	snapshot, err := l.fetcher.Fetch(ctx)
	if err == nil && ctx.Err() != nil {
		// shutting down; drop the snapshot instead of half-applying it
		err = ctx.Err()
	}
	if err != nil {
		result = metrics.ResultFetchError
		l.logger.Warn().
			Err(err).
			Msg("Fetch failed, skipping cycle")
		return err
	}

	alerts, parseErrs := evaluator.Filter(snapshot.Alerts, l.opts.Regions, l.opts.Categories, l.now())
	for _, perr := range append(snapshot.Rejected, parseErrs...) {
		l.metrics.ParseErrors.Inc()
		l.logger.Warn().Err(perr).Msg("Skipping malformed alert")
	}

	events := l.detector.Detect(alerts)
	l.metrics.ActiveRegions.Set(float64(l.detector.Active()))

	// Transitions are committed; deliver them even if shutdown starts now.
	sendCtx := context.WithoutCancel(ctx)
	var sendErrs []error
	for _, event := range events {
		l.metrics.Transitions.WithLabelValues(string(event.Kind)).Inc()
		if serr := l.notifier.Notify(sendCtx, event); serr != nil {
			l.metrics.SendFailures.Inc()
			l.logger.Error().
				Err(serr).
				Int("location_id", event.LocationID).
				Str("kind", string(event.Kind)).
				Msg("Failed to send notification")
			sendErrs = append(sendErrs, serr)
		}
	}

	l.logger.Debug().
		Int("alerts", len(snapshot.Alerts)).
		Int("filtered", len(alerts)).
		Int("events", len(events)).
		Msg("Cycle complete")

	return errors.Join(sendErrs...)
}

func (l *Loop) publish(result string, err error, started time.Time) {
	regions := l.detector.Status()

	l.statusMu.Lock()
	defer l.statusMu.Unlock()

	l.status.Regions = regions
	l.status.Cycles++
	l.status.LastCycle = started
	l.status.LastResult = result
	l.status.LastError = ""
	if err != nil {
		l.status.LastError = err.Error()
	}
	if result == metrics.ResultOK {
		l.status.LastSuccess = started
	}
}

// Status returns a copy of the last published cycle status
func (l *Loop) Status() Status {
	l.statusMu.RLock()
	defer l.statusMu.RUnlock()

	s := l.status
	s.Regions = make(map[int]bool, len(l.status.Regions))
	for id, on := range l.status.Regions {
		s.Regions[id] = on
	}
	return s
}
