package alerter

import (
	"sort"
	"time"

	"github.com/raidwatch/raidwatch/internal/types"
	"github.com/rs/zerolog"
)

// Detector turns filtered snapshots into region transitions.
// It owns the per-region status map and is not safe for concurrent use;
// the poll loop drives it from a single goroutine.
type Detector struct {
	tracked string
	regions map[int]string
	logger  zerolog.Logger
	status  map[int]bool
	now     func() time.Time
}

// NewDetector creates a detector for the tracked category (e.g. "air_raid").
// regions resolves display names for Ended events.
func NewDetector(tracked string, regions map[int]string, logger zerolog.Logger) *Detector {
	return &Detector{
		tracked: tracked,
		regions: regions,
		logger:  logger.With().Str("component", "detector").Logger(),
		status:  make(map[int]bool),
		now:     time.Now,
	}
}

// Detect compares the current alerts with the last known region status,
// updates it and returns the transitions in order: Started events in
// snapshot order, then Ended events by ascending region id.
func (d *Detector) Detect(alerts []types.FilteredAlert) []types.TransitionEvent {
	var events []types.TransitionEvent
	detectedAt := d.now().UTC()

	active := make(map[int]struct{})
	for _, alert := range alerts {
		if !alert.IsActive || alert.AlertType != d.tracked {
			continue
		}
		if _, seen := active[alert.LocationID]; seen {
			continue
		}
		active[alert.LocationID] = struct{}{}

		if d.status[alert.LocationID] {
			d.logger.Debug().
				Int("location_id", alert.LocationID).
				Msg("Alert already active, skipping duplicate")
			continue
		}
		d.status[alert.LocationID] = true

		d.logger.Info().
			Int("location_id", alert.LocationID).
			Str("region", alert.LocationName).
			Msg("Alert started")

		events = append(events, types.TransitionEvent{
			LocationID:   alert.LocationID,
			LocationName: alert.LocationName,
			Kind:         types.EventStarted,
			AlertType:    alert.AlertType,
			Notes:        alert.Notes,
			DetectedAt:   detectedAt,
		})
	}

	ids := make([]int, 0, len(d.status))
	for id, on := range d.status {
		if on {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)

	for _, id := range ids {
		if _, ok := active[id]; ok {
			continue
		}
		d.status[id] = false

		d.logger.Info().
			Int("location_id", id).
			Str("region", d.regions[id]).
			Msg("Alert ended")

		events = append(events, types.TransitionEvent{
			LocationID:   id,
			LocationName: d.regions[id],
			Kind:         types.EventEnded,
			AlertType:    d.tracked,
			DetectedAt:   detectedAt,
		})
	}

	return events
}

// Status returns a copy of the per-region status
func (d *Detector) Status() map[int]bool {
	out := make(map[int]bool, len(d.status))
	for id, on := range d.status {
		out[id] = on
	}
	return out
}

// Active returns the number of regions currently marked active
func (d *Detector) Active() int {
	n := 0
	for _, on := range d.status {
		if on {
			n++
		}
	}
	return n
}
