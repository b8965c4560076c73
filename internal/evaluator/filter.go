package evaluator

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/raidwatch/raidwatch/internal/types"
)

// ParseError reports a single snapshot entry that could not be interpreted.
// The entry is skipped; the rest of the snapshot is still evaluated.
// Field "entry" means the entry could not be decoded at all; Index is then
// its position in the feed, otherwise its position in Snapshot.Alerts.
type ParseError struct {
	Index int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("alert #%d: invalid %s %q: %v", e.Index, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Filter reduces a raw snapshot to alerts for allow-listed regions and
// interesting categories, computing whether each is active at now.
// Entries with malformed identifiers or timestamps are returned as errors
// and left out of the result.
func Filter(raw []types.RawAlert, allowList map[int]string, categories map[string]struct{}, now time.Time) ([]types.FilteredAlert, []error) {
	var (
		out  []types.FilteredAlert
		errs []error
	)
	now = now.UTC()

	for i, alert := range raw {
		if _, ok := categories[alert.AlertType]; !ok {
			continue
		}

		uid := strings.TrimSpace(string(alert.LocationUID))
		id, err := strconv.Atoi(uid)
		if err != nil {
			errs = append(errs, &ParseError{Index: i, Field: "location_uid", Value: uid, Err: err})
			continue
		}
		name, ok := allowList[id]
		if !ok {
			continue
		}

		startedAt, err := parseTimestamp(alert.StartedAt)
		if err != nil {
			errs = append(errs, &ParseError{Index: i, Field: "started_at", Value: alert.StartedAt, Err: err})
			continue
		}

		var finishedAt *time.Time
		if alert.FinishedAt != nil {
			t, err := parseTimestamp(*alert.FinishedAt)
			if err != nil {
				errs = append(errs, &ParseError{Index: i, Field: "finished_at", Value: *alert.FinishedAt, Err: err})
				continue
			}
			finishedAt = &t
		}

		out = append(out, types.FilteredAlert{
			LocationID:   id,
			LocationName: name,
			AlertType:    alert.AlertType,
			Notes:        strings.TrimSpace(alert.Notes),
			StartedAt:    startedAt,
			FinishedAt:   finishedAt,
			IsActive:     !startedAt.After(now) && finishedAt == nil,
		})
	}

	return out, errs
}

// parseTimestamp accepts RFC 3339 with optional fractional seconds,
// e.g. 2024-05-01T10:00:00.123Z, and normalises to UTC.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
