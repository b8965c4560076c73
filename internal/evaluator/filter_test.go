package evaluator

import (
	"errors"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/raidwatch/raidwatch/internal/types"
)

var (
	allowList  = map[int]string{9: "Dnipropetrovsk Oblast"}
	categories = map[string]struct{}{"air_raid": {}, "artillery_shelling": {}}
	now        = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
)

const tsLayout = "2006-01-02T15:04:05.000000Z"

func stamp(t time.Time) string {
	return t.UTC().Format(tsLayout)
}

func strPtr(s string) *string {
	return &s
}

// toRaw turns filtered alerts back into snapshot entries
func toRaw(alerts []types.FilteredAlert) []types.RawAlert {
	raw := make([]types.RawAlert, 0, len(alerts))
	for _, a := range alerts {
		r := types.RawAlert{
			LocationUID: types.LocationUID(strconv.Itoa(a.LocationID)),
			AlertType:   a.AlertType,
			Notes:       a.Notes,
			StartedAt:   stamp(a.StartedAt),
		}
		if a.FinishedAt != nil {
			r.FinishedAt = strPtr(stamp(*a.FinishedAt))
		}
		raw = append(raw, r)
	}
	return raw
}

func TestFilter(t *testing.T) {
	started := stamp(now.Add(-5 * time.Minute))

	t.Run("keeps allow-listed interesting alert and marks it active", func(t *testing.T) {
		raw := []types.RawAlert{{LocationUID: "9", AlertType: "air_raid", Notes: "  test ", StartedAt: started}}
		got, errs := Filter(raw, allowList, categories, now)
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if len(got) != 1 {
			t.Fatalf("expected 1 alert, got %d", len(got))
		}
		a := got[0]
		if a.LocationID != 9 || a.LocationName != "Dnipropetrovsk Oblast" {
			t.Fatalf("unexpected location: %+v", a)
		}
		if a.Notes != "test" {
			t.Fatalf("expected trimmed notes, got %q", a.Notes)
		}
		if !a.IsActive {
			t.Fatalf("expected active alert")
		}
	})

	t.Run("drops regions outside the allow-list", func(t *testing.T) {
		raw := []types.RawAlert{{LocationUID: "31", AlertType: "air_raid", StartedAt: started}}
		got, errs := Filter(raw, allowList, categories, now)
		if len(got) != 0 || len(errs) != 0 {
			t.Fatalf("expected nothing, got %v / %v", got, errs)
		}
	})

	t.Run("drops uninteresting categories", func(t *testing.T) {
		raw := []types.RawAlert{{LocationUID: "9", AlertType: "chemical", StartedAt: started}}
		got, _ := Filter(raw, allowList, categories, now)
		if len(got) != 0 {
			t.Fatalf("expected chemical alert to be dropped, got %v", got)
		}
	})

	t.Run("future start is not active", func(t *testing.T) {
		raw := []types.RawAlert{{LocationUID: "9", AlertType: "air_raid", StartedAt: stamp(now.Add(5 * time.Minute))}}
		got, _ := Filter(raw, allowList, categories, now)
		if len(got) != 1 || got[0].IsActive {
			t.Fatalf("expected one inactive alert, got %+v", got)
		}
	})

	t.Run("finished alert is not active", func(t *testing.T) {
		raw := []types.RawAlert{{
			LocationUID: "9", AlertType: "air_raid", StartedAt: started,
			FinishedAt: strPtr(stamp(now.Add(-time.Minute))),
		}}
		got, _ := Filter(raw, allowList, categories, now)
		if len(got) != 1 || got[0].IsActive {
			t.Fatalf("expected one inactive alert, got %+v", got)
		}
		if got[0].FinishedAt == nil {
			t.Fatalf("expected finished_at to be parsed")
		}
	})

	t.Run("accepts timestamps without fractional seconds", func(t *testing.T) {
		raw := []types.RawAlert{{LocationUID: "9", AlertType: "air_raid", StartedAt: "2024-05-01T11:00:00Z"}}
		got, errs := Filter(raw, allowList, categories, now)
		if len(errs) != 0 || len(got) != 1 || !got[0].IsActive {
			t.Fatalf("unexpected result %+v / %v", got, errs)
		}
	})

	t.Run("malformed timestamp skips only that alert", func(t *testing.T) {
		raw := []types.RawAlert{
			{LocationUID: "9", AlertType: "air_raid", StartedAt: "yesterday"},
			{LocationUID: "9", AlertType: "artillery_shelling", StartedAt: started},
		}
		got, errs := Filter(raw, allowList, categories, now)
		if len(got) != 1 || got[0].AlertType != "artillery_shelling" {
			t.Fatalf("expected sibling to survive, got %+v", got)
		}
		if len(errs) != 1 {
			t.Fatalf("expected 1 error, got %v", errs)
		}
		var pe *ParseError
		if !errors.As(errs[0], &pe) {
			t.Fatalf("expected ParseError, got %T", errs[0])
		}
		if pe.Index != 0 || pe.Field != "started_at" {
			t.Fatalf("unexpected parse error: %+v", pe)
		}
	})

	t.Run("malformed location id is a parse error", func(t *testing.T) {
		raw := []types.RawAlert{{LocationUID: "nine", AlertType: "air_raid", StartedAt: started}}
		got, errs := Filter(raw, allowList, categories, now)
		if len(got) != 0 || len(errs) != 1 {
			t.Fatalf("expected one parse error, got %+v / %v", got, errs)
		}
	})

	t.Run("filtering is idempotent", func(t *testing.T) {
		raw := []types.RawAlert{
			{LocationUID: "9", AlertType: "air_raid", Notes: "a", StartedAt: started},
			{LocationUID: "9", AlertType: "chemical", StartedAt: started},
			{LocationUID: "12", AlertType: "air_raid", StartedAt: started},
			{LocationUID: "9", AlertType: "artillery_shelling", StartedAt: started, FinishedAt: strPtr(started)},
			{LocationUID: "9", AlertType: "air_raid", StartedAt: stamp(now.Add(time.Hour))},
		}
		first, _ := Filter(raw, allowList, categories, now)
		second, errs := Filter(toRaw(first), allowList, categories, now)
		if len(errs) != 0 {
			t.Fatalf("unexpected errors: %v", errs)
		}
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("expected idempotent filter\nfirst:  %+v\nsecond: %+v", first, second)
		}
	})
}
