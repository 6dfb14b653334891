package progress

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Field names used by progress documents.
const (
	FieldTodayProgress      = "todayProgress"
	FieldCumulativeProgress = "cumulativeProgress"
	FieldLastUpdated        = "lastUpdated"
)

// NotAvailable is rendered for values the document does not carry.
const NotAvailable = "N/A"

// DisplayLayout mirrors the en-US locale date-time rendering.
const DisplayLayout = "1/2/2006, 3:04:05 PM"

// Key identifies a progress document.
type Key struct {
	UserID   string
	ItemName string
}

// Record is the post-update snapshot of a progress document.
type Record struct {
	TodayProgress      any
	CumulativeProgress any
	LastUpdated        any
}

// FromFields extracts a Record from raw document fields.
func FromFields(fields map[string]any) Record {
	if fields == nil {
		return Record{}
	}
	return Record{
		TodayProgress:      fields[FieldTodayProgress],
		CumulativeProgress: fields[FieldCumulativeProgress],
		LastUpdated:        fields[FieldLastUpdated],
	}
}

// TodayText returns todayProgress as display text, timestamps rendered in loc.
func (r Record) TodayText(loc *time.Location) string {
	return DisplayIn(r.TodayProgress, loc)
}

// CumulativeText returns cumulativeProgress as display text, timestamps rendered in loc.
func (r Record) CumulativeText(loc *time.Location) string {
	return DisplayIn(r.CumulativeProgress, loc)
}

// LastUpdatedText renders lastUpdated in loc, or NotAvailable when absent.
// Strings that are not RFC3339 timestamps are returned verbatim.
func (r Record) LastUpdatedText(loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	if raw, ok := r.LastUpdated.(string); ok {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return NotAvailable
		}
		if ts, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			return ts.In(loc).Format(DisplayLayout)
		}
		return raw
	}
	ts, ok := Timestamp(r.LastUpdated)
	if !ok {
		return NotAvailable
	}
	return ts.In(loc).Format(DisplayLayout)
}

// Timestamp converts the timestamp shapes a document store may deliver.
// Zero values report false.
func Timestamp(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, !v.IsZero()
	case string:
		ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(v))
		if err != nil {
			return time.Time{}, false
		}
		return ts, true
	case float64:
		if v == 0 {
			return time.Time{}, false
		}
		sec, frac := math.Modf(v)
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	case int64:
		if v == 0 {
			return time.Time{}, false
		}
		return time.Unix(v, 0).UTC(), true
	case int:
		if v == 0 {
			return time.Time{}, false
		}
		return time.Unix(int64(v), 0).UTC(), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return Timestamp(f)
	case map[string]any:
		return timestampFromMap(v)
	default:
		return time.Time{}, false
	}
}

// timestampFromMap handles {"seconds","nanos"} and {"_seconds","_nanoseconds"}.
func timestampFromMap(m map[string]any) (time.Time, bool) {
	sec, ok := numberField(m, "seconds", "_seconds")
	if !ok {
		return time.Time{}, false
	}
	nanos, _ := numberField(m, "nanos", "_nanoseconds")
	ts := time.Unix(int64(sec), int64(nanos)).UTC()
	return ts, sec != 0 || nanos != 0
}

func numberField(m map[string]any, names ...string) (float64, bool) {
	for _, name := range names {
		switch v := m[name].(type) {
		case float64:
			return v, true
		case int64:
			return float64(v), true
		case int:
			return float64(v), true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// Display coerces a document value to message text, rendering timestamps in UTC.
func Display(value any) string {
	return DisplayIn(value, time.UTC)
}

// DisplayIn coerces a document value to message text, rendering timestamps in loc.
func DisplayIn(value any, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	switch v := value.(type) {
	case nil:
		return NotAvailable
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return formatFloat(v, 64)
	case float32:
		return formatFloat(float64(v), 32)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case json.Number:
		return v.String()
	case time.Time:
		return v.In(loc).Format(DisplayLayout)
	case *time.Time:
		if v == nil {
			return NotAvailable
		}
		return v.In(loc).Format(DisplayLayout)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func formatFloat(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	}
	// Magnitudes of 1e21 and above switch to exponent notation.
	if math.Abs(v) >= 1e21 {
		return strconv.FormatFloat(v, 'g', -1, bits)
	}
	return strconv.FormatFloat(v, 'f', -1, bits)
}
