package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// IDField is the identity key used for selection tracking.
const IDField = "id"

// DateFieldPriority lists the fields consulted, in order, when a record's
// date is needed for range filtering or recency sorting. The first populated
// one wins.
var DateFieldPriority = []string{
	"created_at",
	"updated_at",
	"date",
	"timestamp",
	"order_date",
	"purchase_date",
}

// CleanRecords drops nil records. The input slice is not modified.
func CleanRecords(records []Record) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// RecordID returns the stringified id of a record, or "" when absent.
func RecordID(r Record) string {
	v, ok := r[IDField]
	if !ok || isEmptyValue(v) {
		return ""
	}
	return Stringify(v)
}

// FieldValue looks up a field, following dotted paths into nested maps
// ("customer.email").
func FieldValue(r Record, key string) any {
	if r == nil {
		return nil
	}
	if v, ok := r[key]; ok {
		return v
	}
	if !strings.Contains(key, ".") {
		return nil
	}

	var cur any = map[string]any(r)
	for _, part := range strings.Split(key, ".") {
		switch m := cur.(type) {
		case map[string]any:
			cur = m[part]
		case Record:
			cur = m[part]
		default:
			return nil
		}
		if cur == nil {
			return nil
		}
	}
	return cur
}

// Stringify renders a value as plain text without any display formatting.
// nil and invalid driver values become "".
func Stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case time.Time:
		if val.IsZero() {
			return ""
		}
		return val.Format(time.RFC3339)
	case [16]byte:
		return uuid.UUID(val).String()
	case uuid.UUID:
		return val.String()
	case pgtype.Text:
		if !val.Valid {
			return ""
		}
		return val.String
	case pgtype.Numeric:
		f, ok := numericFloat(val)
		if !ok {
			return ""
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	case pgtype.Date:
		if !val.Valid {
			return ""
		}
		return val.Time.Format("2006-01-02")
	case pgtype.Timestamptz:
		if !val.Valid {
			return ""
		}
		return val.Time.Format(time.RFC3339)
	case pgtype.Bool:
		if !val.Valid {
			return ""
		}
		return strconv.FormatBool(val.Bool)
	case pgtype.UUID:
		if !val.Valid {
			return ""
		}
		return uuid.UUID(val.Bytes).String()
	case map[string]any, []any, Record:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	default:
		return fmt.Sprint(val)
	}
}

func numericFloat(n pgtype.Numeric) (float64, bool) {
	if !n.Valid {
		return 0, false
	}
	f, err := n.Float64Value()
	if err != nil || !f.Valid {
		return 0, false
	}
	return f.Float64, true
}

// isEmptyValue reports whether v is nil, an invalid driver value or blank text.
func isEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return Stringify(v) == ""
}

// RecordTime returns the value of the first populated field in
// DateFieldPriority, parsed as a time.
func RecordTime(r Record) (time.Time, bool) {
	for _, key := range DateFieldPriority {
		v, ok := r[key]
		if !ok || isEmptyValue(v) {
			continue
		}
		return ValueTime(v)
	}
	return time.Time{}, false
}

// ValueTime interprets a cell value as a point in time.
func ValueTime(v any) (time.Time, bool) {
	switch val := v.(type) {
	case time.Time:
		return val, !val.IsZero()
	case pgtype.Date:
		return val.Time, val.Valid
	case pgtype.Timestamptz:
		return val.Time, val.Valid
	case pgtype.Timestamp:
		return val.Time, val.Valid
	case int64:
		return epochTime(float64(val)), true
	case int:
		return epochTime(float64(val)), true
	case float64:
		return epochTime(val), true
	}
	return ParseDate(Stringify(v))
}

// epochTime treats large values as milliseconds and small ones as seconds.
func epochTime(n float64) time.Time {
	if n > 1e11 || n < -1e11 {
		return time.UnixMilli(int64(n)).UTC()
	}
	return time.Unix(int64(n), 0).UTC()
}
