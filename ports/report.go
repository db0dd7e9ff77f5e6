package ports

import (
	"context"
	"strconv"
	"time"
)

// Field is one named value of a flat report record. Field order is
// significant: it defines the header order of exported files.
type Field struct {
	Key   string
	Value interface{}
}

// Record is a flat field-name -> value report row.
type Record []Field

// Keys returns the field names in record order.
func (r Record) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Get returns the value for a field name, if present.
func (r Record) Get(key string) (interface{}, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// FormatValue renders a field value for delimited-text export. Floats use
// the shortest representation that round-trips exactly.
func FormatValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case time.Time:
		return val.Format("2006-01-02")
	default:
		return ""
	}
}

// Values renders every field of the record for delimited-text export.
func (r Record) Values() []string {
	out := make([]string, len(r))
	for i, f := range r {
		out[i] = FormatValue(f.Value)
	}
	return out
}

// ReportSink accepts finished report records for export. Implementations
// decide the medium (CSV file, spreadsheet, database row); the computational
// core only ever hands over flat records.
type ReportSink interface {
	// WriteReport stores one named report consisting of uniform records
	// (every record shares the same field set and order).
	WriteReport(ctx context.Context, name string, records []Record) error
}
