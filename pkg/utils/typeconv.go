package utils

import (
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// dateFormats are tried in order when parsing string timestamps coming from
// heterogeneous sources.
var dateFormats = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseDateTime normalizes the timestamp shapes seen in incoming records
// (time.Time, Mongo datetimes, strings, raw bytes) into a time.Time.
func ParseDateTime(val interface{}) (time.Time, error) {
	switch v := val.(type) {
	case time.Time:
		return v, nil
	case primitive.DateTime:
		return v.Time(), nil
	case string:
		for _, f := range dateFormats {
			if t, err := time.Parse(f, v); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("unable to parse datetime: %s", v)
	case []byte:
		return ParseDateTime(string(v))
	default:
		return time.Time{}, fmt.Errorf("cannot parse %T as datetime", val)
	}
}

// ToInt converts the numeric shapes produced by JSON decoding and database
// drivers into an int.
func ToInt(val interface{}) (int, error) {
	switch v := val.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		return strconv.Atoi(v)
	case []byte:
		return strconv.Atoi(string(v))
	default:
		return 0, fmt.Errorf("cannot convert %T to int", val)
	}
}

// ToString renders a scalar value the way the mapping layer expects string
// identifiers: no quoting, no type decoration.
func ToString(val interface{}) string {
	if val == nil {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", val)
}

// IntOffset converts a pagination offset of unknown provenance to an int,
// defaulting to 0.
func IntOffset(v interface{}) int {
	if v == nil {
		return 0
	}
	n, err := ToInt(v)
	if err != nil {
		return 0
	}
	return n
}
