package schema

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// textTimeLayout is the write form of text date/times. It is fixed width
// in UTC so that string order matches time order.
const textTimeLayout = "2006-01-02T15:04:05.000000000Z"

// timeLayouts are accepted when reading text date/times.
var timeLayouts = []string{
	textTimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Unix nanoseconds only cover the years 1678 to 2262.
var (
	minUnixNanoTime = time.Unix(0, math.MinInt64)
	maxUnixNanoTime = time.Unix(0, math.MaxInt64)
)

// timeToStorage converts t for a date/time column. Under the integer
// convention the zero time is stored as 0 and read back as the zero time.
func timeToStorage(t time.Time, aff Affinity) (any, error) {
	if aff != DateTimeInteger {
		return t.UTC().Format(textTimeLayout), nil
	}
	if t.IsZero() {
		return int64(0), nil
	}
	if t.Before(minUnixNanoTime) || t.After(maxUnixNanoTime) {
		return nil, fmt.Errorf("time %s is outside the unix nanosecond range", t.UTC().Format(time.RFC3339))
	}
	return t.UnixNano(), nil
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}

// ToStorage converts a Go value into the storage form of a column with the
// given affinity. The translator uses it for predicate constants so that
// booleans and times compare the way they were written.
func ToStorage(value any, aff Affinity) (any, error) {
	switch x := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		if aff == DateTimeText || aff == DateTimeInteger {
			return timeToStorage(x, aff)
		}
		return nil, fmt.Errorf("time value for %s column", aff)
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case time.Duration:
		return int64(x), nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return uintToInt64(uint64(x))
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return uintToInt64(x)
	case float32:
		return float64(x), nil
	case float64, string, []byte:
		return x, nil
	default:
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Pointer {
			if rv.IsNil() {
				return nil, nil
			}
			return ToStorage(rv.Elem().Interface(), aff)
		}
		return namedToStorage(value)
	}
}

// namedToStorage handles named types over basic kinds (type Status string).
func namedToStorage(value any) (any, error) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintToInt64(rv.Uint())
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	case reflect.String:
		return rv.String(), nil
	case reflect.Bool:
		if rv.Bool() {
			return int64(1), nil
		}
		return int64(0), nil
	default:
		return nil, fmt.Errorf("unsupported value type %T", value)
	}
}

func uintToInt64(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("value %d overflows int64", u)
	}
	return int64(u), nil
}

func toInt64(src any) (int64, error) {
	switch x := src.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		if x != math.Trunc(x) || x > math.MaxInt64 || x < math.MinInt64 {
			return 0, fmt.Errorf("cannot convert %v to integer", x)
		}
		return int64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return parseInt(string(x))
	case string:
		return parseInt(x)
	case time.Time:
		return x.UnixNano(), nil
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", src)
	}
}

func parseInt(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %q to integer", s)
	}
	return n, nil
}

func toFloat64(src any) (float64, error) {
	switch x := src.(type) {
	case float64:
		return x, nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case []byte:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", src)
	}
}

func parseFloat(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %q to float", s)
	}
	return f, nil
}

func toString(src any) (string, error) {
	switch x := src.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	case time.Time:
		return x.UTC().Format(textTimeLayout), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", src)
	}
}

func toBool(src any) (bool, error) {
	switch x := src.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case []byte:
		return parseBool(string(x))
	case string:
		return parseBool(x)
	default:
		return false, fmt.Errorf("cannot convert %T to bool", src)
	}
}

func parseBool(s string) (bool, error) {
	if n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
		return n != 0, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("cannot convert %q to bool", s)
	}
	return b, nil
}

func toTime(src any, aff Affinity) (time.Time, error) {
	switch x := src.(type) {
	case time.Time:
		return x.UTC(), nil
	case int64:
		return fromUnixNano(x), nil
	case float64:
		return fromUnixNano(int64(x)), nil
	case []byte:
		return parseTime(string(x), aff)
	case string:
		return parseTime(x, aff)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", src)
	}
}

func parseTime(s string, aff Affinity) (time.Time, error) {
	s = strings.TrimSpace(s)
	if aff == DateTimeInteger {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return fromUnixNano(n), nil
		}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as time", s)
}
