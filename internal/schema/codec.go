package schema

import (
	"fmt"
	"math"
	"time"
	"unicode/utf8"
)

type integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

type float interface {
	~float32 | ~float64
}

// codec moves one member between an entity and its storage form.
// All closures go through the declared accessor; nothing walks the
// entity's fields.
type codec[T any] struct {
	kind     valueKind
	nullable bool
	get      func(v *T, aff Affinity) (any, error)
	set      func(v *T, src any, aff Affinity) error
	isZero   func(v *T) bool
	length   func(v *T) int
}

// codecFor selects the codec for the accessor's value type. A value type
// outside the supported set returns an error that the builder reports as a
// schema definition error.
func codecFor[T, V any](access func(*T) *V) (codec[T], error) {
	switch acc := any(access).(type) {
	case func(*T) *int:
		return integerCodec(acc), nil
	case func(*T) *int8:
		return integerCodec(acc), nil
	case func(*T) *int16:
		return integerCodec(acc), nil
	case func(*T) *int32:
		return integerCodec(acc), nil
	case func(*T) *int64:
		return integerCodec(acc), nil
	case func(*T) *uint:
		return integerCodec(acc), nil
	case func(*T) *uint8:
		return integerCodec(acc), nil
	case func(*T) *uint16:
		return integerCodec(acc), nil
	case func(*T) *uint32:
		return integerCodec(acc), nil
	case func(*T) *uint64:
		return integerCodec(acc), nil
	case func(*T) *time.Duration:
		return integerCodec(acc), nil
	case func(*T) *float32:
		return floatCodec(acc), nil
	case func(*T) *float64:
		return floatCodec(acc), nil
	case func(*T) *string:
		return stringCodec(acc), nil
	case func(*T) *bool:
		return boolCodec(acc), nil
	case func(*T) *[]byte:
		return bytesCodec(acc), nil
	case func(*T) *time.Time:
		return timeCodec(acc), nil

	case func(*T) **int:
		return nullable(acc, integerCodec[T, int]), nil
	case func(*T) **int8:
		return nullable(acc, integerCodec[T, int8]), nil
	case func(*T) **int16:
		return nullable(acc, integerCodec[T, int16]), nil
	case func(*T) **int32:
		return nullable(acc, integerCodec[T, int32]), nil
	case func(*T) **int64:
		return nullable(acc, integerCodec[T, int64]), nil
	case func(*T) **uint:
		return nullable(acc, integerCodec[T, uint]), nil
	case func(*T) **uint8:
		return nullable(acc, integerCodec[T, uint8]), nil
	case func(*T) **uint16:
		return nullable(acc, integerCodec[T, uint16]), nil
	case func(*T) **uint32:
		return nullable(acc, integerCodec[T, uint32]), nil
	case func(*T) **uint64:
		return nullable(acc, integerCodec[T, uint64]), nil
	case func(*T) **time.Duration:
		return nullable(acc, integerCodec[T, time.Duration]), nil
	case func(*T) **float32:
		return nullable(acc, floatCodec[T, float32]), nil
	case func(*T) **float64:
		return nullable(acc, floatCodec[T, float64]), nil
	case func(*T) **string:
		return nullable(acc, stringCodec[T, string]), nil
	case func(*T) **bool:
		return nullable(acc, boolCodec[T, bool]), nil
	case func(*T) **time.Time:
		return nullable(acc, timeCodec[T]), nil
	default:
		var zero V
		return codec[T]{}, fmt.Errorf("unsupported member type %T", zero)
	}
}

func integerCodec[T any, I integer](acc func(*T) *I) codec[T] {
	return codec[T]{
		kind: kindInteger,
		get: func(v *T, _ Affinity) (any, error) {
			x := *acc(v)
			if x > 0 && uint64(x) > math.MaxInt64 {
				return nil, fmt.Errorf("value %d overflows int64", uint64(x))
			}
			return int64(x), nil
		},
		set: func(v *T, src any, _ Affinity) error {
			if src == nil {
				*acc(v) = 0
				return nil
			}
			n, err := toInt64(src)
			if err != nil {
				return err
			}
			y := I(n)
			if int64(y) != n || (y < 0) != (n < 0) {
				return fmt.Errorf("value %d overflows %T", n, y)
			}
			*acc(v) = y
			return nil
		},
		isZero: func(v *T) bool { return *acc(v) == 0 },
		length: func(*T) int { return 0 },
	}
}

func floatCodec[T any, F float](acc func(*T) *F) codec[T] {
	return codec[T]{
		kind: kindReal,
		get: func(v *T, _ Affinity) (any, error) {
			return float64(*acc(v)), nil
		},
		set: func(v *T, src any, _ Affinity) error {
			if src == nil {
				*acc(v) = 0
				return nil
			}
			f, err := toFloat64(src)
			if err != nil {
				return err
			}
			*acc(v) = F(f)
			return nil
		},
		isZero: func(v *T) bool { return *acc(v) == 0 },
		length: func(*T) int { return 0 },
	}
}

func stringCodec[T any, S ~string](acc func(*T) *S) codec[T] {
	return codec[T]{
		kind: kindText,
		get: func(v *T, _ Affinity) (any, error) {
			return string(*acc(v)), nil
		},
		set: func(v *T, src any, _ Affinity) error {
			if src == nil {
				*acc(v) = ""
				return nil
			}
			s, err := toString(src)
			if err != nil {
				return err
			}
			*acc(v) = S(s)
			return nil
		},
		isZero: func(v *T) bool { return *acc(v) == "" },
		length: func(v *T) int { return utf8.RuneCountInString(string(*acc(v))) },
	}
}

func boolCodec[T any, B ~bool](acc func(*T) *B) codec[T] {
	return codec[T]{
		kind: kindBool,
		get: func(v *T, _ Affinity) (any, error) {
			if *acc(v) {
				return int64(1), nil
			}
			return int64(0), nil
		},
		set: func(v *T, src any, _ Affinity) error {
			if src == nil {
				*acc(v) = false
				return nil
			}
			b, err := toBool(src)
			if err != nil {
				return err
			}
			*acc(v) = B(b)
			return nil
		},
		isZero: func(v *T) bool { return !bool(*acc(v)) },
		length: func(*T) int { return 0 },
	}
}

func bytesCodec[T any](acc func(*T) *[]byte) codec[T] {
	return codec[T]{
		kind:     kindBlob,
		nullable: true,
		get: func(v *T, _ Affinity) (any, error) {
			b := *acc(v)
			if b == nil {
				return nil, nil
			}
			return b, nil
		},
		set: func(v *T, src any, _ Affinity) error {
			switch x := src.(type) {
			case nil:
				*acc(v) = nil
			case []byte:
				*acc(v) = append([]byte(nil), x...)
			case string:
				*acc(v) = []byte(x)
			default:
				return fmt.Errorf("cannot convert %T to []byte", src)
			}
			return nil
		},
		isZero: func(v *T) bool { return len(*acc(v)) == 0 },
		length: func(v *T) int { return len(*acc(v)) },
	}
}

func timeCodec[T any](acc func(*T) *time.Time) codec[T] {
	return codec[T]{
		kind: kindTime,
		get: func(v *T, aff Affinity) (any, error) {
			return timeToStorage(*acc(v), aff)
		},
		set: func(v *T, src any, aff Affinity) error {
			if src == nil {
				*acc(v) = time.Time{}
				return nil
			}
			t, err := toTime(src, aff)
			if err != nil {
				return err
			}
			*acc(v) = t
			return nil
		},
		isZero: func(v *T) bool { return acc(v).IsZero() },
		length: func(*T) int { return 0 },
	}
}

// nullable lifts a codec over V into one over *V where nil maps to NULL.
func nullable[T, V any](acc func(*T) **V, base func(func(*T) *V) codec[T]) codec[T] {
	inner := base(func(v *T) *V {
		pp := acc(v)
		if *pp == nil {
			*pp = new(V)
		}
		return *pp
	})
	return codec[T]{
		kind:     inner.kind,
		nullable: true,
		get: func(v *T, aff Affinity) (any, error) {
			if *acc(v) == nil {
				return nil, nil
			}
			return inner.get(v, aff)
		},
		set: func(v *T, src any, aff Affinity) error {
			if src == nil {
				*acc(v) = nil
				return nil
			}
			return inner.set(v, src, aff)
		},
		isZero: func(v *T) bool {
			return *acc(v) == nil || inner.isZero(v)
		},
		length: func(v *T) int {
			if *acc(v) == nil {
				return 0
			}
			return inner.length(v)
		},
	}
}
