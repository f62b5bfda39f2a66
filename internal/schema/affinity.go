package schema

import "fmt"

// Affinity is the storage affinity of a mapped column.
type Affinity int

const (
	// Integer stores signed and unsigned integers and durations.
	Integer Affinity = iota + 1
	// Real stores floating point values.
	Real
	// Text stores strings.
	Text
	// Blob stores byte slices.
	Blob
	// Boolean stores bool as INTEGER 0/1.
	Boolean
	// DateTimeText stores time.Time as RFC 3339 text in UTC.
	DateTimeText
	// DateTimeInteger stores time.Time as unix nanoseconds.
	DateTimeInteger
)

// String returns the affinity name.
func (a Affinity) String() string {
	switch a {
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Text:
		return "text"
	case Blob:
		return "blob"
	case Boolean:
		return "boolean"
	case DateTimeText:
		return "datetime-text"
	case DateTimeInteger:
		return "datetime-integer"
	default:
		return fmt.Sprintf("affinity(%d)", int(a))
	}
}

// StorageClass returns the SQLite storage class the affinity lowers to.
func (a Affinity) StorageClass() string {
	switch a {
	case Integer, Boolean, DateTimeInteger:
		return "integer"
	case Real:
		return "real"
	case Text, DateTimeText:
		return "text"
	case Blob:
		return "blob"
	default:
		return ""
	}
}

// IsInteger reports whether values are stored as SQLite INTEGER.
func (a Affinity) IsInteger() bool {
	return a.StorageClass() == "integer"
}

// DateTimeConvention selects how time.Time members are stored.
type DateTimeConvention int

const (
	// DateTimeAsText stores RFC 3339 text with nanoseconds, normalized to UTC.
	DateTimeAsText DateTimeConvention = iota
	// DateTimeAsUnixNano stores unix nanoseconds as INTEGER.
	DateTimeAsUnixNano
)

// valueKind is the family of a member's Go value type.
type valueKind int

const (
	kindInteger valueKind = iota + 1
	kindReal
	kindText
	kindBlob
	kindBool
	kindTime
)

// affinity resolves a value kind to a column affinity.
func (k valueKind) affinity(conv DateTimeConvention) Affinity {
	switch k {
	case kindInteger:
		return Integer
	case kindReal:
		return Real
	case kindText:
		return Text
	case kindBlob:
		return Blob
	case kindBool:
		return Boolean
	case kindTime:
		if conv == DateTimeAsUnixNano {
			return DateTimeInteger
		}
		return DateTimeText
	default:
		return 0
	}
}

func (k valueKind) String() string {
	switch k {
	case kindInteger:
		return "integer"
	case kindReal:
		return "real"
	case kindText:
		return "text"
	case kindBlob:
		return "blob"
	case kindBool:
		return "bool"
	case kindTime:
		return "time"
	default:
		return "unsupported"
	}
}

// parseKind maps a declared type name ("int", "text", ...) to a value kind.
// It backs declarations that do not come from Go types (CUE table files).
func parseKind(name string) (valueKind, bool) {
	switch name {
	case "int", "integer", "int64":
		return kindInteger, true
	case "real", "float", "double", "float64":
		return kindReal, true
	case "text", "string":
		return kindText, true
	case "blob", "bytes":
		return kindBlob, true
	case "bool", "boolean":
		return kindBool, true
	case "time", "datetime", "timestamp":
		return kindTime, true
	default:
		return 0, false
	}
}
