package fields

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Kind identifies the dynamic type carried by a Value.
type Kind uint8

const (
	// KindAbsent marks a field that is missing or carries an unsupported value.
	KindAbsent Kind = iota
	KindBool
	KindNumber
	KindString
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "absent"
	}
}

// Value is a configuration field value: a boolean, a number or a string.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
}

// Bool wraps a boolean field value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Number wraps a numeric field value.
func Number(v float64) Value { return Value{kind: KindNumber, n: v} }

// String wraps a string field value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Kind reports the dynamic type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value carries nothing.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// Number returns the numeric payload. ok is false for non-numbers.
func (v Value) Number() (n float64, ok bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.n, true
}

// Bool returns the boolean payload. ok is false for non-booleans.
func (v Value) Bool() (b bool, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Str returns the string payload. ok is false for non-strings.
func (v Value) Str() (s string, ok bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// Active reports whether the value switches a trigger on: true, a number
// greater than zero, or a string that is not blank.
func (v Value) Active() bool {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n > 0
	case KindString:
		return strings.TrimSpace(v.s) != ""
	default:
		return false
	}
}

// Equal compares kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n == other.n
	case KindString:
		return v.s == other.s
	default:
		return true
	}
}

// GoString renders the value for debugging output.
func (v Value) GoString() string {
	switch v.kind {
	case KindBool:
		return "fields.Bool(" + strconv.FormatBool(v.b) + ")"
	case KindNumber:
		return "fields.Number(" + strconv.FormatFloat(v.n, 'g', -1, 64) + ")"
	case KindString:
		return "fields.String(" + strconv.Quote(v.s) + ")"
	default:
		return "fields.Value{}"
	}
}

// MarshalJSON encodes the value as a bare JSON scalar. Absent values encode as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar. null, objects and arrays decode as absent
// rather than failing, since configuration schemas change without notice.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	*v = Value{}
	if len(trimmed) == 0 {
		return nil
	}
	switch trimmed[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
	case 'n', '{', '[':
		return nil
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*v = Number(n)
	}
	return nil
}
