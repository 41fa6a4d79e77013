package scoring

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueKind identifies which variant a Value holds.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindNumber
	KindBool
	KindString
)

func (k ValueKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	default:
		return "none"
	}
}

// Value is a response answer: a number, a boolean or a string.
type Value struct {
	kind ValueKind
	num  float64
	flag bool
	text string
}

// Number wraps a numeric answer.
func Number(v float64) Value { return Value{kind: KindNumber, num: v} }

// Bool wraps a boolean answer.
func Bool(v bool) Value { return Value{kind: KindBool, flag: v} }

// Text wraps a free-text answer.
func Text(v string) Value { return Value{kind: KindString, text: v} }

// Kind reports the variant held by v.
func (v Value) Kind() ValueKind { return v.kind }

// IsSet reports whether v carries any answer at all.
func (v Value) IsSet() bool { return v.kind != KindNone }

// AsNumber returns the numeric payload when v is a number.
func (v Value) AsNumber() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns the boolean payload when v is a boolean.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.flag, true
}

// AsText returns the string payload when v is a string.
func (v Value) AsText() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.text, true
}

// String renders the value the way it is persisted and compared for visibility.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindString:
		return v.text
	default:
		return ""
	}
}

// Equal compares kind and payload.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.flag == other.flag
	case KindString:
		return v.text == other.text
	default:
		return true
	}
}

// MarshalJSON emits the bare JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	case KindString:
		return json.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON number, boolean, string or null.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*v = Value{}
		return nil
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch typed := raw.(type) {
	case float64:
		*v = Number(typed)
	case bool:
		*v = Bool(typed)
	case string:
		*v = Text(typed)
	default:
		return fmt.Errorf("unsupported response value %s", trimmed)
	}
	return nil
}

// CoerceValue converts persisted answer text into the value shape expected by the
// question type. Numeric text that does not parse becomes 0 for NumericScale.
func CoerceValue(raw string, q Question) Value {
	switch q.Type {
	case NumericScale:
		f, ok := parseNumber(raw)
		if !ok {
			return Number(0)
		}
		return Number(f)
	case Checkbox:
		return Bool(strings.EqualFold(strings.TrimSpace(raw), "true"))
	case Conditional:
		if q.DelegateType.delegable() {
			delegate := q
			delegate.Type = q.DelegateType
			return CoerceValue(raw, delegate)
		}
		return inferValue(raw)
	default:
		return Text(raw)
	}
}

func inferValue(raw string) Value {
	if f, ok := parseNumber(raw); ok {
		return Number(f)
	}
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	return Text(raw)
}

func parseNumber(raw string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
