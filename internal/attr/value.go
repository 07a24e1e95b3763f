package attr

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a typed attribute value. Values are comparable with ==, and
// equality is on the typed value, never on the v4lctl encoding.
type Value struct {
	kind Kind
	s    string
	b    bool
	n    int
}

// ChoiceValue returns a choice (enum string) value
func ChoiceValue(s string) Value { return Value{kind: KindChoice, s: s} }

// BoolValue returns a boolean value
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// IntValue returns an absolute integer value
func IntValue(n int) Value { return Value{kind: KindInt, n: n} }

// PercentValue returns a percentage value, clamped to 0..100.
func PercentValue(n int) Value { return Value{kind: KindPercent, n: clampPercent(n)} }

// Kind returns the value's kind
func (v Value) Kind() Kind { return v.kind }

// Choice returns the string of a choice value
func (v Value) Choice() string { return v.s }

// Bool returns the boolean of a bool value
func (v Value) Bool() bool { return v.b }

// Int returns the integer of an int or percent value
func (v Value) Int() int { return v.n }

// Equal reports whether two values have the same kind and typed value
func (v Value) Equal(o Value) bool { return v == o }

// String renders the value the way operators type it: on/off for bools,
// bare numbers for ints and percents.
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		if v.b {
			return "on"
		}
		return "off"
	case KindInt, KindPercent:
		return strconv.Itoa(v.n)
	default:
		return v.s
	}
}

// ParseError reports operator or wire input that does not fit an attribute
type ParseError struct {
	Key    string
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid value %q: %s", e.Text, e.Reason)
	}
	return fmt.Sprintf("invalid value %q for %s: %s", e.Text, e.Key, e.Reason)
}

// ParseValue parses operator input for a kind. Bools accept on/off,
// true/false, yes/no and 1/0; percents accept an optional % suffix and must
// lie in 0..100.
func ParseValue(kind Kind, text string) (Value, error) {
	text = strings.TrimSpace(text)

	switch kind {
	case KindChoice:
		if text == "" {
			return Value{}, &ParseError{Text: text, Reason: "empty choice"}
		}
		return ChoiceValue(text), nil

	case KindBool:
		switch strings.ToLower(text) {
		case "on", "true", "yes", "1":
			return BoolValue(true), nil
		case "off", "false", "no", "0":
			return BoolValue(false), nil
		}
		return Value{}, &ParseError{Text: text, Reason: "expected on or off"}

	case KindInt:
		n, err := strconv.Atoi(text)
		if err != nil {
			return Value{}, &ParseError{Text: text, Reason: "not an integer"}
		}
		return IntValue(n), nil

	case KindPercent:
		n, err := strconv.Atoi(strings.TrimSuffix(text, "%"))
		if err != nil {
			return Value{}, &ParseError{Text: text, Reason: "not a percentage"}
		}
		if n < 0 || n > 100 {
			return Value{}, &ParseError{Text: text, Reason: "percentage out of range 0-100"}
		}
		return PercentValue(n), nil
	}

	return Value{}, &ParseError{Text: text, Reason: fmt.Sprintf("unsupported kind %s", kind)}
}

func clampPercent(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}
