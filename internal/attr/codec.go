package attr

import (
	"strconv"
	"strings"
)

// Reader fetches the raw v4lctl token for an attribute name.
// An empty string means the read failed or the attribute is unknown.
type Reader func(name string) string

type decodeFunc func(a Attribute, raw string) (Value, bool)

type encodeFunc func(v Value) string

// One decoder and one encoder per kind. Lookups go through these tables,
// never through branching on the schema's kind names.
var (
	decoders = map[Kind]decodeFunc{
		KindChoice:  decodeChoice,
		KindBool:    decodeBool,
		KindInt:     decodeInt,
		KindPercent: decodePercent,
	}

	encoders = map[Kind]encodeFunc{
		KindChoice:  func(v Value) string { return v.s },
		KindBool:    encodeBool,
		KindInt:     func(v Value) string { return strconv.Itoa(v.n) },
		KindPercent: func(v Value) string { return strconv.Itoa(v.n) + "%" },
	}
)

// FromHardware computes an attribute's typed value. With useDefaults the
// reader is never called and def is returned. Otherwise the attribute is
// read once; an empty or undecodable token also yields def.
func FromHardware(a Attribute, def Value, useDefaults bool, read Reader) Value {
	if useDefaults {
		return def
	}

	raw := read(a.Name)
	if raw == "" {
		return def
	}

	decode, ok := decoders[a.Kind]
	if !ok {
		return def
	}

	v, ok := decode(a, raw)
	if !ok {
		return def
	}
	return v
}

// Encode renders a value as the v4lctl write argument:
// percents as "70%", ints as "3", bools as on/off, choices verbatim.
func Encode(v Value) string {
	if encode, ok := encoders[v.kind]; ok {
		return encode(v)
	}
	return v.String()
}

// PercentFromRaw scales a raw hardware reading to 0..100 of limit.
// Integer division truncates toward zero; the result is clamped.
func PercentFromRaw(raw, limit int) int {
	if limit <= 0 {
		return 0
	}
	return clampPercent(raw * 100 / limit)
}

func decodeChoice(_ Attribute, raw string) (Value, bool) {
	return ChoiceValue(raw), true
}

// decodeBool is case-sensitive: only "on" is true.
func decodeBool(_ Attribute, raw string) (Value, bool) {
	return BoolValue(raw == "on"), true
}

func decodeInt(_ Attribute, raw string) (Value, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Value{}, false
	}
	return IntValue(n), true
}

func decodePercent(a Attribute, raw string) (Value, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return Value{}, false
	}
	return PercentValue(PercentFromRaw(n, a.Limit)), true
}

func encodeBool(v Value) string {
	if v.b {
		return "on"
	}
	return "off"
}
