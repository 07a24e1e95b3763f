package attr

import "fmt"

// Kind is the value encoding of a device attribute.
type Kind int

const (
	// KindChoice is an enum string passed through verbatim ("PAL-I").
	KindChoice Kind = iota
	// KindBool is reported and written as on/off.
	KindBool
	// KindInt is an absolute integer ("3").
	KindInt
	// KindPercent is an integer exposed as 0-100 of the attribute's hardware
	// range and written with a % suffix ("70%").
	KindPercent
)

var kindNames = map[Kind]string{
	KindChoice:  "choice",
	KindBool:    "bool",
	KindInt:     "int",
	KindPercent: "percent",
}

// String returns the schema name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Valid reports whether k is one of the declared kinds
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// MarshalText implements encoding.TextMarshaler for YAML and JSON.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid attribute kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for YAML and JSON.
func (k *Kind) UnmarshalText(text []byte) error {
	for kind, name := range kindNames {
		if name == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown attribute kind %q", string(text))
}
