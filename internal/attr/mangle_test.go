package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMangle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"bright", "bright"},
		{"setattr mute", "setattr_mute"},
		{`setattr "UV Ratio"`, "setattr_-UV_Ratio-"},
		{`setattr "Luma Decimation Filter"`, "setattr_-Luma_Decimation_Filter-"},
		{"Auto Mute", "Auto_Mute"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Mangle(tt.in))
			assert.Equal(t, tt.in, Demangle(tt.want))
		})
	}
}

func TestMangleRoundTripsSchema(t *testing.T) {
	s := DefaultSchema()
	for _, a := range s.Attributes() {
		assert.Equal(t, a.Name, Demangle(Mangle(a.Name)), "name %q", a.Name)
		assert.Equal(t, a.Command, Demangle(Mangle(a.Command)), "command %q", a.Command)
	}
}

func TestMangleLossyForDashes(t *testing.T) {
	// Known limitation: names containing - or _ do not survive.
	assert.NotEqual(t, "PAL-I", Demangle(Mangle("PAL-I")))
}
