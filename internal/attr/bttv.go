package attr

import "sync"

// Osprey440Model names the card the built-in schema was taken from.
const Osprey440Model = "Osprey 440 (bttv)"

// Choices reported by `v4lctl list` on the Osprey 440.
var (
	bttvNorms = []string{
		"NTSC", "NTSC-M", "NTSC-M-JP", "NTSC-M-KR",
		"PAL", "PAL-BG", "PAL-H", "PAL-I", "PAL-DK", "PAL-M", "PAL-N", "PAL-Nc", "PAL-60",
		"SECAM", "SECAM-B", "SECAM-G", "SECAM-H", "SECAM-DK", "SECAM-L", "SECAM-Lc",
	}
	bttvInputs = []string{"Composite0", "Composite1", "Composite2", "Composite3"}
)

// bttvAttributes is the parameter table of the Osprey 440. The defaults are
// the node's own defaults, not the card's reset values.
var bttvAttributes = []Attribute{
	{Key: "input", Name: "input", Kind: KindChoice, Command: "setattr input", Default: "Composite0", Options: bttvInputs},
	{Key: "norm", Name: "norm", Kind: KindChoice, Command: "setnorm", Default: "PAL-I", Options: bttvNorms},
	{Key: "bright", Name: "bright", Kind: KindPercent, Command: "bright", Default: "50", Limit: 65280},
	{Key: "contrast", Name: "contrast", Kind: KindPercent, Command: "contrast", Default: "40", Limit: 65280},
	{Key: "color", Name: "color", Kind: KindPercent, Command: "color", Default: "50", Limit: 65280},
	{Key: "hue", Name: "hue", Kind: KindPercent, Command: "hue", Default: "50", Limit: 65280},
	// 0..100 on the card, so the percentage is the raw value.
	{Key: "UV_Ratio", Name: "UV Ratio", Kind: KindPercent, Command: `setattr "UV Ratio"`, Default: "50", Limit: 100},
	{Key: "Coring", Name: "Coring", Kind: KindInt, Command: "setattr Coring", Default: "0", Limit: 3},
	{Key: "Whitecrush_Lower", Name: "Whitecrush Lower", Kind: KindPercent, Command: `setattr "Whitecrush Lower"`, Default: "50", Limit: 255},
	{Key: "Whitecrush_Upper", Name: "Whitecrush Upper", Kind: KindPercent, Command: `setattr "Whitecrush Upper"`, Default: "80", Limit: 255},
	{Key: "mute", Name: "mute", Kind: KindBool, Command: "setattr mute", Default: "off"},
	{Key: "Chroma_AGC", Name: "Chroma AGC", Kind: KindBool, Command: `setattr "Chroma AGC"`, Default: "off"},
	{Key: "Color_Killer", Name: "Color Killer", Kind: KindBool, Command: `setattr "Color Killer"`, Default: "off"},
	{Key: "Comb_Filter", Name: "Comb Filter", Kind: KindBool, Command: `setattr "Comb Filter"`, Default: "off"},
	{Key: "Auto_Mute", Name: "Auto Mute", Kind: KindBool, Command: `setattr "Auto Mute"`, Default: "on"},
	{Key: "Luma_Decim", Name: "Luma Decimation Filter", Kind: KindBool, Command: `setattr "Luma Decimation Filter"`, Default: "off"},
	{Key: "AGC_Crush", Name: "AGC Crush", Kind: KindBool, Command: `setattr "AGC Crush"`, Default: "on"},
	{Key: "VCR_Hack", Name: "VCR Hack", Kind: KindBool, Command: `setattr "VCR Hack"`, Default: "off"},
	{Key: "Full_Luma", Name: "Full Luma Range", Kind: KindBool, Command: `setattr "Full Luma Range"`, Default: "off"},
}

// DefaultSchema returns the built-in Osprey 440 schema. Every call returns
// the same instance, so revisions built from it compare equal.
func DefaultSchema() *Schema { return builtinSchema() }

var builtinSchema = sync.OnceValue(func() *Schema {
	s, err := NewSchema(SchemaFile{Model: Osprey440Model, Attributes: bttvAttributes})
	if err != nil {
		panic("attr: built-in schema is invalid: " + err.Error())
	}
	return s
})
