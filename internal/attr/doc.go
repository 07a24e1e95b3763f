// Package attr holds the device parameter model: the attribute schema, typed
// values, immutable revisions, and the codec between typed values and the
// textual encodings v4lctl reads and writes.
//
// # Kinds
//
// Every attribute has one Kind. Each kind has exactly one decoder (v4lctl
// token → Value) and one encoder (Value → write argument):
//
//	choice   "PAL-I"  ↔ "PAL-I"
//	bool     "on"     ↔ "on"/"off"   (only the exact token "on" is true)
//	int      "3"      ↔ "3"
//	percent  "32768"  → 50           (raw*100/limit, truncated)
//	         50       → "50%"
//
// # Defaults
//
// FromHardware never fails. When defaults are requested the device is not
// read at all; when the read comes back empty (tool missing, attribute
// unknown, unparseable output) the schema default is used instead.
//
// # Snapshot keys
//
// Mangle and Demangle translate write commands to and from the keys of the
// persisted snapshot.
package attr
