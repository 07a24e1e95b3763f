// Package snapshot keeps the last successfully written device values and
// persists them as a flat YAML mapping.
//
// Keys are mangled write commands (see attr.Mangle), values are the encoded
// tokens exactly as they were passed to v4lctl:
//
//	bright: 70%
//	setattr_-UV_Ratio-: 60%
//	setnorm: PAL-I
//
// A missing or broken snapshot file is not an error: the store starts empty
// and the daemon runs with whatever the card currently holds.
package snapshot
