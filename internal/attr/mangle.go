package attr

import "strings"

var (
	mangler   = strings.NewReplacer(`"`, "-", " ", "_")
	demangler = strings.NewReplacer("-", `"`, "_", " ")
)

// Mangle turns an attribute name or write command into a snapshot key:
// `"` becomes - and space becomes _, so `setattr "UV Ratio"` is stored as
// `setattr_-UV_Ratio-`.
//
// Names that already contain - or _ do not round-trip (PAL-I would come
// back as PAL"I). No attribute name or command in the bttv schema does.
func Mangle(name string) string {
	return mangler.Replace(name)
}

// Demangle reverses Mangle.
func Demangle(key string) string {
	return demangler.Replace(key)
}
