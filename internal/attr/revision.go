package attr

import (
	"fmt"
	"slices"
)

// Revision is an immutable snapshot of every attribute value of a schema.
// Operations that change a value return a new Revision.
type Revision struct {
	schema *Schema
	values []Value
}

// Document is the textual form of a revision, keyed by attribute key.
// It is what the API and the console exchange.
type Document map[string]string

// IsZero reports whether the revision was never built
func (r Revision) IsZero() bool { return r.schema == nil }

// Schema returns the schema the revision belongs to
func (r Revision) Schema() *Schema { return r.schema }

// At returns the value of the i-th attribute
func (r Revision) At(i int) Value { return r.values[i] }

// Value returns the value of the attribute with the given key or name
func (r Revision) Value(key string) (Value, bool) {
	if r.schema == nil {
		return Value{}, false
	}
	_, i, ok := r.schema.Lookup(key)
	if !ok {
		return Value{}, false
	}
	return r.values[i], true
}

// With returns a copy of r with one attribute replaced. The value's kind
// must match the attribute's.
func (r Revision) With(key string, v Value) (Revision, error) {
	if r.schema == nil {
		return Revision{}, fmt.Errorf("revision has no schema")
	}
	a, i, ok := r.schema.Lookup(key)
	if !ok {
		return Revision{}, fmt.Errorf("unknown attribute %q", key)
	}
	if a.Kind != v.Kind() {
		return Revision{}, fmt.Errorf("attribute %s is %s, got %s value", a.Key, a.Kind, v.Kind())
	}

	values := slices.Clone(r.values)
	values[i] = v
	return Revision{schema: r.schema, values: values}, nil
}

// Diff returns the indices of attributes whose typed value differs between
// r and next, in declaration order. Both revisions must share a schema.
func (r Revision) Diff(next Revision) []int {
	var changed []int
	for i := range next.values {
		if i >= len(r.values) || !r.values[i].Equal(next.values[i]) {
			changed = append(changed, i)
		}
	}
	return changed
}

// Equal reports whether both revisions hold the same values
func (r Revision) Equal(o Revision) bool {
	return r.schema == o.schema && slices.Equal(r.values, o.values)
}

// Document renders the revision as key → text
func (r Revision) Document() Document {
	doc := make(Document, len(r.values))
	for i, v := range r.values {
		doc[r.schema.attrs[i].Key] = v.String()
	}
	return doc
}

// Merge parses a (possibly partial) document onto r. Keys may also be
// v4lctl attribute names. All entries are validated before any is applied.
func (r Revision) Merge(doc Document) (Revision, error) {
	next := r
	for key, text := range doc {
		a, _, ok := r.schema.Lookup(key)
		if !ok {
			return Revision{}, fmt.Errorf("unknown attribute %q", key)
		}
		v, err := a.Parse(text)
		if err != nil {
			return Revision{}, err
		}
		if next, err = next.With(a.Key, v); err != nil {
			return Revision{}, err
		}
	}
	return next, nil
}
