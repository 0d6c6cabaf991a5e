package schema

import (
	"sort"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
)

// Table maps destination identifiers to their schemas, alongside the schema
// of the shared default record.
type Table struct {
	Default      Schema
	Destinations map[string]Schema
}

// NewTable constructs a table with an empty destination map.
func NewTable(defaults Schema) Table {
	return Table{Default: defaults, Destinations: make(map[string]Schema)}
}

// Destination returns the schema declared for name.
func (t Table) Destination(name string) (Schema, bool) {
	if t.Destinations == nil {
		return Schema{}, false
	}
	s, ok := t.Destinations[name]
	return s, ok
}

// Names returns the declared destination identifiers in sorted order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t.Destinations))
	for name := range t.Destinations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Scope returns the descriptor lookup scope for destination. Unknown
// destinations resolve against the default schema only.
func (t Table) Scope(destination string) Scope {
	scope := Scope{Default: t.Default}
	if s, ok := t.Destination(destination); ok {
		clone := s
		scope.Destination = &clone
	}
	return scope
}

// Scope pairs a destination schema with the default schema it falls back to.
type Scope struct {
	Default     Schema
	Destination *Schema
}

// Descriptor looks the field up on the destination schema first and falls
// back to the default schema. A false result means no constraints apply.
func (s Scope) Descriptor(name string) (FieldDescriptor, bool) {
	if s.Destination != nil {
		if field, ok := s.Destination.Field(name); ok {
			return field, true
		}
	}
	return s.Default.Field(name)
}

// MaxLength returns the effective maxLength of a field.
func (s Scope) MaxLength(name string) *int {
	field, ok := s.Descriptor(name)
	if !ok {
		return nil
	}
	return field.MaxLength
}

// MaxTags returns the effective maxTags of the tags field.
func (s Scope) MaxTags() *int {
	field, ok := s.Descriptor(model.FieldTags)
	if !ok {
		return nil
	}
	return field.MaxTags
}

// Kinds returns the kind of every field visible in the scope, destination
// declarations taking precedence.
func (s Scope) Kinds() map[string]FieldKind {
	kinds := make(map[string]FieldKind, len(s.Default.Fields))
	for _, field := range s.Default.Fields {
		kinds[field.Name] = field.Kind
	}
	if s.Destination != nil {
		for _, field := range s.Destination.Fields {
			kinds[field.Name] = field.Kind
		}
	}
	return kinds
}

// Capability returns the effective capability declaration. Unset values are
// derived from the fields: tags are supported when a tag field is visible,
// and the dialect comes from the description descriptor, defaulting to
// plain text. A scope without any description field gets DialectNone.
func (s Scope) Capability() CapabilitySpec {
	var spec CapabilitySpec
	if s.Destination != nil && s.Destination.Capability != nil {
		spec = *s.Destination.Capability
		spec.TagTransforms = append([]string(nil), spec.TagTransforms...)
	}

	if spec.TagsSupported == nil {
		_, ok := s.Descriptor(model.FieldTags)
		spec.TagsSupported = Bool(ok)
	}
	if spec.Dialect == "" {
		field, ok := s.Descriptor(model.FieldDescription)
		switch {
		case !ok:
			spec.Dialect = model.DialectNone
		case field.Dialect != "":
			spec.Dialect = field.Dialect
		default:
			spec.Dialect = model.DialectPlainText
		}
	}
	return spec
}
