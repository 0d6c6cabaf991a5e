package schema

import (
	"fmt"
	"strings"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
)

// FieldKind tags the variant of a field descriptor.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindTag         FieldKind = "tag"
	KindDescription FieldKind = "description"
	KindRating      FieldKind = "rating"
	KindBoolean     FieldKind = "boolean"
	KindSelect      FieldKind = "select"
)

// ParseFieldKind validates a kind name.
func ParseFieldKind(raw string) (FieldKind, error) {
	kind := FieldKind(strings.ToLower(strings.TrimSpace(raw)))
	switch kind {
	case KindText, KindTag, KindDescription, KindRating, KindBoolean, KindSelect:
		return kind, nil
	default:
		return "", fmt.Errorf("schema: unknown field kind %q", raw)
	}
}

// FieldDescriptor is the constraint metadata for one field. Nil limits mean
// no ceiling (or floor).
type FieldDescriptor struct {
	Name      string        `json:"name" yaml:"name" validate:"required"`
	Kind      FieldKind     `json:"kind" yaml:"kind" validate:"required,oneof=text tag description rating boolean select"`
	MaxLength *int          `json:"maxLength,omitempty" yaml:"maxLength,omitempty" validate:"omitempty,gte=0"`
	MinLength *int          `json:"minLength,omitempty" yaml:"minLength,omitempty" validate:"omitempty,gte=0"`
	MaxTags   *int          `json:"maxTags,omitempty" yaml:"maxTags,omitempty" validate:"omitempty,gte=0"`
	MinTags   *int          `json:"minTags,omitempty" yaml:"minTags,omitempty" validate:"omitempty,gte=0"`
	Dialect   model.Dialect `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Choices   []string      `json:"choices,omitempty" yaml:"choices,omitempty"`
	Required  bool          `json:"required,omitempty" yaml:"required,omitempty"`
}

// CapabilitySpec declares what a destination supports, as plain data. Tag
// transforms and templates are referenced by name and bound to functions
// when a model.Capability is built.
type CapabilitySpec struct {
	TagsSupported *bool         `json:"tagsSupported,omitempty" yaml:"tagsSupported,omitempty"`
	MaxTags       *int          `json:"maxTags,omitempty" yaml:"maxTags,omitempty" validate:"omitempty,gte=0"`
	Dialect       model.Dialect `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	TagTransforms []string      `json:"tagTransforms,omitempty" yaml:"tagTransforms,omitempty" validate:"dive,required"`
	Template      string        `json:"template,omitempty" yaml:"template,omitempty"`
}

// Schema is the ordered field list declared for one record.
type Schema struct {
	Destination string            `json:"destination,omitempty" yaml:"destination,omitempty"`
	Fields      []FieldDescriptor `json:"fields" yaml:"fields" validate:"dive"`
	Capability  *CapabilitySpec   `json:"capability,omitempty" yaml:"capability,omitempty"`
}

// Field returns the descriptor declared under name.
func (s Schema) Field(name string) (FieldDescriptor, bool) {
	for _, field := range s.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldDescriptor{}, false
}

// Clone returns a deep copy of the schema.
func (s Schema) Clone() Schema {
	out := s
	if s.Fields != nil {
		out.Fields = make([]FieldDescriptor, len(s.Fields))
		for i, field := range s.Fields {
			out.Fields[i] = field.clone()
		}
	}
	if s.Capability != nil {
		capability := *s.Capability
		capability.TagsSupported = cloneBool(s.Capability.TagsSupported)
		capability.MaxTags = cloneInt(s.Capability.MaxTags)
		capability.TagTransforms = append([]string(nil), s.Capability.TagTransforms...)
		out.Capability = &capability
	}
	return out
}

func (f FieldDescriptor) clone() FieldDescriptor {
	out := f
	out.MaxLength = cloneInt(f.MaxLength)
	out.MinLength = cloneInt(f.MinLength)
	out.MaxTags = cloneInt(f.MaxTags)
	out.MinTags = cloneInt(f.MinTags)
	if f.Choices != nil {
		out.Choices = append([]string(nil), f.Choices...)
	}
	return out
}

// Int returns a pointer to v, for building descriptors in code.
func Int(v int) *int {
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
