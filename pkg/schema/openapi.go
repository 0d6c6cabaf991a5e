package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
)

// DefaultSchemaName is the component schema holding the default record.
const DefaultSchemaName = "default"

const (
	extensionKind       = "x-crosspost-kind"
	extensionDialect    = "x-crosspost-dialect"
	extensionCapability = "x-crosspost-capability"
	extensionOrder      = "x-crosspost-order"
)

// LoadOpenAPI builds a table from the components.schemas section of an
// OpenAPI 3 document. The schema named "default" becomes the default record;
// every other object schema is a destination. Property constraints map onto
// descriptors: maxLength/minLength for text and description fields,
// maxItems/minItems for tag fields. Kinds are inferred from the property
// type unless x-crosspost-kind says otherwise.
func LoadOpenAPI(ctx context.Context, data []byte) (Table, error) {
	if len(data) == 0 {
		return Table{}, errors.New("schema: openapi document is empty")
	}

	loader := openapi3.NewLoader()
	loader.Context = ctx
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return Table{}, fmt.Errorf("schema: load openapi document: %w", err)
	}
	if doc.Components == nil || len(doc.Components.Schemas) == 0 {
		return Table{}, errors.New("schema: openapi document declares no component schemas")
	}

	table := NewTable(Schema{})
	for name, ref := range doc.Components.Schemas {
		if ref == nil || ref.Value == nil {
			continue
		}
		converted, err := convertComponent(name, ref.Value)
		if err != nil {
			return Table{}, err
		}
		if name == DefaultSchemaName {
			converted.Destination = ""
			table.Default = converted
			continue
		}
		table.Destinations[name] = converted
	}

	if err := Validate(table); err != nil {
		return Table{}, err
	}
	return table, nil
}

func convertComponent(name string, src *openapi3.Schema) (Schema, error) {
	out := Schema{Destination: name}

	if raw, ok := src.Extensions[extensionCapability]; ok {
		spec, err := decodeCapability(raw)
		if err != nil {
			return Schema{}, fmt.Errorf("schema: component %q: %w", name, err)
		}
		out.Capability = &spec
	}

	type ordered struct {
		order int
		name  string
		field FieldDescriptor
	}
	fields := make([]ordered, 0, len(src.Properties))
	for propName, prop := range src.Properties {
		if prop == nil || prop.Value == nil {
			continue
		}
		field, err := convertProperty(propName, prop.Value, src.Required)
		if err != nil {
			return Schema{}, fmt.Errorf("schema: component %q: %w", name, err)
		}
		fields = append(fields, ordered{
			order: intExtension(prop.Value.Extensions[extensionOrder]),
			name:  propName,
			field: field,
		})
	}
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].order != fields[j].order {
			return fields[i].order < fields[j].order
		}
		return fields[i].name < fields[j].name
	})
	for _, entry := range fields {
		out.Fields = append(out.Fields, entry.field)
	}
	return out, nil
}

func convertProperty(name string, src *openapi3.Schema, required []string) (FieldDescriptor, error) {
	kind, err := propertyKind(name, src)
	if err != nil {
		return FieldDescriptor{}, fmt.Errorf("property %q: %w", name, err)
	}

	field := FieldDescriptor{Name: name, Kind: kind}
	for _, req := range required {
		if req == name {
			field.Required = true
			break
		}
	}

	switch kind {
	case KindTag:
		if src.MaxItems != nil {
			field.MaxTags = Int(int(*src.MaxItems))
		}
		if src.MinItems != 0 {
			field.MinTags = Int(int(src.MinItems))
		}
	default:
		if src.MaxLength != nil {
			field.MaxLength = Int(int(*src.MaxLength))
		}
		if src.MinLength != 0 {
			field.MinLength = Int(int(src.MinLength))
		}
	}

	if raw, ok := src.Extensions[extensionDialect].(string); ok {
		dialect, err := model.ParseDialect(raw)
		if err != nil {
			return FieldDescriptor{}, fmt.Errorf("property %q: %w", name, err)
		}
		field.Dialect = dialect
	}
	if kind == KindSelect {
		for _, value := range src.Enum {
			field.Choices = append(field.Choices, fmt.Sprint(value))
		}
	}
	return field, nil
}

func propertyKind(name string, src *openapi3.Schema) (FieldKind, error) {
	if raw, ok := src.Extensions[extensionKind].(string); ok {
		return ParseFieldKind(raw)
	}
	switch name {
	case model.FieldTags:
		return KindTag, nil
	case model.FieldDescription:
		return KindDescription, nil
	case model.FieldRating:
		return KindRating, nil
	}
	switch {
	case src.Type.Is(openapi3.TypeArray):
		return KindTag, nil
	case src.Type.Is(openapi3.TypeBoolean):
		return KindBoolean, nil
	case src.Type.Is(openapi3.TypeString) && len(src.Enum) > 0:
		return KindSelect, nil
	default:
		return KindText, nil
	}
}

func decodeCapability(raw any) (CapabilitySpec, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return CapabilitySpec{}, fmt.Errorf("encode %s: %w", extensionCapability, err)
	}
	var spec CapabilitySpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return CapabilitySpec{}, fmt.Errorf("decode %s: %w", extensionCapability, err)
	}
	return spec, nil
}

func intExtension(raw any) int {
	switch v := raw.(type) {
	case float64:
		return int(v)
	case int:
		return v
	case json.Number:
		n, _ := v.Int64()
		return int(n)
	case string:
		var n int
		if _, err := fmt.Sscan(strings.TrimSpace(v), &n); err == nil {
			return n
		}
	}
	return 0
}
