package schema

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
)

var (
	validateOnce sync.Once
	structCheck  *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
		structCheck = v
	})
	return structCheck
}

// Validate checks every schema in the table: descriptor struct rules,
// duplicate field names, min/max ordering, dialect names, and that tag and
// description fields only appear once per schema. All problems are joined
// into one error.
func Validate(table Table) error {
	var errs []error
	errs = append(errs, validateSchema("default", table.Default)...)
	for _, name := range table.Names() {
		errs = append(errs, validateSchema(name, table.Destinations[name])...)
	}
	return errors.Join(errs...)
}

func validateSchema(label string, s Schema) []error {
	var errs []error
	if err := structValidator().Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				errs = append(errs, fmt.Errorf("schema: %s: %s failed %q", label, fe.Namespace(), fe.Tag()))
			}
		} else {
			errs = append(errs, fmt.Errorf("schema: %s: %w", label, err))
		}
	}

	seen := make(map[string]struct{}, len(s.Fields))
	byKind := make(map[FieldKind][]string)
	for _, field := range s.Fields {
		if _, dup := seen[field.Name]; dup {
			errs = append(errs, fmt.Errorf("schema: %s: duplicate field %q", label, field.Name))
		}
		seen[field.Name] = struct{}{}
		byKind[field.Kind] = append(byKind[field.Kind], field.Name)

		if outOfOrder(field.MinLength, field.MaxLength) {
			errs = append(errs, fmt.Errorf("schema: %s: field %q minLength exceeds maxLength", label, field.Name))
		}
		if outOfOrder(field.MinTags, field.MaxTags) {
			errs = append(errs, fmt.Errorf("schema: %s: field %q minTags exceeds maxTags", label, field.Name))
		}
		if field.Dialect != "" {
			if _, err := model.ParseDialect(string(field.Dialect)); err != nil {
				errs = append(errs, fmt.Errorf("schema: %s: field %q: %w", label, field.Name, err))
			}
		}
		if field.Kind == KindSelect && len(field.Choices) == 0 {
			errs = append(errs, fmt.Errorf("schema: %s: select field %q declares no choices", label, field.Name))
		}
	}

	for _, kind := range []FieldKind{KindTag, KindDescription} {
		if names := byKind[kind]; len(names) > 1 {
			sort.Strings(names)
			errs = append(errs, fmt.Errorf("schema: %s: more than one %s field (%s)", label, kind, strings.Join(names, ", ")))
		}
	}
	if field, ok := s.Field(model.FieldTags); ok && field.Kind != KindTag {
		errs = append(errs, fmt.Errorf("schema: %s: field %q must be of kind %s", label, model.FieldTags, KindTag))
	}
	if field, ok := s.Field(model.FieldDescription); ok && field.Kind != KindDescription {
		errs = append(errs, fmt.Errorf("schema: %s: field %q must be of kind %s", label, model.FieldDescription, KindDescription))
	}

	if s.Capability != nil && s.Capability.Dialect != "" {
		if _, err := model.ParseDialect(string(s.Capability.Dialect)); err != nil {
			errs = append(errs, fmt.Errorf("schema: %s: capability: %w", label, err))
		}
	}
	return errs
}

func outOfOrder(lower, upper *int) bool {
	return lower != nil && upper != nil && *lower > *upper
}
