package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed builtin/*
var builtinSchemas embed.FS

// EmbeddedFS returns the bundled destination schemas. Pass it to LoadFS to
// start from the stock table.
func EmbeddedFS() fs.FS {
	sub, err := fs.Sub(builtinSchemas, "builtin")
	if err != nil {
		panic(err)
	}
	return sub
}

type tableFile struct {
	Default      *Schema           `json:"default" yaml:"default"`
	Destinations map[string]Schema `json:"destinations" yaml:"destinations"`
}

// LoadFS walks fsys and merges every JSON/YAML schema file into one table.
// Each file may declare the default schema and any number of destinations.
// The default schema may only be declared once, and a destination may not
// be declared in two files. The merged table is validated before it is
// returned.
func LoadFS(fsys fs.FS) (Table, error) {
	table := NewTable(Schema{})
	if fsys == nil {
		return table, nil
	}

	var defaultSource string
	origins := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isSchemaFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("schema: read %s: %w", path, err)
		}
		doc, err := parseTableFile(data, path)
		if err != nil {
			return err
		}

		if doc.Default != nil {
			if defaultSource != "" {
				return fmt.Errorf("schema: default schema declared in both %s and %s", defaultSource, path)
			}
			defaultSource = path
			table.Default = normaliseSchema(*doc.Default, "")
		}

		for name, raw := range doc.Destinations {
			id := strings.TrimSpace(name)
			if id == "" {
				return fmt.Errorf("schema: file %s declares a destination with an empty name", path)
			}
			if prior, exists := origins[id]; exists {
				return fmt.Errorf("schema: duplicate destination %q (files %s and %s)", id, prior, path)
			}
			origins[id] = path
			table.Destinations[id] = normaliseSchema(raw, id)
		}
		return nil
	})
	if err != nil {
		return Table{}, err
	}

	if err := Validate(table); err != nil {
		return Table{}, err
	}
	return table, nil
}

func parseTableFile(data []byte, source string) (tableFile, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return tableFile{}, fmt.Errorf("schema: file %s is empty", source)
	}

	var doc tableFile
	if strings.EqualFold(filepath.Ext(source), ".json") {
		if err := json.Unmarshal(data, &doc); err != nil {
			return tableFile{}, fmt.Errorf("schema: parse %s: %w", source, err)
		}
		return doc, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return tableFile{}, fmt.Errorf("schema: parse %s: %w", source, err)
	}
	return doc, nil
}

func normaliseSchema(raw Schema, destination string) Schema {
	out := raw.Clone()
	out.Destination = destination
	for i := range out.Fields {
		out.Fields[i].Name = strings.TrimSpace(out.Fields[i].Name)
		out.Fields[i].Kind = FieldKind(strings.ToLower(strings.TrimSpace(string(out.Fields[i].Kind))))
	}
	return out
}

func isSchemaFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
