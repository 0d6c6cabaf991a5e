// Package submission decodes submission documents: the shared default record
// plus one record per destination, in YAML or JSON. Descriptions may be
// authored as BlockNote blocks, Markdown, HTML or plain text.
package submission

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/crosspost-dev/go-crosspost/pkg/model"
	"github.com/crosspost-dev/go-crosspost/pkg/richtext"
)

// Submission is a decoded submission document. Order lists the destination
// names in the order the document declares them.
type Submission struct {
	Defaults     model.Options
	Destinations map[string]model.Options
	Order        []string
}

// Destination returns the record for name. Undeclared destinations get an
// empty record, which resolves purely from the defaults.
func (s Submission) Destination(name string) model.Options {
	if options, ok := s.Destinations[name]; ok {
		return options
	}
	return model.Options{}
}

// Load reads and decodes the submission file at path.
func Load(path string) (Submission, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Submission{}, fmt.Errorf("submission: read %s: %w", path, err)
	}
	sub, err := Decode(data)
	if err != nil {
		return Submission{}, fmt.Errorf("submission: %s: %w", path, err)
	}
	return sub, nil
}

// LoadFS reads and decodes the submission file at path within fsys.
func LoadFS(fsys fs.FS, path string) (Submission, error) {
	if fsys == nil {
		return Submission{}, errors.New("submission: filesystem is nil")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return Submission{}, fmt.Errorf("submission: read %s: %w", path, err)
	}
	sub, err := Decode(data)
	if err != nil {
		return Submission{}, fmt.Errorf("submission: %s: %w", path, err)
	}
	return sub, nil
}

type rawSubmission struct {
	Defaults     rawOptions `yaml:"defaults"`
	Destinations yaml.Node  `yaml:"destinations"`
}

type rawOptions struct {
	Title          string         `yaml:"title"`
	ContentWarning string         `yaml:"contentWarning"`
	Tags           rawTags        `yaml:"tags"`
	Description    rawDescription `yaml:"description"`
	Rating         string         `yaml:"rating"`
	Fields         map[string]any `yaml:"fields"`
}

// rawTags accepts either a bare list or {overrideDefault, tags}.
type rawTags struct {
	OverrideDefault bool     `yaml:"overrideDefault"`
	Tags            []string `yaml:"tags"`
}

func (t *rawTags) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.SequenceNode {
		return node.Decode(&t.Tags)
	}
	type plain rawTags
	return node.Decode((*plain)(t))
}

// rawDescription accepts a bare string (plain text) or a mapping holding
// exactly one of blocks, markdown, html or text.
type rawDescription struct {
	OverrideDefault bool              `yaml:"overrideDefault"`
	InsertTitle     bool              `yaml:"insertTitle"`
	InsertTags      bool              `yaml:"insertTags"`
	Blocks          richtext.Document `yaml:"blocks"`
	Markdown        string            `yaml:"markdown"`
	HTML            string            `yaml:"html"`
	Text            string            `yaml:"text"`
}

func (d *rawDescription) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&d.Text)
	}
	type plain rawDescription
	return node.Decode((*plain)(d))
}

// Decode parses a YAML or JSON submission document.
func Decode(data []byte) (Submission, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Submission{}, errors.New("submission: document is empty")
	}
	var raw rawSubmission
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Submission{}, fmt.Errorf("submission: decode: %w", err)
	}

	defaults, err := raw.Defaults.options()
	if err != nil {
		return Submission{}, fmt.Errorf("submission: defaults: %w", err)
	}
	sub := Submission{
		Defaults:     defaults,
		Destinations: make(map[string]model.Options),
	}

	node := &raw.Destinations
	switch node.Kind {
	case 0:
		return sub, nil
	case yaml.MappingNode:
	default:
		return Submission{}, errors.New("submission: destinations must be a mapping")
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := strings.TrimSpace(node.Content[i].Value)
		if name == "" {
			return Submission{}, errors.New("submission: destination name is empty")
		}
		if _, dup := sub.Destinations[name]; dup {
			return Submission{}, fmt.Errorf("submission: destination %q declared twice", name)
		}
		var record rawOptions
		if err := node.Content[i+1].Decode(&record); err != nil {
			return Submission{}, fmt.Errorf("submission: %s: %w", name, err)
		}
		options, err := record.options()
		if err != nil {
			return Submission{}, fmt.Errorf("submission: %s: %w", name, err)
		}
		sub.Destinations[name] = options
		sub.Order = append(sub.Order, name)
	}
	return sub, nil
}

func (r rawOptions) options() (model.Options, error) {
	rating, err := model.ParseRating(r.Rating)
	if err != nil {
		return model.Options{}, err
	}
	document, err := r.Description.document()
	if err != nil {
		return model.Options{}, err
	}
	return model.Options{
		Title:          r.Title,
		ContentWarning: r.ContentWarning,
		Tags: model.TagSetting{
			OverrideDefault: r.Tags.OverrideDefault,
			Tags:            r.Tags.Tags,
		},
		Description: model.DescriptionSetting{
			OverrideDefault: r.Description.OverrideDefault,
			Document:        document,
			InsertTitle:     r.Description.InsertTitle,
			InsertTags:      r.Description.InsertTags,
		},
		Rating: rating,
		Fields: r.Fields,
	}, nil
}

func (d rawDescription) document() (richtext.Document, error) {
	sources := 0
	for _, set := range []bool{d.Blocks != nil, d.Markdown != "", d.HTML != "", d.Text != ""} {
		if set {
			sources++
		}
	}
	if sources > 1 {
		return nil, errors.New("description: use only one of blocks, markdown, html or text")
	}

	switch {
	case d.Blocks != nil:
		if err := d.Blocks.Validate(); err != nil {
			return nil, fmt.Errorf("description: %w", err)
		}
		return d.Blocks, nil
	case d.Markdown != "":
		return richtext.FromMarkdown(d.Markdown), nil
	case d.HTML != "":
		doc, err := richtext.FromHTML(d.HTML)
		if err != nil {
			return nil, fmt.Errorf("description: %w", err)
		}
		return doc, nil
	case d.Text != "":
		return plainDocument(d.Text), nil
	default:
		return richtext.Document{}, nil
	}
}

// plainDocument turns each non-blank line into a paragraph.
func plainDocument(text string) richtext.Document {
	doc := richtext.Document{}
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		doc = append(doc, richtext.Paragraph(richtext.Text(line)))
	}
	return doc
}
