// Package tagconv implements the tag conversion table: user-maintained
// entries that translate a literal tag into per-destination equivalents.
//
// The resolution engine only reads from the table. Lookups are batched: one
// Source.Lookup call fetches the entries for a whole tag set, and the
// resulting Index answers Convert calls without further I/O.
package tagconv

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// DefaultKey is the ConvertTo key used when the destination has no entry.
const DefaultKey = "default"

// Store errors.
var (
	ErrNotFound      = errors.New("tagconv: entry not found")
	ErrAlreadyExists = errors.New("tagconv: tag already has an entry")
)

// Entry maps one literal tag to its per-destination replacements.
type Entry struct {
	ID        string            `json:"id" yaml:"id"`
	Tag       string            `json:"tag" yaml:"tag"`
	ConvertTo map[string]string `json:"convertTo" yaml:"convertTo"`
	CreatedAt time.Time         `json:"createdAt" yaml:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt" yaml:"updatedAt"`
}

// Source answers batched converter queries. Implementations return the
// entries whose Tag exactly matches one of tags; unknown tags are simply
// absent from the result.
type Source interface {
	Lookup(ctx context.Context, tags []string) ([]Entry, error)
}

// SourceFunc adapts a function into a Source.
type SourceFunc func(ctx context.Context, tags []string) ([]Entry, error)

// Lookup calls the underlying function.
func (fn SourceFunc) Lookup(ctx context.Context, tags []string) ([]Entry, error) {
	return fn(ctx, tags)
}

// Index is an immutable, exact-match view over a set of entries. The zero
// value converts nothing.
type Index struct {
	entries map[string]map[string]string
}

// NewIndex builds an index. When two entries share a tag the first wins.
func NewIndex(entries []Entry) Index {
	idx := Index{entries: make(map[string]map[string]string, len(entries))}
	for _, entry := range entries {
		if _, exists := idx.entries[entry.Tag]; exists {
			continue
		}
		convert := make(map[string]string, len(entry.ConvertTo))
		for key, value := range entry.ConvertTo {
			convert[key] = value
		}
		idx.entries[entry.Tag] = convert
	}
	return idx
}

// Fetch performs one batched lookup for tags and indexes the result. A nil
// source yields an empty index. Duplicate and empty tags are not sent.
func Fetch(ctx context.Context, source Source, tags []string) (Index, error) {
	if source == nil {
		return Index{}, nil
	}
	query := Unique(tags)
	if len(query) == 0 {
		return Index{}, nil
	}
	entries, err := source.Lookup(ctx, query)
	if err != nil {
		return Index{}, fmt.Errorf("tagconv: lookup %d tags: %w", len(query), err)
	}
	return NewIndex(entries), nil
}

// Convert returns the replacement for tag on destination. A present
// destination key wins even when its value is empty, so a converter can drop
// a tag for one destination. Otherwise the "default" key applies, and tags
// without an entry pass through unchanged.
func (i Index) Convert(destination, tag string) string {
	convert, ok := i.entries[tag]
	if !ok {
		return tag
	}
	if value, ok := convert[destination]; ok {
		return value
	}
	if value, ok := convert[DefaultKey]; ok {
		return value
	}
	return tag
}

// Len reports how many tags the index knows about.
func (i Index) Len() int {
	return len(i.entries)
}

// Unique returns the non-empty tags of in, first occurrence kept.
func Unique(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, tag := range in {
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
