// Package richtext defines the dialect-independent description document: an
// ordered list of blocks, each holding styled text runs and links. Documents
// round-trip through the BlockNote JSON block array, can be imported from
// Markdown or HTML, and expose text-aware helpers (length, truncation) that
// renderers use to enforce character ceilings without splitting markup.
package richtext
