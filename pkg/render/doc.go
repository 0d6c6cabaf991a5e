// Package render turns rich documents into dialect-specific description
// markup. A single tree walker drives per-dialect Emitter strategies; adding
// a dialect means registering one more emitter.
package render
