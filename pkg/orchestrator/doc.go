// Package orchestrator resolves one submission for many destinations at once:
// it builds each destination's capability from the schema table, issues a
// single batched converter lookup and fans the per-destination resolution out
// over a bounded worker group.
package orchestrator
