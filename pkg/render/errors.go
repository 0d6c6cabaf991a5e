package render

import "errors"

var (
	// ErrUnsupportedDialect reports a dialect with no registered emitter and
	// no delegation rule. It is a configuration defect of the destination.
	ErrUnsupportedDialect = errors.New("render: unsupported description dialect")
	// ErrMissingRenderer reports a custom or runtime dialect whose
	// destination did not supply a renderer hook.
	ErrMissingRenderer = errors.New("render: custom dialect has no renderer hook")
)
