package cli

import "errors"

var (
	errUnexpectedArgs = errors.New("unexpected arguments")
	errLabelRequired  = errors.New("label is required")
)
