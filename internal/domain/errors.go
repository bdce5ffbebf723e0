package domain

import "errors"

var (
	// ErrBadArguments reports malformed or missing required input.
	ErrBadArguments = errors.New("bad arguments")

	// ErrNamespaceNotTrained reports a read against a namespace that has never been trained.
	ErrNamespaceNotTrained = errors.New("namespace not trained yet")

	// ErrClassifierOperation reports that the wrapped classifier rejected, failed or panicked.
	ErrClassifierOperation = errors.New("classifier operation failed")
)
