package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrAnnotation        = errors.New("annotation failed")
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrNothingSelected   = errors.New("no terms selected")
)
