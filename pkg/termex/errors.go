package termex

import (
	"errors"
	"fmt"

	"github.com/cognicore/termex/pkg/termex/internalerr"
)

// AnnotationError reports a tagger failure on one chunk. It matches
// internalerr.ErrAnnotation with errors.Is.
type AnnotationError struct {
	Chunk int
	Err   error
}

func (e *AnnotationError) Error() string {
	return fmt.Sprintf("annotate chunk %d: %v", e.Chunk, e.Err)
}

func (e *AnnotationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is internalerr.ErrAnnotation.
func (e *AnnotationError) Is(target error) bool {
	return target == internalerr.ErrAnnotation
}

// IsInputError reports whether err rejects the source text.
func IsInputError(err error) bool {
	return errors.Is(err, internalerr.ErrInvalidInput)
}

// IsConfigError reports whether err rejects the run configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, internalerr.ErrInvalidConfig)
}
