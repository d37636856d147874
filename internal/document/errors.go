package document

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a revision cannot be appended: the
// action is not legal for the current state, the identity changed, or the
// reference goes back in block order.
var ErrInvalidTransition = errors.New("invalid document transition")

// IncompleteOriginError reports a provenance input that is missing a
// required field. It is returned at construction time.
type IncompleteOriginError struct {
	// Kind names the input, e.g. "reference" or "quorum member".
	Kind string

	// Field is the missing or invalid field.
	Field string
}

// Error implements the error interface.
func (e *IncompleteOriginError) Error() string {
	return fmt.Sprintf("%s info doesn't contain %s", e.Kind, e.Field)
}

// IsIncompleteOrigin reports whether err is an IncompleteOriginError.
func IsIncompleteOrigin(err error) bool {
	var ie *IncompleteOriginError
	return errors.As(err, &ie)
}
