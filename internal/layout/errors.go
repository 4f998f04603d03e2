package layout

import (
	"errors"
	"fmt"
)

// ErrResolution is the sentinel every ResolutionError unwraps to
var ErrResolution = errors.New("path resolution failed")

// ResolutionError reports an artifact that could not be placed
type ResolutionError struct {
	Kind   ArtifactKind
	Reason string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve %s: %s", e.Kind, e.Reason)
}

func (e *ResolutionError) Unwrap() error {
	return ErrResolution
}
