package codegen

import (
	"errors"
	"fmt"
)

// ErrGeneration is the sentinel every GenerationError unwraps to
var ErrGeneration = errors.New("code generation failed")

// GenerationError reports a fragment that could not be rendered
type GenerationError struct {
	Entity  string
	Feature string
	Message string
}

func (e *GenerationError) Error() string {
	var scope string
	switch {
	case e.Entity != "" && e.Feature != "":
		scope = fmt.Sprintf("%s %s: ", e.Entity, e.Feature)
	case e.Entity != "":
		scope = e.Entity + ": "
	}
	return "generation failed: " + scope + e.Message
}

func (e *GenerationError) Unwrap() error {
	return ErrGeneration
}

// Errorf builds a GenerationError scoped to the unit
func (u Unit) Errorf(format string, args ...any) error {
	ge := &GenerationError{Message: fmt.Sprintf(format, args...)}
	if u.Entity != nil {
		ge.Entity = u.Entity.Name
	}
	if u.Feature.Type != "" {
		ge.Feature = string(u.Feature.Type)
	}
	return ge
}
