// Package testgen renders the tests of a generated service: shared test
// utilities, per-entity fakes and domain unit tests, and one integration test
// file per feature. Every identifier comes from the naming package, so tests
// always reference the symbols the feature and domain generators declare.
package testgen

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/template"
)

// DefaultRegistry holds a feature test generator for every feature kind
var DefaultRegistry = NewRegistry()

// NewRegistry returns a registry with every feature kind registered
func NewRegistry() *codegen.Registry {
	r := codegen.NewRegistry()
	for _, kind := range template.FeatureKinds {
		r.Register(kind, func() codegen.Generator {
			return codegen.GeneratorFunc(featureTestFile)
		})
	}
	return r
}

// Entity renders the fake builder and the domain unit tests of the unit entity
func Entity(u codegen.Unit) ([]codegen.Artifact, error) {
	if u.Entity == nil {
		return nil, u.Errorf("test generation needs an entity")
	}

	fakes, err := fakesFile(u)
	if err != nil {
		return nil, err
	}
	unit, err := unitTestFile(u)
	if err != nil {
		return nil, err
	}
	return []codegen.Artifact{fakes, unit}, nil
}
