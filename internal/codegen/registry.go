package codegen

import (
	"sort"

	"github.com/okra-platform/apiforge/internal/template"
)

// Registry maps feature kinds to generator factories
type Registry struct {
	generators map[template.FeatureKind]func() Generator
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[template.FeatureKind]func() Generator),
	}
}

// Register adds a generator factory for kind, replacing any previous one
func (r *Registry) Register(kind template.FeatureKind, factory func() Generator) {
	r.generators[kind] = factory
}

// Get returns a generator for kind
func (r *Registry) Get(kind template.FeatureKind) (Generator, error) {
	factory, exists := r.generators[kind]
	if !exists {
		return nil, &GenerationError{Feature: string(kind), Message: "unsupported feature kind"}
	}

	return factory(), nil
}

// Generate renders the unit's feature with the generator registered for its kind
func (r *Registry) Generate(u Unit) (Artifact, error) {
	gen, err := r.Get(u.Feature.Type)
	if err != nil {
		return Artifact{}, err
	}
	return gen.Generate(u)
}

// Kinds returns the registered feature kinds, sorted
func (r *Registry) Kinds() []template.FeatureKind {
	kinds := make([]template.FeatureKind, 0, len(r.generators))
	for kind := range r.generators {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}
