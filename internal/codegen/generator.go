package codegen

import (
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/template"
)

// Unit is the input of one generator call. Entity and Feature are set only for
// per-entity and per-feature generators.
type Unit struct {
	Template *template.ApiTemplate
	Entity   *template.Entity
	Feature  template.Feature
	Resolver layout.Resolver
}

// Artifact is one generated file
type Artifact struct {
	Location layout.Location
	Content  []byte
}

// Path returns the file path of the artifact
func (a Artifact) Path() string {
	return a.Location.Path()
}

// Generator is implemented by every per-feature code generator
type Generator interface {
	// Generate renders the artifact for the unit
	Generate(u Unit) (Artifact, error)
}

// GeneratorFunc adapts a function to the Generator interface
type GeneratorFunc func(u Unit) (Artifact, error)

// Generate calls f
func (f GeneratorFunc) Generate(u Unit) (Artifact, error) {
	return f(u)
}

// GoArtifact resolves kind for target and formats w as its Go source
func GoArtifact(u Unit, kind layout.ArtifactKind, target layout.Target, w *writer.Writer) (Artifact, error) {
	loc, err := u.Resolver.Resolve(kind, target)
	if err != nil {
		return Artifact{}, err
	}
	src, err := w.GoSource()
	if err != nil {
		return Artifact{}, u.Errorf("%s: %v", loc.FileName, err)
	}
	return Artifact{Location: loc, Content: src}, nil
}

// TextArtifact resolves kind for target with content taken as is
func TextArtifact(u Unit, kind layout.ArtifactKind, target layout.Target, content string) (Artifact, error) {
	loc, err := u.Resolver.Resolve(kind, target)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Location: loc, Content: []byte(content)}, nil
}

// Location resolves kind for target, used to learn the package name before rendering
func (u Unit) Location(kind layout.ArtifactKind, name string) (layout.Location, error) {
	return u.Resolver.Resolve(kind, layout.Target{Entity: u.Entity, Name: name})
}

// Imports creates an import set for a file of the generated module
func (u Unit) Imports() *writer.Imports {
	return writer.NewImports(u.Resolver.ModulePath())
}

// Import returns the import path of a generated package kind for the unit's
// entity, or for e when given
func (u Unit) Import(kind layout.ArtifactKind, e ...*template.Entity) string {
	entity := u.Entity
	if len(e) > 0 {
		entity = e[0]
	}
	return u.Resolver.MustImport(kind, entity)
}
