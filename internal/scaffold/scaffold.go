// Package scaffold runs the generators over a template in a fixed phase
// order: validation, project skeleton, data context, authorization, the
// per-entity pipeline and finally the cross-cutting infrastructure. Later
// phases reference names declared by earlier ones, so phases never reorder.
package scaffold

import (
	"context"
	"fmt"

	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/authz"
	"github.com/okra-platform/apiforge/internal/codegen/datacontext"
	"github.com/okra-platform/apiforge/internal/codegen/domain"
	"github.com/okra-platform/apiforge/internal/codegen/features"
	"github.com/okra-platform/apiforge/internal/codegen/infra"
	"github.com/okra-platform/apiforge/internal/codegen/project"
	"github.com/okra-platform/apiforge/internal/codegen/testgen"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/output"
	"github.com/okra-platform/apiforge/internal/template"
)

// Options tune a run
type Options struct {
	// Atomic renders every phase before writing anything, so a failing run
	// leaves the target untouched. Otherwise each phase is written as soon as
	// it is rendered and a failure keeps what earlier phases wrote.
	Atomic bool
	// Features and Tests override the per-feature generator registries
	Features *codegen.Registry
	Tests    *codegen.Registry
}

// Result describes a completed run
type Result struct {
	Template *template.ApiTemplate
	// ProjectDir is the root of the generated project
	ProjectDir string
	// Paths lists the written files in write order
	Paths []string
}

// Scaffolder generates projects from templates
type Scaffolder struct {
	out    *output.Writer
	status Status
	opts   Options
}

// New creates a scaffolder writing through fs. A nil status discards progress.
func New(fs output.FileSystem, status Status, opts Options) *Scaffolder {
	if status == nil {
		status = NopStatus{}
	}
	if opts.Features == nil {
		opts.Features = features.DefaultRegistry
	}
	if opts.Tests == nil {
		opts.Tests = testgen.DefaultRegistry
	}
	return &Scaffolder{
		out:    output.NewWriter(fs),
		status: status,
		opts:   opts,
	}
}

type run struct {
	s       *Scaffolder
	unit    codegen.Unit
	result  *Result
	pending []codegen.Artifact
}

// Scaffold validates raw and generates its project under rootDir. raw is not modified.
func (s *Scaffolder) Scaffold(ctx context.Context, raw *template.ApiTemplate, rootDir string) (*Result, error) {
	s.status.PhaseStarted(PhaseValidate)
	tmpl, err := template.Prepare(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid template: %w", err)
	}
	s.status.PhaseCompleted(PhaseValidate, 0)

	resolver := layout.NewResolver(tmpl.ProjectName, rootDir)
	r := &run{
		s:      s,
		unit:   codegen.Unit{Template: tmpl, Resolver: resolver},
		result: &Result{Template: tmpl, ProjectDir: resolver.ProjectDir()},
	}

	phases := []struct {
		phase Phase
		gen   func() ([]codegen.Artifact, error)
	}{
		{PhaseProject, r.project},
		{PhaseDataContext, func() ([]codegen.Artifact, error) { return datacontext.Generate(r.unit) }},
		{PhaseAuthorization, func() ([]codegen.Artifact, error) { return authz.Generate(r.unit) }},
		{PhaseEntities, r.entities},
		{PhaseInfrastructure, func() ([]codegen.Artifact, error) { return infra.Generate(r.unit) }},
	}

	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			return r.result, err
		}

		s.status.PhaseStarted(p.phase)
		arts, err := p.gen()
		if err != nil {
			return r.result, fmt.Errorf("%s phase failed: %w", p.phase, err)
		}
		if err := r.emit(arts); err != nil {
			return r.result, fmt.Errorf("%s phase failed: %w", p.phase, err)
		}
		s.status.PhaseCompleted(p.phase, len(arts))
	}

	if err := ctx.Err(); err != nil {
		return r.result, err
	}
	if err := r.flush(); err != nil {
		return r.result, err
	}
	return r.result, nil
}

// emit writes arts now or, in atomic mode, holds them until every phase succeeded
func (r *run) emit(arts []codegen.Artifact) error {
	if r.s.opts.Atomic {
		r.pending = append(r.pending, arts...)
		return nil
	}
	return r.write(arts)
}

func (r *run) flush() error {
	arts := r.pending
	r.pending = nil
	return r.write(arts)
}

func (r *run) write(arts []codegen.Artifact) error {
	for _, a := range arts {
		path := a.Path()
		if err := r.s.out.CreateFile(path, a.Content); err != nil {
			return err
		}
		r.result.Paths = append(r.result.Paths, path)
		r.s.status.FileWritten(path)
	}
	return nil
}

// project renders the build files, the shared test utilities and the paged
// list tests
func (r *run) project() ([]codegen.Artifact, error) {
	arts, err := project.Generate(r.unit)
	if err != nil {
		return nil, err
	}
	shared, err := testgen.Shared(r.unit)
	if err != nil {
		return nil, err
	}
	paged, err := testgen.PagedListTest(r.unit)
	if err != nil {
		return nil, err
	}
	return append(arts, shared, paged), nil
}

// entities renders, per entity in declaration order, the domain layer, then
// its features, then its tests
func (r *run) entities() ([]codegen.Artifact, error) {
	t := r.unit.Template
	var all []codegen.Artifact
	for i := range t.Entities {
		u := r.unit
		u.Entity = &t.Entities[i]

		arts, err := domain.Generate(u)
		if err != nil {
			return nil, err
		}
		all = append(all, arts...)

		feats, err := r.perFeature(u, r.s.opts.Features)
		if err != nil {
			return nil, err
		}
		all = append(all, feats...)

		tests, err := testgen.Entity(u)
		if err != nil {
			return nil, err
		}
		all = append(all, tests...)

		featureTests, err := r.perFeature(u, r.s.opts.Tests)
		if err != nil {
			return nil, err
		}
		all = append(all, featureTests...)
	}
	return all, nil
}

func (r *run) perFeature(u codegen.Unit, registry *codegen.Registry) ([]codegen.Artifact, error) {
	arts := make([]codegen.Artifact, 0, len(u.Entity.Features))
	for _, f := range u.Entity.Features {
		u.Feature = f
		art, err := registry.Generate(u)
		if err != nil {
			return nil, err
		}
		arts = append(arts, art)
	}
	return arts, nil
}
