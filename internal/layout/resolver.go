// Package layout maps generated artifacts to directories, Go import paths and
// file names. Every generator asks the same Resolver, so a test file always
// lives where the code it exercises expects it.
package layout

import (
	"path"
	"path/filepath"
	"strconv"

	"github.com/okra-platform/apiforge/internal/template"
	"github.com/okra-platform/apiforge/internal/textcase"
)

// ArtifactKind identifies a family of generated files
type ArtifactKind int

const (
	ProjectFile ArtifactKind = iota
	ApiEntrypoint
	EntityDomain
	EntityModels
	EntityDtos
	DomainEvents
	Exceptions
	DataContext
	Authorization
	Infrastructure
	Feature
	FeatureTest
	EntityUnitTest
	FakeBuilder
	TestUtilities
	AppSettings
	ContainerFile
	GithubWorkflow
	DependencyBot
	Resources
	ResourcesUnitTest
)

var kindNames = map[ArtifactKind]string{
	ProjectFile:    "ProjectFile",
	ApiEntrypoint:  "ApiEntrypoint",
	EntityDomain:   "EntityDomain",
	EntityModels:   "EntityModels",
	EntityDtos:     "EntityDtos",
	DomainEvents:   "DomainEvents",
	Exceptions:     "Exceptions",
	DataContext:    "DataContext",
	Authorization:  "Authorization",
	Infrastructure: "Infrastructure",
	Feature:        "Feature",
	FeatureTest:    "FeatureTest",
	EntityUnitTest: "EntityUnitTest",
	FakeBuilder:    "FakeBuilder",
	TestUtilities:  "TestUtilities",
	AppSettings:    "AppSettings",
	ContainerFile:  "ContainerFile",
	GithubWorkflow: "GithubWorkflow",
	DependencyBot:  "DependencyBot",

	Resources:         "Resources",
	ResourcesUnitTest: "ResourcesUnitTest",
}

func (k ArtifactKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "ArtifactKind(" + strconv.Itoa(int(k)) + ")"
}

// Target names what is being placed: the entity for per-entity kinds and the
// artifact name for kinds that hold several files.
type Target struct {
	Entity *template.Entity
	Name   string
}

// Location is where an artifact is written and how Go code refers to it
type Location struct {
	// Dir is the absolute output directory
	Dir string
	// Namespace is the Go import path, empty for non-Go files
	Namespace string
	// Package is the Go package name, empty for non-Go files
	Package  string
	FileName string
}

// Path returns the full file path
func (l Location) Path() string {
	return filepath.Join(l.Dir, l.FileName)
}

// Resolver computes artifact locations for one project
type Resolver struct {
	ProjectName string
	RootDir     string
}

// NewResolver creates a resolver for the project rooted at rootDir
func NewResolver(projectName, rootDir string) Resolver {
	return Resolver{ProjectName: projectName, RootDir: rootDir}
}

// ModulePath is the Go module path of the generated project
func (r Resolver) ModulePath() string {
	return textcase.Kebab(r.ProjectName)
}

// ProjectDir is the root directory of the generated project
func (r Resolver) ProjectDir() string {
	return filepath.Join(r.RootDir, r.ProjectName)
}

// EntityPackage is the package name used for an entity's domain, feature and
// test directories
func EntityPackage(e *template.Entity) string {
	return textcase.Lower(e.Plural)
}

// Import returns the import path of a per-entity or shared Go package kind
func (r Resolver) Import(kind ArtifactKind, e *template.Entity) (string, error) {
	loc, err := r.Resolve(kind, Target{Entity: e, Name: "x"})
	if err != nil {
		return "", err
	}
	return loc.Namespace, nil
}

// MustImport is Import for kinds known to resolve; it panics on error
func (r Resolver) MustImport(kind ArtifactKind, e *template.Entity) string {
	ns, err := r.Import(kind, e)
	if err != nil {
		panic(err)
	}
	return ns
}

// Resolve returns where the artifact of kind for target lives
func (r Resolver) Resolve(kind ArtifactKind, target Target) (Location, error) {
	if r.ProjectName == "" {
		return Location{}, &ResolutionError{Kind: kind, Reason: "project name is empty"}
	}

	rule, ok := rules[kind]
	if !ok {
		return Location{}, &ResolutionError{Kind: kind, Reason: "unknown artifact kind"}
	}
	if rule.perEntity && target.Entity == nil {
		return Location{}, &ResolutionError{Kind: kind, Reason: "an entity is required"}
	}
	if rule.fixed == "" && target.Name == "" {
		return Location{}, &ResolutionError{Kind: kind, Reason: "an artifact name is required"}
	}

	rel := rule.dir
	if rule.perEntity {
		rel = path.Join(rel, EntityPackage(target.Entity))
	}
	if rule.sub != "" {
		rel = path.Join(rel, rule.sub)
	}
	if kind == ContainerFile && rootContainerFiles[target.Name] {
		rel = "."
	}

	fileName := target.Name
	switch {
	case rule.fixed != "":
		fileName = rule.fixed
	case rule.fileName != nil:
		fileName = rule.fileName(target.Name)
	}

	loc := Location{
		Dir:      filepath.Join(r.ProjectDir(), filepath.FromSlash(rel)),
		FileName: fileName,
	}
	if rule.goPackage {
		loc.Namespace = path.Join(r.ModulePath(), rel)
		loc.Package = path.Base(rel)
		if kind == ApiEntrypoint {
			loc.Package = "main"
		}
	}
	return loc, nil
}

// rootContainerFiles live at the project root, the build context of the compose file
var rootContainerFiles = map[string]bool{
	"docker-compose.yaml": true,
	".dockerignore":       true,
}

type rule struct {
	dir       string
	sub       string
	perEntity bool
	goPackage bool
	fixed     string
	// fileName derives the file name from the target name; nil keeps the name as is
	fileName func(name string) string
}

func goFile(name string) string {
	return textcase.Snake(name) + ".go"
}

func goTestFile(name string) string {
	return textcase.Snake(name) + "_test.go"
}

var rules = map[ArtifactKind]rule{
	ProjectFile:    {dir: "."},
	ApiEntrypoint:  {dir: "src/cmd/api", goPackage: true, fixed: "main.go"},
	EntityDomain:   {dir: "src/domain", perEntity: true, goPackage: true, fileName: goFile},
	EntityModels:   {dir: "src/domain", sub: "models", perEntity: true, goPackage: true, fileName: goFile},
	EntityDtos:     {dir: "src/domain", sub: "dtos", perEntity: true, goPackage: true, fileName: goFile},
	DomainEvents:   {dir: "src/domain/shared/events", goPackage: true, fileName: goFile},
	Exceptions:     {dir: "src/exceptions", goPackage: true, fileName: goFile},
	DataContext:    {dir: "src/databases", goPackage: true, fileName: goFile},
	Authorization:  {dir: "src/auth", goPackage: true, fileName: goFile},
	Infrastructure: {dir: "src/infrastructure", goPackage: true, fileName: goFile},
	Feature:        {dir: "src/features", perEntity: true, goPackage: true, fileName: goFile},
	FeatureTest:    {dir: "tests/integration/features", perEntity: true, goPackage: true, fileName: goTestFile},
	EntityUnitTest: {dir: "tests/unit/domain", perEntity: true, goPackage: true, fileName: goTestFile},
	FakeBuilder:    {dir: "tests/fakes", perEntity: true, goPackage: true, fileName: func(name string) string { return "fake_" + goFile(name) }},
	TestUtilities:  {dir: "tests/testutil", goPackage: true, fileName: goFile},
	AppSettings:    {dir: "src/config"},
	ContainerFile:  {dir: "src"},
	GithubWorkflow: {dir: ".github/workflows", fileName: func(name string) string { return textcase.Kebab(name) + ".yaml" }},
	DependencyBot:  {dir: ".github", fixed: "dependabot.yaml"},

	Resources:         {dir: "src/resources", goPackage: true, fileName: goFile},
	ResourcesUnitTest: {dir: "tests/unit/resources", goPackage: true, fileName: goTestFile},
}
