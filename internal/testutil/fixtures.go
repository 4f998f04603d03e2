// Package testutil holds template fixtures and assertions shared by generator tests
package testutil

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/okra-platform/apiforge/internal/template"
	"github.com/stretchr/testify/require"
)

// OrderTemplate is a two-entity template exercising protected, paged and
// batch-scoped features
const OrderTemplate = `
projectName: OrderService
addJwtAuthentication: true
useSoftDelete: true
dbContext:
  provider: postgres
permissions:
  - name: CanAddOrders
    description: Allows add orders
entities:
  - name: Order
    properties:
      - name: Id
        type: guid
        isPrimaryKey: true
      - name: CustomerName
        type: string
      - name: Total
        type: decimal
      - name: PlacedAt
        type: datetime
      - name: ShippedAt
        type: datetime
        isNullable: true
      - name: LineItems
        type: string
        relationship: child
        foreignEntityName: LineItem
    features:
      - type: GetRecord
      - type: GetList
        isPaged: true
      - type: AddRecord
        isProtected: true
        permissionName: CanAddOrders
      - type: UpdateRecord
      - type: DeleteRecord
  - name: LineItem
    properties:
      - name: Id
        type: int
        isPrimaryKey: true
      - name: OrderId
        type: guid
        relationship: parent
        foreignEntityName: Order
      - name: Quantity
        type: int
      - name: Note
        type: string
        isNullable: true
    features:
      - type: GetList
      - type: AddRecordList
        parentEntity: Order
        batchPropertyName: OrderId
      - type: UpdateRecordList
`

// MinimalTemplate has one entity, no authentication and no soft delete
const MinimalTemplate = `
projectName: Catalog
entities:
  - name: Product
    properties:
      - name: Id
        type: int
        isPrimaryKey: true
      - name: Name
        type: string
    features:
      - type: GetRecord
      - type: AddRecord
`

// Prepare parses and validates doc
func Prepare(t *testing.T, doc string) *template.ApiTemplate {
	t.Helper()
	raw, err := template.Parse([]byte(doc))
	require.NoError(t, err)
	tmpl, err := template.Prepare(raw)
	require.NoError(t, err)
	return tmpl
}

// Entity returns the named entity of tmpl
func Entity(t *testing.T, tmpl *template.ApiTemplate, name string) *template.Entity {
	t.Helper()
	e, ok := tmpl.Entity(name)
	require.True(t, ok, "entity %s not found", name)
	return e
}

// Feature returns the first feature of e with the given kind
func Feature(t *testing.T, e *template.Entity, kind template.FeatureKind) template.Feature {
	t.Helper()
	for _, f := range e.Features {
		if f.Type == kind {
			return f
		}
	}
	require.Failf(t, "feature not found", "%s has no %s feature", e.Name, kind)
	return template.Feature{}
}

// ParseGo parses src as a Go file and fails the test when it is not valid Go
func ParseGo(t *testing.T, name string, src []byte) *ast.File {
	t.Helper()
	f, err := parser.ParseFile(token.NewFileSet(), name, src, parser.AllErrors)
	require.NoError(t, err, "generated %s is not valid Go:\n%s", name, src)
	return f
}

// Decls returns the names of the top-level funcs, methods and types of f.
// Methods are returned as "Recv.Name".
func Decls(f *ast.File) []string {
	var names []string
	for _, d := range f.Decls {
		switch d := d.(type) {
		case *ast.FuncDecl:
			name := d.Name.Name
			if d.Recv != nil && len(d.Recv.List) > 0 {
				name = recvName(d.Recv.List[0].Type) + "." + name
			}
			names = append(names, name)
		case *ast.GenDecl:
			for _, s := range d.Specs {
				if ts, ok := s.(*ast.TypeSpec); ok {
					names = append(names, ts.Name.Name)
				}
			}
		}
	}
	return names
}

func recvName(expr ast.Expr) string {
	switch e := expr.(type) {
	case *ast.StarExpr:
		return recvName(e.X)
	case *ast.Ident:
		return e.Name
	case *ast.IndexExpr:
		return recvName(e.X)
	case *ast.IndexListExpr:
		return recvName(e.X)
	}
	return ""
}

// Imports returns the unquoted import paths of f
func Imports(f *ast.File) []string {
	paths := make([]string, 0, len(f.Imports))
	for _, im := range f.Imports {
		paths = append(paths, strings.Trim(im.Path.Value, `"`))
	}
	return paths
}
