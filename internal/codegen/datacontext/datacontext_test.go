package datacontext

import (
	"strings"
	"testing"

	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/template"
	"github.com/okra-platform/apiforge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generate(t *testing.T, tmpl *template.ApiTemplate) map[string]string {
	t.Helper()
	arts, err := Generate(codegen.Unit{Template: tmpl, Resolver: layout.NewResolver(tmpl.ProjectName, "/out")})
	require.NoError(t, err)

	files := make(map[string]string, len(arts))
	for _, a := range arts {
		testutil.ParseGo(t, a.Location.FileName, a.Content)
		files[a.Path()] = string(a.Content)
	}
	return files
}

func TestGenerate_Files(t *testing.T) {
	// Test: The shared data-access files land in their packages
	tmpl := testutil.Prepare(t, testutil.OrderTemplate)
	files := generate(t, tmpl)

	assert.Len(t, files, 5)
	for _, path := range []string{
		"/out/OrderService/src/databases/order_service_db_context.go",
		"/out/OrderService/src/databases/entity_set.go",
		"/out/OrderService/src/resources/paged_list.go",
		"/out/OrderService/src/exceptions/exceptions.go",
		"/out/OrderService/src/domain/shared/events/domain_event.go",
	} {
		assert.Contains(t, files, path)
	}
}

func TestGenerate_Context(t *testing.T) {
	// Test: The context has one accessor per entity keyed by its primary key type
	tmpl := testutil.Prepare(t, testutil.OrderTemplate)
	src := generate(t, tmpl)["/out/OrderService/src/databases/order_service_db_context.go"]
	f := testutil.ParseGo(t, "order_service_db_context.go", []byte(src))

	assert.Equal(t, []string{
		"OrderServiceDbContext", "NewOrderServiceDbContext", "Open",
		"OrderServiceDbContext.DB", "OrderServiceDbContext.Migrate",
		"OrderServiceDbContext.Orders", "OrderServiceDbContext.LineItems",
	}, testutil.Decls(f))
	assert.Contains(t, src, "*EntitySet[orders.Order, uuid.UUID]")
	assert.Contains(t, src, "*EntitySet[lineitems.LineItem, int]")
	assert.Contains(t, src, `newEntitySet[orders.Order, uuid.UUID](c.db, "Order", "id")`)
	assert.Contains(t, src, "_ orders.OrderRepository")
	assert.Contains(t, testutil.Imports(f), "gorm.io/driver/postgres")
}

func TestGenerate_ContextWithoutEntities(t *testing.T) {
	// Test: A template without entities still yields a context with a no-op migration
	tmpl := &template.ApiTemplate{ProjectName: "Empty", DbContext: template.DataContextConfig{ContextName: "EmptyDbContext", Provider: "sqlite"}}
	src := generate(t, tmpl)["/out/Empty/src/databases/empty_db_context.go"]

	assert.Contains(t, src, "return nil")
	assert.Contains(t, src, "sqlite.Open(dsn)")
	assert.NotContains(t, src, "var (")
}

func TestGenerate_SoftDelete(t *testing.T) {
	// Test: Soft delete filters queries and flags rows instead of deleting them
	tests := []struct {
		name   string
		doc    string
		remove string
		filter bool
	}{
		{"enabled", testutil.OrderTemplate, "Update(softDeleteColumn, true)", true},
		{"disabled", testutil.MinimalTemplate, "Delete(entity)", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := testutil.Prepare(t, tt.doc)
			src := generate(t, tmpl)["/out/"+tmpl.ProjectName+"/src/databases/entity_set.go"]

			assert.Contains(t, src, tt.remove)
			assert.Equal(t, tt.filter, strings.Contains(src, `const softDeleteColumn = "is_deleted"`))
		})
	}
}

func TestGenerate_PagedList(t *testing.T) {
	// Test: Paged listings count the rows and return them with paging metadata
	tmpl := testutil.Prepare(t, testutil.MinimalTemplate)
	files := generate(t, tmpl)

	src := files["/out/Catalog/src/resources/paged_list.go"]
	f := testutil.ParseGo(t, "paged_list.go", []byte(src))
	assert.Equal(t, "resources", f.Name.Name)
	assert.Equal(t, []string{"PagedList", "NormalizePage", "NewPagedList", "Paginate", "MapPage"}, testutil.Decls(f))
	for _, field := range []string{"TotalCount", "TotalPages", "CurrentPageSize", "CurrentStartIndex", "CurrentEndIndex"} {
		assert.Contains(t, src, field)
	}

	set := files["/out/Catalog/src/databases/entity_set.go"]
	assert.Contains(t, set, "ListPage(ctx context.Context, pageNumber, pageSize int) (resources.PagedList[T], error)")
	assert.Contains(t, set, "s.query(ctx).Model(new(T)).Count(&total)")
	assert.Contains(t, set, "return resources.NewPagedList(entities, total, pageNumber, pageSize), nil")
	assert.Contains(t, testutil.Imports(testutil.ParseGo(t, "entity_set.go", []byte(set))), "catalog/src/resources")
}

func TestGenerate_Exceptions(t *testing.T) {
	// Test: Exceptions declare both sentinels and the not-found error
	tmpl := testutil.Prepare(t, testutil.MinimalTemplate)
	src := generate(t, tmpl)["/out/Catalog/src/exceptions/exceptions.go"]
	f := testutil.ParseGo(t, "exceptions.go", []byte(src))

	assert.Equal(t, []string{"NotFoundError", "NotFoundError.Error", "NotFoundError.Unwrap", "NewNotFound"}, testutil.Decls(f))
	assert.Contains(t, src, "ErrNotFound")
	assert.Contains(t, src, "ErrForbiddenAccess")
}

func TestSoftDeleteColumn(t *testing.T) {
	// Test: The soft-delete column follows the naming convention
	tests := []struct {
		convention string
		want       string
	}{
		{"snake_case", "is_deleted"},
		{"lower_case", "isdeleted"},
	}

	for _, tt := range tests {
		t.Run(tt.convention, func(t *testing.T) {
			tmpl := &template.ApiTemplate{DbContext: template.DataContextConfig{NamingConvention: tt.convention}}
			assert.Equal(t, tt.want, SoftDeleteColumn(tmpl))
		})
	}
}
