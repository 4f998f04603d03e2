package project

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
		files[a.Path()] = string(a.Content)
	}
	return files
}

func TestGenerate_Files(t *testing.T) {
	// Test: Build files and the entrypoint land at the project root and src/cmd/api
	tmpl := testutil.Prepare(t, testutil.OrderTemplate)
	files := generate(t, tmpl)

	assert.Len(t, files, 4)
	for _, path := range []string{
		"/out/OrderService/go.mod",
		"/out/OrderService/.gitignore",
		"/out/OrderService/README.md",
		"/out/OrderService/src/cmd/api/main.go",
	} {
		assert.Contains(t, files, path)
	}
}

func TestGenerate_GoMod(t *testing.T) {
	// Test: go.mod names the kebab module and requires the provider driver
	tests := []struct {
		name    string
		doc     string
		driver  string
		withJWT bool
	}{
		{"postgres with auth", testutil.OrderTemplate, "gorm.io/driver/postgres v1.5.9", true},
		{"default provider", testutil.MinimalTemplate, "gorm.io/driver/postgres v1.5.9", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := testutil.Prepare(t, tt.doc)
			files := generate(t, tmpl)
			gomod := files["/out/"+tmpl.ProjectName+"/go.mod"]

			assert.True(t, strings.HasPrefix(gomod, "module "+layout.NewResolver(tmpl.ProjectName, "").ModulePath()+"\n"))
			assert.Contains(t, gomod, "\t"+tt.driver+"\n")
			assert.Contains(t, gomod, "\tgorm.io/gorm v1.25.12\n")
			assert.Equal(t, tt.withJWT, strings.Contains(gomod, "github.com/golang-jwt/jwt/v5"))
		})
	}
}

func TestRequirements_Sorted(t *testing.T) {
	// Test: Requirements are sorted by module path
	tmpl := testutil.Prepare(t, testutil.OrderTemplate)
	mods := Requirements(codegen.Unit{Template: tmpl})

	for i := 1; i < len(mods); i++ {
		assert.Less(t, mods[i-1].Path, mods[i].Path)
	}
}

func TestGenerate_Main(t *testing.T) {
	// Test: The entrypoint registers auth and swagger annotations only when configured
	tmpl := testutil.Prepare(t, testutil.OrderTemplate)
	tmpl.SwaggerConfig.AddSwaggerComments = true
	main := generate(t, tmpl)["/out/OrderService/src/cmd/api/main.go"]
	testutil.ParseGo(t, "main.go", []byte(main))

	assert.Contains(t, main, "package main\n")
	assert.Contains(t, main, `"order-service/src/infrastructure"`)
	assert.Contains(t, main, "infrastructure.RegisterAuth(router, settings)")
	assert.Contains(t, main, "// @title OrderService")

	minimal := testutil.Prepare(t, testutil.MinimalTemplate)
	plain := generate(t, minimal)["/out/Catalog/src/cmd/api/main.go"]
	testutil.ParseGo(t, "main.go", []byte(plain))
	assert.NotContains(t, plain, "RegisterAuth")
	assert.NotContains(t, plain, "@title")
}

func TestGenerate_Readme(t *testing.T) {
	// Test: The README lists every entity with its feature names
	tmpl := testutil.Prepare(t, testutil.OrderTemplate)
	readme := generate(t, tmpl)["/out/OrderService/README.md"]

	assert.Contains(t, readme, "# OrderService")
	assert.Contains(t, readme, "- **Order**: GetOrder, GetOrderList, AddOrder, UpdateOrder, DeleteOrder")
	assert.Contains(t, readme, "- **LineItem**: GetLineItemList, AddLineItemList, UpdateLineItemList")
}
