package authz

import (
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

func TestGenerate_Disabled(t *testing.T) {
	// Test: Nothing is emitted without JWT authentication
	tmpl := testutil.Prepare(t, testutil.MinimalTemplate)
	assert.Empty(t, generate(t, tmpl))
}

func TestGenerate_Files(t *testing.T) {
	// Test: Authorization files land in the auth package and the registration in infrastructure
	tmpl := testutil.Prepare(t, testutil.OrderTemplate)
	files := generate(t, tmpl)

	assert.Len(t, files, 4)
	for _, path := range []string{
		"/out/OrderService/src/auth/permissions.go",
		"/out/OrderService/src/auth/roles.go",
		"/out/OrderService/src/auth/authorizer.go",
		"/out/OrderService/src/infrastructure/auth_registration.go",
	} {
		assert.Contains(t, files, path)
	}
}

func TestGenerate_Permissions(t *testing.T) {
	// Test: Every declared permission becomes a constant listed by AllPermissions
	tmpl := testutil.Prepare(t, testutil.OrderTemplate)
	src := generate(t, tmpl)["/out/OrderService/src/auth/permissions.go"]

	assert.Contains(t, src, `CanAddOrders Permission = "CanAddOrders"`)
	assert.Contains(t, src, "// CanAddOrders allows add orders")
	assert.Contains(t, src, "CanAddOrders,\n")
}

func TestGenerate_Authorizer(t *testing.T) {
	// Test: The authorizer wraps the forbidden sentinel
	tmpl := testutil.Prepare(t, testutil.OrderTemplate)
	src := generate(t, tmpl)["/out/OrderService/src/auth/authorizer.go"]
	f := testutil.ParseGo(t, "authorizer.go", []byte(src))

	assert.Equal(t, []string{
		"Authorizer", "rolesKey", "WithRoles", "RolesFromContext",
		"RoleAuthorizer", "NewRoleAuthorizer", "RoleAuthorizer.HasPermission",
	}, testutil.Decls(f))
	assert.Contains(t, testutil.Imports(f), "order-service/src/exceptions")
	assert.Contains(t, src, "exceptions.ErrForbiddenAccess")
}

func TestGenerate_Registration(t *testing.T) {
	// Test: The gin middleware validates tokens with the JWT library
	tmpl := testutil.Prepare(t, testutil.OrderTemplate)
	src := generate(t, tmpl)["/out/OrderService/src/infrastructure/auth_registration.go"]
	f := testutil.ParseGo(t, "auth_registration.go", []byte(src))

	assert.Equal(t, []string{"RegisterAuth", "rolesFrom"}, testutil.Decls(f))
	assert.Contains(t, testutil.Imports(f), ImportJWT)
	assert.Contains(t, testutil.Imports(f), "order-service/src/auth")
}
