package scaffold

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/features"
	"github.com/okra-platform/apiforge/internal/output"
	"github.com/okra-platform/apiforge/internal/template"
	"github.com/okra-platform/apiforge/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const shopTemplate = `
projectName: Shop
entities:
  - name: Order
    properties:
      - name: Id
        type: int
        isPrimaryKey: true
      - name: CustomerName
        type: string
      - name: Total
        type: decimal
    features:
      - type: GetRecord
      - type: GetList
      - type: AddRecord
`

const protectedShopTemplate = `
projectName: Shop
addJwtAuthentication: true
permissions:
  - name: CanManageOrders
entities:
  - name: Order
    properties:
      - name: Id
        type: int
        isPrimaryKey: true
      - name: CustomerName
        type: string
    features:
      - type: GetRecord
        isProtected: true
        permissionName: CanManageOrders
      - type: GetList
        isProtected: true
        permissionName: CanManageOrders
      - type: AddRecord
        isProtected: true
        permissionName: CanManageOrders
`

const missingKeyTemplate = `
projectName: Shop
entities:
  - name: Order
    properties:
      - name: CustomerName
        type: string
    features:
      - type: GetRecord
`

type mockStatus struct {
	mock.Mock
}

func (m *mockStatus) PhaseStarted(phase Phase) {
	m.Called(phase)
}

func (m *mockStatus) PhaseCompleted(phase Phase, artifacts int) {
	m.Called(phase, artifacts)
}

func (m *mockStatus) FileWritten(path string) {
	m.Called(path)
}

func newMockStatus() *mockStatus {
	m := &mockStatus{}
	m.On("PhaseStarted", mock.Anything).Return()
	m.On("PhaseCompleted", mock.Anything, mock.Anything).Return()
	m.On("FileWritten", mock.Anything).Return()
	return m
}

func (m *mockStatus) started() []Phase {
	var phases []Phase
	for _, c := range m.Calls {
		if c.Method == "PhaseStarted" {
			phases = append(phases, c.Arguments.Get(0).(Phase))
		}
	}
	return phases
}

func parse(t *testing.T, doc string) *template.ApiTemplate {
	t.Helper()
	raw, err := template.Parse([]byte(doc))
	require.NoError(t, err)
	return raw
}

// readTree returns every file under dir keyed by its slash-separated relative path
func readTree(t *testing.T, dir string) map[string]string {
	t.Helper()
	files := make(map[string]string)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err)
	return files
}

func withPrefix(files map[string]string, prefix string) map[string]string {
	out := make(map[string]string)
	for path, content := range files {
		if strings.HasPrefix(path, prefix) {
			out[strings.TrimPrefix(path, prefix)] = content
		}
	}
	return out
}

func keys(files map[string]string) []string {
	out := make([]string, 0, len(files))
	for k := range files {
		out = append(out, k)
	}
	return out
}

func TestScaffold_UnprotectedFeatures(t *testing.T) {
	// Test: Three unprotected features yield three handlers, three feature tests and no permission checks
	root := t.TempDir()
	status := newMockStatus()

	result, err := New(output.OSFileSystem{}, status, Options{}).Scaffold(context.Background(), parse(t, shopTemplate), root)
	require.NoError(t, err)

	files := readTree(t, root)
	assert.ElementsMatch(t, []string{"get_order.go", "get_order_list.go", "add_order.go"},
		keys(withPrefix(files, "Shop/src/features/orders/")))
	assert.ElementsMatch(t, []string{"get_order_test.go", "get_order_list_test.go", "add_order_test.go"},
		keys(withPrefix(files, "Shop/tests/integration/features/orders/")))

	for path, content := range files {
		assert.NotContains(t, content, "HasPermission", path)
		if strings.HasSuffix(path, ".go") {
			testutil.ParseGo(t, path, []byte(content))
		}
	}
	assert.Contains(t, files, "Shop/src/resources/paged_list.go")
	assert.Contains(t, files, "Shop/tests/unit/resources/paged_list_test.go")
	assert.Len(t, result.Paths, len(files))
	assert.Equal(t, filepath.Join(root, "Shop"), result.ProjectDir)
	assert.Equal(t, []Phase{PhaseValidate, PhaseProject, PhaseDataContext, PhaseAuthorization, PhaseEntities, PhaseInfrastructure}, status.started())
	status.AssertNumberOfCalls(t, "FileWritten", len(files))
}

func TestScaffold_ProtectedFeatures(t *testing.T) {
	// Test: Every protected handler checks the permission and every feature test gains a forbidden case
	root := t.TempDir()

	_, err := New(nil, nil, Options{}).Scaffold(context.Background(), parse(t, protectedShopTemplate), root)
	require.NoError(t, err)

	files := readTree(t, root)
	handlers := withPrefix(files, "Shop/src/features/orders/")
	require.Len(t, handlers, 3)
	for name, content := range handlers {
		assert.Contains(t, content, "h.authorizer.HasPermission(ctx, auth.CanManageOrders)", name)
	}

	tests := withPrefix(files, "Shop/tests/integration/features/orders/")
	require.Len(t, tests, 3)
	for name, content := range tests {
		assert.Contains(t, content, "_Forbidden(t *testing.T)", name)
	}
	assert.Contains(t, files, "Shop/src/auth/permissions.go")
}

func TestScaffold_BatchParentLookup(t *testing.T) {
	// Test: A batch feature resolves its parent by the batch key only when one is configured
	tests := []struct {
		name     string
		batchKey bool
	}{
		{"with batch key", true},
		{"without batch key", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := parse(t, testutil.OrderTemplate)
			if !tt.batchKey {
				raw.Entities[1].Features[1].ParentEntity = ""
				raw.Entities[1].Features[1].BatchPropertyName = ""
			}
			root := t.TempDir()

			_, err := New(nil, nil, Options{}).Scaffold(context.Background(), raw, root)
			require.NoError(t, err)

			data, err := os.ReadFile(filepath.Join(root, "OrderService", "src", "features", "lineitems", "add_line_item_list.go"))
			require.NoError(t, err)
			assert.Equal(t, tt.batchKey, strings.Contains(string(data), "h.db.Orders().GetByID(ctx, command.OrderID)"))
		})
	}
}

func TestScaffold_ValidationFailure(t *testing.T) {
	// Test: A missing primary key fails before anything is written
	root := t.TempDir()
	status := newMockStatus()

	result, err := New(nil, status, Options{}).Scaffold(context.Background(), parse(t, missingKeyTemplate), root)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, template.ErrModelValidation))

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, []Phase{PhaseValidate}, status.started())
	status.AssertNotCalled(t, "FileWritten", mock.Anything)
}

func TestScaffold_Idempotent(t *testing.T) {
	// Test: Generating twice into the same directory produces the same tree
	root := t.TempDir()
	s := New(nil, nil, Options{})

	first, err := s.Scaffold(context.Background(), parse(t, testutil.OrderTemplate), root)
	require.NoError(t, err)
	before := readTree(t, root)

	second, err := s.Scaffold(context.Background(), parse(t, testutil.OrderTemplate), root)
	require.NoError(t, err)

	assert.Equal(t, first.Paths, second.Paths)
	assert.Equal(t, before, readTree(t, root))
}

func TestScaffold_DoesNotModifyInput(t *testing.T) {
	// Test: The raw template is left as parsed
	raw := parse(t, testutil.OrderTemplate)

	_, err := New(nil, nil, Options{}).Scaffold(context.Background(), raw, t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, parse(t, testutil.OrderTemplate), raw)
}

func TestScaffold_EntityOrder(t *testing.T) {
	// Test: Each entity's domain precedes its features, which precede its tests
	root := t.TempDir()

	result, err := New(nil, nil, Options{}).Scaffold(context.Background(), parse(t, testutil.OrderTemplate), root)
	require.NoError(t, err)

	index := func(suffix string) int {
		for i, p := range result.Paths {
			if strings.HasSuffix(filepath.ToSlash(p), suffix) {
				return i
			}
		}
		t.Fatalf("%s was not written", suffix)
		return -1
	}

	assert.Less(t, index("src/databases/entity_set.go"), index("src/domain/orders/order.go"))
	assert.Less(t, index("src/auth/permissions.go"), index("src/features/orders/add_order.go"))
	assert.Less(t, index("src/domain/orders/order.go"), index("src/features/orders/get_order.go"))
	assert.Less(t, index("src/features/orders/delete_order.go"), index("tests/fakes/orders/fake_order.go"))
	assert.Less(t, index("tests/integration/features/orders/delete_order_test.go"), index("src/domain/lineitems/line_item.go"))
	assert.Less(t, index("tests/integration/features/lineitems/update_line_item_list_test.go"), index("src/infrastructure/settings.go"))
}

func failingRegistry(t *testing.T, kind template.FeatureKind) *codegen.Registry {
	t.Helper()
	r := codegen.NewRegistry()
	for _, k := range template.FeatureKinds {
		gen, err := features.DefaultRegistry.Get(k)
		require.NoError(t, err)
		r.Register(k, func() codegen.Generator { return gen })
	}
	r.Register(kind, func() codegen.Generator {
		return codegen.GeneratorFunc(func(u codegen.Unit) (codegen.Artifact, error) {
			return codegen.Artifact{}, u.Errorf("cannot render")
		})
	})
	return r
}

func TestScaffold_GenerationFailure(t *testing.T) {
	// Test: A failing generator aborts the run; only atomic runs leave the target empty
	tests := []struct {
		name   string
		atomic bool
	}{
		{"phase by phase", false},
		{"atomic", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			opts := Options{Atomic: tt.atomic, Features: failingRegistry(t, template.GetList)}

			result, err := New(nil, nil, opts).Scaffold(context.Background(), parse(t, shopTemplate), root)
			require.Error(t, err)
			assert.True(t, errors.Is(err, codegen.ErrGeneration))
			assert.Contains(t, err.Error(), "entities phase failed")

			files := readTree(t, root)
			assert.NotContains(t, files, "Shop/src/features/orders/get_order.go")
			assert.NotContains(t, files, "Shop/src/infrastructure/settings.go")
			if tt.atomic {
				assert.Empty(t, files)
				assert.Empty(t, result.Paths)
				return
			}
			assert.Contains(t, files, "Shop/go.mod")
			assert.Contains(t, files, "Shop/src/databases/entity_set.go")
			assert.Len(t, result.Paths, len(files))
		})
	}
}

func TestScaffold_Canceled(t *testing.T) {
	// Test: A canceled context stops the run before the first write
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	root := t.TempDir()

	_, err := New(nil, nil, Options{}).Scaffold(ctx, parse(t, shopTemplate), root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, readTree(t, root))
}

func TestLogStatus(t *testing.T) {
	// Test: The log sink writes structured phase events
	var buf strings.Builder
	status := NewLogStatus(zerolog.New(&buf).Level(zerolog.DebugLevel))

	status.PhaseStarted(PhaseEntities)
	status.PhaseCompleted(PhaseEntities, 12)
	status.FileWritten("/out/Shop/go.mod")

	out := buf.String()
	assert.Contains(t, out, `"component":"scaffold"`)
	assert.Contains(t, out, `"phase":"entities"`)
	assert.Contains(t, out, `"artifacts":12`)
	assert.Contains(t, out, `"path":"/out/Shop/go.mod"`)
}

func TestPhase_String(t *testing.T) {
	// Test: Phases have readable names
	assert.Equal(t, "data-context", PhaseDataContext.String())
	assert.Equal(t, "Phase(42)", Phase(42).String())
}
