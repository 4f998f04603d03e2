package codegen

import (
	"errors"
	"testing"

	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupType(t *testing.T) {
	tests := []struct {
		typ      string
		nullable bool
		expr     string
		imp      string
	}{
		{"string", false, "string", ""},
		{"int", false, "int", ""},
		{"long", true, "*int64", ""},
		{"decimal", false, "float64", ""},
		{"float", false, "float32", ""},
		{"bool", true, "*bool", ""},
		{"datetime", false, "time.Time", "time"},
		{"DateOnly", true, "*time.Time", "time"},
		{"uuid", false, "uuid.UUID", ImportUUID},
	}

	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			ref, ok := LookupType(tt.typ, tt.nullable)
			require.True(t, ok)
			assert.Equal(t, tt.expr, ref.Expr)
			assert.Equal(t, tt.imp, ref.Import)
		})
	}

	_, ok := LookupType("blob", false)
	assert.False(t, ok)
}

func TestUnit_TypeOf(t *testing.T) {
	u := Unit{
		Entity:   &template.Entity{Name: "Order"},
		Resolver: layout.NewResolver("Shop", "/out"),
	}
	im := writer.NewImports(u.Resolver.ModulePath())

	expr, err := u.FieldType(im, template.EntityProperty{Name: "PlacedAt", Type: "datetime"})
	require.NoError(t, err)
	assert.Equal(t, "time.Time", expr)
	assert.True(t, im.Has("time"))

	_, err = u.TypeOf(im, "blob", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneration))

	var ge *GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "Order", ge.Entity)
	assert.Contains(t, ge.Error(), `unsupported property type "blob"`)
}

func TestUnit_PrimaryKeyType(t *testing.T) {
	u := Unit{Resolver: layout.NewResolver("Shop", "/out")}
	e := &template.Entity{Name: "Order", Properties: []template.EntityProperty{{Name: "Id", Type: "guid", IsPrimaryKey: true}}}

	expr, err := u.PrimaryKeyType(nil, e)
	require.NoError(t, err)
	assert.Equal(t, "uuid.UUID", expr)

	_, err = u.PrimaryKeyType(nil, &template.Entity{Name: "Broken"})
	assert.Error(t, err)
}

func TestTypeClassifiers(t *testing.T) {
	assert.True(t, IsTemporal("datetime"))
	assert.True(t, IsTemporal("date"))
	assert.False(t, IsTemporal("string"))
	assert.True(t, IsFloating("decimal"))
	assert.False(t, IsFloating("int"))
}

func TestGenerationError(t *testing.T) {
	u := Unit{Entity: &template.Entity{Name: "Order"}, Feature: template.Feature{Type: template.AddRecord}}
	err := u.Errorf("boom %d", 1)
	assert.Equal(t, "generation failed: Order AddRecord: boom 1", err.Error())

	err = Unit{}.Errorf("boom")
	assert.Equal(t, "generation failed: boom", err.Error())
}

func TestUnit_PrimaryKeyRef(t *testing.T) {
	// Test: the key type is returned with its import and nothing is recorded until asked
	u := Unit{Resolver: layout.NewResolver("Shop", "/out")}
	order := &template.Entity{Name: "Order", Properties: []template.EntityProperty{{Name: "Id", Type: "guid", IsPrimaryKey: true}}}

	ref, err := u.PrimaryKeyRef(order)
	require.NoError(t, err)
	assert.Equal(t, TypeRef{Expr: "uuid.UUID", Import: ImportUUID}, ref)

	im := writer.NewImports("shop")
	expr, err := u.PrimaryKeyType(im, order)
	require.NoError(t, err)
	assert.Equal(t, "uuid.UUID", expr)
	assert.True(t, im.Has(ImportUUID))

	_, err = u.PrimaryKeyRef(&template.Entity{Name: "Note"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrGeneration))
}
