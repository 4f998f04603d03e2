package codegen

import (
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/template"
)

// Imports of the generated project's dependencies
const (
	ImportUUID    = "github.com/google/uuid"
	ImportGorm    = "gorm.io/gorm"
	ImportGin     = "github.com/gin-gonic/gin"
	ImportFakeit  = "github.com/brianvoe/gofakeit/v6"
	ImportAssert  = "github.com/stretchr/testify/assert"
	ImportRequire = "github.com/stretchr/testify/require"
	ImportTime    = "time"
	ImportContext = "context"
	ImportErrors  = "errors"
	ImportFmt     = "fmt"
	ImportTesting = "testing"
	ImportSlices  = "slices"
)

// TypeRef is the Go rendering of a property type
type TypeRef struct {
	Expr   string
	Import string
}

var goTypes = map[string]TypeRef{
	"string":   {Expr: "string"},
	"int":      {Expr: "int"},
	"long":     {Expr: "int64"},
	"decimal":  {Expr: "float64"},
	"double":   {Expr: "float64"},
	"float":    {Expr: "float32"},
	"bool":     {Expr: "bool"},
	"datetime": {Expr: "time.Time", Import: ImportTime},
	"dateonly": {Expr: "time.Time", Import: ImportTime},
	"guid":     {Expr: "uuid.UUID", Import: ImportUUID},
}

// LookupType maps a canonical property type to Go. Nullable types become pointers.
func LookupType(typ string, nullable bool) (TypeRef, bool) {
	ref, ok := goTypes[template.CanonicalType(typ)]
	if !ok {
		return TypeRef{}, false
	}
	if nullable {
		ref.Expr = "*" + ref.Expr
	}
	return ref, true
}

// FieldType returns the Go type of p and records its import in im
func (u Unit) FieldType(im *writer.Imports, p template.EntityProperty) (string, error) {
	return u.TypeOf(im, p.Type, p.IsNullable)
}

// TypeOf returns the Go type of a property type and records its import in im
func (u Unit) TypeOf(im *writer.Imports, typ string, nullable bool) (string, error) {
	ref, ok := LookupType(typ, nullable)
	if !ok {
		return "", u.Errorf("unsupported property type %q", typ)
	}
	if im != nil && ref.Import != "" {
		im.Add(ref.Import)
	}
	return ref.Expr, nil
}

// PrimaryKeyType returns the Go type of the entity's primary key
func (u Unit) PrimaryKeyType(im *writer.Imports, e *template.Entity) (string, error) {
	ref, err := u.PrimaryKeyRef(e)
	if err != nil {
		return "", err
	}
	if im != nil && ref.Import != "" {
		im.Add(ref.Import)
	}
	return ref.Expr, nil
}

// PrimaryKeyRef returns the type of the entity's primary key without importing it
func (u Unit) PrimaryKeyRef(e *template.Entity) (TypeRef, error) {
	pk, ok := e.PrimaryKey()
	if !ok {
		return TypeRef{}, u.Errorf("entity %s has no primary key", e.Name)
	}
	ref, ok := LookupType(pk.Type, false)
	if !ok {
		return TypeRef{}, u.Errorf("unsupported property type %q", pk.Type)
	}
	return ref, nil
}

// IsTemporal reports whether the type is a date or time
func IsTemporal(typ string) bool {
	t := template.CanonicalType(typ)
	return t == "datetime" || t == "dateonly"
}

// IsFloating reports whether the type maps to a Go float
func IsFloating(typ string) bool {
	switch template.CanonicalType(typ) {
	case "decimal", "double", "float":
		return true
	}
	return false
}
