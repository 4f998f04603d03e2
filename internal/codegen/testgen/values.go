package testgen

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/template"
)

// fakeValues are gofakeit expressions producing a random value per canonical type
var fakeValues = map[string]string{
	"string":   "gofakeit.LetterN(12)",
	"int":      "gofakeit.Number(1, 100000)",
	"long":     "int64(gofakeit.Number(1, 100000))",
	"decimal":  "gofakeit.Float64Range(1, 1000)",
	"double":   "gofakeit.Float64Range(1, 1000)",
	"float":    "gofakeit.Float32Range(1, 1000)",
	"bool":     "gofakeit.Bool()",
	"datetime": "gofakeit.Date().UTC()",
	"dateonly": "gofakeit.Date().UTC().Truncate(24 * time.Hour)",
	"guid":     "uuid.New()",
}

// fakeValue renders a random value for p, wrapped in testutil.Ptr when nullable
func fakeValue(u codegen.Unit, im *writer.Imports, p template.EntityProperty) (string, error) {
	typ := template.CanonicalType(p.Type)
	expr, ok := fakeValues[typ]
	if !ok {
		return "", u.Errorf("no fake value for property %s of type %q", p.Name, p.Type)
	}

	switch typ {
	case "guid":
		im.Add(codegen.ImportUUID)
	case "dateonly":
		im.Add(codegen.ImportTime)
		im.Add(codegen.ImportFakeit)
	default:
		im.Add(codegen.ImportFakeit)
	}

	if p.IsNullable {
		im.Add(u.Import(layout.TestUtilities))
		return "testutil.Ptr(" + expr + ")", nil
	}
	return expr, nil
}

// sentinelKeys are key values no stored record can have
var sentinelKeys = map[string]string{
	"guid": "uuid.New()",
	"int":  "-1",
	"long": "-1",
}

// sentinelKey renders a key of type typ that matches no record. The second
// result is false when no such key can be synthesized.
func sentinelKey(im *writer.Imports, typ string) (string, bool) {
	canonical := template.CanonicalType(typ)
	key, ok := sentinelKeys[canonical]
	if ok && canonical == "guid" {
		im.Add(codegen.ImportUUID)
	}
	return key, ok
}

// writeAssertion compares one property of expected and actual the way its
// type requires
func writeAssertion(w *writer.Writer, u codegen.Unit, im *writer.Imports, p template.EntityProperty, expected, actual string) error {
	if _, ok := codegen.LookupType(p.Type, p.IsNullable); !ok {
		return u.Errorf("cannot assert property %s of type %q", p.Name, p.Type)
	}
	im.Add(codegen.ImportAssert)

	switch {
	case codegen.IsTemporal(p.Type) && p.IsNullable:
		im.Add(u.Import(layout.TestUtilities))
		w.WriteLinef("testutil.AssertTimePtrWithin(t, %s, %s)", expected, actual)
	case codegen.IsTemporal(p.Type):
		im.Add(codegen.ImportTime)
		w.WriteLinef("assert.WithinDuration(t, %s, %s, time.Second)", expected, actual)
	case codegen.IsFloating(p.Type) && p.IsNullable:
		im.Add(u.Import(layout.TestUtilities))
		w.WriteLinef("testutil.AssertFloatPtrInDelta(t, %s, %s, 0.001)", expected, actual)
	case codegen.IsFloating(p.Type):
		w.WriteLinef("assert.InDelta(t, %s, %s, 0.001)", expected, actual)
	default:
		w.WriteLinef("assert.Equal(t, %s, %s)", expected, actual)
	}
	return nil
}
