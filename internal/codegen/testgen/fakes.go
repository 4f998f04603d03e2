package testgen

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
	"github.com/okra-platform/apiforge/internal/template"
)

// fakesFile renders the random DTO factories and the fake builder of the unit entity
func fakesFile(u codegen.Unit) (codegen.Artifact, error) {
	e := u.Entity
	name := naming.Entity(e)

	return u.GoFile(layout.FakeBuilder, name, func(w *writer.Writer, im *writer.Imports) error {
		im.Add(u.Import(layout.EntityDtos))
		im.Add(u.Import(layout.EntityModels))
		domain := u.DomainImport(im)

		for _, dto := range []struct{ factory, typ, doc string }{
			{naming.FakeCreationDto(e), naming.CreationDto(e), "a creation DTO"},
			{naming.FakeUpdateDto(e), naming.UpdateDto(e), "an update DTO"},
		} {
			if err := writeFakeDto(w, u, im, dto.factory, dto.typ, dto.doc); err != nil {
				return err
			}
			w.BlankLine()
		}

		builder := naming.FakeBuilder(e)
		creation := naming.CreationModel(e)

		w.WriteLinef("// %s builds %s entities for tests", builder, name)
		w.WriteBlock("type "+builder+" struct {", "}", func() {
			w.WriteLinef("forCreation models.%s", creation)
		})
		w.BlankLine()

		w.WriteLinef("// %s returns a builder preloaded with random values", naming.FakeBuilderConstructor(e))
		w.WriteBlock("func "+naming.FakeBuilderConstructor(e)+"() *"+builder+" {", "}", func() {
			w.WriteLinef("return &%s{forCreation: dtos.%s(%s())}", builder, naming.MapTo(creation), naming.FakeCreationDto(e))
		})

		for _, p := range e.Manipulable() {
			typ, err := u.FieldType(im, p)
			if err != nil {
				return err
			}
			field := naming.Field(p)
			w.BlankLine()
			w.WriteBlock("func (b *"+builder+") With"+field+"(value "+typ+") *"+builder+" {", "}", func() {
				w.WriteLinef("b.forCreation.%s = value", field)
				w.WriteLine("return b")
			})
		}
		w.BlankLine()

		w.WriteLinef("// Build creates the %s through its factory", name)
		w.WriteBlock("func (b *"+builder+") Build() *"+domain+"."+name+" {", "}", func() {
			w.WriteLinef("return %s.Create(b.forCreation)", domain)
		})
		return nil
	})
}

func writeFakeDto(w *writer.Writer, u codegen.Unit, im *writer.Imports, factory, typ, doc string) error {
	props := u.Entity.Manipulable()
	values := make([]string, 0, len(props))
	for _, p := range props {
		v, err := fakeValue(u, im, p)
		if err != nil {
			return err
		}
		values = append(values, naming.Field(p)+": "+v+",")
	}

	w.WriteLinef("// %s returns %s filled with random values", factory, doc)
	w.WriteBlock("func "+factory+"() dtos."+typ+" {", "}", func() {
		if len(values) == 0 {
			w.WriteLinef("return dtos.%s{}", typ)
			return
		}
		w.WriteBlock("return dtos."+typ+"{", "}", func() {
			w.WriteLines(values...)
		})
	})
	return nil
}

// unitTestFile renders the domain unit tests of the unit entity: the factory
// and the mutator copy every manipulable value and raise one event each
func unitTestFile(u codegen.Unit) (codegen.Artifact, error) {
	e := u.Entity
	name := naming.Entity(e)
	prefix := naming.UnitTestPrefix(e)

	return u.GoFile(layout.EntityUnitTest, name, func(w *writer.Writer, im *writer.Imports) error {
		im.Add(codegen.ImportTesting)
		im.Add(codegen.ImportAssert)
		im.Add(codegen.ImportRequire)
		im.Add(u.Import(layout.EntityDtos))
		domain := u.DomainImport(im)
		fakes := naming.FakesAlias(e)
		im.AddAlias(fakes, u.Import(layout.FakeBuilder))
		v := naming.Var(e)

		w.WriteBlock("func "+prefix+"_Create(t *testing.T) {", "}", func() {
			w.WriteLinef("forCreation := dtos.%s(%s.%s())", naming.MapTo(naming.CreationModel(e)), fakes, naming.FakeCreationDto(e))
			w.BlankLine()
			w.WriteLinef("%s := %s.Create(forCreation)", v, domain)
			w.BlankLine()
			writeKeyAssertion(w, im, e, v)
			writeCopyAssertions(w, e, "forCreation", v)
			w.WriteLinef("require.Len(t, %s.DomainEvents(), 1)", v)
			w.WriteLinef("assert.IsType(t, %s.%s{}, %s.DomainEvents()[0])", domain, naming.CreatedEvent(e), v)
		})
		w.BlankLine()

		w.WriteBlock("func "+prefix+"_Update(t *testing.T) {", "}", func() {
			w.WriteLinef("%s := %s.%s().Build()", v, fakes, naming.FakeBuilderConstructor(e))
			w.WriteLinef("%s.ClearDomainEvents()", v)
			w.WriteLinef("forUpdate := dtos.%s(%s.%s())", naming.MapTo(naming.UpdateModel(e)), fakes, naming.FakeUpdateDto(e))
			w.BlankLine()
			w.WriteLinef("%s.Update(forUpdate)", v)
			w.BlankLine()
			writeCopyAssertions(w, e, "forUpdate", v)
			w.WriteLinef("require.Len(t, %s.DomainEvents(), 1)", v)
			w.WriteLinef("assert.IsType(t, %s.%s{}, %s.DomainEvents()[0])", domain, naming.UpdatedEvent(e), v)
		})
		return nil
	})
}

// writeKeyAssertion checks that the factory assigned a generated key
func writeKeyAssertion(w *writer.Writer, im *writer.Imports, e *template.Entity, v string) {
	pk, ok := e.PrimaryKey()
	if !ok || pk.Manipulable() {
		return
	}
	switch template.CanonicalType(pk.Type) {
	case "guid":
		im.Add(codegen.ImportUUID)
		w.WriteLinef("assert.NotEqual(t, uuid.Nil, %s.%s)", v, naming.Field(pk))
	case "string":
		w.WriteLinef("assert.NotEmpty(t, %s.%s)", v, naming.Field(pk))
	}
}

// writeCopyAssertions compares in-memory values, so plain equality holds for every type
func writeCopyAssertions(w *writer.Writer, e *template.Entity, src, v string) {
	for _, p := range e.Manipulable() {
		f := naming.Field(p)
		w.WriteLinef("assert.Equal(t, %s.%s, %s.%s)", src, f, v, f)
	}
}
