package testgen

import (
	"strings"

	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
	"github.com/okra-platform/apiforge/internal/template"
	"github.com/okra-platform/apiforge/internal/textcase"
)

// suite holds what the scenarios of one feature test file share
type suite struct {
	u  codegen.Unit
	e  *template.Entity
	f  template.Feature
	im *writer.Imports
	w  *writer.Writer

	v        string
	fakes    string
	keyField string
	set      string

	parent      *template.Entity
	batchTarget *template.EntityProperty
}

// Scenarios lists the test scenarios rendered for the unit's feature, in order
func Scenarios(u codegen.Unit) []string {
	f := u.Feature
	scenarios := []string{naming.ScenarioSuccess}

	switch f.Type {
	case template.GetRecord, template.UpdateRecord, template.DeleteRecord:
		if pk, ok := u.Entity.PrimaryKey(); ok {
			if _, ok := sentinelKeys[template.CanonicalType(pk.Type)]; ok {
				scenarios = append(scenarios, naming.ScenarioNotFound)
			}
		}
	}
	if f.HasBatchKey() {
		if _, ok := sentinelKeys[template.CanonicalType(f.BatchPropertyType)]; ok {
			scenarios = append(scenarios, naming.ScenarioParentNotFound)
		}
	}
	if f.IsProtected {
		scenarios = append(scenarios, naming.ScenarioForbidden)
	}
	if f.Type == template.AddRecordList {
		scenarios = append(scenarios, naming.ScenarioEmptyBatch)
	}
	return scenarios
}

// featureTestFile renders the integration tests of the unit's feature
func featureTestFile(u codegen.Unit) (codegen.Artifact, error) {
	if u.Entity == nil {
		return codegen.Artifact{}, u.Errorf("feature test generation needs an entity")
	}
	e, f := u.Entity, u.Feature

	return u.GoFile(layout.FeatureTest, naming.Feature(e, f), func(w *writer.Writer, im *writer.Imports) error {
		s := &suite{
			u:        u,
			e:        e,
			f:        f,
			im:       im,
			w:        w,
			v:        naming.Var(e),
			fakes:    naming.FakesAlias(e),
			keyField: naming.KeyField(e),
			set:      "scope.DB." + naming.ContextAccessor(e) + "()",
		}
		if f.HasBatchKey() {
			parent, ok := u.Template.Parent(f)
			if !ok {
				return u.Errorf("batch key %s needs a parent entity", f.BatchPropertyName)
			}
			s.parent = parent
			if target, ok := e.BatchTarget(f); ok {
				s.batchTarget = &target
			}
		}

		im.Add(codegen.ImportTesting)
		im.AddAlias(naming.FeaturesAlias, u.Import(layout.Feature))
		im.Add(u.Import(layout.TestUtilities))

		for i, scenario := range Scenarios(u) {
			if i > 0 {
				w.BlankLine()
			}
			var err error
			w.WriteBlock("func "+naming.FeatureTest(e, f, scenario)+"(t *testing.T) {", "}", func() {
				err = s.scenario(scenario)
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *suite) scenario(name string) error {
	switch name {
	case naming.ScenarioSuccess:
		return s.success()
	case naming.ScenarioNotFound:
		s.notFound()
	case naming.ScenarioParentNotFound:
		s.parentNotFound()
	case naming.ScenarioForbidden:
		s.forbidden()
	case naming.ScenarioEmptyBatch:
		s.emptyBatch()
	default:
		return s.u.Errorf("unknown test scenario %s", name)
	}
	return nil
}

// returnsValue reports whether Handle returns a result next to its error
func (s *suite) returnsValue() bool {
	switch s.f.Type {
	case template.GetRecord, template.GetList, template.AddRecord, template.AddRecordList:
		return true
	}
	return false
}

func (s *suite) writeScope() {
	s.w.WriteLine("scope := testutil.NewServiceScope(t)")
	s.w.WriteLine("ctx := scope.Context()")
}

func (s *suite) writeHandler() {
	args := "scope.DB"
	if s.f.IsProtected {
		args += ", scope.Authorizer"
	}
	s.w.WriteLinef("handler := %s.%s(%s)", naming.FeaturesAlias, naming.HandlerConstructor(s.e, s.f), args)
}

// writeParent stores the parent entity of a batch-keyed feature
func (s *suite) writeParent() {
	if s.parent == nil {
		return
	}
	alias := naming.FakesAlias(s.parent)
	s.im.AddAlias(alias, s.u.Import(layout.FakeBuilder, s.parent))
	s.w.WriteLinef("parent := %s.%s().Build()", alias, naming.FakeBuilderConstructor(s.parent))
	s.w.WriteLine("scope.Insert(t, parent)")
}

// writeSeed stores one entity built by the fake builder
func (s *suite) writeSeed() {
	s.im.AddAlias(s.fakes, s.u.Import(layout.FakeBuilder))
	s.w.WriteLinef("%s := %s.%s().Build()", s.v, s.fakes, naming.FakeBuilderConstructor(s.e))
	s.w.WriteLinef("scope.Insert(t, %s)", s.v)
}

// request renders the request literal from its field assignments, adding the
// batch key taken from the stored parent when there is one
func (s *suite) request(fields ...string) string {
	if s.parent != nil {
		fields = append(fields, naming.BatchKeyField(s.f)+": parent."+naming.KeyField(s.parent))
	}
	return naming.FeaturesAlias + "." + naming.Request(s.e, s.f) + "{" + strings.Join(fields, ", ") + "}"
}

// writeCall invokes the handler with req, keeping the result when wanted
func (s *suite) writeCall(req string, keep bool) {
	switch {
	case !s.returnsValue():
		s.w.WriteLinef("err := handler.Handle(ctx, %s)", req)
	case keep:
		s.w.WriteLinef("result, err := handler.Handle(ctx, %s)", req)
	default:
		s.w.WriteLinef("_, err := handler.Handle(ctx, %s)", req)
	}
}

func (s *suite) writeErrorIs(sentinel string) {
	s.im.Add(codegen.ImportAssert)
	s.im.Add(s.u.Import(layout.Exceptions))
	s.w.WriteLinef("assert.ErrorIs(t, err, exceptions.%s)", sentinel)
}

// writeStored loads the entity with key into stored
func (s *suite) writeStored(key string) {
	s.w.WriteLinef("stored, err := %s.GetByID(ctx, %s)", s.set, key)
	s.w.WriteLine("require.NoError(t, err)")
}

// writeAssertions compares props of expected against actual. The batch target
// is expected to hold the parent key.
func (s *suite) writeAssertions(props []template.EntityProperty, expected, actual string) error {
	if len(props) == 0 {
		s.im.Add(codegen.ImportAssert)
		s.w.WriteLinef("assert.NotNil(t, %s)", actual)
		return nil
	}
	for _, p := range props {
		exp := expected + "." + naming.Field(p)
		if s.batchTarget != nil && s.parent != nil && p.Name == s.batchTarget.Name {
			exp = "parent." + naming.KeyField(s.parent)
			if p.IsNullable {
				exp = "&" + exp
			}
		}
		if err := writeAssertion(s.w, s.u, s.im, p, exp, actual+"."+naming.Field(p)); err != nil {
			return err
		}
	}
	return nil
}

func (s *suite) success() error {
	s.im.Add(codegen.ImportRequire)
	s.writeScope()
	s.writeParent()

	switch s.f.Type {
	case template.GetRecord:
		s.writeSeed()
		s.writeHandler()
		s.w.BlankLine()
		s.writeCall(s.request(s.keyField+": "+s.v+"."+s.keyField), true)
		s.w.WriteLine("require.NoError(t, err)")
		s.w.BlankLine()
		return s.writeAssertions(s.e.Columns(), s.v, "result")

	case template.GetList:
		return s.listSuccess()

	case template.AddRecord:
		s.im.AddAlias(s.fakes, s.u.Import(layout.FakeBuilder))
		s.writeHandler()
		s.w.WriteLinef("toAdd := %s.%s()", s.fakes, naming.FakeCreationDto(s.e))
		s.w.BlankLine()
		s.writeCall(s.request(naming.CommandInput(s.e, s.f)+": toAdd"), true)
		s.w.WriteLine("require.NoError(t, err)")
		s.w.BlankLine()
		s.writeStored("result." + s.keyField)
		return s.writeAssertions(s.e.Manipulable(), "toAdd", "stored")

	case template.AddRecordList:
		s.im.AddAlias(s.fakes, s.u.Import(layout.FakeBuilder))
		s.im.Add(s.u.Import(layout.EntityDtos))
		s.writeHandler()
		fake := s.fakes + "." + naming.FakeCreationDto(s.e) + "()"
		s.w.WriteLinef("toAdd := []dtos.%s{%s, %s}", naming.CreationDto(s.e), fake, fake)
		s.w.BlankLine()
		s.writeCall(s.request(naming.CommandInput(s.e, s.f)+": toAdd"), true)
		s.w.WriteLine("require.NoError(t, err)")
		s.w.WriteLine("require.Len(t, result, len(toAdd))")
		s.w.BlankLine()
		var err error
		s.w.WriteBlock("for i := range toAdd {", "}", func() {
			s.writeStored("result[i]." + s.keyField)
			err = s.writeAssertions(s.e.Manipulable(), "toAdd[i]", "stored")
		})
		return err

	case template.UpdateRecord:
		s.writeSeed()
		s.writeHandler()
		s.w.WriteLinef("toUpdate := %s.%s()", s.fakes, naming.FakeUpdateDto(s.e))
		s.w.BlankLine()
		s.writeCall(s.request(s.keyField+": "+s.v+"."+s.keyField, naming.CommandInput(s.e, s.f)+": toUpdate"), false)
		s.w.WriteLine("require.NoError(t, err)")
		s.w.BlankLine()
		s.writeStored(s.v + "." + s.keyField)
		return s.writeAssertions(s.e.Manipulable(), "toUpdate", "stored")

	case template.UpdateRecordList:
		s.writeSeed()
		s.writeHandler()
		s.w.WriteLinef("toUpdate := %s.%s()", s.fakes, naming.FakeUpdateDto(s.e))
		s.w.BlankLine()
		items := "[]" + naming.FeaturesAlias + "." + naming.BatchItem(s.e, s.f) +
			"{{" + s.keyField + ": " + s.v + "." + s.keyField + ", " + naming.BatchItemDataField + ": toUpdate}}"
		s.writeCall(s.request(naming.CommandInput(s.e, s.f)+": "+items), false)
		s.w.WriteLine("require.NoError(t, err)")
		s.w.BlankLine()
		s.writeStored(s.v + "." + s.keyField)
		return s.writeAssertions(s.e.Manipulable(), "toUpdate", "stored")

	case template.DeleteRecord:
		s.writeSeed()
		s.writeHandler()
		s.w.BlankLine()
		s.writeCall(s.request(s.keyField+": "+s.v+"."+s.keyField), false)
		s.w.WriteLine("require.NoError(t, err)")
		s.w.BlankLine()
		s.w.WriteLinef("_, err = %s.GetByID(ctx, %s.%s)", s.set, s.v, s.keyField)
		s.writeErrorIs("ErrNotFound")
		return nil
	}
	return s.u.Errorf("unsupported feature kind %s", s.f.Type)
}

// listSeeds names the entities stored before listing. Other rows may exist,
// so each seed is looked up by key.
var listSeeds = []string{"first", "second"}

func (s *suite) listSuccess() error {
	domain := s.u.DomainImport(s.im)
	s.im.AddAlias(s.fakes, s.u.Import(layout.FakeBuilder))
	s.im.Add(s.u.Import(layout.EntityDtos))
	s.im.Add(codegen.ImportSlices)
	for _, seed := range listSeeds {
		s.w.WriteLinef("%s := %s.%s().Build()", seed, s.fakes, naming.FakeBuilderConstructor(s.e))
	}
	s.w.WriteLinef("scope.Insert(t, %s)", strings.Join(listSeeds, ", "))
	s.writeHandler()
	s.w.BlankLine()

	if s.f.IsPaged {
		s.w.WriteLinef("var listed []dtos.%s", naming.ReadDto(s.e))
		s.w.WriteBlock("for pageNumber := 1; ; pageNumber++ {", "}", func() {
			s.writeCall(s.request(naming.PageNumberField+": pageNumber", naming.PageSizeField+": 1"), true)
			s.w.WriteLine("require.NoError(t, err)")
			s.w.WriteLine("require.GreaterOrEqual(t, result.TotalCount, int64(2))")
			s.w.WriteLine("require.Equal(t, pageNumber, result.PageNumber)")
			s.w.WriteLine("listed = append(listed, result.Items...)")
			s.w.WriteBlock("if pageNumber >= result.TotalPages {", "}", func() {
				s.w.WriteLine("break")
			})
		})
	} else {
		s.w.WriteLinef("listed, err := handler.Handle(ctx, %s)", s.request())
		s.w.WriteLine("require.NoError(t, err)")
	}
	s.w.WriteLine("require.GreaterOrEqual(t, len(listed), 2)")
	s.w.BlankLine()

	var err error
	s.w.WriteBlock("for _, seeded := range []*"+domain+"."+naming.Entity(s.e)+"{"+strings.Join(listSeeds, ", ")+"} {", "}", func() {
		s.w.WriteBlock("i := slices.IndexFunc(listed, func(dto dtos."+naming.ReadDto(s.e)+") bool {", "})", func() {
			s.w.WriteLinef("return dto.%s == seeded.%s", s.keyField, s.keyField)
		})
		s.w.WriteLinef("require.NotEqual(t, -1, i, \"seeded %s %%v is not listed\", seeded.%s)", textcase.Lower(s.e.Name), s.keyField)
		for _, p := range s.e.Columns() {
			if err = writeAssertion(s.w, s.u, s.im, p, "seeded."+naming.Field(p), "listed[i]."+naming.Field(p)); err != nil {
				return
			}
		}
	})
	return err
}

func (s *suite) notFound() {
	pk, _ := s.e.PrimaryKey()
	key, _ := sentinelKey(s.im, pk.Type)

	s.writeScope()
	s.writeParent()
	s.writeHandler()
	s.w.BlankLine()
	s.writeCall(s.request(s.keyField+": "+key), false)
	s.writeErrorIs("ErrNotFound")
}

func (s *suite) parentNotFound() {
	key, _ := sentinelKey(s.im, s.f.BatchPropertyType)

	s.writeScope()
	s.writeHandler()
	s.w.BlankLine()
	req := naming.FeaturesAlias + "." + naming.Request(s.e, s.f) + "{" + naming.BatchKeyField(s.f) + ": " + key + "}"
	s.writeCall(req, false)
	s.writeErrorIs("ErrNotFound")
}

func (s *suite) forbidden() {
	s.writeScope()
	s.w.WriteLine("scope.SetUserNotPermitted()")
	s.writeHandler()
	s.w.BlankLine()
	s.writeCall(naming.FeaturesAlias+"."+naming.Request(s.e, s.f)+"{}", false)
	s.writeErrorIs("ErrForbiddenAccess")
}

func (s *suite) emptyBatch() {
	s.im.Add(codegen.ImportAssert)
	s.im.Add(codegen.ImportRequire)
	s.writeScope()
	s.writeParent()
	s.writeHandler()
	s.w.BlankLine()
	s.writeCall(s.request(), true)
	s.w.WriteLine("require.NoError(t, err)")
	s.w.WriteLine("assert.Empty(t, result)")
}
