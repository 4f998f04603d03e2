// Package features renders one request/handler file per entity feature.
// Handlers are composed from fragments: permission check, parent lookup, DTO
// mapping, factory or mutation call, persistence and read mapping.
package features

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
	"github.com/okra-platform/apiforge/internal/template"
)

// DefaultRegistry holds a generator for every feature kind
var DefaultRegistry = NewRegistry()

// NewRegistry returns a registry with every feature kind registered
func NewRegistry() *codegen.Registry {
	r := codegen.NewRegistry()
	bodies := map[template.FeatureKind]handleBody{
		template.GetRecord:        getRecord,
		template.GetList:          getList,
		template.AddRecord:        addRecord,
		template.AddRecordList:    addRecordList,
		template.UpdateRecord:     updateRecord,
		template.UpdateRecordList: updateRecordList,
		template.DeleteRecord:     deleteRecord,
	}
	for kind, body := range bodies {
		r.Register(kind, func() codegen.Generator {
			return codegen.GeneratorFunc(func(u codegen.Unit) (codegen.Artifact, error) {
				return render(u, body)
			})
		})
	}
	return r
}

// handleBody writes the Handle method of one feature kind
type handleBody func(w *writer.Writer, p *plan)

func render(u codegen.Unit, body handleBody) (codegen.Artifact, error) {
	if u.Entity == nil {
		return codegen.Artifact{}, u.Errorf("feature generation needs an entity")
	}
	name := naming.Feature(u.Entity, u.Feature)

	return u.GoFile(layout.Feature, name, func(w *writer.Writer, im *writer.Imports) error {
		p, err := newPlan(u, im)
		if err != nil {
			return err
		}
		writeRequest(w, p)
		w.BlankLine()
		writeHandler(w, p)
		w.BlankLine()
		body(w, p)
		return nil
	})
}

func getRecord(w *writer.Writer, p *plan) {
	writeHandle(w, p, "returns the "+p.entity+" with the requested key", func() {
		writeLookup(w, p, p.param+"."+p.keyField)
		w.WriteLinef("return %s.%s(%s), nil", p.dtos(), naming.MapTo(naming.ReadDto(p.e)), p.v)
	})
}

func getList(w *writer.Writer, p *plan) {
	if p.f.IsPaged {
		getPage(w, p)
		return
	}

	writeHandle(w, p, "returns every "+p.entity, func() {
		w.WriteLinef("%s, err := %s.List(ctx)", p.list, p.set)
		w.WriteBlock("if err != nil {", "}", func() {
			w.WriteLine(p.fail())
		})
		w.BlankLine()
		writeReadMapping(w, p, true)
	})
}

// getPage returns one page of read DTOs with the paging metadata of the set
func getPage(w *writer.Writer, p *plan) {
	writeHandle(w, p, "returns the requested page of "+p.entity+" records", func() {
		w.WriteLinef("page, err := %s.ListPage(ctx, %s.%s, %s.%s)", p.set, p.param, naming.PageNumberField, p.param, naming.PageSizeField)
		w.WriteBlock("if err != nil {", "}", func() {
			w.WriteLine(p.fail())
		})
		w.WriteLinef("return %s.MapPage(page, %s.%s), nil", p.resources(), p.dtos(), naming.MapTo(naming.ReadDto(p.e)))
	})
}

func addRecord(w *writer.Writer, p *plan) {
	writeHandle(w, p, "creates and stores a new "+p.entity, func() {
		writeCreationMapping(w, p, p.param+"."+naming.CommandInput(p.e, p.f))
		w.WriteLinef("%s := %s.Create(forCreation)", p.v, p.domain())
		w.BlankLine()
		w.WriteBlock("if err := "+p.set+".Add(ctx, "+p.v+"); err != nil {", "}", func() {
			w.WriteLine(p.fail())
		})
		w.WriteLinef("return %s.%s(%s), nil", p.dtos(), naming.MapTo(naming.ReadDto(p.e)), p.v)
	})
}

func addRecordList(w *writer.Writer, p *plan) {
	input := p.param + "." + naming.CommandInput(p.e, p.f)

	writeHandle(w, p, "creates and stores every input in order. An empty input stores nothing and returns an empty result.", func() {
		w.WriteLinef("%s := make([]*%s.%s, 0, len(%s))", p.list, p.domain(), p.entity, input)
		w.WriteBlock("for _, toAdd := range "+input+" {", "}", func() {
			writeCreationMapping(w, p, "toAdd")
			w.WriteLinef("%s = append(%s, %s.Create(forCreation))", p.list, p.list, p.domain())
		})
		w.BlankLine()
		w.WriteBlock("if err := "+p.set+".AddRange(ctx, "+p.list+"); err != nil {", "}", func() {
			w.WriteLine(p.fail())
		})
		w.BlankLine()
		writeReadMapping(w, p, false)
	})
}

func updateRecord(w *writer.Writer, p *plan) {
	writeHandle(w, p, "applies the new values to an existing "+p.entity, func() {
		writeLookup(w, p, p.param+"."+p.keyField)
		w.BlankLine()
		writeUpdateMapping(w, p, p.param+"."+naming.CommandInput(p.e, p.f))
		w.WriteLinef("%s.Update(forUpdate)", p.v)
		w.WriteLinef("return %s.Update(ctx, %s)", p.set, p.v)
	})
}

func updateRecordList(w *writer.Writer, p *plan) {
	input := p.param + "." + naming.CommandInput(p.e, p.f)

	writeHandle(w, p, "applies every item to its existing "+p.entity+" and saves them together", func() {
		w.WriteLinef("%s := make([]*%s.%s, 0, len(%s))", p.list, p.domain(), p.entity, input)
		w.WriteBlock("for _, item := range "+input+" {", "}", func() {
			writeLookup(w, p, "item."+p.keyField)
			writeUpdateMapping(w, p, "item."+naming.BatchItemDataField)
			w.WriteLinef("%s.Update(forUpdate)", p.v)
			w.WriteLinef("%s = append(%s, %s)", p.list, p.list, p.v)
		})
		w.BlankLine()
		w.WriteLinef("return %s.UpdateRange(ctx, %s)", p.set, p.list)
	})
}

func deleteRecord(w *writer.Writer, p *plan) {
	writeHandle(w, p, "removes the "+p.entity+" with the requested key", func() {
		writeLookup(w, p, p.param+"."+p.keyField)
		w.WriteLinef("return %s.Remove(ctx, %s)", p.set, p.v)
	})
}
