package features

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
	"github.com/okra-platform/apiforge/internal/template"
)

// writeRequest renders the query or command struct
func writeRequest(w *writer.Writer, p *plan) {
	var fields []string
	switch p.f.Type {
	case template.GetRecord, template.UpdateRecord, template.DeleteRecord:
		fields = append(fields, p.keyField+" "+p.key())
	case template.GetList:
		if p.f.IsPaged {
			fields = append(fields, naming.PageNumberField+" int", naming.PageSizeField+" int")
		}
	}
	switch p.f.Type {
	case template.AddRecord:
		fields = append(fields, naming.CommandInput(p.e, p.f)+" "+p.dtos()+"."+naming.CreationDto(p.e))
	case template.AddRecordList:
		fields = append(fields, naming.CommandInput(p.e, p.f)+" []"+p.dtos()+"."+naming.CreationDto(p.e))
	case template.UpdateRecord:
		fields = append(fields, naming.CommandInput(p.e, p.f)+" "+p.dtos()+"."+naming.UpdateDto(p.e))
	case template.UpdateRecordList:
		fields = append(fields, naming.CommandInput(p.e, p.f)+" []"+naming.BatchItem(p.e, p.f))
	}
	if p.batchKey != "" {
		fields = append(fields, p.batchKey+" "+p.batchType)
	}

	w.WriteLinef("// %s %s", p.request, requestDoc(p))
	if len(fields) == 0 {
		w.WriteLinef("type %s struct{}", p.request)
	} else {
		w.WriteBlock("type "+p.request+" struct {", "}", func() {
			w.WriteLines(fields...)
		})
	}

	if p.f.Type == template.UpdateRecordList {
		item := naming.BatchItem(p.e, p.f)
		w.BlankLine()
		w.WriteLinef("// %s pairs a %s key with its new values", item, p.entity)
		w.WriteBlock("type "+item+" struct {", "}", func() {
			w.WriteLinef("%s %s", p.keyField, p.key())
			w.WriteLinef("%s %s.%s", naming.BatchItemDataField, p.dtos(), naming.UpdateDto(p.e))
		})
	}
}

func requestDoc(p *plan) string {
	switch p.f.Type {
	case template.GetRecord:
		return "fetches one " + p.entity + " by key"
	case template.GetList:
		if p.f.IsPaged {
			return "lists one page of " + p.entity + " records"
		}
		return "lists every " + p.entity
	case template.AddRecord:
		return "adds one " + p.entity
	case template.AddRecordList:
		return "adds several " + p.entity + " records in one call"
	case template.UpdateRecord:
		return "updates one " + p.entity
	case template.UpdateRecordList:
		return "updates several " + p.entity + " records in one call"
	default:
		return "deletes one " + p.entity
	}
}

// writeHandler renders the handler struct and its constructor. The authorizer
// dependency exists only on protected features.
func writeHandler(w *writer.Writer, p *plan) {
	ctxType := p.u.ContextType(p.im)
	ctor := naming.HandlerConstructor(p.e, p.f)

	w.WriteLinef("// %s handles %s", p.handler, p.request)
	w.WriteBlock("type "+p.handler+" struct {", "}", func() {
		w.WriteLine("db " + ctxType)
		if p.f.IsProtected {
			w.WriteLine("authorizer auth.Authorizer")
		}
	})
	w.BlankLine()

	params, fields := "db "+ctxType, "db: db"
	if p.f.IsProtected {
		p.im.Add(p.u.Import(layout.Authorization))
		params += ", authorizer auth.Authorizer"
		fields += ", authorizer: authorizer"
	}
	w.WriteLinef("// %s creates a %s", ctor, p.handler)
	w.WriteBlock("func "+ctor+"("+params+") *"+p.handler+" {", "}", func() {
		w.WriteLinef("return &%s{%s}", p.handler, fields)
	})
}

// writePermissionCheck renders the permission check of a protected feature
func writePermissionCheck(w *writer.Writer, p *plan) {
	if !p.f.IsProtected {
		return
	}
	p.im.Add(p.u.Import(layout.Authorization))
	w.WriteBlock("if err := h.authorizer.HasPermission(ctx, auth."+naming.Permission(p.f.PermissionName)+"); err != nil {", "}", func() {
		w.WriteLine(p.fail())
	})
	w.BlankLine()
}

// writeParentLookup renders the parent lookup by batch key. A missing parent
// fails with the data context's not-found error.
func writeParentLookup(w *writer.Writer, p *plan) {
	if p.batchKey == "" {
		return
	}
	w.WriteBlock("if _, err := h.db."+naming.ContextAccessor(p.parent)+"().GetByID(ctx, "+p.param+"."+p.batchKey+"); err != nil {", "}", func() {
		w.WriteLine(p.fail())
	})
	w.BlankLine()
}

// writeBatchKeyAssignment copies the batch key into the mapped model
func writeBatchKeyAssignment(w *writer.Writer, p *plan, model string) {
	if p.batchTarget == nil {
		return
	}
	value := p.param + "." + p.batchKey
	if p.batchTarget.IsNullable {
		value = "&" + value
	}
	w.WriteLinef("%s.%s = %s", model, naming.Field(*p.batchTarget), value)
}

// writeCreationMapping maps one creation DTO to the internal model
func writeCreationMapping(w *writer.Writer, p *plan, dto string) {
	w.WriteLinef("forCreation := %s.%s(%s)", p.dtos(), naming.MapTo(naming.CreationModel(p.e)), dto)
	writeBatchKeyAssignment(w, p, "forCreation")
}

// writeUpdateMapping maps one update DTO to the internal model
func writeUpdateMapping(w *writer.Writer, p *plan, dto string) {
	w.WriteLinef("forUpdate := %s.%s(%s)", p.dtos(), naming.MapTo(naming.UpdateModel(p.e)), dto)
	writeBatchKeyAssignment(w, p, "forUpdate")
}

// writeLookup loads the entity by key into p.v
func writeLookup(w *writer.Writer, p *plan, key string) {
	w.WriteLinef("%s, err := %s.GetByID(ctx, %s)", p.v, p.set, key)
	w.WriteBlock("if err != nil {", "}", func() {
		w.WriteLine(p.fail())
	})
}

// writeReadMapping maps entities back to read DTOs, keeping their order.
// addressed is true when items are values that must be addressed for mapping.
func writeReadMapping(w *writer.Writer, p *plan, addressed bool) {
	mapper := p.dtos() + "." + naming.MapTo(naming.ReadDto(p.e))
	w.WriteLinef("result := make([]%s, 0, len(%s))", p.readDto(), p.list)
	if addressed {
		w.WriteBlock("for i := range "+p.list+" {", "}", func() {
			w.WriteLinef("result = append(result, %s(&%s[i]))", mapper, p.list)
		})
	} else {
		w.WriteBlock("for _, "+p.v+" := range "+p.list+" {", "}", func() {
			w.WriteLinef("result = append(result, %s(%s))", mapper, p.v)
		})
	}
	w.WriteLine("return result, nil")
}

// writeHandle renders the Handle method around body
func writeHandle(w *writer.Writer, p *plan, doc string, body func()) {
	p.im.Add(codegen.ImportContext)
	returns := "error"
	if r := p.result(); r != "" {
		returns = "(" + r + ", error)"
	}

	w.WriteLinef("// Handle %s", doc)
	w.WriteBlock("func (h *"+p.handler+") Handle(ctx context.Context, "+p.param+" "+p.request+") "+returns+" {", "}", func() {
		writePermissionCheck(w, p)
		writeParentLookup(w, p)
		body()
	})
}
