package features

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
	"github.com/okra-platform/apiforge/internal/template"
)

// plan holds the names and types one feature file is rendered from
type plan struct {
	u  codegen.Unit
	e  *template.Entity
	f  template.Feature
	im *writer.Imports

	entity  string
	request string
	handler string
	param   string
	v       string
	list    string
	set     string

	keyField string
	keyRef   codegen.TypeRef

	parent    *template.Entity
	batchKey  string
	batchType string
	// batchTarget is the model property receiving the batch key, when the entity has one
	batchTarget *template.EntityProperty
}

func newPlan(u codegen.Unit, im *writer.Imports) (*plan, error) {
	if u.Entity == nil {
		return nil, u.Errorf("feature generation needs an entity")
	}

	e, f := u.Entity, u.Feature
	p := &plan{
		u:        u,
		e:        e,
		f:        f,
		im:       im,
		entity:   naming.Entity(e),
		request:  naming.Request(e, f),
		handler:  naming.Handler(e, f),
		param:    "command",
		v:        naming.Var(e),
		list:     naming.ListVar(e),
		set:      "h.db." + naming.ContextAccessor(e) + "()",
		keyField: naming.KeyField(e),
	}
	if f.Type.IsQuery() {
		p.param = "query"
	}

	// the key import is recorded only where the key type is written
	keyRef, err := u.PrimaryKeyRef(e)
	if err != nil {
		return nil, err
	}
	p.keyRef = keyRef

	if f.HasBatchKey() {
		if err := p.resolveBatchKey(); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// resolveBatchKey checks the batch key against the parent's primary key and
// finds the property it is copied into
func (p *plan) resolveBatchKey() error {
	parent, ok := p.u.Template.Parent(p.f)
	if !ok {
		return p.u.Errorf("batch key %s needs a parent entity", p.f.BatchPropertyName)
	}
	parentKey, ok := parent.PrimaryKey()
	if !ok {
		return p.u.Errorf("parent %s has no primary key", parent.Name)
	}
	if template.CanonicalType(parentKey.Type) != template.CanonicalType(p.f.BatchPropertyType) {
		return p.u.Errorf("batch key %s is %s but %s keys are %s", p.f.BatchPropertyName, p.f.BatchPropertyType, parent.Name, parentKey.Type)
	}

	typ, err := p.u.TypeOf(p.im, p.f.BatchPropertyType, false)
	if err != nil {
		return err
	}
	p.parent = parent
	p.batchKey = naming.BatchKeyField(p.f)
	p.batchType = typ

	if prop, ok := p.e.BatchTarget(p.f); ok {
		if template.CanonicalType(prop.Type) != template.CanonicalType(p.f.BatchPropertyType) {
			return p.u.Errorf("batch key %s is %s but property %s.%s is %s", p.f.BatchPropertyName, p.f.BatchPropertyType, p.e.Name, prop.Name, prop.Type)
		}
		p.batchTarget = &prop
	}
	return nil
}

// key returns the primary key type, importing its package
func (p *plan) key() string {
	p.importKey()
	return p.keyRef.Expr
}

func (p *plan) importKey() {
	if p.keyRef.Import != "" {
		p.im.Add(p.keyRef.Import)
	}
}

func (p *plan) dtos() string {
	p.im.Add(p.u.Import(layout.EntityDtos))
	return "dtos"
}

func (p *plan) domain() string {
	return p.u.DomainImport(p.im)
}

func (p *plan) readDto() string {
	return p.dtos() + "." + naming.ReadDto(p.e)
}

func (p *plan) resources() string {
	p.im.Add(p.u.Import(layout.Resources))
	return "resources"
}

// pagedResult is the page of read DTOs returned by paged listings
func (p *plan) pagedResult() string {
	return p.resources() + ".PagedList[" + p.readDto() + "]"
}

// result is the success type of Handle, empty for features returning only an error
func (p *plan) result() string {
	if p.f.Type == template.GetList && p.f.IsPaged {
		return p.pagedResult()
	}
	switch p.f.Type {
	case template.GetRecord, template.AddRecord:
		return p.readDto()
	case template.GetList, template.AddRecordList:
		return "[]" + p.readDto()
	default:
		return ""
	}
}

// fail renders the return statement propagating err
func (p *plan) fail() string {
	if p.f.Type == template.GetList && p.f.IsPaged {
		return "return " + p.pagedResult() + "{}, err"
	}
	switch p.f.Type {
	case template.GetRecord, template.AddRecord:
		return "return " + p.readDto() + "{}, err"
	case template.GetList, template.AddRecordList:
		return "return nil, err"
	default:
		return "return err"
	}
}
