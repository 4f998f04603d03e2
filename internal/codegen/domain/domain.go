// Package domain renders the per-entity domain layer: the entity with its
// factory and mutator, the repository interface, the internal creation and
// update models, and the DTOs with their mappings.
package domain

import (
	"fmt"

	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
	"github.com/okra-platform/apiforge/internal/template"
)

// softDeleteProperty is the column added to every entity when soft delete is on
var softDeleteProperty = template.EntityProperty{Name: template.SoftDeleteField, Type: "bool"}

// Generate renders every domain artifact of the unit's entity
func Generate(u codegen.Unit) ([]codegen.Artifact, error) {
	if u.Entity == nil {
		return nil, u.Errorf("domain generation needs an entity")
	}

	steps := []func(codegen.Unit) (codegen.Artifact, error){
		entityFile,
		repositoryFile,
		creationModelFile,
		updateModelFile,
		readDtoFile,
		creationDtoFile,
		updateDtoFile,
		mappingsFile,
	}

	artifacts := make([]codegen.Artifact, 0, len(steps))
	for _, step := range steps {
		art, err := step(u)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, art)
	}
	return artifacts, nil
}

func entityFile(u codegen.Unit) (codegen.Artifact, error) {
	e := u.Entity
	name := naming.Entity(e)

	return u.GoFile(layout.EntityDomain, name, func(w *writer.Writer, im *writer.Imports) error {
		convention := u.Template.DbContext.NamingConvention
		im.Add(u.Import(layout.DomainEvents))

		var extra []string
		if u.Template.UseSoftDelete {
			extra = append(extra, fmt.Sprintf("%s bool `gorm:\"column:%s;not null;default:false\" json:\"-\"`",
				naming.Field(softDeleteProperty), naming.ColumnName(softDeleteProperty, convention)))
		}
		extra = append(extra, "events.Recorder `gorm:\"-\" json:\"-\"`")

		err := u.WriteStruct(w, im, name, name+" is the "+name+" entity", e.Columns(), func(p template.EntityProperty) string {
			gorm := "column:" + naming.ColumnName(p, convention)
			switch template.CanonicalType(p.Type) {
			case "guid":
				gorm += ";type:" + codegen.DriverFor(u.Template.DbContext.Provider).UUIDType
			case "dateonly":
				gorm += ";type:date"
			}
			if p.IsPrimaryKey {
				gorm += ";primaryKey"
				if pk := template.CanonicalType(p.Type); pk == "int" || pk == "long" {
					gorm += ";autoIncrement"
				}
			}
			if !p.IsNullable && !p.IsPrimaryKey {
				gorm += ";not null"
			}
			return `gorm:"` + gorm + `" ` + codegen.JSONTag(p)
		}, extra...)
		if err != nil {
			return err
		}
		w.BlankLine()

		w.WriteLinef("// TableName maps %s to its table", name)
		w.WriteBlock("func ("+name+") TableName() string {", "}", func() {
			w.WriteLinef("return %q", naming.TableName(e, convention))
		})
		w.BlankLine()

		if err := writeFactory(u, w, im); err != nil {
			return err
		}
		w.BlankLine()
		writeMutator(u, w, im)
		w.BlankLine()
		writeEvent(w, naming.CreatedEvent(e), name, "created")
		w.BlankLine()
		writeEvent(w, naming.UpdatedEvent(e), name, "updated")
		return nil
	})
}

func writeFactory(u codegen.Unit, w *writer.Writer, im *writer.Imports) error {
	e := u.Entity
	name := naming.Entity(e)
	v := naming.Var(e)
	creation := naming.CreationModel(e)
	im.Add(u.Import(layout.EntityModels))

	pk, _ := e.PrimaryKey()
	var keyInit string
	if !pk.Manipulable() {
		switch template.CanonicalType(pk.Type) {
		case "guid":
			im.Add(codegen.ImportUUID)
			keyInit = "uuid.New()"
		case "string":
			im.Add(codegen.ImportUUID)
			keyInit = "uuid.NewString()"
		}
	}

	w.WriteLinef("// Create builds a new %s from forCreation and raises %s", name, naming.CreatedEvent(e))
	w.WriteBlock("func Create(forCreation models."+creation+") *"+name+" {", "}", func() {
		w.WriteBlock(v+" := &"+name+"{", "}", func() {
			if keyInit != "" {
				w.WriteLinef("%s: %s,", naming.Field(pk), keyInit)
			}
			codegen.WriteFieldCopy(w, "forCreation", e.Manipulable())
		})
		w.WriteLinef("%s.Raise(%s{%s: %s})", v, naming.CreatedEvent(e), name, v)
		w.WriteLinef("return %s", v)
	})
	return nil
}

func writeMutator(u codegen.Unit, w *writer.Writer, im *writer.Imports) {
	e := u.Entity
	name := naming.Entity(e)
	r := codegen.Receiver(e)
	im.Add(u.Import(layout.EntityModels))

	w.WriteLinef("// Update applies forUpdate and raises %s", naming.UpdatedEvent(e))
	w.WriteBlock("func ("+r+" *"+name+") Update(forUpdate models."+naming.UpdateModel(e)+") {", "}", func() {
		for _, p := range e.Manipulable() {
			f := naming.Field(p)
			w.WriteLinef("%s.%s = forUpdate.%s", r, f, f)
		}
		w.WriteLinef("%s.Raise(%s{%s: %s})", r, naming.UpdatedEvent(e), name, r)
	})
}

func writeEvent(w *writer.Writer, event, entity, verb string) {
	w.WriteLinef("// %s is raised after %s is %s", event, entity, verb)
	w.WriteBlock("type "+event+" struct {", "}", func() {
		w.WriteLinef("%s *%s", entity, entity)
	})
	w.BlankLine()
	w.WriteLine("// EventName implements events.DomainEvent")
	w.WriteBlock("func ("+event+") EventName() string {", "}", func() {
		w.WriteLinef("return %q", event)
	})
}

func repositoryFile(u codegen.Unit) (codegen.Artifact, error) {
	e := u.Entity
	name := naming.Entity(e)
	repo := naming.Repository(e)

	return u.GoFile(layout.EntityDomain, repo, func(w *writer.Writer, im *writer.Imports) error {
		key, err := u.PrimaryKeyType(im, e)
		if err != nil {
			return err
		}
		im.Add(codegen.ImportContext)
		im.Add(u.Import(layout.Resources))

		v, list := naming.Var(e), naming.ListVar(e)
		w.WriteLinef("// %s persists %s entities", repo, name)
		w.WriteBlock("type "+repo+" interface {", "}", func() {
			w.WriteLinef("GetByID(ctx context.Context, id %s) (*%s, error)", key, name)
			w.WriteLinef("List(ctx context.Context) ([]%s, error)", name)
			w.WriteLinef("ListPage(ctx context.Context, pageNumber, pageSize int) (resources.PagedList[%s], error)", name)
			w.WriteLinef("Add(ctx context.Context, %s *%s) error", v, name)
			w.WriteLinef("AddRange(ctx context.Context, %s []*%s) error", list, name)
			w.WriteLinef("Update(ctx context.Context, %s *%s) error", v, name)
			w.WriteLinef("UpdateRange(ctx context.Context, %s []*%s) error", list, name)
			w.WriteLinef("Remove(ctx context.Context, %s *%s) error", v, name)
		})
		return nil
	})
}

func creationModelFile(u codegen.Unit) (codegen.Artifact, error) {
	name := naming.CreationModel(u.Entity)
	return u.GoFile(layout.EntityModels, name, func(w *writer.Writer, im *writer.Imports) error {
		doc := name + " carries the values used to create " + naming.Entity(u.Entity) + " entities"
		return u.WriteStruct(w, im, name, doc, u.Entity.Manipulable(), nil)
	})
}

func updateModelFile(u codegen.Unit) (codegen.Artifact, error) {
	name := naming.UpdateModel(u.Entity)
	return u.GoFile(layout.EntityModels, name, func(w *writer.Writer, im *writer.Imports) error {
		doc := name + " carries the values applied by " + naming.Entity(u.Entity) + ".Update"
		return u.WriteStruct(w, im, name, doc, u.Entity.Manipulable(), nil)
	})
}

func readDtoFile(u codegen.Unit) (codegen.Artifact, error) {
	name := naming.ReadDto(u.Entity)
	return u.GoFile(layout.EntityDtos, name, func(w *writer.Writer, im *writer.Imports) error {
		return u.WriteStruct(w, im, name, name+" is the read model of "+naming.Entity(u.Entity), u.Entity.Columns(), codegen.JSONTag)
	})
}

func creationDtoFile(u codegen.Unit) (codegen.Artifact, error) {
	name := naming.CreationDto(u.Entity)
	return u.GoFile(layout.EntityDtos, name, func(w *writer.Writer, im *writer.Imports) error {
		return u.WriteStruct(w, im, name, name+" is the input of add features", u.Entity.Manipulable(), codegen.JSONTag)
	})
}

func updateDtoFile(u codegen.Unit) (codegen.Artifact, error) {
	name := naming.UpdateDto(u.Entity)
	return u.GoFile(layout.EntityDtos, name, func(w *writer.Writer, im *writer.Imports) error {
		return u.WriteStruct(w, im, name, name+" is the input of update features", u.Entity.Manipulable(), codegen.JSONTag)
	})
}

func mappingsFile(u codegen.Unit) (codegen.Artifact, error) {
	e := u.Entity
	name := naming.Entity(e)

	return u.GoFile(layout.EntityDtos, name+"Mappings", func(w *writer.Writer, im *writer.Imports) error {
		domain := u.DomainImport(im)
		im.Add(u.Import(layout.EntityModels))
		v := naming.Var(e)

		readDto := naming.ReadDto(e)
		w.WriteLinef("// %s maps a %s to its read model", naming.MapTo(readDto), name)
		w.WriteBlock("func "+naming.MapTo(readDto)+"("+v+" *"+domain+"."+name+") "+readDto+" {", "}", func() {
			w.WriteBlock("return "+readDto+"{", "}", func() {
				codegen.WriteFieldCopy(w, v, e.Columns())
			})
		})
		w.BlankLine()

		for _, pair := range [][2]string{
			{naming.CreationDto(e), naming.CreationModel(e)},
			{naming.UpdateDto(e), naming.UpdateModel(e)},
		} {
			dto, model := pair[0], pair[1]
			w.WriteLinef("// %s maps %s to the internal model", naming.MapTo(model), dto)
			w.WriteBlock("func "+naming.MapTo(model)+"(dto "+dto+") models."+model+" {", "}", func() {
				w.WriteBlock("return models."+model+"{", "}", func() {
					codegen.WriteFieldCopy(w, "dto", e.Manipulable())
				})
			})
			w.BlankLine()
		}
		return nil
	})
}
