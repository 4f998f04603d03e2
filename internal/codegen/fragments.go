package codegen

import (
	"strings"

	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
	"github.com/okra-platform/apiforge/internal/template"
)

// TagFunc renders the struct tag of a field, without backquotes. Empty means no tag.
type TagFunc func(p template.EntityProperty) string

// JSONTag tags fields with their JSON key
func JSONTag(p template.EntityProperty) string {
	return `json:"` + naming.JSONTag(p) + `"`
}

// WriteStruct writes a struct type with one field per property. extra lines are
// appended after the property fields, separated by a blank line.
func (u Unit) WriteStruct(w *writer.Writer, im *writer.Imports, name, doc string, props []template.EntityProperty, tag TagFunc, extra ...string) error {
	w.WriteDocComment(doc)
	if len(props) == 0 && len(extra) == 0 {
		w.WriteLinef("type %s struct{}", name)
		return nil
	}

	var err error
	w.WriteBlock("type "+name+" struct {", "}", func() {
		for _, p := range props {
			typ, ferr := u.FieldType(im, p)
			if ferr != nil {
				err = ferr
				return
			}
			line := naming.Field(p) + " " + typ
			if tag != nil {
				if t := tag(p); t != "" {
					line += " `" + t + "`"
				}
			}
			w.WriteLine(line)
		}
		if len(extra) > 0 && len(props) > 0 {
			w.Newline()
		}
		w.WriteLines(extra...)
	})
	return err
}

// WriteFieldCopy writes "Field: src.Field," for every property, used inside composite literals
func WriteFieldCopy(w *writer.Writer, src string, props []template.EntityProperty) {
	for _, p := range props {
		f := naming.Field(p)
		w.WriteLinef("%s: %s.%s,", f, src, f)
	}
}

// ContextType is the pointer type of the generated data context, importing its package
func (u Unit) ContextType(im *writer.Imports) string {
	im.Add(u.Import(layout.DataContext))
	return "*databases." + naming.DataContext(u.Template)
}

// DomainImport imports the unit entity's domain package under the domain alias
func (u Unit) DomainImport(im *writer.Imports) string {
	im.AddAlias(naming.DomainAlias, u.Import(layout.EntityDomain))
	return naming.DomainAlias
}

// Receiver is the method receiver name of the entity type
func Receiver(e *template.Entity) string {
	return strings.ToLower(naming.Entity(e)[:1])
}

// Render writes a file whose body depends on the imports it collects: body runs
// against a scratch writer first, then package clause, imports and body are joined.
func Render(pkg string, im *writer.Imports, body func(w *writer.Writer) error) (*writer.Writer, error) {
	bw := writer.NewGoWriter()
	if err := body(bw); err != nil {
		return nil, err
	}

	w := writer.NewGoWriter()
	w.WritePackage(pkg)
	im.Write(w)
	w.Write(bw.String())
	return w, nil
}

// GoFile renders a Go artifact of kind for the unit entity
func (u Unit) GoFile(kind layout.ArtifactKind, name string, body func(w *writer.Writer, im *writer.Imports) error) (Artifact, error) {
	loc, err := u.Location(kind, name)
	if err != nil {
		return Artifact{}, err
	}
	im := u.Imports()
	w, err := Render(loc.Package, im, func(bw *writer.Writer) error {
		return body(bw, im)
	})
	if err != nil {
		return Artifact{}, err
	}
	return GoArtifact(u, kind, layout.Target{Entity: u.Entity, Name: name}, w)
}
