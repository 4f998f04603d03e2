package writer

import (
	"sort"
	"strings"
)

// Imports collects the imports of one generated Go file
type Imports struct {
	modulePath string
	aliases    map[string]string
}

// NewImports creates an import set for a file of the module at modulePath
func NewImports(modulePath string) *Imports {
	return &Imports{modulePath: modulePath, aliases: make(map[string]string)}
}

// Add imports path without an alias
func (im *Imports) Add(path string) {
	im.AddAlias("", path)
}

// AddAlias imports path under alias. The first alias recorded for a path wins.
func (im *Imports) AddAlias(alias, path string) {
	if path == "" {
		return
	}
	if _, ok := im.aliases[path]; ok {
		return
	}
	im.aliases[path] = alias
}

// Len returns the number of imported paths
func (im *Imports) Len() int {
	return len(im.aliases)
}

// Has reports whether path is imported
func (im *Imports) Has(path string) bool {
	_, ok := im.aliases[path]
	return ok
}

// Write emits the import declaration grouped as standard library, third party
// and module-local paths, each group sorted.
func (im *Imports) Write(w *Writer) {
	if len(im.aliases) == 0 {
		return
	}

	var std, external, local []string
	for path := range im.aliases {
		switch {
		case path == im.modulePath || strings.HasPrefix(path, im.modulePath+"/"):
			local = append(local, path)
		case !strings.Contains(strings.SplitN(path, "/", 2)[0], "."):
			std = append(std, path)
		default:
			external = append(external, path)
		}
	}

	w.WriteLine("import (")
	w.Indent()
	first := true
	for _, group := range [][]string{std, external, local} {
		if len(group) == 0 {
			continue
		}
		if !first {
			w.Newline()
		}
		first = false
		sort.Strings(group)
		for _, path := range group {
			if alias := im.aliases[path]; alias != "" {
				w.WriteLinef("%s %q", alias, path)
			} else {
				w.WriteLinef("%q", path)
			}
		}
	}
	w.Dedent()
	w.WriteLine(")")
	w.BlankLine()
}
