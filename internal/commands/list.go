package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/okra-platform/apiforge/internal/template"
)

func writeCatalog(w io.Writer) error {
	kinds := make([]string, 0, len(template.FeatureKinds))
	for _, k := range template.FeatureKinds {
		kinds = append(kinds, string(k))
	}

	_, err := fmt.Fprintf(w, "Feature kinds:\n  %s\n\nProperty types:\n  %s\n\nProviders:\n  %s\n",
		strings.Join(kinds, "\n  "),
		strings.Join(template.PropertyTypes, "\n  "),
		strings.Join(template.Providers, "\n  "))
	return err
}
