// Package writer builds generated source text line by line.
package writer

import (
	"fmt"
	"go/format"
	"strings"
)

// Writer accumulates generated code with indentation tracking
type Writer struct {
	sb           strings.Builder
	indentLevel  int
	indentString string
	linePrefix   string
	needsIndent  bool
}

// NewWriter creates a writer indenting with indentString
func NewWriter(indentString string) *Writer {
	return &Writer{
		indentString: indentString,
		needsIndent:  true,
	}
}

// NewGoWriter creates a writer for Go source, indenting with tabs
func NewGoWriter() *Writer {
	return NewWriter("\t")
}

// Indent increases the indentation level
func (w *Writer) Indent() {
	w.indentLevel++
	w.updatePrefix()
}

// Dedent decreases the indentation level
func (w *Writer) Dedent() {
	if w.indentLevel > 0 {
		w.indentLevel--
		w.updatePrefix()
	}
}

// Write writes s without a trailing newline
func (w *Writer) Write(s string) {
	if w.needsIndent && s != "" {
		w.sb.WriteString(w.linePrefix)
		w.needsIndent = false
	}
	w.sb.WriteString(s)
}

// Writef writes a formatted string without a trailing newline
func (w *Writer) Writef(format string, args ...any) {
	w.Write(fmt.Sprintf(format, args...))
}

// WriteLine writes s followed by a newline
func (w *Writer) WriteLine(s string) {
	w.Write(s)
	w.Newline()
}

// WriteLinef writes a formatted line
func (w *Writer) WriteLinef(format string, args ...any) {
	w.Writef(format, args...)
	w.Newline()
}

// WriteLines writes each line at the current indentation
func (w *Writer) WriteLines(lines ...string) {
	for _, l := range lines {
		w.WriteLine(l)
	}
}

// Newline ends the current line
func (w *Writer) Newline() {
	w.sb.WriteString("\n")
	w.needsIndent = true
}

// BlankLine adds an empty line unless the output already ends with one
func (w *Writer) BlankLine() {
	if w.sb.Len() > 0 && !strings.HasSuffix(w.sb.String(), "\n\n") {
		w.Newline()
	}
}

// IndentLevel returns the current indentation level
func (w *Writer) IndentLevel() int {
	return w.indentLevel
}

// String returns the text written so far
func (w *Writer) String() string {
	return w.sb.String()
}

// Bytes returns the text written so far
func (w *Writer) Bytes() []byte {
	return []byte(w.sb.String())
}

// GoSource returns the text formatted as Go source. A formatting failure means
// a generator produced invalid Go.
func (w *Writer) GoSource() ([]byte, error) {
	src, err := format.Source(w.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated code is not valid Go: %w", err)
	}
	return src, nil
}

// Reset clears the content and indentation
func (w *Writer) Reset() {
	w.sb.Reset()
	w.indentLevel = 0
	w.linePrefix = ""
	w.needsIndent = true
}

func (w *Writer) updatePrefix() {
	w.linePrefix = strings.Repeat(w.indentString, w.indentLevel)
}

// WriteBlock writes opener, the indented content and closer.
// Example: WriteBlock("if err != nil {", "}", func() { w.WriteLine("return err") })
func (w *Writer) WriteBlock(opener, closer string, content func()) {
	w.WriteLine(opener)
	w.Indent()
	content()
	w.Dedent()
	w.WriteLine(closer)
}

// WriteComment writes a single-line Go comment
func (w *Writer) WriteComment(comment string) {
	w.WriteLinef("// %s", comment)
}

// WriteDocComment writes a possibly multi-line doc comment
func (w *Writer) WriteDocComment(doc string) {
	if doc == "" {
		return
	}
	for _, line := range strings.Split(strings.TrimSpace(doc), "\n") {
		w.WriteComment(strings.TrimSpace(line))
	}
}

// WritePackage writes the package clause followed by a blank line
func (w *Writer) WritePackage(name string) {
	w.WriteLinef("package %s", name)
	w.BlankLine()
}
