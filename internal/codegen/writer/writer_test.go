package writer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_BasicWriting(t *testing.T) {
	// Test: Basic write operations
	w := NewWriter("\t")

	w.Write("hello")
	w.Write(" world")

	assert.Equal(t, "hello world", w.String())
}

func TestWriter_Indentation(t *testing.T) {
	// Test: Proper indentation handling
	w := NewGoWriter()

	w.WriteLine("func main() {")
	w.Indent()
	w.WriteLine("fmt.Println(\"hello\")")
	w.WriteLine("return")
	w.Dedent()
	w.WriteLine("}")

	assert.Equal(t, "func main() {\n\tfmt.Println(\"hello\")\n\treturn\n}\n", w.String())
}

func TestWriter_DedentAtZero(t *testing.T) {
	w := NewGoWriter()
	w.Dedent()
	assert.Equal(t, 0, w.IndentLevel())
}

func TestWriter_BlankLine(t *testing.T) {
	// Test: BlankLine never stacks empty lines
	w := NewGoWriter()

	w.BlankLine()
	w.WriteLine("line1")
	w.BlankLine()
	w.BlankLine()
	w.WriteLine("line2")

	assert.Equal(t, "line1\n\nline2\n", w.String())
}

func TestWriter_WriteBlock(t *testing.T) {
	w := NewGoWriter()

	w.WriteBlock("if err != nil {", "}", func() {
		w.WriteLine("return err")
	})

	assert.Equal(t, "if err != nil {\n\treturn err\n}\n", w.String())
}

func TestWriter_WriteDocComment(t *testing.T) {
	w := NewGoWriter()

	w.WriteDocComment("")
	w.WriteDocComment("first line\n  second line  ")

	assert.Equal(t, "// first line\n// second line\n", w.String())
}

func TestWriter_Reset(t *testing.T) {
	w := NewGoWriter()
	w.Indent()
	w.WriteLine("x")
	w.Reset()

	w.WriteLine("y")
	assert.Equal(t, "y\n", w.String())
	assert.Equal(t, 0, w.IndentLevel())
}

func TestWriter_GoSource(t *testing.T) {
	// Test: GoSource formats valid code and rejects invalid code
	w := NewGoWriter()
	w.WritePackage("orders")
	w.WriteLine("type Order struct {")
	w.WriteLine("ID string")
	w.WriteLine("CustomerName string")
	w.WriteLine("}")

	src, err := w.GoSource()
	require.NoError(t, err)
	assert.Contains(t, string(src), "\tID           string\n")

	w.Reset()
	w.WriteLine("package broken")
	w.WriteLine("func {")
	_, err = w.GoSource()
	assert.ErrorContains(t, err, "generated code is not valid Go")
}

func TestImports_Grouping(t *testing.T) {
	// Test: imports are grouped stdlib, third party, module and sorted within groups
	im := NewImports("order-service")
	im.Add("time")
	im.Add("github.com/google/uuid")
	im.AddAlias("domain", "order-service/src/domain/orders")
	im.Add("context")
	im.Add("gorm.io/gorm")
	im.Add("context")
	im.AddAlias("ignored", "time")

	w := NewGoWriter()
	im.Write(w)

	expected := strings.Join([]string{
		"import (",
		"\t\"context\"",
		"\t\"time\"",
		"",
		"\t\"github.com/google/uuid\"",
		"\t\"gorm.io/gorm\"",
		"",
		"\tdomain \"order-service/src/domain/orders\"",
		")",
		"",
		"",
	}, "\n")
	assert.Equal(t, expected, w.String())
	assert.Equal(t, 5, im.Len())
	assert.True(t, im.Has("time"))
	assert.False(t, im.Has("fmt"))
}

func TestImports_Empty(t *testing.T) {
	w := NewGoWriter()
	NewImports("shop").Write(w)
	assert.Empty(t, w.String())
}
