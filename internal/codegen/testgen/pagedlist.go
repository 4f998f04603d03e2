package testgen

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/datacontext"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
)

// pageCase is one pagination of the five-element source used by the paged list tests
type pageCase struct {
	name       string
	pageNumber int
	items      string
	size       int
	start      int
	end        int
}

var pageCases = []pageCase{
	{name: "StandardPage", pageNumber: 2, items: "[]int{3, 4}", size: 2, start: 3, end: 4},
	{name: "LastRecord", pageNumber: 3, items: "[]int{5}", size: 1, start: 5, end: 5},
	{name: "PastTheEnd", pageNumber: 4, items: "[]int{}", size: 0, start: 0, end: 0},
}

// PagedListTest renders the unit tests of the paged list shared by paged listings
func PagedListTest(u codegen.Unit) (codegen.Artifact, error) {
	return u.GoFile(layout.ResourcesUnitTest, datacontext.PagedListType, func(w *writer.Writer, im *writer.Imports) error {
		im.Add(codegen.ImportTesting)
		im.Add(codegen.ImportAssert)
		im.Add(u.Import(layout.Resources))

		for _, c := range pageCases {
			w.WriteBlock("func TestPaginate_"+c.name+"(t *testing.T) {", "}", func() {
				w.WriteLine("source := []int{1, 2, 3, 4, 5}")
				w.BlankLine()
				w.WriteLinef("page := resources.Paginate(source, %d, 2)", c.pageNumber)
				w.BlankLine()
				w.WriteLinef("assert.Equal(t, %s, page.Items)", c.items)
				w.WriteLine("assert.Equal(t, int64(5), page.TotalCount)")
				w.WriteLine("assert.Equal(t, 2, page.PageSize)")
				w.WriteLinef("assert.Equal(t, %d, page.PageNumber)", c.pageNumber)
				w.WriteLinef("assert.Equal(t, %d, page.CurrentPageSize)", c.size)
				w.WriteLinef("assert.Equal(t, %d, page.CurrentStartIndex)", c.start)
				w.WriteLinef("assert.Equal(t, %d, page.CurrentEndIndex)", c.end)
				w.WriteLine("assert.Equal(t, 3, page.TotalPages)")
			})
			w.BlankLine()
		}

		w.WriteBlock("func TestPaginate_DefaultsInvalidRequests(t *testing.T) {", "}", func() {
			w.WriteLine("page := resources.Paginate([]int{1, 2, 3}, 0, 0)")
			w.BlankLine()
			w.WriteLine("assert.Equal(t, 1, page.PageNumber)")
			w.WriteLine("assert.Equal(t, resources.DefaultPageSize, page.PageSize)")
			w.WriteLine("assert.Equal(t, []int{1, 2, 3}, page.Items)")
			w.WriteLine("assert.Equal(t, 1, page.TotalPages)")
		})
		w.BlankLine()

		w.WriteBlock("func TestMapPage_KeepsMetadata(t *testing.T) {", "}", func() {
			w.WriteLine("page := resources.NewPagedList([]int{3, 4}, 5, 2, 2)")
			w.BlankLine()
			w.WriteBlock("mapped := resources.MapPage(page, func(v *int) int {", "})", func() {
				w.WriteLine("return *v * 10")
			})
			w.BlankLine()
			w.WriteLine("assert.Equal(t, []int{30, 40}, mapped.Items)")
			w.WriteLine("assert.Equal(t, page.TotalCount, mapped.TotalCount)")
			w.WriteLine("assert.Equal(t, page.TotalPages, mapped.TotalPages)")
			w.WriteLine("assert.Equal(t, page.CurrentStartIndex, mapped.CurrentStartIndex)")
			w.WriteLine("assert.Equal(t, page.CurrentEndIndex, mapped.CurrentEndIndex)")
		})
		return nil
	})
}
