// Package datacontext renders the data-access layer shared by every feature:
// the gorm-backed context with one accessor per entity, the generic entity set,
// the paged list, the exceptions handlers return and the domain event base.
package datacontext

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
	"github.com/okra-platform/apiforge/internal/template"
)

// EntitySetType is the generic entity set emitted next to the context
const EntitySetType = "EntitySet"

// PagedListType is the generic page of results returned by paged listings
const PagedListType = "PagedList"

// Generate renders the data context, entity set, paged list, exceptions and domain events base
func Generate(u codegen.Unit) ([]codegen.Artifact, error) {
	steps := []func(codegen.Unit) (codegen.Artifact, error){
		contextFile,
		entitySetFile,
		pagedListFile,
		exceptionsFile,
		domainEventFile,
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

func contextFile(u codegen.Unit) (codegen.Artifact, error) {
	t := u.Template
	name := naming.DataContext(t)

	return u.GoFile(layout.DataContext, name, func(w *writer.Writer, im *writer.Imports) error {
		driver := codegen.DriverFor(t.DbContext.Provider)
		im.Add(codegen.ImportContext)
		im.Add(codegen.ImportGorm)
		im.Add(driver.Import)

		w.WriteLinef("// %s gives access to every entity set of %s", name, t.ProjectName)
		w.WriteBlock("type "+name+" struct {", "}", func() {
			w.WriteLine("db *gorm.DB")
		})
		w.BlankLine()

		w.WriteLinef("// New%s wraps an open gorm connection", name)
		w.WriteBlock("func New"+name+"(db *gorm.DB) *"+name+" {", "}", func() {
			w.WriteLinef("return &%s{db: db}", name)
		})
		w.BlankLine()

		w.WriteLinef("// Open connects to the %s database described by dsn", t.DbContext.Provider)
		w.WriteBlock("func Open(dsn string) (*gorm.DB, error) {", "}", func() {
			w.WriteLinef("return gorm.Open(%s.Open(dsn), &gorm.Config{})", driver.Package)
		})
		w.BlankLine()

		w.WriteLine("// DB returns the underlying connection")
		w.WriteBlock("func (c *"+name+") DB() *gorm.DB {", "}", func() {
			w.WriteLine("return c.db")
		})
		w.BlankLine()

		w.WriteLine("// Migrate creates or updates the tables of every entity")
		w.WriteBlock("func (c *"+name+") Migrate(ctx context.Context) error {", "}", func() {
			if len(t.Entities) == 0 {
				w.WriteLine("return nil")
				return
			}
			w.WriteBlock("return c.db.WithContext(ctx).AutoMigrate(", ")", func() {
				for i := range t.Entities {
					e := &t.Entities[i]
					w.WriteLinef("&%s.%s{},", entityAlias(e), naming.Entity(e))
				}
			})
		})

		for i := range t.Entities {
			e := &t.Entities[i]
			im.AddAlias(entityAlias(e), u.Import(layout.EntityDomain, e))
			key, err := u.PrimaryKeyType(im, e)
			if err != nil {
				return err
			}
			pk, _ := e.PrimaryKey()
			set := setType(e, key)

			w.BlankLine()
			w.WriteLinef("// %s returns the %s entity set", naming.ContextAccessor(e), naming.Entity(e))
			w.WriteBlock("func (c *"+name+") "+naming.ContextAccessor(e)+"() *"+set+" {", "}", func() {
				w.WriteLinef("return newEntitySet[%s.%s, %s](c.db, %q, %q)",
					entityAlias(e), naming.Entity(e), key, naming.Entity(e), naming.ColumnName(pk, t.DbContext.NamingConvention))
			})
		}

		// every set must satisfy its repository interface
		if len(t.Entities) > 0 {
			w.BlankLine()
			w.WriteBlock("var (", ")", func() {
				for i := range t.Entities {
					e := &t.Entities[i]
					key, _ := u.PrimaryKeyType(im, e)
					w.WriteLinef("_ %s.%s = (*%s)(nil)", entityAlias(e), naming.Repository(e), setType(e, key))
				}
			})
		}
		return nil
	})
}

// entityAlias is the import name of an entity's domain package inside the context file
func entityAlias(e *template.Entity) string {
	return layout.EntityPackage(e)
}

func setType(e *template.Entity, key string) string {
	return EntitySetType + "[" + entityAlias(e) + "." + naming.Entity(e) + ", " + key + "]"
}

// SoftDeleteColumn is the storage column of the soft-delete flag
func SoftDeleteColumn(t *template.ApiTemplate) string {
	return naming.ColumnName(template.EntityProperty{Name: template.SoftDeleteField}, t.DbContext.NamingConvention)
}

func entitySetFile(u codegen.Unit) (codegen.Artifact, error) {
	soft := u.Template.UseSoftDelete

	return u.GoFile(layout.DataContext, EntitySetType, func(w *writer.Writer, im *writer.Imports) error {
		im.Add(codegen.ImportContext)
		im.Add(codegen.ImportErrors)
		im.Add(codegen.ImportGorm)
		im.Add(u.Import(layout.Exceptions))
		im.Add(u.Import(layout.Resources))

		if soft {
			w.WriteLine("// softDeleteColumn flags removed rows; queries skip flagged rows")
			w.WriteLinef("const softDeleteColumn = %q", SoftDeleteColumn(u.Template))
			w.BlankLine()
		}

		w.WriteLine("// EntitySet reads and writes one entity type keyed by K")
		w.WriteBlock("type EntitySet[T any, K comparable] struct {", "}", func() {
			w.WriteLine("db        *gorm.DB")
			w.WriteLine("entity    string")
			w.WriteLine("keyColumn string")
		})
		w.BlankLine()

		w.WriteBlock("func newEntitySet[T any, K comparable](db *gorm.DB, entity, keyColumn string) *EntitySet[T, K] {", "}", func() {
			w.WriteLine("return &EntitySet[T, K]{db: db, entity: entity, keyColumn: keyColumn}")
		})
		w.BlankLine()

		w.WriteBlock("func (s *EntitySet[T, K]) query(ctx context.Context) *gorm.DB {", "}", func() {
			if soft {
				w.WriteLine("return s.db.WithContext(ctx).Where(softDeleteColumn+\" = ?\", false)")
			} else {
				w.WriteLine("return s.db.WithContext(ctx)")
			}
		})
		w.BlankLine()

		w.WriteLine("// GetByID returns the entity with the given key or an exceptions.ErrNotFound error")
		w.WriteBlock("func (s *EntitySet[T, K]) GetByID(ctx context.Context, id K) (*T, error) {", "}", func() {
			w.WriteLine("var entity T")
			w.WriteLine("err := s.query(ctx).Where(s.keyColumn+\" = ?\", id).First(&entity).Error")
			w.WriteBlock("if errors.Is(err, gorm.ErrRecordNotFound) {", "}", func() {
				w.WriteLine("return nil, exceptions.NewNotFound(s.entity, id)")
			})
			w.WriteBlock("if err != nil {", "}", func() {
				w.WriteLine("return nil, err")
			})
			w.WriteLine("return &entity, nil")
		})
		w.BlankLine()

		w.WriteLine("// List returns every entity")
		w.WriteBlock("func (s *EntitySet[T, K]) List(ctx context.Context) ([]T, error) {", "}", func() {
			w.WriteLine("var entities []T")
			w.WriteBlock("if err := s.query(ctx).Order(s.keyColumn).Find(&entities).Error; err != nil {", "}", func() {
				w.WriteLine("return nil, err")
			})
			w.WriteLine("return entities, nil")
		})
		w.BlankLine()

		w.WriteLine("// ListPage returns one page of entities with the total count. Pages start at 1.")
		w.WriteBlock("func (s *EntitySet[T, K]) ListPage(ctx context.Context, pageNumber, pageSize int) (resources.PagedList[T], error) {", "}", func() {
			w.WriteLine("pageNumber, pageSize = resources.NormalizePage(pageNumber, pageSize)")
			w.BlankLine()
			w.WriteLine("var total int64")
			w.WriteBlock("if err := s.query(ctx).Model(new(T)).Count(&total).Error; err != nil {", "}", func() {
				w.WriteLine("return resources.PagedList[T]{}, err")
			})
			w.WriteLine("var entities []T")
			w.WriteLine("err := s.query(ctx).Order(s.keyColumn).Offset((pageNumber - 1) * pageSize).Limit(pageSize).Find(&entities).Error")
			w.WriteBlock("if err != nil {", "}", func() {
				w.WriteLine("return resources.PagedList[T]{}, err")
			})
			w.WriteLine("return resources.NewPagedList(entities, total, pageNumber, pageSize), nil")
		})
		w.BlankLine()

		w.WriteLine("// Add inserts one entity")
		w.WriteBlock("func (s *EntitySet[T, K]) Add(ctx context.Context, entity *T) error {", "}", func() {
			w.WriteLine("return s.db.WithContext(ctx).Create(entity).Error")
		})
		w.BlankLine()

		w.WriteLine("// AddRange inserts entities in one statement. An empty slice is a no-op.")
		w.WriteBlock("func (s *EntitySet[T, K]) AddRange(ctx context.Context, entities []*T) error {", "}", func() {
			w.WriteBlock("if len(entities) == 0 {", "}", func() {
				w.WriteLine("return nil")
			})
			w.WriteLine("return s.db.WithContext(ctx).Create(entities).Error")
		})
		w.BlankLine()

		w.WriteLine("// Update saves every column of entity")
		w.WriteBlock("func (s *EntitySet[T, K]) Update(ctx context.Context, entity *T) error {", "}", func() {
			w.WriteLine("return s.db.WithContext(ctx).Save(entity).Error")
		})
		w.BlankLine()

		w.WriteLine("// UpdateRange saves entities in one transaction")
		w.WriteBlock("func (s *EntitySet[T, K]) UpdateRange(ctx context.Context, entities []*T) error {", "}", func() {
			w.WriteBlock("return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {", "})", func() {
				w.WriteBlock("for _, entity := range entities {", "}", func() {
					w.WriteBlock("if err := tx.Save(entity).Error; err != nil {", "}", func() {
						w.WriteLine("return err")
					})
				})
				w.WriteLine("return nil")
			})
		})
		w.BlankLine()

		if soft {
			w.WriteLine("// Remove flags entity as deleted")
			w.WriteBlock("func (s *EntitySet[T, K]) Remove(ctx context.Context, entity *T) error {", "}", func() {
				w.WriteLine("return s.db.WithContext(ctx).Model(entity).Update(softDeleteColumn, true).Error")
			})
		} else {
			w.WriteLine("// Remove deletes entity")
			w.WriteBlock("func (s *EntitySet[T, K]) Remove(ctx context.Context, entity *T) error {", "}", func() {
				w.WriteLine("return s.db.WithContext(ctx).Delete(entity).Error")
			})
		}
		return nil
	})
}

func exceptionsFile(u codegen.Unit) (codegen.Artifact, error) {
	return u.GoFile(layout.Exceptions, "Exceptions", func(w *writer.Writer, im *writer.Imports) error {
		im.Add(codegen.ImportErrors)
		im.Add(codegen.ImportFmt)

		w.WriteBlock("var (", ")", func() {
			w.WriteLine("// ErrNotFound is returned when a requested record does not exist")
			w.WriteLine(`ErrNotFound = errors.New("not found")`)
			w.WriteLine("// ErrForbiddenAccess is returned when the caller lacks a permission")
			w.WriteLine(`ErrForbiddenAccess = errors.New("forbidden access")`)
		})
		w.BlankLine()

		w.WriteLine("// NotFoundError names the entity and key that could not be found")
		w.WriteBlock("type NotFoundError struct {", "}", func() {
			w.WriteLine("Entity string")
			w.WriteLine("Key    any")
		})
		w.BlankLine()

		w.WriteBlock("func (e *NotFoundError) Error() string {", "}", func() {
			w.WriteLine(`return fmt.Sprintf("%s with key %v was not found", e.Entity, e.Key)`)
		})
		w.BlankLine()

		w.WriteBlock("func (e *NotFoundError) Unwrap() error {", "}", func() {
			w.WriteLine("return ErrNotFound")
		})
		w.BlankLine()

		w.WriteLine("// NewNotFound reports a missing entity")
		w.WriteBlock("func NewNotFound(entity string, key any) error {", "}", func() {
			w.WriteLine("return &NotFoundError{Entity: entity, Key: key}")
		})
		return nil
	})
}

func pagedListFile(u codegen.Unit) (codegen.Artifact, error) {
	return u.GoFile(layout.Resources, PagedListType, func(w *writer.Writer, im *writer.Imports) error {
		w.WriteLine("// DefaultPageSize applies when a request asks for no page size")
		w.WriteLine("const DefaultPageSize = 10")
		w.BlankLine()

		w.WriteLine("// PagedList is one page of a larger ordered result")
		w.WriteBlock("type PagedList[T any] struct {", "}", func() {
			w.WriteLine("Items             []T   `json:\"items\"`")
			w.WriteLine("PageNumber        int   `json:\"pageNumber\"`")
			w.WriteLine("PageSize          int   `json:\"pageSize\"`")
			w.WriteLine("TotalCount        int64 `json:\"totalCount\"`")
			w.WriteLine("TotalPages        int   `json:\"totalPages\"`")
			w.WriteLine("CurrentPageSize   int   `json:\"currentPageSize\"`")
			w.WriteLine("CurrentStartIndex int   `json:\"currentStartIndex\"`")
			w.WriteLine("CurrentEndIndex   int   `json:\"currentEndIndex\"`")
		})
		w.BlankLine()

		w.WriteLine("// NormalizePage clamps a requested page. Pages start at 1.")
		w.WriteBlock("func NormalizePage(pageNumber, pageSize int) (int, int) {", "}", func() {
			w.WriteBlock("if pageNumber < 1 {", "}", func() {
				w.WriteLine("pageNumber = 1")
			})
			w.WriteBlock("if pageSize < 1 {", "}", func() {
				w.WriteLine("pageSize = DefaultPageSize")
			})
			w.WriteLine("return pageNumber, pageSize")
		})
		w.BlankLine()

		w.WriteLine("// NewPagedList describes items as page pageNumber of totalCount records.")
		w.WriteLine("// Start and end indexes are 1-based and zero for an empty page.")
		w.WriteBlock("func NewPagedList[T any](items []T, totalCount int64, pageNumber, pageSize int) PagedList[T] {", "}", func() {
			w.WriteLine("pageNumber, pageSize = NormalizePage(pageNumber, pageSize)")
			w.WriteBlock("page := PagedList[T]{", "}", func() {
				w.WriteLine("Items:           items,")
				w.WriteLine("PageNumber:      pageNumber,")
				w.WriteLine("PageSize:        pageSize,")
				w.WriteLine("TotalCount:      totalCount,")
				w.WriteLine("TotalPages:      int((totalCount + int64(pageSize) - 1) / int64(pageSize)),")
				w.WriteLine("CurrentPageSize: len(items),")
			})
			w.WriteBlock("if len(items) > 0 {", "}", func() {
				w.WriteLine("page.CurrentStartIndex = (pageNumber-1)*pageSize + 1")
				w.WriteLine("page.CurrentEndIndex = page.CurrentStartIndex + len(items) - 1")
			})
			w.WriteLine("return page")
		})
		w.BlankLine()

		w.WriteLine("// Paginate returns page pageNumber of source")
		w.WriteBlock("func Paginate[T any](source []T, pageNumber, pageSize int) PagedList[T] {", "}", func() {
			w.WriteLine("pageNumber, pageSize = NormalizePage(pageNumber, pageSize)")
			w.WriteLine("start := min((pageNumber-1)*pageSize, len(source))")
			w.WriteLine("end := min(start+pageSize, len(source))")
			w.WriteLine("return NewPagedList(source[start:end], int64(len(source)), pageNumber, pageSize)")
		})
		w.BlankLine()

		w.WriteLine("// MapPage converts the items of page and keeps its metadata")
		w.WriteBlock("func MapPage[T, R any](page PagedList[T], convert func(*T) R) PagedList[R] {", "}", func() {
			w.WriteLine("items := make([]R, 0, len(page.Items))")
			w.WriteBlock("for i := range page.Items {", "}", func() {
				w.WriteLine("items = append(items, convert(&page.Items[i]))")
			})
			w.WriteBlock("return PagedList[R]{", "}", func() {
				w.WriteLine("Items:             items,")
				w.WriteLine("PageNumber:        page.PageNumber,")
				w.WriteLine("PageSize:          page.PageSize,")
				w.WriteLine("TotalCount:        page.TotalCount,")
				w.WriteLine("TotalPages:        page.TotalPages,")
				w.WriteLine("CurrentPageSize:   page.CurrentPageSize,")
				w.WriteLine("CurrentStartIndex: page.CurrentStartIndex,")
				w.WriteLine("CurrentEndIndex:   page.CurrentEndIndex,")
			})
		})
		return nil
	})
}

func domainEventFile(u codegen.Unit) (codegen.Artifact, error) {
	return u.GoFile(layout.DomainEvents, "DomainEvent", func(w *writer.Writer, im *writer.Imports) error {
		w.WriteLine("// DomainEvent is raised by entities when their state changes")
		w.WriteBlock("type DomainEvent interface {", "}", func() {
			w.WriteLine("EventName() string")
		})
		w.BlankLine()

		w.WriteLine("// Recorder collects the events raised by one entity")
		w.WriteBlock("type Recorder struct {", "}", func() {
			w.WriteLine("events []DomainEvent")
		})
		w.BlankLine()

		w.WriteLine("// Raise records event")
		w.WriteBlock("func (r *Recorder) Raise(event DomainEvent) {", "}", func() {
			w.WriteLine("r.events = append(r.events, event)")
		})
		w.BlankLine()

		w.WriteLine("// DomainEvents returns the recorded events in order")
		w.WriteBlock("func (r *Recorder) DomainEvents() []DomainEvent {", "}", func() {
			w.WriteLine("return r.events")
		})
		w.BlankLine()

		w.WriteLine("// ClearDomainEvents forgets every recorded event")
		w.WriteBlock("func (r *Recorder) ClearDomainEvents() {", "}", func() {
			w.WriteLine("r.events = nil")
		})
		return nil
	})
}
