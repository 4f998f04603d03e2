package testgen

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
)

// DatabaseEnv names the variable holding the test database DSN
const DatabaseEnv = "TEST_DATABASE_DSN"

// Shared renders the test utilities every generated test imports: the service
// scope, the permission stub and assertion helpers
func Shared(u codegen.Unit) (codegen.Artifact, error) {
	auth := u.Template.AddJwtAuthentication
	ctxName := naming.DataContext(u.Template)

	return u.GoFile(layout.TestUtilities, "ServiceScope", func(w *writer.Writer, im *writer.Imports) error {
		im.Add(codegen.ImportContext)
		im.Add("os")
		im.Add(codegen.ImportTesting)
		im.Add(codegen.ImportTime)
		im.Add(codegen.ImportAssert)
		im.Add(codegen.ImportRequire)
		ctxType := u.ContextType(im)

		w.WriteLine("// ServiceScope runs one test against the database inside a transaction")
		w.WriteLine("// that is rolled back when the test ends")
		w.WriteBlock("type ServiceScope struct {", "}", func() {
			w.WriteLine("DB " + ctxType)
			if auth {
				w.WriteLine("Authorizer *StubAuthorizer")
			}
			w.Newline()
			w.WriteLine("ctx context.Context")
		})
		w.BlankLine()

		w.WriteLinef("// NewServiceScope opens the database named by %s, migrates it and", DatabaseEnv)
		w.WriteLine("// starts the test transaction. The test is skipped when no database is configured.")
		w.WriteBlock("func NewServiceScope(t *testing.T) *ServiceScope {", "}", func() {
			w.WriteLine("t.Helper()")
			w.WriteLinef("dsn := os.Getenv(%q)", DatabaseEnv)
			w.WriteBlock("if dsn == \"\" {", "}", func() {
				w.WriteLinef("t.Skip(\"%s is not set\")", DatabaseEnv)
			})
			w.BlankLine()
			w.WriteLine("db, err := databases.Open(dsn)")
			w.WriteLine("require.NoError(t, err)")
			w.WriteLine("ctx := context.Background()")
			w.WriteLinef("require.NoError(t, databases.New%s(db).Migrate(ctx))", ctxName)
			w.BlankLine()
			w.WriteLine("tx := db.Begin()")
			w.WriteLine("require.NoError(t, tx.Error)")
			w.WriteBlock("t.Cleanup(func() {", "})", func() {
				w.WriteLine("tx.Rollback()")
			})
			w.BlankLine()
			w.WriteBlock("return &ServiceScope{", "}", func() {
				w.WriteLinef("DB: databases.New%s(tx),", ctxName)
				if auth {
					w.WriteLine("Authorizer: &StubAuthorizer{Permitted: true},")
				}
				w.WriteLine("ctx: ctx,")
			})
		})
		w.BlankLine()

		w.WriteLine("// Context returns the context handlers run with")
		w.WriteBlock("func (s *ServiceScope) Context() context.Context {", "}", func() {
			w.WriteLine("return s.ctx")
		})
		w.BlankLine()

		w.WriteLine("// Insert stores entities directly, bypassing the handlers")
		w.WriteBlock("func (s *ServiceScope) Insert(t *testing.T, entities ...any) {", "}", func() {
			w.WriteLine("t.Helper()")
			w.WriteBlock("for _, entity := range entities {", "}", func() {
				w.WriteLine("require.NoError(t, s.DB.DB().WithContext(s.ctx).Create(entity).Error)")
			})
		})

		if auth {
			im.Add(codegen.ImportFmt)
			im.Add(u.Import(layout.Authorization))
			im.Add(u.Import(layout.Exceptions))

			w.BlankLine()
			w.WriteLine("// SetUserNotPermitted makes every permission check of the scope fail")
			w.WriteBlock("func (s *ServiceScope) SetUserNotPermitted() {", "}", func() {
				w.WriteLine("s.Authorizer.Permitted = false")
			})
			w.BlankLine()

			w.WriteLine("// StubAuthorizer grants or denies every permission")
			w.WriteBlock("type StubAuthorizer struct {", "}", func() {
				w.WriteLine("Permitted bool")
			})
			w.BlankLine()

			w.WriteBlock("func (a *StubAuthorizer) HasPermission(ctx context.Context, permission auth.Permission) error {", "}", func() {
				w.WriteBlock("if a.Permitted {", "}", func() {
					w.WriteLine("return nil")
				})
				w.WriteLine(`return fmt.Errorf("missing permission %s: %w", permission, exceptions.ErrForbiddenAccess)`)
			})
		}
		w.BlankLine()

		w.WriteLine("// Ptr returns a pointer to v")
		w.WriteBlock("func Ptr[T any](v T) *T {", "}", func() {
			w.WriteLine("return &v")
		})
		w.BlankLine()

		w.WriteLine("// AssertTimePtrWithin checks that both times are nil or one second apart at most")
		w.WriteBlock("func AssertTimePtrWithin(t *testing.T, expected, actual *time.Time) {", "}", func() {
			w.WriteLine("t.Helper()")
			w.WriteBlock("if expected == nil {", "}", func() {
				w.WriteLine("assert.Nil(t, actual)")
				w.WriteLine("return")
			})
			w.WriteLine("require.NotNil(t, actual)")
			w.WriteLine("assert.WithinDuration(t, *expected, *actual, time.Second)")
		})
		w.BlankLine()

		w.WriteLine("// AssertFloatPtrInDelta checks that both values are nil or within delta")
		w.WriteBlock("func AssertFloatPtrInDelta[F float32 | float64](t *testing.T, expected, actual *F, delta float64) {", "}", func() {
			w.WriteLine("t.Helper()")
			w.WriteBlock("if expected == nil {", "}", func() {
				w.WriteLine("assert.Nil(t, actual)")
				w.WriteLine("return")
			})
			w.WriteLine("require.NotNil(t, actual)")
			w.WriteLine("assert.InDelta(t, *expected, *actual, delta)")
		})
		return nil
	})
}
