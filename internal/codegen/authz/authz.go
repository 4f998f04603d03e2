// Package authz renders the authorization layer of services with JWT
// authentication: permission constants, roles, the permission policy and the
// gin middleware that carries the caller's roles into the request context.
package authz

import (
	"github.com/okra-platform/apiforge/internal/codegen"
	"github.com/okra-platform/apiforge/internal/codegen/writer"
	"github.com/okra-platform/apiforge/internal/layout"
	"github.com/okra-platform/apiforge/internal/naming"
	"github.com/okra-platform/apiforge/internal/textcase"
)

// ImportJWT is the JWT library of the generated service
const ImportJWT = "github.com/golang-jwt/jwt/v5"

// Roles every generated service starts with
const (
	RoleSuperAdmin = "SuperAdmin"
	RoleUser       = "User"
)

// Generate renders the authorization artifacts. Nothing is emitted when
// authentication is disabled.
func Generate(u codegen.Unit) ([]codegen.Artifact, error) {
	if !u.Template.AddJwtAuthentication {
		return nil, nil
	}

	steps := []func(codegen.Unit) (codegen.Artifact, error){
		permissionsFile,
		rolesFile,
		authorizerFile,
		registrationFile,
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

func permissionsFile(u codegen.Unit) (codegen.Artifact, error) {
	perms := u.Template.Permissions

	return u.GoFile(layout.Authorization, "Permissions", func(w *writer.Writer, im *writer.Imports) error {
		w.WriteLine("// Permission names one capability a role can grant")
		w.WriteLine("type Permission string")
		w.BlankLine()

		if len(perms) > 0 {
			w.WriteBlock("const (", ")", func() {
				for _, p := range perms {
					if p.Description != "" {
						w.WriteComment(naming.Permission(p.Name) + " " + textcase.LowerFirst(p.Description))
					}
					w.WriteLinef("%s Permission = %q", naming.Permission(p.Name), p.Name)
				}
			})
			w.BlankLine()
		}

		w.WriteLine("// AllPermissions lists every declared permission")
		w.WriteBlock("func AllPermissions() []Permission {", "}", func() {
			w.WriteBlock("return []Permission{", "}", func() {
				for _, p := range perms {
					w.WriteLinef("%s,", naming.Permission(p.Name))
				}
			})
		})
		return nil
	})
}

func rolesFile(u codegen.Unit) (codegen.Artifact, error) {
	return u.GoFile(layout.Authorization, "Roles", func(w *writer.Writer, im *writer.Imports) error {
		w.WriteLine("// Role groups permissions granted to a caller")
		w.WriteLine("type Role string")
		w.BlankLine()

		w.WriteBlock("const (", ")", func() {
			w.WriteLinef("%s Role = %q", RoleSuperAdmin, RoleSuperAdmin)
			w.WriteLinef("%s Role = %q", RoleUser, RoleUser)
		})
		w.BlankLine()

		w.WriteLine("// PermissionsFor returns the permissions granted to role")
		w.WriteBlock("func PermissionsFor(role Role) []Permission {", "}", func() {
			w.WriteBlock("switch role {", "}", func() {
				w.WriteLinef("case %s:", RoleSuperAdmin)
				w.WriteLine("\treturn AllPermissions()")
				w.WriteLine("default:")
				w.WriteLine("\treturn nil")
			})
		})
		return nil
	})
}

func authorizerFile(u codegen.Unit) (codegen.Artifact, error) {
	return u.GoFile(layout.Authorization, "Authorizer", func(w *writer.Writer, im *writer.Imports) error {
		im.Add(codegen.ImportContext)
		im.Add(codegen.ImportFmt)
		im.Add(u.Import(layout.Exceptions))

		w.WriteLine("// Authorizer checks that the caller holds a permission")
		w.WriteBlock("type Authorizer interface {", "}", func() {
			w.WriteLine("HasPermission(ctx context.Context, permission Permission) error")
		})
		w.BlankLine()

		w.WriteLine("type rolesKey struct{}")
		w.BlankLine()

		w.WriteLine("// WithRoles returns a context carrying the caller's roles")
		w.WriteBlock("func WithRoles(ctx context.Context, roles ...Role) context.Context {", "}", func() {
			w.WriteLine("return context.WithValue(ctx, rolesKey{}, roles)")
		})
		w.BlankLine()

		w.WriteLine("// RolesFromContext returns the caller's roles")
		w.WriteBlock("func RolesFromContext(ctx context.Context) []Role {", "}", func() {
			w.WriteLine("roles, _ := ctx.Value(rolesKey{}).([]Role)")
			w.WriteLine("return roles")
		})
		w.BlankLine()

		w.WriteLine("// RoleAuthorizer grants a permission when one of the caller's roles holds it")
		w.WriteLine("type RoleAuthorizer struct{}")
		w.BlankLine()

		w.WriteLine("// NewRoleAuthorizer creates the role based policy")
		w.WriteBlock("func NewRoleAuthorizer() *RoleAuthorizer {", "}", func() {
			w.WriteLine("return &RoleAuthorizer{}")
		})
		w.BlankLine()

		w.WriteLine("// HasPermission returns an exceptions.ErrForbiddenAccess error when the caller lacks permission")
		w.WriteBlock("func (a *RoleAuthorizer) HasPermission(ctx context.Context, permission Permission) error {", "}", func() {
			w.WriteBlock("for _, role := range RolesFromContext(ctx) {", "}", func() {
				w.WriteBlock("for _, granted := range PermissionsFor(role) {", "}", func() {
					w.WriteBlock("if granted == permission {", "}", func() {
						w.WriteLine("return nil")
					})
				})
			})
			w.WriteLine(`return fmt.Errorf("missing permission %s: %w", permission, exceptions.ErrForbiddenAccess)`)
		})
		return nil
	})
}

func registrationFile(u codegen.Unit) (codegen.Artifact, error) {
	return u.GoFile(layout.Infrastructure, "AuthRegistration", func(w *writer.Writer, im *writer.Imports) error {
		im.Add("net/http")
		im.Add("strings")
		im.Add(codegen.ImportGin)
		im.Add(ImportJWT)
		im.Add(u.Import(layout.Authorization))

		w.WriteLine("// RegisterAuth validates bearer tokens and stores the caller's roles in the request context")
		w.WriteBlock("func RegisterAuth(router *gin.Engine, settings Settings) {", "}", func() {
			w.WriteBlock("router.Use(func(c *gin.Context) {", "})", func() {
				w.WriteLine(`raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")`)
				w.WriteBlock("if !ok {", "}", func() {
					w.WriteLine("c.Next()")
					w.WriteLine("return")
				})
				w.BlankLine()
				w.WriteLine("claims := jwt.MapClaims{}")
				w.WriteBlock("_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {", "}, jwt.WithAudience(settings.Auth.Audience), jwt.WithIssuer(settings.Auth.Authority))", func() {
					w.WriteLine("return []byte(settings.Auth.ClientSecret), nil")
				})
				w.WriteBlock("if err != nil {", "}", func() {
					w.WriteLine(`c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})`)
					w.WriteLine("return")
				})
				w.BlankLine()
				w.WriteLine("c.Request = c.Request.WithContext(auth.WithRoles(c.Request.Context(), rolesFrom(claims)...))")
				w.WriteLine("c.Next()")
			})
		})
		w.BlankLine()

		w.WriteBlock("func rolesFrom(claims jwt.MapClaims) []auth.Role {", "}", func() {
			w.WriteLine(`raw, _ := claims["roles"].([]any)`)
			w.WriteLine("roles := make([]auth.Role, 0, len(raw))")
			w.WriteBlock("for _, r := range raw {", "}", func() {
				w.WriteBlock("if name, ok := r.(string); ok {", "}", func() {
					w.WriteLine("roles = append(roles, auth.Role(name))")
				})
			})
			w.WriteLine("return roles")
		})
		return nil
	})
}
