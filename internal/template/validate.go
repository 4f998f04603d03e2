package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/okra-platform/apiforge/internal/textcase"
)

var (
	projectNameRegex = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)
	identifierRegex  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ -]*$`)
)

// SoftDeleteField is the field soft delete adds to every entity
const SoftDeleteField = "IsDeleted"

// entityMembers are the fields and methods every generated entity declares
// besides its properties
var entityMembers = []string{"Recorder", "TableName", "Update", "Raise", "DomainEvents", "ClearDomainEvents"}

// guard is one pre-generation rule
type guard struct {
	name  string
	check func(t *ApiTemplate) string
}

// guards run in this order; the first violation aborts validation
var guards = []guard{
	{GuardMissingPrimaryKey, checkPrimaryKeys},
	{GuardInvalidProjectName, checkProjectName},
	{GuardInvalidIdentifier, checkIdentifiers},
	{GuardNameCollision, checkNameCollision},
	{GuardDuplicateEntity, checkDuplicateEntities},
	{GuardDuplicateProperty, checkDuplicateProperties},
	{GuardUnknownEntityReference, checkEntityReferences},
	{GuardProtectedWithoutAuth, checkProtectedWithoutAuth},
	{GuardDuplicatePermission, checkDuplicatePermissions},
	{GuardUnknownPermission, checkPermissions},
	{GuardInvalidSettings, checkSettings},
}

var structValidator = validator.New()

// Validate runs every guard in order and returns the first failure as a *ValidationError
func Validate(t *ApiTemplate) error {
	if t == nil {
		return &ValidationError{Guard: GuardInvalidSettings, Message: "template is nil"}
	}
	for _, g := range guards {
		if msg := g.check(t); msg != "" {
			return &ValidationError{Guard: g.name, Message: msg}
		}
	}
	return nil
}

// Prepare normalizes raw and validates the result. raw is not modified.
func Prepare(raw *ApiTemplate) (*ApiTemplate, error) {
	if raw == nil {
		return nil, Validate(nil)
	}
	t := Normalize(*raw)
	if err := Validate(t); err != nil {
		return nil, err
	}
	return t, nil
}

func checkPrimaryKeys(t *ApiTemplate) string {
	for _, e := range t.Entities {
		count := 0
		for _, p := range e.Properties {
			if p.IsPrimaryKey {
				count++
			}
		}
		switch {
		case count == 0:
			return fmt.Sprintf("entity %q does not declare a primary key property", e.Name)
		case count > 1:
			return fmt.Sprintf("entity %q declares %d primary key properties, exactly one is required", e.Name, count)
		}
	}
	return ""
}

func checkProjectName(t *ApiTemplate) string {
	if strings.TrimSpace(t.ProjectName) == "" {
		return "project name is required"
	}
	if !projectNameRegex.MatchString(t.ProjectName) {
		return fmt.Sprintf("project name %q must start with a letter and contain only letters, digits, '-' or '_'", t.ProjectName)
	}
	return ""
}

func checkNameCollision(t *ApiTemplate) string {
	for _, e := range t.Entities {
		if strings.EqualFold(e.Name, t.ProjectName) {
			return fmt.Sprintf("entity %q has the same name as the project", e.Name)
		}
	}
	return ""
}

func checkIdentifiers(t *ApiTemplate) string {
	bad := func(what, name string) string {
		if name == "" || identifierRegex.MatchString(name) {
			return ""
		}
		return fmt.Sprintf("%s %q must start with a letter and contain only letters, digits, spaces, '-' or '_'", what, name)
	}

	for _, e := range t.Entities {
		if msg := bad("entity name", e.Name); msg != "" {
			return msg
		}
		if msg := bad("plural of "+e.Name, e.Plural); msg != "" {
			return msg
		}
		for _, p := range e.Properties {
			if msg := bad("property name of "+e.Name, p.Name); msg != "" {
				return msg
			}
		}
		for _, f := range e.Features {
			if msg := bad("feature name of "+e.Name, f.Name); msg != "" {
				return msg
			}
		}
	}
	for _, p := range t.Permissions {
		if msg := bad("permission name", p.Name); msg != "" {
			return msg
		}
	}
	return ""
}

// checkDuplicateEntities compares the Go type and package each entity becomes
func checkDuplicateEntities(t *ApiTemplate) string {
	types := make(map[string]string, len(t.Entities))
	packages := make(map[string]string, len(t.Entities))
	for _, e := range t.Entities {
		typeName := textcase.GoIdent(e.Name)
		if prev, ok := types[typeName]; ok {
			return fmt.Sprintf("entity %q is declared more than once (as %q)", e.Name, prev)
		}
		types[typeName] = e.Name

		pkg := textcase.Lower(e.Plural)
		if prev, ok := packages[pkg]; ok {
			return fmt.Sprintf("entities %q and %q share the plural %q", prev, e.Name, pkg)
		}
		packages[pkg] = e.Name
	}
	return ""
}

// checkDuplicateProperties compares the Go field each property becomes,
// including the fields and methods generated for every entity
func checkDuplicateProperties(t *ApiTemplate) string {
	for _, e := range t.Entities {
		taken := make(map[string]string, len(entityMembers)+1)
		for _, m := range entityMembers {
			taken[m] = "a generated member"
		}
		if t.UseSoftDelete {
			taken[SoftDeleteField] = "the soft delete field"
		}

		seen := make(map[string]string, len(e.Properties))
		for _, p := range e.Properties {
			field := textcase.GoIdent(p.Name)
			if prev, ok := seen[field]; ok {
				return fmt.Sprintf("entity %q declares property %q more than once (as %q)", e.Name, field, prev)
			}
			if what, ok := taken[field]; ok {
				return fmt.Sprintf("property %s.%s collides with %s", e.Name, p.Name, what)
			}
			seen[field] = p.Name
		}
	}
	return ""
}

func checkEntityReferences(t *ApiTemplate) string {
	for _, e := range t.Entities {
		for _, p := range e.Properties {
			if p.Relationship == RelationshipNone || p.Relationship == "" {
				continue
			}
			if p.ForeignEntityName == "" {
				return fmt.Sprintf("property %s.%s has relationship %q but no foreign entity", e.Name, p.Name, p.Relationship)
			}
			if _, ok := t.Entity(p.ForeignEntityName); !ok {
				return fmt.Sprintf("property %s.%s references unknown entity %q", e.Name, p.Name, p.ForeignEntityName)
			}
		}
		for _, f := range e.Features {
			if f.ParentEntity != "" {
				if _, ok := t.Entity(f.ParentEntity); !ok {
					return fmt.Sprintf("feature %s of %s references unknown parent entity %q", f.Type, e.Name, f.ParentEntity)
				}
			}
			if f.HasBatchKey() && f.ParentEntity == "" {
				return fmt.Sprintf("feature %s of %s has batch key %q but no parent entity", f.Type, e.Name, f.BatchPropertyName)
			}
		}
	}
	return ""
}

func checkProtectedWithoutAuth(t *ApiTemplate) string {
	if t.AddJwtAuthentication {
		return ""
	}
	for _, e := range t.Entities {
		for _, f := range e.Features {
			if f.IsProtected {
				return fmt.Sprintf("feature %s of %s is protected but addJwtAuthentication is disabled", f.Type, e.Name)
			}
		}
	}
	return ""
}

func checkDuplicatePermissions(t *ApiTemplate) string {
	seen := make(map[string]string, len(t.Permissions))
	for _, p := range t.Permissions {
		name := textcase.GoIdent(p.Name)
		if prev, ok := seen[name]; ok {
			return fmt.Sprintf("permission %q is declared more than once (as %q)", name, prev)
		}
		seen[name] = p.Name
	}
	return ""
}

func checkPermissions(t *ApiTemplate) string {
	for _, e := range t.Entities {
		for _, f := range e.Features {
			if !f.IsProtected {
				continue
			}
			if f.PermissionName == "" {
				return fmt.Sprintf("protected feature %s of %s has no permission", f.Type, e.Name)
			}
			if _, ok := t.Permission(f.PermissionName); !ok {
				return fmt.Sprintf("feature %s of %s references undeclared permission %q", f.Type, e.Name, f.PermissionName)
			}
		}
	}
	return ""
}

func checkSettings(t *ApiTemplate) string {
	err := structValidator.Struct(t)
	if err == nil {
		return ""
	}

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("%s: value %v fails %q", fe.Namespace(), fe.Value(), fe.ActualTag())
	}
	return err.Error()
}
