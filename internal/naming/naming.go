// Package naming derives every identifier the generators emit. Feature and test
// generators call the same functions, so a test always names the symbols its
// feature declares.
package naming

import (
	"go/token"

	"github.com/okra-platform/apiforge/internal/template"
	"github.com/okra-platform/apiforge/internal/textcase"
)

// Test scenarios
const (
	ScenarioSuccess        = "Success"
	ScenarioNotFound       = "NotFound"
	ScenarioParentNotFound = "ParentNotFound"
	ScenarioForbidden      = "Forbidden"
	ScenarioEmptyBatch     = "EmptyBatch"
)

// Ident converts a name to an exported Go identifier, honoring Go initialisms
// ("OrderId" -> "OrderID", "api_url" -> "APIURL").
func Ident(name string) string {
	return textcase.GoIdent(name)
}

// reserved are identifiers generated code already uses for packages, parameters
// and locals
var reserved = map[string]bool{
	"auth":        true,
	"command":     true,
	"context":     true,
	"ctx":         true,
	"databases":   true,
	"domain":      true,
	"dtos":        true,
	"err":         true,
	"events":      true,
	"exceptions":  true,
	"features":    true,
	"forCreation": true,
	"forUpdate":   true,
	"h":           true,
	"handler":     true,
	"i":           true,
	"item":        true,
	"models":      true,
	"parent":      true,
	"query":       true,
	"result":      true,
	"resources":   true,
	"scope":       true,
	"stored":      true,
	"testutil":    true,
	"time":        true,
	"toAdd":       true,
	"toUpdate":    true,
	"uuid":        true,
}

// Local converts a name to an unexported Go identifier that never shadows a
// keyword or an identifier the generated code already uses
func Local(name string) string {
	v := textcase.LowerFirst(Ident(name))
	if token.IsKeyword(v) || reserved[v] {
		return v + "Value"
	}
	return v
}

// Entity is the Go type name of the entity
func Entity(e *template.Entity) string {
	return Ident(e.Name)
}

// ReadDto is the DTO returned by queries
func ReadDto(e *template.Entity) string {
	return Entity(e) + "Dto"
}

// CreationDto is the DTO accepted by add features
func CreationDto(e *template.Entity) string {
	return Entity(e) + "ForCreationDto"
}

// UpdateDto is the DTO accepted by update features
func UpdateDto(e *template.Entity) string {
	return Entity(e) + "ForUpdateDto"
}

// CreationModel is the internal model passed to the entity factory
func CreationModel(e *template.Entity) string {
	return Entity(e) + "ForCreation"
}

// UpdateModel is the internal model passed to the entity mutator
func UpdateModel(e *template.Entity) string {
	return Entity(e) + "ForUpdate"
}

// MapTo is the mapping function converting into the named type
func MapTo(typeName string) string {
	return "To" + typeName
}

// Feature is the type prefix of a feature; an explicit feature name wins
func Feature(e *template.Entity, f template.Feature) string {
	if f.Name != "" {
		return Ident(f.Name)
	}

	entity, plural := Entity(e), Ident(e.Plural)
	switch f.Type {
	case template.GetRecord:
		return "Get" + entity
	case template.GetList:
		return "Get" + entity + "List"
	case template.AddRecord:
		return "Add" + entity
	case template.AddRecordList:
		return "Add" + entity + "List"
	case template.UpdateRecord:
		return "Update" + entity
	case template.UpdateRecordList:
		return "Update" + entity + "List"
	case template.DeleteRecord:
		return "Delete" + entity
	default:
		return Ident(string(f.Type)) + plural
	}
}

// Request is the query or command type of a feature
func Request(e *template.Entity, f template.Feature) string {
	if f.Type.IsQuery() {
		return Feature(e, f) + "Query"
	}
	return Feature(e, f) + "Command"
}

// Paging fields of a paged list query
const (
	PageNumberField = "PageNumber"
	PageSizeField   = "PageSize"
)

// BatchItemDataField holds the update DTO of one UpdateRecordList item
const BatchItemDataField = "Data"

// CommandInput is the command field holding the DTO input of a mutating feature.
// Queries and deletes have none.
func CommandInput(e *template.Entity, f template.Feature) string {
	switch f.Type {
	case template.AddRecord:
		return Entity(e) + "ToAdd"
	case template.AddRecordList:
		return Ident(e.Plural) + "ToAdd"
	case template.UpdateRecord:
		return "Updated" + Entity(e) + "Data"
	case template.UpdateRecordList:
		return Ident(e.Plural) + "ToUpdate"
	default:
		return ""
	}
}

// KeyField is the request field carrying the entity's primary key
func KeyField(e *template.Entity) string {
	pk, _ := e.PrimaryKey()
	return Field(pk)
}

// BatchKeyField is the request field carrying the parent key of a batch-scoped feature
func BatchKeyField(f template.Feature) string {
	return Ident(f.BatchPropertyName)
}

// BatchItem is the element type of an UpdateRecordList command
func BatchItem(e *template.Entity, f template.Feature) string {
	return Feature(e, f) + "Item"
}

// Handler is the handler type of a feature
func Handler(e *template.Entity, f template.Feature) string {
	return Feature(e, f) + "Handler"
}

// HandlerConstructor is the constructor of the handler type
func HandlerConstructor(e *template.Entity, f template.Feature) string {
	return "New" + Handler(e, f)
}

// Repository is the entity's persistence interface
func Repository(e *template.Entity) string {
	return Entity(e) + "Repository"
}

// ContextAccessor is the data-context method returning the entity set
func ContextAccessor(e *template.Entity) string {
	return Ident(e.Plural)
}

// DataContext is the Go type of the data-access context
func DataContext(t *template.ApiTemplate) string {
	return Ident(t.DbContext.ContextName)
}

// FakeBuilder is the test-double builder type of the entity
func FakeBuilder(e *template.Entity) string {
	return "Fake" + Entity(e) + "Builder"
}

// FakeBuilderConstructor returns a builder preloaded with random values
func FakeBuilderConstructor(e *template.Entity) string {
	return "New" + FakeBuilder(e)
}

// FakeCreationDto is the factory of a random creation DTO
func FakeCreationDto(e *template.Entity) string {
	return "NewFake" + CreationDto(e)
}

// FakeUpdateDto is the factory of a random update DTO
func FakeUpdateDto(e *template.Entity) string {
	return "NewFake" + UpdateDto(e)
}

// UnitTestPrefix prefixes the entity's domain unit tests
func UnitTestPrefix(e *template.Entity) string {
	return "Test" + Entity(e)
}

// FeatureTest is the test function of one feature scenario
func FeatureTest(e *template.Entity, f template.Feature, scenario string) string {
	return "Test" + Feature(e, f) + "_" + scenario
}

// Import aliases used when a generated file imports several per-entity packages
const (
	DomainAlias   = "domain"
	FeaturesAlias = "features"
)

// FakesAlias is the import alias of an entity's fakes package
func FakesAlias(e *template.Entity) string {
	return textcase.Lower(e.Name) + "fakes"
}

// Var is the local variable holding one entity value
func Var(e *template.Entity) string {
	return Local(e.Name)
}

// ListVar is the local variable holding several entity values
func ListVar(e *template.Entity) string {
	if v := Local(e.Plural); v != Var(e) {
		return v
	}
	return Var(e) + "List"
}

// CreatedEvent is the domain event raised by the entity factory
func CreatedEvent(e *template.Entity) string {
	return Entity(e) + "Created"
}

// UpdatedEvent is the domain event raised by the entity mutator
func UpdatedEvent(e *template.Entity) string {
	return Entity(e) + "Updated"
}

// TableName is the storage table of the entity under the naming convention
func TableName(e *template.Entity, convention string) string {
	return applyConvention(e.Plural, convention)
}

// ColumnName is the storage column of a property under the naming convention
func ColumnName(p template.EntityProperty, convention string) string {
	return applyConvention(p.Name, convention)
}

func applyConvention(name, convention string) string {
	switch convention {
	case "lower_case":
		return textcase.Lower(name)
	case "camel_case":
		return textcase.Camel(name)
	case "pascal_case":
		return textcase.Pascal(name)
	default:
		return textcase.Snake(name)
	}
}

// Field is the Go struct field of a property
func Field(p template.EntityProperty) string {
	return Ident(p.Name)
}

// JSONTag is the JSON key of a property
func JSONTag(p template.EntityProperty) string {
	return textcase.Camel(p.Name)
}

// Permission is the constant naming a permission in the auth package
func Permission(name string) string {
	return Ident(name)
}
