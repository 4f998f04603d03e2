package template

import "github.com/okra-platform/apiforge/internal/textcase"

// ApiTemplate is the root of a parsed domain-model template
type ApiTemplate struct {
	ProjectName          string            `yaml:"projectName" json:"projectName"`
	Port                 int               `yaml:"port" json:"port" validate:"gte=0,lte=65535"`
	UseSoftDelete        bool              `yaml:"useSoftDelete" json:"useSoftDelete"`
	AddJwtAuthentication bool              `yaml:"addJwtAuthentication" json:"addJwtAuthentication"`
	AddGithubActions     bool              `yaml:"addGithubActions" json:"addGithubActions"`
	DbContext            DataContextConfig `yaml:"dbContext" json:"dbContext"`
	Entities             []Entity          `yaml:"entities" json:"entities" validate:"dive"`
	Permissions          []Permission      `yaml:"permissions" json:"permissions" validate:"dive"`
	Environment          Environment       `yaml:"environment" json:"environment"`
	DockerConfig         DockerConfig      `yaml:"dockerConfig" json:"dockerConfig"`
	SwaggerConfig        SwaggerConfig     `yaml:"swaggerConfig" json:"swaggerConfig"`

	// entity name -> position in Entities, built by Normalize
	index map[string]int
}

// DataContextConfig configures the generated data-access context
type DataContextConfig struct {
	ContextName      string `yaml:"contextName" json:"contextName"`
	DatabaseName     string `yaml:"databaseName" json:"databaseName"`
	Provider         string `yaml:"provider" json:"provider" validate:"omitempty,oneof=postgres mysql sqlserver sqlite"`
	NamingConvention string `yaml:"namingConvention" json:"namingConvention" validate:"omitempty,oneof=snake_case lower_case camel_case pascal_case"`
}

// Entity is one domain entity of the template
type Entity struct {
	Name       string           `yaml:"name" json:"name" validate:"required"`
	Plural     string           `yaml:"plural" json:"plural"`
	Properties []EntityProperty `yaml:"properties" json:"properties" validate:"dive"`
	Features   []Feature        `yaml:"features" json:"features" validate:"dive"`
}

// EntityProperty is one property of an entity
type EntityProperty struct {
	Name              string       `yaml:"name" json:"name" validate:"required"`
	Type              string       `yaml:"type" json:"type" validate:"required,oneof=string int long decimal double float bool datetime dateonly guid"`
	IsPrimaryKey      bool         `yaml:"isPrimaryKey" json:"isPrimaryKey"`
	IsNullable        bool         `yaml:"isNullable" json:"isNullable"`
	CanManipulate     *bool        `yaml:"canManipulate" json:"canManipulate,omitempty"`
	Relationship      Relationship `yaml:"relationship" json:"relationship" validate:"omitempty,oneof=none parent child many-to-many"`
	ForeignEntityName string       `yaml:"foreignEntityName" json:"foreignEntityName"`
}

// Relationship is the relationship kind of a property
type Relationship string

const (
	RelationshipNone       Relationship = "none"
	RelationshipParent     Relationship = "parent"
	RelationshipChild      Relationship = "child"
	RelationshipManyToMany Relationship = "many-to-many"
)

// PropertyTypes lists the canonical property types
var PropertyTypes = []string{"string", "int", "long", "decimal", "double", "float", "bool", "datetime", "dateonly", "guid"}

// Providers lists the supported storage providers
var Providers = []string{"postgres", "mysql", "sqlserver", "sqlite"}

// FeatureKind enumerates the operations a feature can generate
type FeatureKind string

const (
	GetRecord        FeatureKind = "GetRecord"
	GetList          FeatureKind = "GetList"
	AddRecord        FeatureKind = "AddRecord"
	AddRecordList    FeatureKind = "AddRecordList"
	UpdateRecord     FeatureKind = "UpdateRecord"
	UpdateRecordList FeatureKind = "UpdateRecordList"
	DeleteRecord     FeatureKind = "DeleteRecord"
)

// FeatureKinds lists every supported kind in declaration order
var FeatureKinds = []FeatureKind{GetRecord, GetList, AddRecord, AddRecordList, UpdateRecord, UpdateRecordList, DeleteRecord}

// IsBatch reports whether the kind operates on a collection of inputs
func (k FeatureKind) IsBatch() bool {
	return k == AddRecordList || k == UpdateRecordList
}

// IsQuery reports whether the kind only reads
func (k FeatureKind) IsQuery() bool {
	return k == GetRecord || k == GetList
}

// Feature is one requested operation of an entity
type Feature struct {
	Type              FeatureKind `yaml:"type" json:"type" validate:"required,oneof=GetRecord GetList AddRecord AddRecordList UpdateRecord UpdateRecordList DeleteRecord"`
	Name              string      `yaml:"name" json:"name,omitempty"`
	IsProtected       bool        `yaml:"isProtected" json:"isProtected"`
	PermissionName    string      `yaml:"permissionName" json:"permissionName,omitempty"`
	ParentEntity      string      `yaml:"parentEntity" json:"parentEntity,omitempty"`
	BatchPropertyName string      `yaml:"batchPropertyName" json:"batchPropertyName,omitempty"`
	BatchPropertyType string      `yaml:"batchPropertyType" json:"batchPropertyType,omitempty" validate:"omitempty,oneof=string int long decimal double float bool datetime dateonly guid"`
	IsPaged           bool        `yaml:"isPaged" json:"isPaged"`
}

// HasBatchKey reports whether the feature is scoped to a parent by a batch key
func (f Feature) HasBatchKey() bool {
	return f.BatchPropertyName != ""
}

// Permission is a named permission referenced by protected features
type Permission struct {
	Name        string `yaml:"name" json:"name" validate:"required"`
	Description string `yaml:"description" json:"description"`
}

// Environment holds the runtime environment settings of the generated service
type Environment struct {
	EnvironmentName string       `yaml:"environmentName" json:"environmentName"`
	AuthSettings    AuthSettings `yaml:"authSettings" json:"authSettings"`
}

// AuthSettings holds the OAuth settings used when authentication is enabled
type AuthSettings struct {
	Authority        string `yaml:"authority" json:"authority"`
	Audience         string `yaml:"audience" json:"audience"`
	AuthorizationURL string `yaml:"authorizationUrl" json:"authorizationUrl"`
	TokenURL         string `yaml:"tokenUrl" json:"tokenUrl"`
	ClientID         string `yaml:"clientId" json:"clientId"`
	ClientSecret     string `yaml:"clientSecret" json:"clientSecret"`
}

// DockerConfig holds the container settings
type DockerConfig struct {
	APIPort        int    `yaml:"apiPort" json:"apiPort" validate:"gte=0,lte=65535"`
	DBPort         int    `yaml:"dbPort" json:"dbPort" validate:"gte=0,lte=65535"`
	DBName         string `yaml:"dbName" json:"dbName"`
	DBUser         string `yaml:"dbUser" json:"dbUser"`
	DBPassword     string `yaml:"dbPassword" json:"dbPassword"`
	AuthServerPort int    `yaml:"authServerPort" json:"authServerPort" validate:"gte=0,lte=65535"`
}

// SwaggerConfig holds the API documentation settings
type SwaggerConfig struct {
	Title              string `yaml:"title" json:"title"`
	Description        string `yaml:"description" json:"description"`
	AddSwaggerComments bool   `yaml:"addSwaggerComments" json:"addSwaggerComments"`
}

// PrimaryKey returns the primary-key property. The second result is false when
// the entity does not declare exactly one.
func (e *Entity) PrimaryKey() (EntityProperty, bool) {
	var (
		pk    EntityProperty
		count int
	)
	for _, p := range e.Properties {
		if p.IsPrimaryKey {
			pk = p
			count++
		}
	}
	return pk, count == 1
}

// Columns returns the properties stored as columns: everything except
// navigation properties (child and many-to-many), in declaration order.
func (e *Entity) Columns() []EntityProperty {
	cols := make([]EntityProperty, 0, len(e.Properties))
	for _, p := range e.Properties {
		if p.IsNavigation() {
			continue
		}
		cols = append(cols, p)
	}
	return cols
}

// Manipulable returns the columns settable through creation and update.
func (e *Entity) Manipulable() []EntityProperty {
	cols := make([]EntityProperty, 0, len(e.Properties))
	for _, p := range e.Columns() {
		if p.Manipulable() {
			cols = append(cols, p)
		}
	}
	return cols
}

// Property looks a property up by name
func (e *Entity) Property(name string) (EntityProperty, bool) {
	for _, p := range e.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return EntityProperty{}, false
}

// BatchTarget returns the manipulable property receiving the batch key of f
func (e *Entity) BatchTarget(f Feature) (EntityProperty, bool) {
	if !f.HasBatchKey() {
		return EntityProperty{}, false
	}
	p, ok := e.Property(f.BatchPropertyName)
	if !ok || !p.Manipulable() {
		return EntityProperty{}, false
	}
	return p, true
}

// IsNavigation reports whether the property is a navigation rather than a column
func (p EntityProperty) IsNavigation() bool {
	return p.Relationship == RelationshipChild || p.Relationship == RelationshipManyToMany
}

// Manipulable reports whether the property can be set on creation and update
func (p EntityProperty) Manipulable() bool {
	return p.CanManipulate != nil && *p.CanManipulate
}

// Entity looks an entity up by name
func (t *ApiTemplate) Entity(name string) (*Entity, bool) {
	if t.index != nil {
		i, ok := t.index[name]
		if !ok {
			return nil, false
		}
		return &t.Entities[i], true
	}
	for i := range t.Entities {
		if t.Entities[i].Name == name {
			return &t.Entities[i], true
		}
	}
	return nil, false
}

// Parent resolves the parent entity of a feature
func (t *ApiTemplate) Parent(f Feature) (*Entity, bool) {
	if f.ParentEntity == "" {
		return nil, false
	}
	return t.Entity(f.ParentEntity)
}

// Permission looks a declared permission up by the constant it becomes
func (t *ApiTemplate) Permission(name string) (Permission, bool) {
	ident := textcase.GoIdent(name)
	for _, p := range t.Permissions {
		if textcase.GoIdent(p.Name) == ident {
			return p, true
		}
	}
	return Permission{}, false
}

// HasProtectedFeatures reports whether any feature enforces a permission
func (t *ApiTemplate) HasProtectedFeatures() bool {
	for _, e := range t.Entities {
		for _, f := range e.Features {
			if f.IsProtected {
				return true
			}
		}
	}
	return false
}
