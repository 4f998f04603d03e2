package template

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/okra-platform/apiforge/internal/textcase"
)

// DefaultPort is used when the template does not set a port
const DefaultPort = 8080

// typeAliases maps accepted spellings of property types to canonical names
var typeAliases = map[string]string{
	"uuid":    "guid",
	"boolean": "bool",
	"int32":   "int",
	"integer": "int",
	"int64":   "long",
	"float64": "double",
	"date":    "dateonly",
	"text":    "string",
}

// providerDefaults holds the container defaults per storage provider
var providerDefaults = map[string]struct {
	port     int
	user     string
	password string
}{
	"postgres":  {5432, "postgres", "postgres"},
	"mysql":     {3306, "root", "password"},
	"sqlserver": {1433, "SA", "#localDockerPassword#"},
	"sqlite":    {0, "", ""},
}

// CanonicalType returns the canonical spelling of a property type
func CanonicalType(typ string) string {
	t := strings.ToLower(strings.TrimSpace(typ))
	if alias, ok := typeAliases[t]; ok {
		return alias
	}
	return t
}

// CanonicalKind returns the canonical spelling of a feature kind, or the input
// unchanged when it is not a known kind
func CanonicalKind(kind FeatureKind) FeatureKind {
	for _, k := range FeatureKinds {
		if strings.EqualFold(string(k), strings.TrimSpace(string(kind))) {
			return k
		}
	}
	return kind
}

// Normalize returns a copy of t with computed defaults filled. t is not modified.
func Normalize(t ApiTemplate) *ApiTemplate {
	out := t
	out.Entities = make([]Entity, len(t.Entities))
	out.Permissions = append([]Permission(nil), t.Permissions...)
	out.index = make(map[string]int, len(t.Entities))

	for i, e := range t.Entities {
		out.Entities[i] = normalizeEntity(e)
		if _, dup := out.index[e.Name]; !dup {
			out.index[e.Name] = i
		}
	}

	// feature defaults need the whole entity set for parent lookups
	for i := range out.Entities {
		e := &out.Entities[i]
		for j := range e.Features {
			f := &e.Features[j]
			if f.IsProtected && f.PermissionName == "" {
				f.PermissionName = DefaultPermissionName(f.Type, e.Plural)
				if _, ok := out.Permission(f.PermissionName); !ok {
					out.Permissions = append(out.Permissions, Permission{
						Name:        f.PermissionName,
						Description: defaultPermissionDescription(f.Type, e.Plural),
					})
				}
			}
			if f.HasBatchKey() && f.BatchPropertyType == "" {
				f.BatchPropertyType = out.batchKeyType(e, *f)
			}
			f.BatchPropertyType = CanonicalType(f.BatchPropertyType)
		}
	}

	normalizeDataContext(&out)
	normalizeInfrastructure(&out)

	return &out
}

func normalizeEntity(e Entity) Entity {
	if e.Plural == "" {
		e.Plural = textcase.Plural(e.Name)
	}

	props := make([]EntityProperty, len(e.Properties))
	for i, p := range e.Properties {
		p.Type = CanonicalType(p.Type)
		p.Relationship = Relationship(strings.ToLower(strings.TrimSpace(string(p.Relationship))))
		if p.Relationship == "" {
			p.Relationship = RelationshipNone
		}
		if p.CanManipulate == nil {
			manipulable := !p.IsPrimaryKey && !p.IsNavigation()
			p.CanManipulate = &manipulable
		} else {
			v := *p.CanManipulate
			p.CanManipulate = &v
		}
		props[i] = p
	}
	e.Properties = props

	features := make([]Feature, len(e.Features))
	for i, f := range e.Features {
		f.Type = CanonicalKind(f.Type)
		features[i] = f
	}
	e.Features = features

	return e
}

// batchKeyType picks the type of a batch key: the entity's own property of the
// same name first, then the parent's primary key.
func (t *ApiTemplate) batchKeyType(e *Entity, f Feature) string {
	if p, ok := e.Property(f.BatchPropertyName); ok {
		return p.Type
	}
	if parent, ok := t.Parent(f); ok {
		if pk, ok := parent.PrimaryKey(); ok {
			return pk.Type
		}
	}
	return ""
}

func normalizeDataContext(t *ApiTemplate) {
	db := &t.DbContext
	if db.ContextName == "" {
		db.ContextName = textcase.Pascal(t.ProjectName) + "DbContext"
	}
	if db.DatabaseName == "" {
		db.DatabaseName = textcase.Snake(t.ProjectName)
	}
	db.Provider = strings.ToLower(strings.TrimSpace(db.Provider))
	if db.Provider == "" {
		db.Provider = "postgres"
	}
	db.NamingConvention = strings.ToLower(strings.TrimSpace(db.NamingConvention))
	if db.NamingConvention == "" {
		db.NamingConvention = "snake_case"
	}
}

func normalizeInfrastructure(t *ApiTemplate) {
	if t.Port == 0 {
		t.Port = DefaultPort
	}
	if t.Environment.EnvironmentName == "" {
		t.Environment.EnvironmentName = "Development"
	}
	if t.SwaggerConfig.Title == "" {
		t.SwaggerConfig.Title = t.ProjectName
	}

	d := &t.DockerConfig
	if d.APIPort == 0 {
		d.APIPort = t.Port
	}
	defaults := providerDefaults[t.DbContext.Provider]
	if d.DBPort == 0 {
		d.DBPort = defaults.port
	}
	if d.DBName == "" {
		d.DBName = t.DbContext.DatabaseName
	}
	if d.DBUser == "" {
		d.DBUser = defaults.user
	}
	if d.DBPassword == "" {
		d.DBPassword = defaults.password
	}
	if t.AddJwtAuthentication && d.AuthServerPort == 0 {
		d.AuthServerPort = portOf(t.Environment.AuthSettings.AuthorizationURL)
	}
}

// portOf extracts the explicit port of a URL, 0 when there is none
func portOf(raw string) int {
	if raw == "" {
		return 0
	}
	u, err := url.Parse(raw)
	if err != nil {
		return 0
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		return 0
	}
	return port
}

// DefaultPermissionName is the permission a protected feature gets when none is named
func DefaultPermissionName(kind FeatureKind, plural string) string {
	return "Can" + permissionVerb(kind) + textcase.Pascal(plural)
}

func defaultPermissionDescription(kind FeatureKind, plural string) string {
	return fmt.Sprintf("Allows %s %s", strings.ToLower(permissionVerb(kind)), textcase.Snake(plural))
}

func permissionVerb(kind FeatureKind) string {
	switch kind {
	case GetRecord, GetList:
		return "Read"
	case AddRecord, AddRecordList:
		return "Add"
	case UpdateRecord, UpdateRecordList:
		return "Update"
	case DeleteRecord:
		return "Delete"
	default:
		return "Manage"
	}
}

// ConnectionString returns the development connection string for the configured provider
func (t *ApiTemplate) ConnectionString() string {
	d := t.DockerConfig
	switch t.DbContext.Provider {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(localhost:%d)/%s?parseTime=true", d.DBUser, d.DBPassword, d.DBPort, d.DBName)
	case "sqlserver":
		return fmt.Sprintf("sqlserver://%s:%s@localhost:%d?database=%s", d.DBUser, url.QueryEscape(d.DBPassword), d.DBPort, d.DBName)
	case "sqlite":
		return fmt.Sprintf("file:%s.db", d.DBName)
	default:
		return fmt.Sprintf("host=localhost port=%d user=%s password=%s dbname=%s sslmode=disable", d.DBPort, d.DBUser, d.DBPassword, d.DBName)
	}
}
