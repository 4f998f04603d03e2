package codegen

// Driver is the gorm driver of a storage provider
type Driver struct {
	Import  string
	Package string
	Version string
	// UUIDType is the column type of guid properties
	UUIDType string
}

var drivers = map[string]Driver{
	"postgres":  {Import: "gorm.io/driver/postgres", Package: "postgres", Version: "v1.5.9", UUIDType: "uuid"},
	"mysql":     {Import: "gorm.io/driver/mysql", Package: "mysql", Version: "v1.5.7", UUIDType: "char(36)"},
	"sqlserver": {Import: "gorm.io/driver/sqlserver", Package: "sqlserver", Version: "v1.5.3", UUIDType: "uniqueidentifier"},
	"sqlite":    {Import: "gorm.io/driver/sqlite", Package: "sqlite", Version: "v1.5.6", UUIDType: "text"},
}

// DriverFor returns the gorm driver of provider, falling back to postgres
func DriverFor(provider string) Driver {
	if d, ok := drivers[provider]; ok {
		return d
	}
	return drivers["postgres"]
}
