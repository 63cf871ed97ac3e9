package pageauth

import (
	"embed"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

//go:embed data/fixtures/*.yml
var fixturesFS embed.FS

//go:embed views
var viewsFS embed.FS

//go:embed public
var publicFS embed.FS

// GetMigrationsFS returns the migration files for this package
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// GetFixturesFS returns the seed fixtures for this package
func GetFixturesFS() embed.FS {
	return fixturesFS
}

// GetViewsFS returns the embedded view templates
func GetViewsFS() embed.FS {
	return viewsFS
}

// GetPublicFS returns the embedded static assets
func GetPublicFS() embed.FS {
	return publicFS
}
