// Package migrations embeds SQL migration files into the binary so the
// schema can be applied without shipping loose .sql files alongside the
// executable.
package migrations

import (
	"embed"

	"github.com/wychoong/busboard/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.MigrationsFS = migrationsFS
	database.MigrationsDir = "."
}
