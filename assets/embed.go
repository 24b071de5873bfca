// assets/embed.go
//
// Files compiled into the binary: SQL migrations applied by history.Migrate.

package assets

import (
	"embed"
	"io/fs"
)

//go:embed sql/*.sql
var sqlFS embed.FS

// Migrations returns the migration scripts rooted at their directory, so names
// are bare file names ("001_init.sql").
func Migrations() fs.FS {
	sub, err := fs.Sub(sqlFS, "sql")
	if err != nil {
		// "sql" is a compile-time embed root; Sub cannot fail for it.
		panic(err)
	}
	return sub
}
