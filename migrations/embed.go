// Package migrations holds the versioned SQL schema applied by
// golang-migrate. The files are embedded so the server and the migrate
// command do not depend on the working directory.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
