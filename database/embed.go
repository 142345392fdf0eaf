// Package database ships the SQL migrations with the binary.
package database

import "embed"

//go:embed migrations/*.sql
var Migrations embed.FS
