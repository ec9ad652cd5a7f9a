package repository

import "embed"

// Migrations holds the product schema, applied by the migrate command.
//
//go:embed migrations/*.sql
var Migrations embed.FS
