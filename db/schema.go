// Package db carries the Postgres schema.
package db

import _ "embed"

//go:embed migrations/001_init.up.sql
var InitUp string
