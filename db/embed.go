// Package db embeds the storefront schema.
package db

import _ "embed"

// Schema creates every table idempotently and is applied on startup.
//
//go:embed migrations/001_schema.sql
var Schema string
