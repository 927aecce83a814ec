// Package db embeds the storefront database schema.
package db

import _ "embed"

// Schema holds the DDL for every storefront table. All statements are
// idempotent, so the schema can be applied on every startup.
//
//go:embed migrations/001_schema.sql
var Schema string
