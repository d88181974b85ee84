// Package migrations embeds SQL migration files for the SQLite stores.
package migrations

import "embed"

// TimelineFS contains the structured store schema.
//
//go:embed timeline/*.sql
var TimelineFS embed.FS

// IndexFS contains the local retrieval index schema.
//
//go:embed index/*.sql
var IndexFS embed.FS
