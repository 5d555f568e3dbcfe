// Package migrations embeds SQL migration files.
package migrations

import "embed"

// BinderFS contains the schema for the account directory and identity links.
//
//go:embed binder/*.sql
var BinderFS embed.FS

// BinderDir is the directory within BinderFS where migrations live.
const BinderDir = "binder"
