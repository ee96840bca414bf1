// Package migrations хранит SQL-миграции goose, встроенные в бинарник.
// Базовые таблицы entries и subscribers создаются через db.EnsureSchema до миграций.
package migrations

import "embed"

//go:embed postgres/*.sql sqlite/*.sql
var FS embed.FS
