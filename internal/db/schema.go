package db

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/pressly/goose/v3"

	"EntryBot/internal/db/migrations"
)

const (
	TableEntries     = "entries"
	TableSubscribers = "subscribers"
	TablePollerState = "poller_state"
)

// goose хранит FS и диалект в глобальных переменных.
var gooseMu sync.Mutex

// gooseUp подменяется в тестах.
var gooseUp = goose.UpContext

func schemaFor(d Dialect) map[string][]ColumnDef {
	pk, chatID, boolean := "SERIAL PRIMARY KEY", "BIGINT NOT NULL UNIQUE", "BOOLEAN NOT NULL DEFAULT FALSE"
	if d == SQLite {
		pk, chatID, boolean = "INTEGER PRIMARY KEY AUTOINCREMENT", "INTEGER NOT NULL UNIQUE", "INTEGER NOT NULL DEFAULT 0"
	}
	return map[string][]ColumnDef{
		TableEntries: {
			{Name: "id", Type: pk},
			{Name: "name", Type: "TEXT NOT NULL"},
			{Name: "email", Type: "TEXT NOT NULL"},
			{Name: "phone", Type: "TEXT NOT NULL"},
			{Name: "service_type", Type: "TEXT NOT NULL"},
		},
		TableSubscribers: {
			{Name: "id", Type: pk},
			{Name: "chat_id", Type: chatID},
			{Name: "display_name", Type: "TEXT NOT NULL DEFAULT 'Unknown'"},
			{Name: "authorized", Type: boolean},
			{Name: "notify_enabled", Type: boolean},
		},
	}
}

// EnsureSchema создает базовые таблицы, если их еще нет.
func EnsureSchema(ctx context.Context, store Store, d Dialect) error {
	schema := schemaFor(d)
	for _, table := range []string{TableEntries, TableSubscribers} {
		if err := store.CreateTable(ctx, table, schema[table]); err != nil {
			return fmt.Errorf("ошибка создания таблицы %s: %w", table, err)
		}
	}
	return nil
}

// Migrate применяет встроенные миграции goose для диалекта хранилища.
func Migrate(ctx context.Context, s *SQLStore) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect(s.dialect.gooseDialect()); err != nil {
		return fmt.Errorf("ошибка установки диалекта goose: %w", err)
	}
	if err := gooseUp(ctx, s.db, string(s.dialect)); err != nil {
		log.Printf("Migrate: ошибка применения миграций (%s): %v", s.dialect, err)
		return storeErr("migrate", "", err)
	}
	return nil
}

// Bootstrap готовит базу к работе: базовые таблицы, затем миграции.
func Bootstrap(ctx context.Context, s *SQLStore) error {
	if err := EnsureSchema(ctx, s, s.dialect); err != nil {
		return err
	}
	if err := Migrate(ctx, s); err != nil {
		return err
	}
	log.Println("Схема базы данных готова.")
	return nil
}
