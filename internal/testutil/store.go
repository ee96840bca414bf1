// Package testutil содержит помощники для тестов, работающих с настоящей базой SQLite.
package testutil

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"EntryBot/internal/db"
	"EntryBot/internal/models"
)

// NewStore открывает чистую базу SQLite во временном каталоге теста и применяет схему.
// Соединение закрывается через t.Cleanup.
func NewStore(t *testing.T) (*db.SQLStore, *db.Repository) {
	t.Helper()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "entries.db")

	store, err := db.Open(ctx, "sqlite://"+path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, db.Bootstrap(ctx, store))
	return store, db.NewRepository(store)
}

// SeedEntries вставляет n заявок с предсказуемыми значениями и возвращает их.
func SeedEntries(t *testing.T, repo *db.Repository, n int) []models.Entry {
	t.Helper()

	out := make([]models.Entry, 0, n)
	for i := 1; i <= n; i++ {
		e, err := repo.CreateEntry(context.Background(), SampleEntry(i))
		require.NoError(t, err)
		out = append(out, e)
	}
	return out
}

// SampleEntry строит заполненную заявку с номером i в значениях полей.
func SampleEntry(i int) models.Entry {
	return models.Entry{
		Name:        "Client " + strconv.Itoa(i),
		Email:       "client" + strconv.Itoa(i) + "@example.com",
		Phone:       "+38050000000" + strconv.Itoa(i%10),
		ServiceType: "consulting",
	}
}
