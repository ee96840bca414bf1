package db

import (
	"context"
	"fmt"
	"log"

	"EntryBot/internal/models"
)

var entryColumns = []string{"id", "name", "email", "phone", "service_type"}

func entryFromRow(row Row) (models.Entry, error) {
	if len(row) != len(entryColumns) {
		return models.Entry{}, fmt.Errorf("ожидалось %d колонок, получено %d", len(entryColumns), len(row))
	}
	id, err := asInt64(row[0])
	if err != nil {
		return models.Entry{}, err
	}
	return models.Entry{
		ID:          id,
		Name:        asString(row[1]),
		Email:       asString(row[2]),
		Phone:       asString(row[3]),
		ServiceType: asString(row[4]),
	}, nil
}

func entriesFromRows(rows []Row) ([]models.Entry, error) {
	entries := make([]models.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := entryFromRow(row)
		if err != nil {
			return nil, storeErr("scan", TableEntries, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// CreateEntry сохраняет новую заявку и возвращает её с присвоенным id.
func (r *Repository) CreateEntry(ctx context.Context, e models.Entry) (models.Entry, error) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return models.Entry{}, err
	}
	id, err := r.store.Insert(ctx, TableEntries,
		[]string{"name", "email", "phone", "service_type"},
		[]any{e.Name, e.Email, e.Phone, e.ServiceType})
	if err != nil {
		return models.Entry{}, err
	}
	e.ID = id
	log.Printf("Создана заявка #%d", id)
	return e, nil
}

// ListEntries возвращает все заявки по возрастанию id.
func (r *Repository) ListEntries(ctx context.Context) ([]models.Entry, error) {
	rows, err := r.store.Select(ctx, Query{Table: TableEntries, Columns: entryColumns, OrderBy: "id ASC"})
	if err != nil {
		return nil, err
	}
	return entriesFromRows(rows)
}

// GetEntry возвращает заявку по id или ErrNotFound.
func (r *Repository) GetEntry(ctx context.Context, id int64) (models.Entry, error) {
	rows, err := r.store.Select(ctx, Query{Table: TableEntries, Columns: entryColumns, Where: "id = ?", Args: []any{id}})
	if err != nil {
		return models.Entry{}, err
	}
	if len(rows) == 0 {
		return models.Entry{}, ErrNotFound
	}
	e, err := entryFromRow(rows[0])
	if err != nil {
		return models.Entry{}, storeErr("scan", TableEntries, err)
	}
	return e, nil
}

func (r *Repository) EntryExists(ctx context.Context, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	rows, err := r.store.Select(ctx, Query{Table: TableEntries, Columns: []string{"id"}, Where: "id = ?", Args: []any{id}, Limit: 1})
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (r *Repository) CountEntries(ctx context.Context) (int64, error) {
	return r.scalar(ctx, Query{Table: TableEntries, Columns: []string{"COUNT(*)"}})
}

// MaxEntryID возвращает наибольший id заявки или 0, если заявок нет.
func (r *Repository) MaxEntryID(ctx context.Context) (int64, error) {
	return r.scalar(ctx, Query{Table: TableEntries, Columns: []string{"MAX(id)"}})
}

func (r *Repository) scalar(ctx context.Context, q Query) (int64, error) {
	rows, err := r.store.Select(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil
	}
	n, err := asInt64(rows[0][0])
	if err != nil {
		return 0, storeErr("scan", q.Table, err)
	}
	return n, nil
}

// EntriesAfter возвращает заявки с id больше watermark по возрастанию id.
func (r *Repository) EntriesAfter(ctx context.Context, watermark int64) ([]models.Entry, error) {
	rows, err := r.store.Select(ctx, Query{
		Table:   TableEntries,
		Columns: entryColumns,
		Where:   "id > ?",
		Args:    []any{watermark},
		OrderBy: "id ASC",
	})
	if err != nil {
		return nil, err
	}
	return entriesFromRows(rows)
}

// UpdateEntryField меняет одно поле заявки. Если заявки нет, возвращает ErrNotFound.
func (r *Repository) UpdateEntryField(ctx context.Context, id int64, field models.EntryField, value string) error {
	if !field.Valid() {
		return fmt.Errorf("неизвестное поле заявки: %q", field)
	}
	n, err := r.store.Update(ctx, TableEntries, map[string]any{string(field): value}, "id = ?", id)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	log.Printf("Заявка #%d: обновлено поле %s", id, field)
	return nil
}
