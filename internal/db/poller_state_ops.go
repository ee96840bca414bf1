package db

import "context"

// LoadWatermark читает сохраненный watermark поллера. found=false, если значения еще нет.
func (r *Repository) LoadWatermark(ctx context.Context, name string) (int64, bool, error) {
	rows, err := r.store.Select(ctx, Query{
		Table:   TablePollerState,
		Columns: []string{"value"},
		Where:   "name = ?",
		Args:    []any{name},
	})
	if err != nil {
		return 0, false, err
	}
	if len(rows) == 0 {
		return 0, false, nil
	}
	v, err := asInt64(rows[0][0])
	if err != nil {
		return 0, false, storeErr("scan", TablePollerState, err)
	}
	return v, true, nil
}

// SaveWatermark записывает watermark поллера.
func (r *Repository) SaveWatermark(ctx context.Context, name string, value int64) error {
	n, err := r.store.Update(ctx, TablePollerState, map[string]any{"value": value}, "name = ?", name)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = r.store.Insert(ctx, TablePollerState, []string{"name", "value"}, []any{name, value})
	if IsUniqueViolation(err) {
		// Параллельная запись успела вставить строку.
		_, err = r.store.Update(ctx, TablePollerState, map[string]any{"value": value}, "name = ?", name)
	}
	return err
}
