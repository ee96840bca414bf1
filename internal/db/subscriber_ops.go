package db

import (
	"context"
	"fmt"
	"log"
	"strings"

	"EntryBot/internal/models"
)

var subscriberColumns = []string{"id", "chat_id", "display_name", "authorized", "notify_enabled"}

func subscriberFromRow(row Row) (models.Subscriber, error) {
	if len(row) != len(subscriberColumns) {
		return models.Subscriber{}, fmt.Errorf("ожидалось %d колонок, получено %d", len(subscriberColumns), len(row))
	}
	var (
		s   models.Subscriber
		err error
	)
	if s.ID, err = asInt64(row[0]); err != nil {
		return s, err
	}
	if s.ChatID, err = asInt64(row[1]); err != nil {
		return s, err
	}
	s.DisplayName = asString(row[2])
	if s.Authorized, err = asBool(row[3]); err != nil {
		return s, err
	}
	if s.NotifyEnabled, err = asBool(row[4]); err != nil {
		return s, err
	}
	return s, nil
}

// GetSubscriber возвращает оператора по chat_id или ErrNotFound.
func (r *Repository) GetSubscriber(ctx context.Context, chatID int64) (models.Subscriber, error) {
	rows, err := r.store.Select(ctx, Query{
		Table:   TableSubscribers,
		Columns: subscriberColumns,
		Where:   "chat_id = ?",
		Args:    []any{chatID},
	})
	if err != nil {
		return models.Subscriber{}, err
	}
	if len(rows) == 0 {
		return models.Subscriber{}, ErrNotFound
	}
	s, err := subscriberFromRow(rows[0])
	if err != nil {
		return models.Subscriber{}, storeErr("scan", TableSubscribers, err)
	}
	return s, nil
}

// CreateSubscriber регистрирует оператора с authorized=false и notify_enabled=false.
// Если оператор уже есть (в том числе при гонке двух /start), возвращает существующего и created=false.
func (r *Repository) CreateSubscriber(ctx context.Context, chatID int64, displayName string) (models.Subscriber, bool, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = models.UnknownDisplayName
	}

	id, err := r.store.Insert(ctx, TableSubscribers,
		[]string{"chat_id", "display_name", "authorized", "notify_enabled"},
		[]any{chatID, displayName, false, false})
	if err != nil {
		if IsUniqueViolation(err) {
			existing, getErr := r.GetSubscriber(ctx, chatID)
			if getErr != nil {
				return models.Subscriber{}, false, getErr
			}
			return existing, false, nil
		}
		return models.Subscriber{}, false, err
	}

	log.Printf("Зарегистрирован новый оператор с chatID %d", chatID)
	return models.Subscriber{ID: id, ChatID: chatID, DisplayName: displayName}, true, nil
}

// SetAuthorized выставляет флаг authorized.
func (r *Repository) SetAuthorized(ctx context.Context, chatID int64, authorized bool) error {
	n, err := r.store.Update(ctx, TableSubscribers, map[string]any{"authorized": authorized}, "chat_id = ?", chatID)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleNotify переключает notify_enabled и возвращает новое значение.
func (r *Repository) ToggleNotify(ctx context.Context, chatID int64) (bool, error) {
	s, err := r.GetSubscriber(ctx, chatID)
	if err != nil {
		return false, err
	}
	next := !s.NotifyEnabled
	n, err := r.store.Update(ctx, TableSubscribers, map[string]any{"notify_enabled": next}, "chat_id = ?", chatID)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, ErrNotFound
	}
	return next, nil
}

// ListRecipients возвращает операторов, которые авторизованы и включили уведомления.
func (r *Repository) ListRecipients(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := r.store.Select(ctx, Query{
		Table:   TableSubscribers,
		Columns: subscriberColumns,
		Where:   "notify_enabled = ? AND authorized = ?",
		Args:    []any{true, true},
		OrderBy: "id ASC",
	})
	if err != nil {
		return nil, err
	}
	out := make([]models.Subscriber, 0, len(rows))
	for _, row := range rows {
		s, err := subscriberFromRow(row)
		if err != nil {
			return nil, storeErr("scan", TableSubscribers, err)
		}
		out = append(out, s)
	}
	return out, nil
}
