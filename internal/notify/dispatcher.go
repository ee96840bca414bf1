// Package notify рассылает уведомления о новых заявках подписанным операторам.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"text/template"

	"EntryBot/internal/constants"
	"EntryBot/internal/models"
)

// maxParallelSends - сколько получателей обслуживается одновременно.
// Держит рассылку заметно ниже лимита Bot API (~30 сообщений в секунду).
// maxParallelSends bounds concurrent sends to stay well under the Bot API rate limit.
const maxParallelSends = 4

// RecipientSource возвращает операторов, которым положено уведомление.
type RecipientSource interface {
	ListRecipients(ctx context.Context) ([]models.Subscriber, error)
}

// Sender отправляет текстовое сообщение в чат.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

// Dispatcher форматирует заявку по шаблону и отправляет её каждому получателю.
type Dispatcher struct {
	recipients RecipientSource
	sender     Sender
	tmpl       *template.Template
}

// NewDispatcher разбирает шаблон уведомления; пустой шаблон заменяется встроенным.
// Шаблон проверяется на пустой заявке, чтобы ошибки в нем всплывали при старте, а не при рассылке.
func NewDispatcher(recipients RecipientSource, sender Sender, tmplText string) (*Dispatcher, error) {
	if strings.TrimSpace(tmplText) == "" {
		tmplText = constants.DefaultNotifyTemplate
	}
	tmpl, err := template.New("notify").Option("missingkey=error").Parse(tmplText)
	if err != nil {
		return nil, fmt.Errorf("ошибка разбора шаблона уведомления: %w", err)
	}
	d := &Dispatcher{recipients: recipients, sender: sender, tmpl: tmpl}
	if _, err := d.Format(models.Entry{}); err != nil {
		return nil, err
	}
	return d, nil
}

// Format строит текст уведомления для заявки.
func (d *Dispatcher) Format(e models.Entry) (string, error) {
	var buf bytes.Buffer
	if err := d.tmpl.Execute(&buf, e); err != nil {
		return "", fmt.Errorf("ошибка форматирования уведомления: %w", err)
	}
	return buf.String(), nil
}

// Dispatch рассылает уведомление о заявке всем получателям, не более maxParallelSends одновременно.
// Ошибка отправки одному получателю только логируется. Ошибка чтения получателей возвращается.
// Когда ctx истекает, Dispatch перестает ждать незавершенные отправки и возвращает управление.
// Dispatch notifies every recipient; per-recipient failures are logged, and the call never outlives ctx.
func (d *Dispatcher) Dispatch(ctx context.Context, e models.Entry) error {
	recipients, err := d.recipients.ListRecipients(ctx)
	if err != nil {
		return fmt.Errorf("ошибка получения списка получателей: %w", err)
	}
	if len(recipients) == 0 {
		log.Printf("Dispatcher.Dispatch: заявка #%d, получателей нет", e.ID)
		return nil
	}

	text, err := d.Format(e)
	if err != nil {
		return err
	}

	var (
		wg      sync.WaitGroup
		failed  atomic.Int64 // ошибки отправки / failed sends
		skipped int          // не начаты до истечения ctx / never started before ctx expired
	)
	sem := make(chan struct{}, maxParallelSends)
loop:
	for i, r := range recipients {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			skipped = len(recipients) - i
			break loop
		}
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := d.sender.SendText(ctx, chatID, text); err != nil {
				log.Printf("Dispatcher.Dispatch: заявка #%d, ошибка отправки в chatID %d: %v", e.ID, chatID, err)
				failed.Add(1)
			}
		}(r.ChatID)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Printf("Dispatcher.Dispatch: заявка #%d, срок рассылки истек (%v), незавершенные отправки брошены", e.ID, ctx.Err())
		return nil
	}

	if skipped > 0 {
		log.Printf("Dispatcher.Dispatch: заявка #%d, %d получателей пропущено: %v", e.ID, skipped, ctx.Err())
	}
	sent := len(recipients) - skipped - int(failed.Load())
	log.Printf("Dispatcher.Dispatch: заявка #%d, отправлено %d из %d", e.ID, sent, len(recipients))
	return nil
}
