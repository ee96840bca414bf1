// Package poller следит за таблицей заявок и передает каждую новую строку диспетчеру уведомлений.
package poller

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"EntryBot/internal/constants"
	"EntryBot/internal/models"
)

// EntrySource - чтение заявок для поллера.
type EntrySource interface {
	MaxEntryID(ctx context.Context) (int64, error)
	EntriesAfter(ctx context.Context, watermark int64) ([]models.Entry, error)
}

// Dispatcher доставляет уведомление об одной заявке.
type Dispatcher interface {
	Dispatch(ctx context.Context, e models.Entry) error
}

// WatermarkStore сохраняет watermark между перезапусками.
type WatermarkStore interface {
	LoadWatermark(ctx context.Context, name string) (int64, bool, error)
	SaveWatermark(ctx context.Context, name string, value int64) error
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithTimeout ограничивает каждую операцию хранилища и каждую доставку внутри тика.
func WithTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithWatermarkStore включает сохранение watermark под ключом name.
func WithWatermarkStore(ws WatermarkStore, name string) Option {
	return func(p *Poller) {
		p.wmStore = ws
		if name != "" {
			p.wmName = name
		}
	}
}

// Poller периодически сравнивает максимальный id заявки с watermark и рассылает новые строки по возрастанию id.
// Poller periodically compares the max entry id with its watermark and dispatches new rows in id order.
type Poller struct {
	source     EntrySource
	dispatcher Dispatcher
	interval   time.Duration  // Период тиков / Tick period
	timeout    time.Duration  // Потолок каждой операции внутри тика / Ceiling for each operation in a tick
	wmStore    WatermarkStore // nil - watermark живет только в памяти / nil keeps the watermark in memory only
	wmName     string

	// mu держится на время всего тика: одновременно выполняется не больше одного.
	mu          sync.Mutex
	watermark   int64
	initialized bool
}

func New(source EntrySource, dispatcher Dispatcher, opts ...Option) *Poller {
	p := &Poller{
		source:     source,
		dispatcher: dispatcher,
		interval:   constants.DefaultPollInterval,
		timeout:    constants.DefaultPollTimeout,
		wmName:     constants.WatermarkName,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Watermark - id последней разосланной заявки.
func (p *Poller) Watermark() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.watermark
}

// Init выставляет начальный watermark: текущий максимальный id, либо сохраненное значение, не больше максимума.
// Заявки, существовавшие до старта, не рассылаются.
func (p *Poller) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initLocked(ctx)
}

func (p *Poller) initLocked(ctx context.Context) error {
	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	maxID, err := p.source.MaxEntryID(sctx)
	if err != nil {
		return fmt.Errorf("чтение максимального id: %w", err)
	}

	wm := maxID
	if p.wmStore != nil {
		saved, found, err := p.wmStore.LoadWatermark(sctx, p.wmName)
		if err != nil {
			return fmt.Errorf("чтение сохраненного watermark: %w", err)
		}
		if found {
			wm = min(max(saved, 0), maxID)
			log.Printf("Poller.Init: восстановлен watermark %d (сохранено %d, максимум %d)", wm, saved, maxID)
		}
	}

	p.watermark = wm
	p.initialized = true
	log.Printf("Poller.Init: начальный watermark %d", wm)
	return nil
}

// Tick выполняет один проход. Возвращает число разосланных заявок.
// При ошибке watermark остается на последней успешно разосланной заявке.
// Отмена ctx не прерывает начатый тик: операции ограничены только таймаутом.
func (p *Poller) Tick(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	base := context.WithoutCancel(ctx)
	if !p.initialized {
		if err := p.initLocked(base); err != nil {
			return 0, err
		}
	}

	tickID := uuid.NewString()[:8]

	sctx, cancel := context.WithTimeout(base, p.timeout)
	maxID, err := p.source.MaxEntryID(sctx)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("тик %s: чтение максимального id: %w", tickID, err)
	}
	if maxID <= p.watermark {
		return 0, nil
	}

	sctx, cancel = context.WithTimeout(base, p.timeout)
	entries, err := p.source.EntriesAfter(sctx, p.watermark)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("тик %s: выборка заявок после %d: %w", tickID, p.watermark, err)
	}

	start := p.watermark
	dispatched := 0
	var dispatchErr error
	for _, e := range entries {
		if e.ID <= p.watermark {
			continue
		}
		dctx, dcancel := context.WithTimeout(base, p.timeout)
		err := p.dispatcher.Dispatch(dctx, e)
		dcancel()
		if err != nil {
			dispatchErr = fmt.Errorf("тик %s: рассылка заявки #%d: %w", tickID, e.ID, err)
			break
		}
		p.watermark = e.ID
		dispatched++
	}

	if p.watermark > start {
		log.Printf("Poller.Tick %s: разослано %d, watermark %d -> %d", tickID, dispatched, start, p.watermark)
		p.persist(base, tickID)
	}
	return dispatched, dispatchErr
}

func (p *Poller) persist(ctx context.Context, tickID string) {
	if p.wmStore == nil {
		return
	}
	sctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	if err := p.wmStore.SaveWatermark(sctx, p.wmName, p.watermark); err != nil {
		log.Printf("Poller.Tick %s: ошибка сохранения watermark %d: %v", tickID, p.watermark, err)
	}
}

// Run инициализирует поллер (повторяя попытки) и выполняет тики до отмены ctx.
func (p *Poller) Run(ctx context.Context) error {
	for {
		err := p.Init(ctx)
		if err == nil {
			break
		}
		log.Printf("Poller.Run: ошибка инициализации: %v. Повтор через %s", err, p.interval)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.interval):
		}
	}

	log.Printf("Поллер заявок запущен, интервал %s", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Поллер заявок остановлен.")
			return nil
		case <-ticker.C:
			if _, err := p.Tick(ctx); err != nil {
				log.Printf("Poller.Run: %v", err)
			}
		}
	}
}
