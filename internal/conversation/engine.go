package conversation

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"EntryBot/internal/constants"
	"EntryBot/internal/db"
	"EntryBot/internal/export"
	"EntryBot/internal/formatters"
	"EntryBot/internal/models"
	"EntryBot/internal/session"
)

// Repository - операции хранилища, нужные движку диалога.
// Repository is the storage surface the dialog engine needs.
type Repository interface {
	GetSubscriber(ctx context.Context, chatID int64) (models.Subscriber, error)
	CreateSubscriber(ctx context.Context, chatID int64, displayName string) (models.Subscriber, bool, error)
	SetAuthorized(ctx context.Context, chatID int64, authorized bool) error
	ToggleNotify(ctx context.Context, chatID int64) (bool, error)
	CountEntries(ctx context.Context) (int64, error)
	EntryExists(ctx context.Context, id int64) (bool, error)
	ListEntries(ctx context.Context) ([]models.Entry, error)
	UpdateEntryField(ctx context.Context, id int64, field models.EntryField, value string) error
}

// Config - параметры движка.
type Config struct {
	AccessCode  string // Общий секрет для авторизации операторов / Shared secret for operator authorization
	BotUsername string // Без @; нужен для команд вида /start@bot / Without @; used for /start@bot commands
	FormURL     string // Ссылка на веб-форму для QR-кода, пусто - QR недоступен / Web form link for the QR code
	SheetName   string // Имя листа в выгрузке Excel / Sheet name of the Excel export
}

// Engine обрабатывает входящие сообщения: читает факты, вызывает Transition и исполняет эффект.
// Engine handles incoming messages: it gathers facts, calls Transition and executes the effect.
type Engine struct {
	repo     Repository
	sessions *session.SessionManager
	cfg      Config
	now      func() time.Time // Подменяется в тестах / Replaced in tests
}

// NewEngine создает движок диалога. Пустой ACCESS_CODE не ошибка, но авторизоваться будет нельзя.
// NewEngine creates the dialog engine; an empty access code leaves authorization impossible.
func NewEngine(repo Repository, sessions *session.SessionManager, cfg Config) *Engine {
	if strings.TrimSpace(cfg.AccessCode) == "" {
		log.Println("Предупреждение: ACCESS_CODE не задан, авторизация невозможна.")
	}
	return &Engine{repo: repo, sessions: sessions, cfg: cfg, now: time.Now}
}

// Handle обрабатывает одно сообщение чата. События одного чата сериализуются.
// Ответ возвращается всегда; ошибка описывает отказ (валидация, доступ, хранилище).
// При ошибке хранилища состояние диалога не меняется.
// Handle processes one chat message and always returns a reply; on a store error the session is left as it was.
func (e *Engine) Handle(ctx context.Context, chatID int64, displayName, text string) (*Reply, error) {
	unlock := e.sessions.Lock(chatID)
	defer unlock()

	in := Input{
		ChatID:      chatID,
		DisplayName: displayName,
		Text:        text,
		Trigger:     Classify(text, e.cfg.BotUsername),
	}
	cur := e.sessions.GetOrCreate(chatID)

	facts, err := e.gatherFacts(ctx, cur, in)
	if err != nil {
		return e.storeFailure(chatID, "чтение данных", err)
	}

	step := Transition(cur, in, facts) // Чистая функция, без побочных эффектов / Pure function, no side effects
	reply, next, err := e.execute(ctx, cur, in, facts, step)
	if err != nil && KindOf(err) == KindStore {
		log.Printf("Engine.Handle: chatID %d, действие %d: %v", chatID, step.Action, err)
		return textReply(constants.MSG_INTERNAL_ERROR, KeyboardNone), err
	}

	e.sessions.Save(chatID, next)
	return reply, err
}

func (e *Engine) storeFailure(chatID int64, reason string, err error) (*Reply, error) {
	log.Printf("Engine.Handle: chatID %d, %s: %v", chatID, reason, err)
	return textReply(constants.MSG_INTERNAL_ERROR, KeyboardNone), newError(KindStore, reason, err)
}

func (e *Engine) secretMatches(text string) bool {
	secret := strings.TrimSpace(e.cfg.AccessCode)
	if secret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(strings.TrimSpace(text)), []byte(secret)) == 1
}

// gatherFacts читает только то, что понадобится переходу. Авторизация читается заново при каждом событии.
// gatherFacts reads only what the transition needs; authorization is re-read on every event.
func (e *Engine) gatherFacts(ctx context.Context, cur session.Session, in Input) (Facts, error) {
	var f Facts

	sub, err := e.repo.GetSubscriber(ctx, in.ChatID)
	switch {
	case err == nil:
		f.Known = true
		f.Authorized = sub.Authorized
		f.NotifyEnabled = sub.NotifyEnabled
	case errors.Is(err, db.ErrNotFound):
	default:
		return f, err
	}

	if in.Trigger == TriggerStart || in.Trigger == TriggerHelp {
		return f, nil
	}

	if cur.State == constants.STATE_AWAITING_PASSWORD {
		f.SecretMatches = e.secretMatches(in.Text)
		return f, nil
	}

	if !f.Authorized {
		return f, nil
	}

	if in.Trigger == TriggerEdit {
		if f.EntryCount, err = e.repo.CountEntries(ctx); err != nil {
			return f, err
		}
	}

	if cur.State == constants.STATE_AWAITING_RECORD_ID && in.Trigger == TriggerText {
		if id, ok := parseRecordID(in.Text); ok {
			if f.RecordExists, err = e.repo.EntryExists(ctx, id); err != nil {
				return f, err
			}
		}
	}
	return f, nil
}

func menuFor(f Facts) Keyboard {
	if f.Authorized {
		return KeyboardMain
	}
	return KeyboardNone
}

// execute исполняет эффект шага и возвращает ответ и итоговое состояние.
func (e *Engine) execute(ctx context.Context, cur session.Session, in Input, f Facts, step Step) (*Reply, session.Session, error) {
	next := step.Next
	storeErr := func(reason string, err error) (*Reply, session.Session, error) {
		return nil, cur, newError(KindStore, reason, err)
	}

	switch step.Action {
	case ActRegister:
		if _, _, err := e.repo.CreateSubscriber(ctx, in.ChatID, in.DisplayName); err != nil {
			return storeErr("регистрация оператора", err)
		}
		return textReply(constants.MSG_WELCOME_NEW, KeyboardRemove), next, nil

	case ActShowMenu:
		return textReply(constants.MSG_ALREADY_AUTHORIZED, KeyboardMain), next, nil

	case ActPromptSecret:
		return textReply(constants.MSG_ENTER_PASSWORD, KeyboardRemove), next, nil

	case ActAuthorize:
		if !f.Known {
			if _, _, err := e.repo.CreateSubscriber(ctx, in.ChatID, in.DisplayName); err != nil {
				return storeErr("регистрация оператора", err)
			}
		}
		if err := e.repo.SetAuthorized(ctx, in.ChatID, true); err != nil {
			return storeErr("авторизация", err)
		}
		log.Printf("Оператор chatID %d авторизован", in.ChatID)
		return textReply(constants.MSG_AUTH_SUCCESS, KeyboardMain), next, nil

	case ActRejectSecret:
		return textReply(constants.MSG_WRONG_PASSWORD, KeyboardNone), next,
			newError(KindValidation, "неверный пароль", nil)

	case ActHelp:
		return textReply(constants.MSG_HELP, menuFor(f)), next, nil

	case ActIdleHint:
		return textReply(constants.MSG_IDLE_HINT, menuFor(f)), next, nil

	case ActUnauthorized:
		return textReply(constants.MSG_NO_ACCESS, KeyboardRemove), next,
			newError(KindUnauthorized, fmt.Sprintf("триггер %s без авторизации", in.Trigger), nil)

	case ActRenderEntries:
		entries, err := e.repo.ListEntries(ctx)
		if err != nil {
			return storeErr("список записей", err)
		}
		text := formatters.FormatEntryList(entries)
		return &Reply{Texts: formatters.SplitMessage(text, constants.MaxTelegramMessageLen), Keyboard: KeyboardNone}, next, nil

	case ActToggleNotify:
		on, err := e.repo.ToggleNotify(ctx, in.ChatID)
		if err != nil {
			return storeErr("переключение уведомлений", err)
		}
		if on {
			return textReply(constants.MSG_NOTIFY_ON, KeyboardNone), next, nil
		}
		return textReply(constants.MSG_NOTIFY_OFF, KeyboardNone), next, nil

	case ActShowStatus:
		total, err := e.repo.CountEntries(ctx)
		if err != nil {
			return storeErr("статистика", err)
		}
		notify := constants.MSG_STATUS_NOTIFY_OFF
		if f.NotifyEnabled {
			notify = constants.MSG_STATUS_NOTIFY_ON
		}
		return textReply(fmt.Sprintf(constants.MSG_STATUS, total, notify), KeyboardNone), next, nil

	case ActExport:
		entries, err := e.repo.ListEntries(ctx)
		if err != nil {
			return storeErr("выгрузка записей", err)
		}
		data, err := export.EntriesWorkbook(entries, e.cfg.SheetName)
		if err != nil {
			log.Printf("Engine.execute: ошибка формирования Excel: %v", err)
			return textReply(constants.MSG_INTERNAL_ERROR, KeyboardNone), next, err
		}
		return &Reply{Attachment: &Attachment{
			Kind:    AttachmentDocument,
			Name:    export.FileName(e.now()),
			Data:    data,
			Caption: fmt.Sprintf(constants.MSG_EXPORT_CAPTION, len(entries)),
		}}, next, nil

	case ActSendForm:
		if e.cfg.FormURL == "" {
			return textReply(constants.MSG_FORM_NOT_CONFIGURED, KeyboardNone), next, nil
		}
		png, err := export.FormQRCode(e.cfg.FormURL)
		if err != nil {
			return textReply(constants.MSG_FORM_NOT_CONFIGURED, KeyboardNone), next, err
		}
		return &Reply{Attachment: &Attachment{
			Kind:    AttachmentPhoto,
			Name:    "form_qr.png",
			Data:    png,
			Caption: fmt.Sprintf(constants.MSG_FORM_CAPTION, e.cfg.FormURL),
		}}, next, nil

	case ActListRecordIDs:
		entries, err := e.repo.ListEntries(ctx)
		if err != nil {
			return storeErr("список записей", err)
		}
		if len(entries) == 0 {
			return textReply(constants.MSG_NO_ENTRIES_TO_EDIT, KeyboardMain), session.Session{State: constants.STATE_IDLE}, nil
		}
		return &Reply{
			Texts:    formatters.SplitMessage(formatters.FormatRecordChoice(entries), constants.MaxTelegramMessageLen),
			Keyboard: KeyboardCancel,
		}, next, nil

	case ActNoEntries:
		return textReply(constants.MSG_NO_ENTRIES_TO_EDIT, KeyboardMain), next, nil

	case ActRejectRecordID:
		return textReply(constants.MSG_RECORD_ID_NOT_NUMBER, KeyboardCancel), next,
			newError(KindValidation, fmt.Sprintf("не число: %q", in.Text), nil)

	case ActRecordNotFound:
		return textReply(constants.MSG_RECORD_NOT_FOUND, KeyboardCancel), next,
			newError(KindValidation, fmt.Sprintf("запись %q не найдена", in.Text), nil)

	case ActPromptField:
		return textReply(constants.MSG_CHOOSE_FIELD, KeyboardFields), next, nil

	case ActRejectField:
		return textReply(constants.MSG_CHOOSE_FIELD_AGAIN, KeyboardFields), next,
			newError(KindValidation, fmt.Sprintf("неизвестное поле %q", in.Text), nil)

	case ActPromptValue:
		label := formatters.FieldLabel(next.Scratch.Field)
		return textReply(fmt.Sprintf(constants.MSG_ENTER_VALUE, label), KeyboardCancel), next, nil

	case ActRejectEmptyValue:
		return textReply(constants.MSG_EMPTY_VALUE, KeyboardCancel), next,
			newError(KindValidation, "пустое значение", nil)

	case ActCommitEdit:
		id, field, value := cur.Scratch.RecordID, cur.Scratch.Field, strings.TrimSpace(in.Text)
		err := e.repo.UpdateEntryField(ctx, id, field, value)
		if errors.Is(err, db.ErrNotFound) {
			return textReply(fmt.Sprintf(constants.MSG_ENTRY_GONE, id), KeyboardMain), next,
				newError(KindValidation, fmt.Sprintf("запись %d исчезла", id), err)
		}
		if err != nil {
			return storeErr("обновление записи", err)
		}
		return textReply(fmt.Sprintf(constants.MSG_ENTRY_UPDATED, id, formatters.FieldLabel(field), value), KeyboardMain), next, nil

	case ActCancelEdit:
		return textReply(constants.MSG_EDIT_CANCELLED, KeyboardMain), next, nil

	case ActAbandon:
		log.Printf("Engine.execute: chatID %d, неполные данные редактирования %+v, сброс", in.ChatID, cur.Scratch)
		return textReply(constants.MSG_INTERNAL_ERROR, KeyboardMain), next, nil
	}

	return textReply(constants.MSG_IDLE_HINT, menuFor(f)), next, nil
}
