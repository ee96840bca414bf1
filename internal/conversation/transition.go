package conversation

import (
	"strconv"
	"strings"

	"EntryBot/internal/constants"
	"EntryBot/internal/formatters"
	"EntryBot/internal/session"
)

// Action - побочный эффект перехода, который выполняет Engine.
type Action int

const (
	ActNone Action = iota
	ActRegister
	ActShowMenu
	ActPromptSecret
	ActAuthorize
	ActRejectSecret
	ActHelp
	ActIdleHint
	ActUnauthorized
	ActRenderEntries
	ActToggleNotify
	ActShowStatus
	ActExport
	ActSendForm
	ActListRecordIDs
	ActNoEntries
	ActRejectRecordID
	ActRecordNotFound
	ActPromptField
	ActRejectField
	ActPromptValue
	ActRejectEmptyValue
	ActCommitEdit
	ActCancelEdit
	ActAbandon
)

// Input - одно входящее текстовое событие.
type Input struct {
	ChatID      int64
	DisplayName string
	Text        string
	Trigger     TriggerKind
}

// Facts - данные хранилища, прочитанные перед переходом.
type Facts struct {
	Known         bool
	Authorized    bool
	NotifyEnabled bool
	EntryCount    int64
	RecordExists  bool
	SecretMatches bool
}

// Step - результат перехода: следующее состояние и эффект.
type Step struct {
	Next   session.Session
	Action Action
}

func stay(cur session.Session, a Action) Step {
	return Step{Next: cur, Action: a}
}

func toIdle(a Action) Step {
	return Step{Next: session.Session{State: constants.STATE_IDLE}, Action: a}
}

func isEditState(state string) bool {
	switch state {
	case constants.STATE_AWAITING_RECORD_ID, constants.STATE_AWAITING_FIELD_CHOICE, constants.STATE_AWAITING_FIELD_VALUE:
		return true
	}
	return false
}

// parseRecordID принимает только положительное целое.
func parseRecordID(text string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Transition - чистая функция переходов диалога. Не обращается к хранилищу и не меняет cur.
func Transition(cur session.Session, in Input, f Facts) Step {
	if cur.State == "" {
		cur.State = constants.STATE_IDLE
	}

	// /start и помощь работают из любого состояния.
	switch in.Trigger {
	case TriggerStart:
		switch {
		case !f.Known:
			return Step{Next: session.Session{State: constants.STATE_AWAITING_PASSWORD}, Action: ActRegister}
		case f.Authorized:
			return toIdle(ActShowMenu)
		default:
			return Step{Next: session.Session{State: constants.STATE_AWAITING_PASSWORD}, Action: ActPromptSecret}
		}
	case TriggerHelp:
		return stay(cur, ActHelp)
	}

	if cur.State == constants.STATE_AWAITING_PASSWORD {
		if f.SecretMatches {
			return toIdle(ActAuthorize)
		}
		return stay(cur, ActRejectSecret)
	}

	if cur.State != constants.STATE_IDLE && !isEditState(cur.State) {
		return toIdle(ActIdleHint)
	}

	if in.Trigger.gated() || isEditState(cur.State) {
		if !f.Authorized {
			return toIdle(ActUnauthorized)
		}
	}

	switch in.Trigger {
	case TriggerView:
		return stay(cur, ActRenderEntries)
	case TriggerToggleNotify:
		return stay(cur, ActToggleNotify)
	case TriggerStatus:
		return stay(cur, ActShowStatus)
	case TriggerExport:
		return stay(cur, ActExport)
	case TriggerForm:
		return stay(cur, ActSendForm)
	case TriggerEdit:
		if f.EntryCount == 0 {
			return toIdle(ActNoEntries)
		}
		return Step{Next: session.Session{State: constants.STATE_AWAITING_RECORD_ID}, Action: ActListRecordIDs}
	case TriggerCancel:
		if isEditState(cur.State) {
			return toIdle(ActCancelEdit)
		}
		return stay(cur, ActIdleHint)
	}

	switch cur.State {
	case constants.STATE_AWAITING_RECORD_ID:
		id, ok := parseRecordID(in.Text)
		if !ok {
			return stay(cur, ActRejectRecordID)
		}
		if !f.RecordExists {
			return stay(cur, ActRecordNotFound)
		}
		return Step{
			Next:   session.Session{State: constants.STATE_AWAITING_FIELD_CHOICE, Scratch: session.Scratch{RecordID: id}},
			Action: ActPromptField,
		}

	case constants.STATE_AWAITING_FIELD_CHOICE:
		if cur.Scratch.RecordID <= 0 {
			return toIdle(ActAbandon)
		}
		field, ok := formatters.ParseField(in.Text)
		if !ok {
			return stay(cur, ActRejectField)
		}
		next := cur
		next.State = constants.STATE_AWAITING_FIELD_VALUE
		next.Scratch.Field = field
		return Step{Next: next, Action: ActPromptValue}

	case constants.STATE_AWAITING_FIELD_VALUE:
		if cur.Scratch.RecordID <= 0 || !cur.Scratch.Field.Valid() {
			return toIdle(ActAbandon)
		}
		if strings.TrimSpace(in.Text) == "" {
			return stay(cur, ActRejectEmptyValue)
		}
		return toIdle(ActCommitEdit)
	}

	return stay(cur, ActIdleHint)
}
