package conversation

import (
	"strings"

	"EntryBot/internal/constants"
)

// TriggerKind - класс входящего текста.
type TriggerKind int

const (
	TriggerText TriggerKind = iota
	TriggerStart
	TriggerHelp
	TriggerStatus
	TriggerView
	TriggerEdit
	TriggerToggleNotify
	TriggerExport
	TriggerForm
	TriggerCancel
)

func (k TriggerKind) String() string {
	switch k {
	case TriggerStart:
		return "start"
	case TriggerHelp:
		return "help"
	case TriggerStatus:
		return "status"
	case TriggerView:
		return "view"
	case TriggerEdit:
		return "edit"
	case TriggerToggleNotify:
		return "toggle-notify"
	case TriggerExport:
		return "export"
	case TriggerForm:
		return "form"
	case TriggerCancel:
		return "cancel"
	}
	return "text"
}

// gated сообщает, что триггер требует авторизации.
func (k TriggerKind) gated() bool {
	switch k {
	case TriggerStatus, TriggerView, TriggerEdit, TriggerToggleNotify, TriggerExport, TriggerForm:
		return true
	}
	return false
}

var commandTriggers = map[string]TriggerKind{
	constants.CMD_START:  TriggerStart,
	constants.CMD_HELP:   TriggerHelp,
	constants.CMD_STATUS: TriggerStatus,
	constants.CMD_SHOW:   TriggerView,
	constants.CMD_EDIT:   TriggerEdit,
	constants.CMD_NOTIFY: TriggerToggleNotify,
	constants.CMD_EXPORT: TriggerExport,
	constants.CMD_FORM:   TriggerForm,
	constants.CMD_CANCEL: TriggerCancel,
}

var buttonTriggers = map[string]TriggerKind{
	constants.BTN_VIEW_ENTRIES: TriggerView,
	constants.BTN_EDIT:         TriggerEdit,
	constants.BTN_NOTIFY:       TriggerToggleNotify,
	constants.BTN_HELP:         TriggerHelp,
	constants.BTN_EXPORT:       TriggerExport,
	constants.BTN_CANCEL:       TriggerCancel,
}

// Classify определяет триггер по тексту сообщения.
// Команды распознаются с аргументами (/start payload) и с упоминанием бота (/start@name).
// Команда, адресованная другому боту, считается обычным текстом.
func Classify(text, botUsername string) TriggerKind {
	trimmed := strings.TrimSpace(text)
	if kind, ok := buttonTriggers[trimmed]; ok {
		return kind
	}
	if !strings.HasPrefix(trimmed, "/") {
		return TriggerText
	}

	cmd := strings.Fields(trimmed)[0][1:]
	if at := strings.IndexByte(cmd, '@'); at >= 0 {
		target := cmd[at+1:]
		if botUsername != "" && !strings.EqualFold(target, strings.TrimPrefix(botUsername, "@")) {
			return TriggerText
		}
		cmd = cmd[:at]
	}
	if kind, ok := commandTriggers[strings.ToLower(cmd)]; ok {
		return kind
	}
	return TriggerText
}
