package handlers

import (
	"log"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"EntryBot/internal/constants"
	"EntryBot/internal/conversation"
	"EntryBot/internal/formatters"
)

// replyMarkup строит клавиатуру Telegram для ответа движка. nil - клавиатура не меняется.
func replyMarkup(kb conversation.Keyboard) any {
	switch kb {
	case conversation.KeyboardMain:
		keyboard := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(constants.BTN_VIEW_ENTRIES),
				tgbotapi.NewKeyboardButton(constants.BTN_EDIT),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(constants.BTN_NOTIFY),
				tgbotapi.NewKeyboardButton(constants.BTN_EXPORT),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(constants.BTN_HELP),
			),
		)
		keyboard.ResizeKeyboard = true
		return keyboard
	case conversation.KeyboardFields:
		keyboard := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(constants.BTN_FIELD_NAME),
				tgbotapi.NewKeyboardButton(constants.BTN_FIELD_EMAIL),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(constants.BTN_FIELD_PHONE),
				tgbotapi.NewKeyboardButton(constants.BTN_FIELD_SERVICE),
			),
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(constants.BTN_CANCEL),
			),
		)
		keyboard.ResizeKeyboard = true
		keyboard.OneTimeKeyboard = true
		return keyboard
	case conversation.KeyboardCancel:
		keyboard := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(
				tgbotapi.NewKeyboardButton(constants.BTN_CANCEL),
			),
		)
		keyboard.ResizeKeyboard = true
		return keyboard
	case conversation.KeyboardRemove:
		return tgbotapi.NewRemoveKeyboard(true)
	default:
		return nil
	}
}

// sendReply отправляет тексты по порядку; клавиатура уходит с последним сообщением (вложением, если оно есть).
func (bh *BotHandler) sendReply(chatID int64, reply *conversation.Reply) {
	if reply == nil {
		return
	}
	markup := replyMarkup(reply.Keyboard)

	var parts []string
	for _, text := range reply.Texts {
		if text == "" {
			continue
		}
		parts = append(parts, formatters.SplitMessage(text, constants.MaxTelegramMessageLen)...)
	}

	for i, part := range parts {
		var m any
		if i == len(parts)-1 && reply.Attachment == nil {
			m = markup
		}
		if _, err := bh.Deps.BotClient.SendMessage(chatID, part, m); err != nil {
			log.Printf("sendReply: chatID %d, ответ прерван на части %d из %d", chatID, i+1, len(parts))
			return
		}
	}

	att := reply.Attachment
	if att == nil {
		return
	}
	var err error
	switch att.Kind {
	case conversation.AttachmentPhoto:
		_, err = bh.Deps.BotClient.SendPhoto(chatID, att.Name, att.Data, att.Caption, markup)
	default:
		_, err = bh.Deps.BotClient.SendDocument(chatID, att.Name, att.Data, att.Caption, markup)
	}
	if err != nil {
		log.Printf("sendReply: chatID %d, не удалось отправить вложение %s: %v", chatID, att.Name, err)
		bh.Deps.BotClient.SendMessage(chatID, constants.MSG_INTERNAL_ERROR, markup)
	}
}
