package telegram_api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"EntryBot/internal/constants"
	"EntryBot/internal/formatters"
)

// SendText отправляет текст в чат, разбивая его на части по лимиту Telegram.
// Используется рассылкой уведомлений. ctx доходит до HTTP-запроса,
// поэтому дедлайн тика поллера обрывает и зависшую отправку.
func (bc *BotClient) SendText(ctx context.Context, chatID int64, text string) error {
	for _, part := range formatters.SplitMessage(text, constants.MaxTelegramMessageLen) {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := bc.request(ctx, tgbotapi.NewMessage(chatID, part)); err != nil {
			logSendError(chatID, err)
			return err
		}
	}
	return nil
}

// SendMessage отправляет одно сообщение; markup может быть nil или любой клавиатурой tgbotapi.
func (bc *BotClient) SendMessage(chatID int64, text string, markup any) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	sent, err := bc.Send(msg)
	if err != nil {
		logSendError(chatID, err)
		return tgbotapi.Message{}, err
	}
	return sent, nil
}

// SendDocument отправляет файл из памяти как документ.
func (bc *BotClient) SendDocument(chatID int64, name string, data []byte, caption string, markup any) (tgbotapi.Message, error) {
	if len(data) == 0 {
		return tgbotapi.Message{}, fmt.Errorf("пустой документ %s", name)
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	doc.Caption = caption
	if markup != nil {
		doc.ReplyMarkup = markup
	}
	sent, err := bc.Send(doc)
	if err != nil {
		log.Printf("SendDocument: ОШИБКА отправки %s для chatID %d: %v", name, chatID, err)
		return tgbotapi.Message{}, err
	}
	return sent, nil
}

// SendPhoto отправляет изображение из памяти.
func (bc *BotClient) SendPhoto(chatID int64, name string, data []byte, caption string, markup any) (tgbotapi.Message, error) {
	if len(data) == 0 {
		return tgbotapi.Message{}, fmt.Errorf("пустое изображение %s", name)
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: name, Bytes: data})
	photo.Caption = caption
	if markup != nil {
		photo.ReplyMarkup = markup
	}
	sent, err := bc.Send(photo)
	if err != nil {
		log.Printf("SendPhoto: ОШИБКА отправки %s для chatID %d: %v", name, chatID, err)
		return tgbotapi.Message{}, err
	}
	return sent, nil
}

func logSendError(chatID int64, err error) {
	if isBlockedByUser(err) {
		log.Printf("SendMessage: chatID %d заблокировал бота", chatID)
		return
	}
	log.Printf("SendMessage: ОШИБКА отправки сообщения для chatID %d: %v", chatID, err)
}

// isBlockedByUser - Bot API ответил 403: пользователь заблокировал бота или удален.
func isBlockedByUser(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden
}
