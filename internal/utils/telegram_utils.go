package utils

import (
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"EntryBot/internal/models"
)

// GetUserDisplayName - имя пользователя Telegram, иначе имя, иначе "Unknown".
func GetUserDisplayName(user *tgbotapi.User) string {
	if user == nil {
		return models.UnknownDisplayName
	}
	if user.UserName != "" {
		return user.UserName
	}
	if name := strings.TrimSpace(user.FirstName); name != "" {
		return name
	}
	return models.UnknownDisplayName
}

// GetMessageText возвращает текст сообщения, а для медиа - подпись.
func GetMessageText(msg *tgbotapi.Message) string {
	if msg == nil {
		return ""
	}
	if text := strings.TrimSpace(msg.Text); text != "" {
		return text
	}
	return strings.TrimSpace(msg.Caption)
}
