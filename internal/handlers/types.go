package handlers

import (
	"context"
	"sync"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"EntryBot/internal/conversation"
)

// MessageEngine обрабатывает одно текстовое сообщение чата и возвращает ответ.
type MessageEngine interface {
	Handle(ctx context.Context, chatID int64, displayName, text string) (*conversation.Reply, error)
}

// Sender - исходящая сторона Telegram-клиента.
type Sender interface {
	SendMessage(chatID int64, text string, markup any) (tgbotapi.Message, error)
	SendDocument(chatID int64, name string, data []byte, caption string, markup any) (tgbotapi.Message, error)
	SendPhoto(chatID int64, name string, data []byte, caption string, markup any) (tgbotapi.Message, error)
}

// HandlerDependencies содержит все зависимости, необходимые для обработчиков.
type HandlerDependencies struct {
	Engine    MessageEngine
	BotClient Sender
}

// BotHandler принимает обновления и раскладывает их по очередям чатов.
// Сообщения одного чата обрабатываются строго по порядку, разные чаты - параллельно.
type BotHandler struct {
	Deps HandlerDependencies

	mu     sync.Mutex
	queues map[int64][]*tgbotapi.Message // Ключ: chatID, Значение: необработанные сообщения; ключ есть, пока работает drain / Key: chatID, Value: pending messages; present while drain runs
	wg     sync.WaitGroup                // Активные drain-горутины / Running drain goroutines
}

// NewBotHandler создает новый экземпляр BotHandler.
func NewBotHandler(deps HandlerDependencies) *BotHandler {
	if deps.Engine == nil || deps.BotClient == nil {
		panic("Не все зависимости для BotHandler были предоставлены.")
	}
	return &BotHandler{
		Deps:   deps,
		queues: make(map[int64][]*tgbotapi.Message),
	}
}
