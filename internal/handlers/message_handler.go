package handlers

import (
	"context"
	"log"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"EntryBot/internal/utils"
)

// handleTimeout ограничивает обработку одного сообщения, включая обращения к базе.
const handleTimeout = 30 * time.Second

// Run читает обновления до закрытия канала или отмены ctx, затем дожидается обработки уже принятых сообщений.
func (bh *BotHandler) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	defer bh.Wait()
	for {
		select {
		case <-ctx.Done():
			log.Println("BotHandler.Run: остановка приема обновлений.")
			return
		case update, ok := <-updates:
			if !ok {
				log.Println("BotHandler.Run: канал обновлений закрыт.")
				return
			}
			bh.HandleUpdate(ctx, update)
		}
	}
}

// Wait блокируется, пока все очереди чатов не опустеют.
func (bh *BotHandler) Wait() {
	bh.wg.Wait()
}

// HandleUpdate ставит текстовое сообщение в очередь его чата. Остальные типы обновлений игнорируются.
func (bh *BotHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil {
		return
	}
	if utils.GetMessageText(message) == "" {
		log.Printf("HandleUpdate: ChatID=%d, сообщение без текста проигнорировано", message.Chat.ID)
		return
	}
	bh.enqueue(ctx, message)
}

func (bh *BotHandler) enqueue(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	bh.mu.Lock()
	q, running := bh.queues[chatID]
	bh.queues[chatID] = append(q, message)
	if running {
		bh.mu.Unlock()
		return
	}
	bh.wg.Add(1)
	bh.mu.Unlock()

	go bh.drain(ctx, chatID)
}

// drain обрабатывает очередь чата, пока она не опустеет. Наличие ключа в queues означает, что drain уже запущен.
func (bh *BotHandler) drain(ctx context.Context, chatID int64) {
	defer bh.wg.Done()
	for {
		bh.mu.Lock()
		q := bh.queues[chatID]
		if len(q) == 0 {
			delete(bh.queues, chatID)
			bh.mu.Unlock()
			return
		}
		message := q[0]
		bh.queues[chatID] = q[1:]
		bh.mu.Unlock()

		bh.HandleMessage(ctx, message)
	}
}

// HandleMessage передает сообщение движку диалога и отправляет ответ.
// Отмена ctx не прерывает уже начатую обработку.
func (bh *BotHandler) HandleMessage(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID
	defer func() {
		if r := recover(); r != nil {
			log.Printf("HandleMessage: ПАНИКА при обработке сообщения chatID %d: %v", chatID, r)
		}
	}()

	text := utils.GetMessageText(message)
	log.Printf("HandleMessage: ChatID=%d, UserMessageID=%d, Text='%.50s'", chatID, message.MessageID, text)

	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), handleTimeout)
	defer cancel()

	reply, err := bh.Deps.Engine.Handle(hctx, chatID, utils.GetUserDisplayName(message.From), text)
	if err != nil {
		log.Printf("HandleMessage: chatID %d: %v", chatID, err)
	}
	bh.sendReply(chatID, reply)
}
