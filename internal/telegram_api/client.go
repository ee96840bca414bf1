package telegram_api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

// httpTimeout - потолок одного HTTP-запроса к Bot API.
// Должен превышать таймаут long polling getUpdates (60с), иначе опрос будет обрываться.
// httpTimeout caps a single Bot API HTTP request; it must exceed the 60s getUpdates long poll.
const httpTimeout = 90 * time.Second

// API - часть *tgbotapi.BotAPI, которой пользуется бот.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	RequestWithContext(ctx context.Context, c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// BotClient - обертка над Telegram Bot API.
type BotClient struct {
	api      API
	username string
	Debug    bool
}

// InitBot авторизует бота по токену и отключает вебхук, чтобы работал getUpdates.
// endpoint - шаблон URL Bot API вида "https://host/bot%s/%s"; пустая строка означает api.telegram.org.
// HTTP-клиент ограничен httpTimeout: зависший Telegram не должен держать отправку бесконечно.
func InitBot(token, endpoint string, debug bool) (*BotClient, error) {
	if token == "" {
		return nil, fmt.Errorf("токен Telegram API не предоставлен")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, endpoint, &http.Client{Timeout: httpTimeout})
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Telegram Bot API: %w", err)
	}
	api.Debug = debug

	log.Printf("Авторизован как аккаунт %s", api.Self.UserName)

	// Ожидающие обновления не сбрасываем: заявки на редактирование, пришедшие во время простоя, должны обработаться.
	_, err = api.Request(tgbotapi.DeleteWebhookConfig{})
	if err != nil {
		log.Printf("Предупреждение или ошибка при отключении вебхука: %v. Это может быть нормально, если вебхук не был установлен.", err)
	} else {
		log.Println("Вебхук успешно отключен (или не был установлен).")
	}

	return NewBotClient(api, api.Self.UserName, debug), nil
}

// NewBotClient оборачивает готовый API-клиент.
func NewBotClient(api API, username string, debug bool) *BotClient {
	return &BotClient{api: api, username: username, Debug: debug}
}

// Username - имя бота без @.
func (bc *BotClient) Username() string {
	if bc == nil {
		return ""
	}
	return bc.username
}

// GetUpdatesChan возвращает канал обновлений от Telegram.
func (bc *BotClient) GetUpdatesChan(config tgbotapi.UpdateConfig) (tgbotapi.UpdatesChannel, error) {
	if bc == nil || bc.api == nil {
		return nil, fmt.Errorf("BotClient или его API не инициализирован")
	}
	if bc.Debug {
		log.Printf("Запрос канала обновлений с конфигурацией: %+v", config)
	}
	return bc.api.GetUpdatesChan(config), nil
}

// StopReceivingUpdates останавливает long polling; канал обновлений закрывается.
func (bc *BotClient) StopReceivingUpdates() {
	if bc == nil || bc.api == nil {
		return
	}
	bc.api.StopReceivingUpdates()
}

// Send отправляет сообщение через BotClient.
func (bc *BotClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if bc == nil || bc.api == nil {
		return tgbotapi.Message{}, fmt.Errorf("BotClient или его API не инициализирован")
	}
	if bc.Debug {
		switch msg := c.(type) {
		case tgbotapi.MessageConfig:
			log.Printf("Отправка сообщения: ChatID=%d, Text='%.50s...'", msg.ChatID, msg.Text)
		case tgbotapi.DocumentConfig:
			log.Printf("Отправка документа: ChatID=%d, Caption='%.50s...'", msg.ChatID, msg.Caption)
		case tgbotapi.PhotoConfig:
			log.Printf("Отправка фото: ChatID=%d, Caption='%.50s...'", msg.ChatID, msg.Caption)
		default:
			log.Printf("Отправка/запрос типа %T", c)
		}
	}
	return bc.api.Send(c)
}

// request отправляет запрос с ctx: отмена или дедлайн прерывают уже начатый HTTP-вызов.
func (bc *BotClient) request(ctx context.Context, c tgbotapi.Chattable) error {
	if bc == nil || bc.api == nil {
		return fmt.Errorf("BotClient или его API не инициализирован")
	}
	_, err := bc.api.RequestWithContext(ctx, c)
	return err
}
