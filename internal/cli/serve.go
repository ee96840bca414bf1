package cli

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
	"github.com/spf13/cobra"

	"EntryBot/internal/api"
	"EntryBot/internal/config"
	"EntryBot/internal/constants"
	"EntryBot/internal/conversation"
	"EntryBot/internal/db"
	"EntryBot/internal/handlers"
	"EntryBot/internal/notify"
	"EntryBot/internal/poller"
	"EntryBot/internal/session"
	"EntryBot/internal/telegram_api"
)

const shutdownTimeout = 10 * time.Second

// NewServeCommand запускает бота, поллер заявок и HTTP-сервер формы.
func NewServeCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить бота, поллер и HTTP-сервер",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts.Config)
		},
	}
}

func runServe(parent context.Context, cfg *config.Config) error {
	if err := cfg.ValidateForBot(); err != nil {
		return fmt.Errorf("некорректная конфигурация: %w", err)
	}

	ctx, cancelFunc := context.WithCancel(parent)
	defer cancelFunc()
	initSignalHandler(ctx, cancelFunc)

	store, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := db.Bootstrap(ctx, store); err != nil {
		return err
	}
	repo := db.NewRepository(store)

	bot, err := telegram_api.InitBot(cfg.TelegramToken, cfg.TelegramEndpoint, cfg.Debug())
	if err != nil {
		return err
	}
	botUsername := cfg.BotUsername
	if botUsername == "" {
		botUsername = bot.Username()
	}

	engine := conversation.NewEngine(repo, session.NewSessionManager(), conversation.Config{
		AccessCode:  cfg.AccessCode,
		BotUsername: botUsername,
		FormURL:     cfg.FormURL,
		SheetName:   cfg.SheetName,
	})
	botHandler := handlers.NewBotHandler(handlers.HandlerDependencies{
		Engine:    engine,
		BotClient: bot,
	})

	dispatcher, err := notify.NewDispatcher(repo, bot, cfg.NotifyTemplate)
	if err != nil {
		return err
	}
	pollerOpts := []poller.Option{
		poller.WithInterval(cfg.PollInterval),
		poller.WithTimeout(cfg.PollTimeout),
	}
	if cfg.PersistWatermark {
		pollerOpts = append(pollerOpts, poller.WithWatermarkStore(repo, constants.WatermarkName))
	}
	entryPoller := poller.New(repo, dispatcher, pollerOpts...)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: api.NewRouter(api.ApiDependencies{
			Entries:        repo,
			Health:         store,
			AllowedOrigins: cfg.AllowedOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates, err := bot.GetUpdatesChan(u)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("Запуск HTTP-сервера формы на порту %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("КРИТИЧЕСКАЯ ОШИБКА: HTTP-сервер остановлен: %v", err)
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		entryPoller.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		botHandler.Run(ctx, updates)
	}()

	log.Println("Бот, поллер и HTTP-сервер запущены и готовы к работе...")
	<-ctx.Done()
	log.Println("Остановка...")

	bot.StopReceivingUpdates()
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(parent), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка остановки HTTP-сервера: %v", err)
	}

	wg.Wait()
	log.Println("Остановлено.")
	return nil
}

func initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			log.Printf("Получен сигнал %s", s)
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}
