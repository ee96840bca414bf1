package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"EntryBot/internal/cli"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Предупреждение: не удалось загрузить файл .env. Переменные окружения должны быть установлены иным способом.")
	}

	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Fatalf("Критическая ошибка: %v", err)
	}
}
