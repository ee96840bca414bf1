// Файл: internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite" // SQLite driver (pure Go)
)

// Open разбирает DATABASE_URL, открывает пул соединений и проверяет его.
// Поддерживаются схемы postgres://, postgresql:// и sqlite://<путь>.
func Open(ctx context.Context, rawURL string) (*SQLStore, error) {
	dialect, dsn, err := ParseURL(rawURL)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к базе данных: %w", err)
	}

	switch dialect {
	case Postgres:
		conn.SetMaxOpenConns(50)
		conn.SetMaxIdleConns(20)
		conn.SetConnMaxLifetime(5 * time.Minute)
	case SQLite:
		// Один писатель: SQLite сериализует запись, лишние соединения дают SQLITE_BUSY.
		conn.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ошибка проверки соединения с базой данных: %w", err)
	}

	log.Printf("Успешное подключение к базе данных (%s).", dialect)
	return NewSQLStore(conn, dialect), nil
}

// ParseURL определяет диалект по схеме URL и возвращает DSN для драйвера.
func ParseURL(rawURL string) (Dialect, string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", "", fmt.Errorf("DATABASE_URL не установлена")
	}

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("ошибка парсинга DATABASE_URL: %w", err)
	}

	switch parsedURL.Scheme {
	case "postgres", "postgresql":
		return Postgres, parsedURL.String(), nil
	case "sqlite", "sqlite3", "file":
		path := strings.TrimPrefix(rawURL, parsedURL.Scheme+"://")
		if i := strings.IndexByte(path, '?'); i >= 0 {
			path = path[:i]
		}
		if path == "" {
			return "", "", fmt.Errorf("в DATABASE_URL не указан путь к файлу SQLite")
		}
		return SQLite, sqliteDSN(path), nil
	default:
		return "", "", fmt.Errorf("неподдерживаемая схема DATABASE_URL: %q", parsedURL.Scheme)
	}
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
}
