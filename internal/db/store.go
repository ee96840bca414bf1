package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"regexp"
	"sort"
	"strings"
)

// ColumnDef описывает колонку для CreateTable. Type содержит SQL-тип вместе с ограничениями,
// например "TEXT NOT NULL".
type ColumnDef struct {
	Name string
	Type string
}

// Row - строка результата: значения в порядке колонок запроса.
// Допустимые типы значений: nil, int64, float64, bool, string, time.Time.
type Row []any

// Query - параметризованная выборка. Where пишется с плейсхолдерами ?.
type Query struct {
	Table   string
	Columns []string // пусто = *
	Where   string
	Args    []any
	OrderBy string
	Limit   int
}

// Store - адаптер над реляционным хранилищем.
type Store interface {
	CreateTable(ctx context.Context, table string, columns []ColumnDef) error
	Insert(ctx context.Context, table string, columns []string, values []any) (int64, error)
	Select(ctx context.Context, q Query) ([]Row, error)
	Update(ctx context.Context, table string, set map[string]any, where string, args ...any) (int64, error)
}

var (
	identRe      = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	aggregateRe  = regexp.MustCompile(`^(?i:COUNT|MAX|MIN)\((\*|[A-Za-z_][A-Za-z0-9_]*)\)$`)
	orderByRe    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(?i:\s+(ASC|DESC))?$`)
	columnTypeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_ (),']*$`)
)

func validIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	return nil
}

func validSelectColumn(col string) error {
	if col == "*" || identRe.MatchString(col) || aggregateRe.MatchString(col) {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrInvalidIdentifier, col)
}

// SQLStore реализует Store поверх database/sql. Каждая операция - короткий автокоммит.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore оборачивает уже открытое соединение.
func NewSQLStore(conn *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: conn, dialect: dialect}
}

func (s *SQLStore) Dialect() Dialect { return s.dialect }

// DB возвращает пул соединений (нужен для миграций).
func (s *SQLStore) DB() *sql.DB { return s.db }

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return storeErr("ping", "", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// CreateTable выполняет CREATE TABLE IF NOT EXISTS.
func (s *SQLStore) CreateTable(ctx context.Context, table string, columns []ColumnDef) error {
	if err := validIdent(table); err != nil {
		return storeErr("create table", table, err)
	}
	if len(columns) == 0 {
		return storeErr("create table", table, fmt.Errorf("не заданы колонки"))
	}

	defs := make([]string, 0, len(columns))
	for _, c := range columns {
		if err := validIdent(c.Name); err != nil {
			return storeErr("create table", table, err)
		}
		if !columnTypeRe.MatchString(c.Type) {
			return storeErr("create table", table, fmt.Errorf("недопустимый тип колонки %s: %q", c.Name, c.Type))
		}
		defs = append(defs, c.Name+" "+c.Type)
	}

	query := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", table, strings.Join(defs, ", "))
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		log.Printf("SQLStore.CreateTable: ошибка создания таблицы %s: %v", table, err)
		return storeErr("create table", table, err)
	}
	return nil
}

// Insert добавляет строку и возвращает её id.
func (s *SQLStore) Insert(ctx context.Context, table string, columns []string, values []any) (int64, error) {
	if err := validIdent(table); err != nil {
		return 0, storeErr("insert", table, err)
	}
	if len(columns) == 0 || len(columns) != len(values) {
		return 0, storeErr("insert", table, fmt.Errorf("число колонок (%d) не совпадает с числом значений (%d)", len(columns), len(values)))
	}
	for _, c := range columns {
		if err := validIdent(c); err != nil {
			return 0, storeErr("insert", table, err)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	query := s.dialect.Rebind(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(columns, ", "), placeholders))

	var id int64
	if err := s.db.QueryRowContext(ctx, query, values...).Scan(&id); err != nil {
		log.Printf("SQLStore.Insert: ошибка вставки в %s: %v", table, err)
		return 0, storeErr("insert", table, err)
	}
	return id, nil
}

// Select выполняет выборку и возвращает строки в порядке колонок запроса.
func (s *SQLStore) Select(ctx context.Context, q Query) ([]Row, error) {
	if err := validIdent(q.Table); err != nil {
		return nil, storeErr("select", q.Table, err)
	}

	cols := "*"
	if len(q.Columns) > 0 {
		for _, c := range q.Columns {
			if err := validSelectColumn(c); err != nil {
				return nil, storeErr("select", q.Table, err)
			}
		}
		cols = strings.Join(q.Columns, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, q.Table)
	if q.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(q.Where)
	}
	if q.OrderBy != "" {
		if !orderByRe.MatchString(q.OrderBy) {
			return nil, storeErr("select", q.Table, fmt.Errorf("%w: %q", ErrInvalidIdentifier, q.OrderBy))
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(q.OrderBy)
	}
	if q.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", q.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.dialect.Rebind(b.String()), q.Args...)
	if err != nil {
		log.Printf("SQLStore.Select: ошибка выборки из %s: %v", q.Table, err)
		return nil, storeErr("select", q.Table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, storeErr("select", q.Table, err)
	}

	var result []Row
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			log.Printf("SQLStore.Select: ошибка сканирования строки из %s: %v", q.Table, err)
			return nil, storeErr("select", q.Table, err)
		}
		for i, v := range vals {
			if raw, ok := v.([]byte); ok {
				vals[i] = string(raw)
			}
		}
		result = append(result, Row(vals))
	}
	if err := rows.Err(); err != nil {
		log.Printf("SQLStore.Select: ошибка итерации по %s: %v", q.Table, err)
		return nil, storeErr("select", q.Table, err)
	}
	return result, nil
}

// Update меняет колонки из set в строках, подходящих под where. Возвращает число затронутых строк.
func (s *SQLStore) Update(ctx context.Context, table string, set map[string]any, where string, args ...any) (int64, error) {
	if err := validIdent(table); err != nil {
		return 0, storeErr("update", table, err)
	}
	if len(set) == 0 {
		return 0, storeErr("update", table, fmt.Errorf("нечего обновлять"))
	}

	keys := make([]string, 0, len(set))
	for k := range set {
		if err := validIdent(k); err != nil {
			return 0, storeErr("update", table, err)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	assignments := make([]string, len(keys))
	params := make([]any, 0, len(keys)+len(args))
	for i, k := range keys {
		assignments[i] = k + " = ?"
		params = append(params, set[k])
	}
	params = append(params, args...)

	query := fmt.Sprintf("UPDATE %s SET %s", table, strings.Join(assignments, ", "))
	if where != "" {
		query += " WHERE " + where
	}

	res, err := s.db.ExecContext(ctx, s.dialect.Rebind(query), params...)
	if err != nil {
		log.Printf("SQLStore.Update: ошибка обновления %s: %v", table, err)
		return 0, storeErr("update", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("update", table, err)
	}
	return n, nil
}
