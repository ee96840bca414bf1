package db

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresMock(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewSQLStore(conn, Postgres), mock
}

func TestInsert_PostgresPlaceholdersAndReturning(t *testing.T) {
	s, mock := newPostgresMock(t)

	q := regexp.QuoteMeta(`INSERT INTO entries (name, email) VALUES ($1, $2) RETURNING id`)
	mock.ExpectQuery(q).
		WithArgs("Ann", "ann@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := s.Insert(context.Background(), "entries", []string{"name", "email"}, []any{"Ann", "ann@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsert_DBErrorIsStoreError(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectQuery(`INSERT INTO entries`).WillReturnError(errors.New("db down"))

	_, err := s.Insert(context.Background(), "entries", []string{"name"}, []any{"Ann"})
	require.Error(t, err)

	var se *StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "insert", se.Op)
	assert.Equal(t, "entries", se.Table)
	assert.Regexp(t, `db error: .*db down`, err.Error())
}

func TestInsert_ColumnValueMismatch(t *testing.T) {
	s, mock := newPostgresMock(t)

	_, err := s.Insert(context.Background(), "entries", []string{"name", "email"}, []any{"Ann"})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelect_RendersWhereOrderLimit(t *testing.T) {
	s, mock := newPostgresMock(t)

	q := regexp.QuoteMeta(`SELECT id, name FROM entries WHERE id > $1 AND name <> $2 ORDER BY id ASC LIMIT 10`)
	mock.ExpectQuery(q).
		WithArgs(int64(3), "x").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(4), []byte("Ann")).
			AddRow(int64(5), "Bob"))

	rows, err := s.Select(context.Background(), Query{
		Table:   "entries",
		Columns: []string{"id", "name"},
		Where:   "id > ? AND name <> ?",
		Args:    []any{int64(3), "x"},
		OrderBy: "id ASC",
		Limit:   10,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Row{int64(4), "Ann"}, rows[0])
	assert.Equal(t, Row{int64(5), "Bob"}, rows[1])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelect_AggregateColumns(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT MAX(id) FROM entries`)).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))

	rows, err := s.Select(context.Background(), Query{Table: "entries", Columns: []string{"MAX(id)"}})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0][0])
}

func TestSelect_RejectsInvalidIdentifiers(t *testing.T) {
	s, mock := newPostgresMock(t)
	ctx := context.Background()

	cases := []Query{
		{Table: "entries; DROP TABLE entries"},
		{Table: "entries", Columns: []string{"name, (SELECT 1)"}},
		{Table: "entries", OrderBy: "id; DELETE"},
	}
	for _, q := range cases {
		_, err := s.Select(ctx, q)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidIdentifier)
	}
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelect_RowsErrorPropagates(t *testing.T) {
	s, mock := newPostgresMock(t)

	mock.ExpectQuery(`SELECT id FROM entries`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)).RowError(0, errors.New("broken pipe")))

	_, err := s.Select(context.Background(), Query{Table: "entries", Columns: []string{"id"}})
	require.Error(t, err)
	var se *StoreError
	assert.ErrorAs(t, err, &se)
}

func TestUpdate_SortedAssignmentsAndRowsAffected(t *testing.T) {
	s, mock := newPostgresMock(t)

	q := regexp.QuoteMeta(`UPDATE subscribers SET authorized = $1, notify_enabled = $2 WHERE chat_id = $3`)
	mock.ExpectExec(q).
		WithArgs(true, false, int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := s.Update(context.Background(), "subscribers",
		map[string]any{"notify_enabled": false, "authorized": true}, "chat_id = ?", int64(42))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_EmptySetIsError(t *testing.T) {
	s, _ := newPostgresMock(t)

	_, err := s.Update(context.Background(), "entries", nil, "id = ?", int64(1))
	require.Error(t, err)
}

func TestCreateTable_RendersColumns(t *testing.T) {
	s, mock := newPostgresMock(t)

	q := regexp.QuoteMeta(`CREATE TABLE IF NOT EXISTS t (id SERIAL PRIMARY KEY, v TEXT NOT NULL DEFAULT 'x')`)
	mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.CreateTable(context.Background(), "t", []ColumnDef{
		{Name: "id", Type: "SERIAL PRIMARY KEY"},
		{Name: "v", Type: "TEXT NOT NULL DEFAULT 'x'"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateTable_RejectsBadType(t *testing.T) {
	s, _ := newPostgresMock(t)

	err := s.CreateTable(context.Background(), "t", []ColumnDef{{Name: "id", Type: "INT; DROP TABLE t"}})
	require.Error(t, err)
}

func TestRebind(t *testing.T) {
	assert.Equal(t, "a = $1 AND b = $2", Postgres.Rebind("a = ? AND b = ?"))
	assert.Equal(t, "a = '?' AND b = $1", Postgres.Rebind("a = '?' AND b = ?"))
	assert.Equal(t, "a = ? AND b = ?", SQLite.Rebind("a = ? AND b = ?"))
}

func TestParseURL(t *testing.T) {
	cases := []struct {
		in      string
		dialect Dialect
		wantErr bool
	}{
		{in: "postgres://u:p@localhost:5432/app?sslmode=disable", dialect: Postgres},
		{in: "postgresql://localhost/app", dialect: Postgres},
		{in: "sqlite://entries.db", dialect: SQLite},
		{in: "sqlite:///var/lib/bot/entries.db", dialect: SQLite},
		{in: "", wantErr: true},
		{in: "mysql://localhost/app", wantErr: true},
		{in: "sqlite://", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			d, dsn, err := ParseURL(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.dialect, d)
			assert.NotEmpty(t, dsn)
		})
	}

	_, dsn, err := ParseURL("sqlite:///var/lib/bot/entries.db")
	require.NoError(t, err)
	assert.Contains(t, dsn, "file:/var/lib/bot/entries.db?")
	assert.Contains(t, dsn, "busy_timeout(5000)")
}

func TestIsUniqueViolation_Postgres(t *testing.T) {
	err := &StoreError{Op: "insert", Table: "subscribers", Err: &pq.Error{Code: "23505"}}
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsUniqueViolation(sql.ErrNoRows))
	assert.False(t, IsUniqueViolation(nil))
}

func TestConverters(t *testing.T) {
	n, err := asInt64("12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	_, err = asInt64(struct{}{})
	assert.Error(t, err)

	b, err := asBool(int64(1))
	require.NoError(t, err)
	assert.True(t, b)

	b, err = asBool(nil)
	require.NoError(t, err)
	assert.False(t, b)

	assert.Equal(t, "abc", asString([]byte("abc")))
}
