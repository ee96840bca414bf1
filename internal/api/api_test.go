package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EntryBot/internal/models"
	"EntryBot/internal/testutil"
)

type failingEntries struct{}

func (failingEntries) CreateEntry(ctx context.Context, e models.Entry) (models.Entry, error) {
	return models.Entry{}, errors.New("pq: connection refused")
}

type pingErr struct{ err error }

func (p pingErr) Ping(ctx context.Context) error { return p.err }

func decode(t *testing.T, rec *httptest.ResponseRecorder) jsonResponse {
	t.Helper()
	var resp jsonResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestSubmitForm_CreatesEntry(t *testing.T) {
	store, repo := testutil.NewStore(t)
	router := NewRouter(ApiDependencies{Entries: repo, Health: store})

	form := url.Values{
		"name":  {" Ann "},
		"email": {"ann@example.com"},
		"phone": {"+380500000001"},
		"type":  {"yoga"},
	}
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "success", resp.Status)

	entries, err := repo.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Ann", entries[0].Name)
	assert.Equal(t, "yoga", entries[0].ServiceType)
}

func TestCreateEntry_JSON(t *testing.T) {
	_, repo := testutil.NewStore(t)
	router := NewRouter(ApiDependencies{Entries: repo})

	body := `{"name":"Bob","email":"bob@example.com","phone":"123","type":"massage"}`
	req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	body = `{"name":"Eve","email":"eve@example.com","phone":"456","service_type":"yoga"}`
	req = httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	entries, err := repo.ListEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "massage", entries[0].ServiceType)
	assert.Equal(t, "yoga", entries[1].ServiceType)
	assert.Greater(t, entries[1].ID, entries[0].ID)
}

func TestCreateEntry_ValidationAndBadBodies(t *testing.T) {
	_, repo := testutil.NewStore(t)
	router := NewRouter(ApiDependencies{Entries: repo})

	cases := map[string]string{
		"missing phone": `{"name":"Bob","email":"bob@example.com","type":"x"}`,
		"blank name":    `{"name":"   ","email":"bob@example.com","phone":"1","type":"x"}`,
		"not json":      `name=Bob`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "error", decode(t, rec).Status)
		})
	}

	n, err := repo.CountEntries(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateEntry_TooLarge(t *testing.T) {
	_, repo := testutil.NewStore(t)
	router := NewRouter(ApiDependencies{Entries: repo})

	body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestSubmitForm_TooLarge(t *testing.T) {
	_, repo := testutil.NewStore(t)
	router := NewRouter(ApiDependencies{Entries: repo})

	body := "name=" + strings.Repeat("a", maxBodyBytes) + "&email=a@example.com&phone=1&type=x"
	req := httptest.NewRequest(http.MethodPost, "/submit", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	n, err := repo.CountEntries(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCreateEntry_StoreFailure(t *testing.T) {
	router := NewRouter(ApiDependencies{Entries: failingEntries{}})

	body := `{"name":"Bob","email":"b@example.com","phone":"1","type":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, msgStoreFailure, resp.Message)
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestServeFormAndHealth(t *testing.T) {
	router := NewRouter(ApiDependencies{Entries: failingEntries{}, Health: pingErr{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `action="/submit"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := NewRouter(ApiDependencies{Entries: failingEntries{}, Health: pingErr{err: errors.New("closed")}})
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	router := NewRouter(ApiDependencies{Entries: failingEntries{}, AllowedOrigins: []string{"https://forms.example.com"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/entries", nil)
	req.Header.Set("Origin", "https://forms.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://forms.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
