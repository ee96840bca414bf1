package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"EntryBot/internal/models"
)

func TestEntriesWorkbook(t *testing.T) {
	entries := []models.Entry{
		{ID: 1, Name: "Ann", Email: "ann@example.com", Phone: "+380500000001", ServiceType: "yoga"},
		{ID: 4, Name: "Bob", Email: "bob@example.com", Phone: "+380500000002", ServiceType: "pilates"},
	}

	data, err := EntriesWorkbook(entries, "Bot Clients")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Bot Clients"}, f.GetSheetList())

	rows, err := f.GetRows("Bot Clients")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, []string{"1", "Ann", "ann@example.com", "+380500000001", "yoga"}, rows[1])
	assert.Equal(t, []string{"4", "Bob", "bob@example.com", "+380500000002", "pilates"}, rows[2])
}

func TestEntriesWorkbook_DefaultSheetAndEmpty(t *testing.T) {
	data, err := EntriesWorkbook(nil, "  ")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bot Clients")
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}

func TestFileName(t *testing.T) {
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	a, b := FileName(now), FileName(now)

	assert.Regexp(t, `^entries_20250304_050607_[0-9a-f]{8}\.xlsx$`, a)
	assert.NotEqual(t, a, b)
}

func TestFormQRCode(t *testing.T) {
	png, err := FormQRCode("https://example.com/form")
	require.NoError(t, err)
	require.Greater(t, len(png), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, png[:4])

	_, err = FormQRCode("not a url")
	assert.Error(t, err)
}
