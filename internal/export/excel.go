// Package export собирает выгрузки заявок: книгу Excel и QR-код ссылки на форму.
package export

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"EntryBot/internal/constants"
	"EntryBot/internal/models"
)

var entryHeaders = []string{"ID", constants.BTN_FIELD_NAME, constants.BTN_FIELD_EMAIL, constants.BTN_FIELD_PHONE, constants.BTN_FIELD_SERVICE}

// EntriesWorkbook строит книгу xlsx с одним листом sheetName: заголовок и по строке на заявку.
func EntriesWorkbook(entries []models.Entry, sheetName string) ([]byte, error) {
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = constants.DefaultSheetName
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("EntriesWorkbook: ошибка закрытия книги: %v", err)
		}
	}()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания листа %q: %w", sheetName, err)
	}
	f.SetActiveSheet(index)
	if sheetName != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("ошибка удаления стандартного листа: %w", err)
		}
	}

	for i, header := range entryHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, err
		}
	}

	for r, e := range entries {
		row := []any{e.ID, e.Name, e.Email, e.Phone, e.ServiceType}
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("ошибка записи ячейки %s: %w", cell, err)
			}
		}
	}

	if err := f.SetColWidth(sheetName, "B", "E", 24); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка сериализации книги: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName - имя файла выгрузки: дата и короткий случайный суффикс.
func FileName(now time.Time) string {
	return fmt.Sprintf("entries_%s_%s.xlsx", now.Format("20060102_150405"), strings.SplitN(uuid.NewString(), "-", 2)[0])
}
