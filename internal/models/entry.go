package models

import (
	"fmt"
	"strings"
)

// EntryField - имя редактируемой колонки таблицы entries.
type EntryField string

const (
	FieldName        EntryField = "name"
	FieldEmail       EntryField = "email"
	FieldPhone       EntryField = "phone"
	FieldServiceType EntryField = "service_type"
)

// EditableFields перечисляет поля заявки, которые можно менять через бота, в порядке отображения.
var EditableFields = []EntryField{FieldName, FieldEmail, FieldPhone, FieldServiceType}

// Valid сообщает, является ли поле одним из редактируемых.
func (f EntryField) Valid() bool {
	for _, known := range EditableFields {
		if f == known {
			return true
		}
	}
	return false
}

// Entry - заявка клиента, пришедшая из веб-формы.
type Entry struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	ServiceType string `json:"service_type"`
}

// Value возвращает значение указанного поля.
func (e Entry) Value(f EntryField) string {
	switch f {
	case FieldName:
		return e.Name
	case FieldEmail:
		return e.Email
	case FieldPhone:
		return e.Phone
	case FieldServiceType:
		return e.ServiceType
	}
	return ""
}

// Normalize обрезает пробелы по краям всех текстовых полей.
func (e Entry) Normalize() Entry {
	e.Name = strings.TrimSpace(e.Name)
	e.Email = strings.TrimSpace(e.Email)
	e.Phone = strings.TrimSpace(e.Phone)
	e.ServiceType = strings.TrimSpace(e.ServiceType)
	return e
}

// Validate проверяет, что все четыре обязательных поля непустые.
// Формат email и телефона намеренно не проверяется.
func (e Entry) Validate() error {
	var missing []string
	for _, f := range EditableFields {
		if strings.TrimSpace(e.Value(f)) == "" {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("не заполнены поля: %s", strings.Join(missing, ", "))
	}
	return nil
}
