package formatters

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"EntryBot/internal/constants"
	"EntryBot/internal/models"
)

const (
	separator = "─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─ ─"
)

// FormatEntry форматирует одну заявку для просмотра оператором.
func FormatEntry(e models.Entry) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🆔 ID: %d\n", e.ID))
	b.WriteString(fmt.Sprintf("👤 %s: %s\n", constants.BTN_FIELD_NAME, e.Name))
	b.WriteString(fmt.Sprintf("📧 %s: %s\n", constants.BTN_FIELD_EMAIL, e.Email))
	b.WriteString(fmt.Sprintf("📞 %s: %s\n", constants.BTN_FIELD_PHONE, e.Phone))
	b.WriteString(fmt.Sprintf("📦 %s: %s\n", constants.BTN_FIELD_SERVICE, e.ServiceType))
	return b.String()
}

// FormatEntryList собирает список всех заявок. Пустой список дает MSG_NO_ENTRIES.
func FormatEntryList(entries []models.Entry) string {
	if len(entries) == 0 {
		return constants.MSG_NO_ENTRIES
	}
	var b strings.Builder
	b.WriteString("📋 Записи клієнтів:\n\n")
	for _, e := range entries {
		b.WriteString(FormatEntry(e))
		b.WriteString(separator)
		b.WriteString("\n\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatRecordChoice - список "id - имя" перед выбором записи для редактирования.
func FormatRecordChoice(entries []models.Entry) string {
	var b strings.Builder
	b.WriteString("📝 Доступні записи:\n\n")
	for _, e := range entries {
		b.WriteString(fmt.Sprintf("🆔 %d - %s\n", e.ID, e.Name))
	}
	b.WriteString("\n")
	b.WriteString(constants.MSG_ENTER_RECORD_ID)
	return b.String()
}

// FieldLabel возвращает подпись поля для пользователя.
func FieldLabel(f models.EntryField) string {
	if label, ok := constants.FieldDisplayMap[string(f)]; ok {
		return label
	}
	return string(f)
}

// ParseField распознает поле по тексту кнопки или имени колонки, без учета регистра.
func ParseField(text string) (models.EntryField, bool) {
	text = strings.TrimSpace(text)
	if col, ok := constants.FieldButtonMap[text]; ok {
		return models.EntryField(col), true
	}
	if col, ok := constants.FieldButtonMap[strings.ToLower(text)]; ok {
		return models.EntryField(col), true
	}
	for label, col := range constants.FieldButtonMap {
		if strings.EqualFold(label, text) {
			return models.EntryField(col), true
		}
	}
	return "", false
}

// SplitMessage режет текст на части не длиннее limit, предпочитая границы строк.
// Длина считается в кодовых единицах UTF-16, как ее считает Telegram: эмодзи занимает две.
// SplitMessage splits text into parts of at most limit UTF-16 code units, preferring line breaks.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || UTF16Len(text) <= limit {
		return []string{text}
	}

	var (
		parts   []string
		current strings.Builder
		size    int // длина current в UTF-16 / current length in UTF-16 units
	)
	flush := func() {
		if size > 0 {
			parts = append(parts, strings.TrimRight(current.String(), "\n"))
			current.Reset()
			size = 0
		}
	}

	for _, line := range strings.SplitAfter(text, "\n") {
		n := UTF16Len(line)
		if size+n > limit {
			flush()
		}
		// Строка длиннее лимита режется посимвольно.
		for n > limit {
			cut := cutUTF16(line, limit)
			parts = append(parts, line[:cut])
			line = line[cut:]
			n = UTF16Len(line)
		}
		current.WriteString(line)
		size += n
	}
	flush()
	return parts
}

// UTF16Len - длина строки в кодовых единицах UTF-16.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		n += runeUnits(r)
	}
	return n
}

// cutUTF16 возвращает байтовую границу самого длинного префикса s, который укладывается в limit.
// Хотя бы один символ отрезается всегда.
func cutUTF16(s string, limit int) int {
	units := 0
	for i, r := range s {
		u := runeUnits(r)
		if units+u > limit {
			if i == 0 {
				_, w := utf8.DecodeRuneInString(s)
				return w
			}
			return i
		}
		units += u
	}
	return len(s)
}

func runeUnits(r rune) int {
	if n := utf16.RuneLen(r); n > 0 {
		return n
	}
	return 1
}
