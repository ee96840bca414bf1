package conversation

import "strings"

// Keyboard - какую клавиатуру показать вместе с ответом.
type Keyboard int

const (
	KeyboardNone Keyboard = iota
	KeyboardMain
	KeyboardFields
	KeyboardCancel
	KeyboardRemove
)

// AttachmentKind - тип вложения.
type AttachmentKind int

const (
	AttachmentDocument AttachmentKind = iota
	AttachmentPhoto
)

// Attachment - файл, отправляемый после текстов ответа.
type Attachment struct {
	Kind    AttachmentKind
	Name    string
	Data    []byte
	Caption string
}

// Reply - ответ пользователю, не зависящий от транспорта.
// Texts отправляются по порядку; клавиатура прикрепляется к последнему сообщению.
type Reply struct {
	Texts      []string
	Keyboard   Keyboard
	Attachment *Attachment
}

func textReply(text string, kb Keyboard) *Reply {
	return &Reply{Texts: []string{text}, Keyboard: kb}
}

// Text склеивает все тексты ответа; удобно в тестах и логах.
func (r *Reply) Text() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Texts, "\n")
}
