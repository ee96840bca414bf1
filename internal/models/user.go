package models

// UnknownDisplayName подставляется, когда Telegram не сообщил имя пользователя.
const UnknownDisplayName = "Unknown"

// Subscriber - оператор, пишущий боту.
// ChatID - естественный ключ; ID - суррогатный ключ таблицы subscribers.
type Subscriber struct {
	ID            int64
	ChatID        int64
	DisplayName   string
	Authorized    bool
	NotifyEnabled bool
}

// ReceivesNotifications сообщает, должен ли оператор получать уведомления о новых заявках.
func (s Subscriber) ReceivesNotifications() bool {
	return s.Authorized && s.NotifyEnabled
}
