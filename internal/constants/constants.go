package constants

import "time"

// Состояния диалога оператора
const (
	STATE_IDLE                  = "idle"
	STATE_AWAITING_PASSWORD     = "awaiting_password"
	STATE_AWAITING_RECORD_ID    = "awaiting_record_id"
	STATE_AWAITING_FIELD_CHOICE = "awaiting_field_choice"
	STATE_AWAITING_FIELD_VALUE  = "awaiting_field_value"
)

// Команды бота
const (
	CMD_START  = "start"
	CMD_HELP   = "help"
	CMD_STATUS = "status"
	CMD_SHOW   = "show"
	CMD_EDIT   = "edit"
	CMD_NOTIFY = "notify"
	CMD_EXPORT = "export"
	CMD_FORM   = "form"
	CMD_CANCEL = "cancel"
)

// Кнопки главного меню и меню редактирования (тексты видит пользователь)
const (
	BTN_VIEW_ENTRIES = "📋 Записи"
	BTN_EDIT         = "✏️ Редагувати"
	BTN_NOTIFY       = "🔔 Сповіщення"
	BTN_HELP         = "ℹ️ Допомога"
	BTN_EXPORT       = "📤 Експорт"
	BTN_CANCEL       = "❌ Скасувати"

	BTN_FIELD_NAME    = "Ім'я"
	BTN_FIELD_EMAIL   = "Email"
	BTN_FIELD_PHONE   = "Телефон"
	BTN_FIELD_SERVICE = "Послуга"
)

// Тексты ответов бота
const (
	MSG_WELCOME_NEW          = "👋 Вітаю! Для доступу до функцій бота введіть пароль:"
	MSG_ENTER_PASSWORD       = "🔐 Введіть пароль для доступу:"
	MSG_ALREADY_AUTHORIZED   = "✅ Ви авторизовані! Оберіть дію:"
	MSG_AUTH_SUCCESS         = "✅ Успішно авторизовано!"
	MSG_WRONG_PASSWORD       = "❌ Невірний пароль. Спробуйте ще раз:"
	MSG_NO_ACCESS            = "🚫 У вас немає доступу. Використайте /start"
	MSG_NO_ENTRIES           = "📭 Поки що немає записів."
	MSG_NO_ENTRIES_TO_EDIT   = "📭 Немає записів для редагування."
	MSG_ENTER_RECORD_ID      = "💡 Введіть ID запису для редагування:"
	MSG_RECORD_ID_NOT_NUMBER = "❌ Введіть числовий ID запису:"
	MSG_RECORD_NOT_FOUND     = "❌ Запис з таким ID не знайдено. Спробуйте ще раз:"
	MSG_CHOOSE_FIELD         = "✏️ Оберіть поле для редагування:"
	MSG_CHOOSE_FIELD_AGAIN   = "❌ Оберіть поле з меню:"
	MSG_ENTER_VALUE          = "✍️ Введіть нове значення для поля '%s':"
	MSG_EMPTY_VALUE          = "❌ Значення не може бути порожнім. Введіть нове значення:"
	MSG_ENTRY_UPDATED        = "✅ Запис #%d оновлено!\n%s → %s"
	MSG_EDIT_CANCELLED       = "❌ Редагування скасовано."
	MSG_ENTRY_GONE           = "❌ Запис #%d більше не існує. Редагування скасовано."
	MSG_NOTIFY_ON            = "🔔 Сповіщення увімкнені ✅\n\nВи отримуватимете повідомлення про нові записи клієнтів."
	MSG_NOTIFY_OFF           = "🔕 Сповіщення вимкнені ❌\n\nВи більше не отримуватимете повідомлення."
	MSG_STATUS               = "📊 Статус:\n\n📋 Всього записів: %d\n🔔 Сповіщення: %s"
	MSG_STATUS_NOTIFY_ON     = "увімкнені ✅"
	MSG_STATUS_NOTIFY_OFF    = "вимкнені ❌"
	MSG_IDLE_HINT            = "🤔 Не зрозумів. Оберіть дію з меню або натисніть ℹ️ Допомога."
	MSG_INTERNAL_ERROR       = "⚠️ Сталася помилка. Спробуйте пізніше."
	MSG_FORM_NOT_CONFIGURED  = "⚠️ Посилання на форму не налаштовано."
	MSG_FORM_CAPTION         = "🔗 Форма запису: %s"
	MSG_EXPORT_CAPTION       = "📤 Експорт записів (%d)"
)

const MSG_HELP = `📖 Довідка по боту

Основні функції:
📋 Записи - Перегляд всіх записів клієнтів
✏️ Редагувати - Зміна даних запису
🔔 Сповіщення - Увімкнути/вимкнути повідомлення про нові записи
📤 Експорт - Вивантаження записів у Excel
ℹ️ Допомога - Ця довідка

Команди:
/start - Перезапуск бота
/status - Статус підключення
/show, /edit, /notify - Те саме, що й кнопки
/form - QR-код форми запису
/cancel - Скасувати редагування

💡 Записи надходять автоматично з сайту.`

// DefaultNotifyTemplate - шаблон text/template уведомления о новой заявке.
const DefaultNotifyTemplate = `🆕 Новий запис!
🆔 ID: {{.ID}}
👤 Ім'я: {{.Name}}
📧 Email: {{.Email}}
📞 Телефон: {{.Phone}}
📦 Послуга: {{.ServiceType}}`

// Параметры фоновых задач по умолчанию
const (
	DefaultPollInterval = 5 * time.Second
	DefaultPollTimeout  = 10 * time.Second
	DefaultSheetName    = "Bot Clients"
	DefaultDatabaseURL  = "sqlite://entries.db"
	DefaultHTTPPort     = "8080"

	// WatermarkName - ключ строки poller_state для watermark таблицы entries.
	WatermarkName = "entries"

	// MaxTelegramMessageLen - лимит длины одного текстового сообщения Telegram.
	MaxTelegramMessageLen = 4096
)

// FieldDisplayMap - подписи полей заявки для пользователя.
var FieldDisplayMap = map[string]string{
	"name":         BTN_FIELD_NAME,
	"email":        BTN_FIELD_EMAIL,
	"phone":        BTN_FIELD_PHONE,
	"service_type": BTN_FIELD_SERVICE,
}

// FieldButtonMap - обратное отображение: кнопка или имя колонки -> колонка таблицы entries.
var FieldButtonMap = map[string]string{
	BTN_FIELD_NAME:    "name",
	BTN_FIELD_EMAIL:   "email",
	BTN_FIELD_PHONE:   "phone",
	BTN_FIELD_SERVICE: "service_type",
	"name":            "name",
	"email":           "email",
	"phone":           "phone",
	"service_type":    "service_type",
	"service-type":    "service_type",
	"service":         "service_type",
	"type":            "service_type",
}
