package session

import (
	"log"
	"sync"

	"EntryBot/internal/constants"
	"EntryBot/internal/models"
)

// Scratch - временные данные незавершенного редактирования.
// Scratch holds the in-progress edit of a single chat.
type Scratch struct {
	RecordID int64             // ID выбранной записи, 0 - еще не выбрана / Selected record ID, 0 if none yet
	Field    models.EntryField // Выбранное поле, пусто - еще не выбрано / Selected field, empty if none yet
}

// Session - состояние диалога одного чата. Живет только в памяти процесса.
// Session is the dialog state of one chat. It lives in process memory only.
type Session struct {
	State   string  // Текущее состояние (например, constants.STATE_AWAIT_FIELD) / Current state (e.g., constants.STATE_AWAIT_FIELD)
	Scratch Scratch // Очищается при каждом возврате в STATE_IDLE / Cleared on every return to STATE_IDLE
}

// IsIdle сообщает, что диалог находится в состоянии покоя.
// IsIdle reports whether the dialog is at rest.
func (s Session) IsIdle() bool {
	return s.State == "" || s.State == constants.STATE_IDLE
}

func idle() Session {
	return Session{State: constants.STATE_IDLE}
}

type chatLock struct {
	mu   sync.Mutex
	refs int // Сколько горутин держат или ждут mu / Goroutines holding or waiting for mu
}

// SessionManager хранит состояния диалогов по chatID.
// Кроме карты состояний держит по мьютексу на чат: события одного чата обрабатываются строго по очереди.
// SessionManager stores dialog sessions by chatID and a per-chat mutex that serializes events of one chat.
type SessionManager struct {
	sessions     map[int64]Session // Ключ: chatID, Значение: сессия / Key: chatID, Value: session
	sessionMutex sync.RWMutex      // Мьютекс для безопасного доступа к sessions / Mutex for safe access to sessions

	chatLocks      map[int64]*chatLock // Ключ: chatID, Значение: мьютекс чата со счетчиком ссылок / Key: chatID, Value: refcounted chat mutex
	chatLocksMutex sync.Mutex          // Общий мьютекс для карты chatLocks / General mutex for the chatLocks map
}

// NewSessionManager создает и возвращает новый экземпляр SessionManager.
// NewSessionManager creates and returns a new instance of SessionManager.
func NewSessionManager() *SessionManager {
	return &SessionManager{
		sessions:  make(map[int64]Session),
		chatLocks: make(map[int64]*chatLock),
	}
}

// GetOrCreate возвращает сессию чата, создавая её в состоянии STATE_IDLE при первом обращении.
// GetOrCreate returns the chat session, creating an idle one on first access.
func (sm *SessionManager) GetOrCreate(chatID int64) Session {
	sm.sessionMutex.RLock()
	s, ok := sm.sessions[chatID]
	sm.sessionMutex.RUnlock()
	if ok {
		return s
	}

	sm.sessionMutex.Lock()
	defer sm.sessionMutex.Unlock()
	// Повторная проверка под записью / Re-check under the write lock
	if s, ok = sm.sessions[chatID]; ok {
		return s
	}
	s = idle()
	sm.sessions[chatID] = s
	return s
}

// Get возвращает сессию без создания.
func (sm *SessionManager) Get(chatID int64) (Session, bool) {
	sm.sessionMutex.RLock()
	defer sm.sessionMutex.RUnlock()
	s, ok := sm.sessions[chatID]
	return s, ok
}

// Save записывает сессию целиком. Переход в STATE_IDLE очищает scratch.
// Save stores the whole session; moving to STATE_IDLE clears the scratch.
func (sm *SessionManager) Save(chatID int64, s Session) {
	if s.IsIdle() {
		s = idle()
	}
	sm.sessionMutex.Lock()
	prev := sm.sessions[chatID].State
	sm.sessions[chatID] = s
	sm.sessionMutex.Unlock()

	if prev != s.State {
		log.Printf("SessionManager.Save: состояние для chatID %d: %s -> %s", chatID, prev, s.State)
	}
}

// Reset сбрасывает состояние чата в STATE_IDLE и очищает scratch.
func (sm *SessionManager) Reset(chatID int64) {
	sm.Save(chatID, idle())
}

// Len - число известных сессий.
func (sm *SessionManager) Len() int {
	sm.sessionMutex.RLock()
	defer sm.sessionMutex.RUnlock()
	return len(sm.sessions)
}

// Lock захватывает мьютекс чата и возвращает функцию освобождения.
// Мьютексы создаются по требованию и удаляются, когда их никто не держит и не ждет.
// Lock acquires the chat mutex and returns its release func; idle mutexes are dropped.
func (sm *SessionManager) Lock(chatID int64) func() {
	sm.chatLocksMutex.Lock()
	l, ok := sm.chatLocks[chatID]
	if !ok {
		l = &chatLock{}
		sm.chatLocks[chatID] = l
	}
	l.refs++
	sm.chatLocksMutex.Unlock()

	l.mu.Lock()

	// Повторный вызов освобождения безопасен / Calling release twice is safe
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Unlock()
			sm.chatLocksMutex.Lock()
			l.refs--
			if l.refs == 0 {
				delete(sm.chatLocks, chatID)
			}
			sm.chatLocksMutex.Unlock()
		})
	}
}

func (sm *SessionManager) lockCount() int {
	sm.chatLocksMutex.Lock()
	defer sm.chatLocksMutex.Unlock()
	return len(sm.chatLocks)
}
