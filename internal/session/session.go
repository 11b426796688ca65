package session

import (
	"fmt"
	"sync"
)

// Ключи записей в хранилище, по одной на поле сессии
const (
	keyToken  = "authToken"
	keyRole   = "authRole"
	keyUserID = "authUserId"
)

// Session - токен доступа, роль и идентификатор пользователя.
// Пустая строка означает отсутствующее значение, пустой Token - разлогинен.
type Session struct {
	Token  string
	Role   string
	UserID string
}

// LoggedIn сообщает, есть ли в сессии токен
func (s Session) LoggedIn() bool { return s.Token != "" }

// Store владеет сессией: все чтения и записи идут через него,
// каждое изменение поля немедленно сохраняется в Storage.
// Подписчики уведомляются о каждой замене сессии.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	current Session
	subs    []func(Session)
}

// NewStore читает сохраненную сессию из хранилища и возвращает Store
func NewStore(storage Storage) (*Store, error) {
	st := &Store{storage: storage}

	token, err := storage.Get(keyToken)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session token: %w", err)
	}
	role, err := storage.Get(keyRole)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session role: %w", err)
	}
	userID, err := storage.Get(keyUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session user id: %w", err)
	}

	st.current = Session{Token: token, Role: role, UserID: userID}
	return st, nil
}

// SetAuth заменяет сессию целиком: не переданные поля сбрасываются.
// Каждое поле сохраняется (или удаляется) в хранилище независимо.
func (s *Store) SetAuth(sess Session) error {
	s.mu.Lock()
	s.current = sess

	if err := s.persist(keyToken, sess.Token); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.persist(keyRole, sess.Role); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.persist(keyUserID, sess.UserID); err != nil {
		s.mu.Unlock()
		return err
	}

	subs := make([]func(Session), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(sess)
	}
	return nil
}

// persist сохраняет значение или удаляет запись, если значение пустое
func (s *Store) persist(key, value string) error {
	if value == "" {
		return s.storage.Delete(key)
	}
	return s.storage.Set(key, value)
}

// Logout сбрасывает все три поля и удаляет их из хранилища
func (s *Store) Logout() error {
	return s.SetAuth(Session{})
}

// Subscribe регистрирует функцию, вызываемую при каждой замене сессии
func (s *Store) Subscribe(fn func(Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Session возвращает снимок текущей сессии
func (s *Store) Session() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Token
}

func (s *Store) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Role
}

func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.UserID
}
