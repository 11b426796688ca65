package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_SetAuthPersistsEveryField(t *testing.T) {
	// Подготовка
	storage := NewMemoryStorage()
	store, err := NewStore(storage)
	require.NoError(t, err)

	// Действие
	err = store.SetAuth(Session{Token: "token-1", Role: "admin", UserID: "user-1"})

	// Проверки: каждое поле лежит под своим ключом
	require.NoError(t, err)
	token, _ := storage.Get("authToken")
	role, _ := storage.Get("authRole")
	userID, _ := storage.Get("authUserId")
	assert.Equal(t, "token-1", token)
	assert.Equal(t, "admin", role)
	assert.Equal(t, "user-1", userID)
	assert.True(t, store.Session().LoggedIn())
}

func TestStore_RestoresSessionFromStorage(t *testing.T) {
	// Подготовка: хранилище уже содержит сессию прошлого запуска
	storage := NewMemoryStorage()
	require.NoError(t, storage.Set("authToken", "token-1"))
	require.NoError(t, storage.Set("authRole", "user"))
	require.NoError(t, storage.Set("authUserId", "user-1"))

	// Действие
	store, err := NewStore(storage)

	// Проверки
	require.NoError(t, err)
	sess := store.Session()
	assert.Equal(t, "token-1", sess.Token)
	assert.Equal(t, "user", sess.Role)
	assert.Equal(t, "user-1", sess.UserID)
}

func TestStore_SetAuthResetsOmittedFields(t *testing.T) {
	// Подготовка
	storage := NewMemoryStorage()
	store, err := NewStore(storage)
	require.NoError(t, err)
	require.NoError(t, store.SetAuth(Session{Token: "token-1", Role: "admin", UserID: "user-1"}))

	// Действие: сессия заменяется целиком, UserID не передан
	require.NoError(t, store.SetAuth(Session{Token: "token-2", Role: "user"}))

	// Проверки: пропущенное поле сброшено и удалено из хранилища
	sess := store.Session()
	assert.Equal(t, "token-2", sess.Token)
	assert.Empty(t, sess.UserID)
	userID, _ := storage.Get("authUserId")
	assert.Empty(t, userID)
}

func TestStore_LogoutClearsEverything(t *testing.T) {
	// Подготовка
	storage := NewMemoryStorage()
	store, err := NewStore(storage)
	require.NoError(t, err)
	require.NoError(t, store.SetAuth(Session{Token: "token-1", Role: "admin", UserID: "user-1"}))

	// Действие
	require.NoError(t, store.Logout())

	// Проверки
	assert.False(t, store.Session().LoggedIn())
	assert.Empty(t, store.Token())
	assert.Empty(t, store.Role())
	assert.Empty(t, store.UserID())
	token, _ := storage.Get("authToken")
	assert.Empty(t, token)
}

func TestStore_SubscribersNotifiedOnEveryReplacement(t *testing.T) {
	// Подготовка
	storage := NewMemoryStorage()
	store, err := NewStore(storage)
	require.NoError(t, err)

	var seen []Session
	store.Subscribe(func(s Session) { seen = append(seen, s) })

	// Действие
	require.NoError(t, store.SetAuth(Session{Token: "token-1", Role: "user"}))
	require.NoError(t, store.Logout())

	// Проверки: логин и логаут дают по уведомлению
	require.Len(t, seen, 2)
	assert.Equal(t, "token-1", seen[0].Token)
	assert.Empty(t, seen[1].Token)
}

func TestFileStorage_SurvivesRestart(t *testing.T) {
	// Подготовка
	dir := t.TempDir()
	storage, err := NewFileStorage(dir)
	require.NoError(t, err)

	store, err := NewStore(storage)
	require.NoError(t, err)
	require.NoError(t, store.SetAuth(Session{Token: "token-1", Role: "admin", UserID: "user-1"}))

	// Действие: новый Store поверх того же каталога, как после перезапуска CLI
	restarted, err := NewFileStorage(dir)
	require.NoError(t, err)
	store2, err := NewStore(restarted)
	require.NoError(t, err)

	// Проверки
	sess := store2.Session()
	assert.Equal(t, "token-1", sess.Token)
	assert.Equal(t, "admin", sess.Role)
	assert.Equal(t, "user-1", sess.UserID)
}

func TestFileStorage_MissingKeyReadsAsEmpty(t *testing.T) {
	// Подготовка
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	// Действие
	value, err := storage.Get("authToken")

	// Проверки: отсутствующий ключ — не ошибка
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestFileStorage_DeleteIsIdempotent(t *testing.T) {
	// Подготовка
	storage, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, storage.Set("authToken", "token-1"))

	// Действие
	require.NoError(t, storage.Delete("authToken"))

	// Проверки: повторное удаление не падает
	require.NoError(t, storage.Delete("authToken"))
}
