package chatsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diwt-portal/backend/models"
)

// fakeStore — хранилище в памяти для проверки протокола опроса.
type fakeStore struct {
	mu      sync.Mutex
	session *models.ChatSession
	reads   int
}

func (f *fakeStore) ActiveSession(ctx context.Context, userID string) (*models.ChatSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session == nil {
		return nil, nil
	}
	copied := *f.session
	copied.Messages = append(models.ChatMessages{}, f.session.Messages...)
	return &copied, nil
}

func (f *fakeStore) MarkUserRead(ctx context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.session != nil {
		f.session.HasUnreadUser = false
	}
	return nil
}

func (f *fakeStore) set(session *models.ChatSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session = session
}

func (f *fakeStore) appendMessage(msg models.ChatMessage, unreadUser bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.session.Messages = append(f.session.Messages, msg)
	f.session.HasUnreadUser = unreadUser
}

func waitEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		require.True(t, ok, "event channel closed unexpectedly")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return Event{}
	}
}

func activeSession(messages ...models.ChatMessage) *models.ChatSession {
	return &models.ChatSession{
		UserID:   "user-1",
		UserPib:  "Тестовий Студент",
		IsActive: true,
		Messages: messages,
	}
}

func TestWatcherDeliversUpdatesAndClearsUnread(t *testing.T) {
	store := &fakeStore{}
	store.set(activeSession(models.ChatMessage{ID: "welcome", SenderID: models.AdminSenderID, Text: "Добрий день!", IsSystem: true}))

	w := NewWatcher(store, "user-1", WithInterval(10*time.Millisecond), WithEndGrace(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	// Первый опрос приносит начальное состояние
	ev := waitEvent(t, w.Events())
	assert.Equal(t, EventUpdated, ev.Kind)
	require.NotNil(t, ev.Session)
	assert.Len(t, ev.Session.Messages, 1)

	// Ответ администратора с флагом непрочитанного
	store.appendMessage(models.ChatMessage{ID: "m2", SenderID: models.AdminSenderID, Text: "Hi"}, true)

	ev = waitEvent(t, w.Events())
	assert.Equal(t, EventUpdated, ev.Kind)
	assert.Len(t, ev.Session.Messages, 2)

	// Доставка снимает флаг непрочитанного в хранилище
	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return store.reads >= 1 && !store.session.HasUnreadUser
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWatcherIgnoresUnchangedSession(t *testing.T) {
	store := &fakeStore{}
	store.set(activeSession(models.ChatMessage{ID: "welcome", SenderID: models.AdminSenderID, Text: "hi", IsSystem: true}))

	w := NewWatcher(store, "user-1", WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	ev := waitEvent(t, w.Events())
	require.Equal(t, EventUpdated, ev.Kind)

	// Несколько интервалов без изменений — никаких событий
	select {
	case ev := <-w.Events():
		t.Fatalf("unexpected event %v for unchanged session", ev.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcherDetectsTeardown(t *testing.T) {
	store := &fakeStore{}
	store.set(activeSession(models.ChatMessage{ID: "welcome", SenderID: models.AdminSenderID, Text: "hi", IsSystem: true}))

	w := NewWatcher(store, "user-1", WithInterval(10*time.Millisecond), WithEndGrace(30*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	ev := waitEvent(t, w.Events())
	require.Equal(t, EventUpdated, ev.Kind)

	// Администратор удаляет сессию; следующий опрос видит завершение
	store.set(nil)

	ev = waitEvent(t, w.Events())
	assert.Equal(t, EventEnded, ev.Kind)

	// После паузы чат закрывается, канал закрыт — вотчер остановлен
	start := time.Now()
	ev = waitEvent(t, w.Events())
	assert.Equal(t, EventClosed, ev.Kind)
	assert.GreaterOrEqual(t, time.Since(start), 25*time.Millisecond)

	_, ok := <-w.Events()
	assert.False(t, ok, "channel must be closed after teardown")
}

func TestWatcherStopsOnCancel(t *testing.T) {
	store := &fakeStore{}
	store.set(activeSession())

	w := NewWatcher(store, "user-1", WithInterval(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancellation")
	}
}
