// Package chatsync реализует синхронизацию чата поверх обычных выборок:
// никакого push — клиент с открытым чатом перечитывает свою сессию с
// фиксированным интервалом.
package chatsync

import (
	"context"
	"log"
	"time"

	"diwt-portal/backend/models"
)

const (
	// DefaultPollInterval — период опроса хранилища
	DefaultPollInterval = 5 * time.Second
	// DefaultEndGrace — пауза между сигналом "чат завершен" и закрытием
	DefaultEndGrace = 2 * time.Second
)

// SessionStore — то, что нужно поллеру от хранилища.
type SessionStore interface {
	// ActiveSession возвращает (nil, nil), если активной сессии нет
	ActiveSession(ctx context.Context, userID string) (*models.ChatSession, error)
	// MarkUserRead сбрасывает флаг непрочитанного у пользователя
	MarkUserRead(ctx context.Context, userID string) error
}

type EventKind int

const (
	// EventUpdated — список сообщений структурно изменился
	EventUpdated EventKind = iota
	// EventEnded — администрация удалила сессию
	EventEnded
	// EventClosed — выдержана пауза после EventEnded, чат закрывается
	EventClosed
)

type Event struct {
	Kind    EventKind
	Session *models.ChatSession
}

// Watcher следит за одной сессией чата. Живет ровно столько, сколько
// переданный в Run контекст: отмена гарантированно останавливает тикер.
type Watcher struct {
	store    SessionStore
	userID   string
	interval time.Duration
	grace    time.Duration

	events chan Event
	last   models.ChatMessages
}

type Option func(*Watcher)

func WithInterval(d time.Duration) Option {
	return func(w *Watcher) { w.interval = d }
}

func WithEndGrace(d time.Duration) Option {
	return func(w *Watcher) { w.grace = d }
}

func NewWatcher(store SessionStore, userID string, opts ...Option) *Watcher {
	w := &Watcher{
		store:    store,
		userID:   userID,
		interval: DefaultPollInterval,
		grace:    DefaultEndGrace,
		events:   make(chan Event, 8),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run опрашивает хранилище до отмены контекста или завершения чата.
// Закрывает канал событий при выходе.
func (w *Watcher) Run(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Первый опрос сразу, чтобы открытый чат не ждал целый интервал
	if done := w.poll(ctx); done {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := w.poll(ctx); done {
				return
			}
		}
	}
}

func (w *Watcher) poll(ctx context.Context) bool {
	session, err := w.store.ActiveSession(ctx, w.userID)
	if err != nil {
		// Хранилище недоступно — это не то же самое, что "сессии нет";
		// завершение чата по ошибке сети было бы ложным
		log.Printf("chat poll failed for %s: %v", w.userID, err)
		return false
	}

	if session == nil {
		// Сессию удалила администрация: показываем "чат завершен",
		// выдерживаем паузу и закрываемся
		w.emit(ctx, Event{Kind: EventEnded})
		select {
		case <-ctx.Done():
		case <-time.After(w.grace):
		}
		w.emit(ctx, Event{Kind: EventClosed})
		return true
	}

	if !session.Messages.Equal(w.last) {
		w.last = session.Messages
		w.emit(ctx, Event{Kind: EventUpdated, Session: session})

		if session.HasUnreadUser {
			if err := w.store.MarkUserRead(ctx, w.userID); err != nil {
				log.Printf("mark read failed for %s: %v", w.userID, err)
			}
		}
	}

	return false
}

func (w *Watcher) emit(ctx context.Context, ev Event) {
	select {
	case w.events <- ev:
	case <-ctx.Done():
	}
}
