package repository

import (
	"context"
	"sync"
	"time"

	"github.com/mmeshcher/comedor-utm/internal/model"
)

type memoryEntry struct {
	session   model.Session
	updatedAt time.Time
}

// MemoryRepository хранит сессии в памяти процесса.
type MemoryRepository struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemoryRepository создаёт пустое хранилище сессий в памяти.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Load возвращает сессию id или пустую сессию и отмечает её как используемую.
func (r *MemoryRepository) Load(_ context.Context, id string) (model.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return model.Session{}, nil
	}
	e.updatedAt = r.now()
	r.entries[id] = e
	return cloneSession(e.session), nil
}

// Save сохраняет сессию id.
func (r *MemoryRepository) Save(_ context.Context, id string, s model.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[id] = memoryEntry{session: cloneSession(s), updatedAt: r.now()}
	return nil
}

// Delete удаляет сессию id.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.entries, id)
	return nil
}

// PurgeIdle удаляет сессии, к которым не обращались с момента before.
func (r *MemoryRepository) PurgeIdle(_ context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for id, e := range r.entries {
		if e.updatedAt.Before(before) {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}

// Close ничего не делает; нужен для единообразия с остальными хранилищами.
func (r *MemoryRepository) Close() error {
	return nil
}

func cloneSession(s model.Session) model.Session {
	out := model.Session{Token: s.Token}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	return out
}
