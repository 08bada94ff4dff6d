package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Step определяет шаг многошагового диалога
type Step int

const (
	StepIdle Step = iota
	StepAmount
	StepDescription
)

// Conversation хранит прогресс пользователя в диалоге добавления операции
type Conversation struct {
	Step      Step
	Type      string // income или expense
	Category  string
	Amount    decimal.Decimal
	UpdatedAt time.Time
}

// Store определяет интерфейс хранилища состояний диалогов.
// Отсутствие записи означает, что пользователь не находится в диалоге.
type Store interface {
	Get(userID int64) (Conversation, bool)
	Set(userID int64, conv Conversation)
	Clear(userID int64)
}

// MemoryStore - потокобезопасное in-memory хранилище состояний с TTL.
// Просроченные диалоги удаляются лениво при чтении и периодически через Run.
type MemoryStore struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[int64]Conversation
}

// NewMemoryStore создает хранилище состояний. Нулевой ttl отключает протухание.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:      ttl,
		sessions: make(map[int64]Conversation),
	}
}

func (s *MemoryStore) Get(userID int64) (Conversation, bool) {
	s.mu.RLock()
	conv, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return Conversation{Step: StepIdle}, false
	}
	if s.expired(conv, time.Now()) {
		s.mu.Lock()
		// перечитываем под write-блокировкой: запись могли успеть обновить
		if cur, ok := s.sessions[userID]; ok && s.expired(cur, time.Now()) {
			delete(s.sessions, userID)
		}
		s.mu.Unlock()
		return Conversation{Step: StepIdle}, false
	}
	return conv, true
}

func (s *MemoryStore) Set(userID int64, conv Conversation) {
	conv.UpdatedAt = time.Now()
	s.mu.Lock()
	s.sessions[userID] = conv
	s.mu.Unlock()
}

func (s *MemoryStore) Clear(userID int64) {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
}

// Sweep удаляет все просроченные диалоги и возвращает их количество
func (s *MemoryStore) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for userID, conv := range s.sessions {
		if s.expired(conv, now) {
			delete(s.sessions, userID)
			removed++
		}
	}
	return removed
}

// Run периодически чистит просроченные диалоги, пока контекст не отменён
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				slog.Debug("swept expired conversations", "count", n)
			}
		}
	}
}

func (s *MemoryStore) expired(conv Conversation, now time.Time) bool {
	return s.ttl > 0 && now.Sub(conv.UpdatedAt) > s.ttl
}
