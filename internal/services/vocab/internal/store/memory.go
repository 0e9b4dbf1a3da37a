package store

import (
	"context"
	"sync"
	"time"

	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/model"
)

// wordSlot owns one word. Its mutex serializes read-modify-write cycles on that word only,
// so updates of different words never wait for each other.
type wordSlot struct {
	mu   sync.Mutex
	word model.Word
}

func (ws *wordSlot) load() model.Word {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return cloneWord(ws.word)
}

// MemoryStore keeps every collection in an append-only arena plus an identifier index and
// a per-user index of arena positions. Values are copied in and out.
type MemoryStore struct {
	mu sync.RWMutex

	users      []model.User
	userByID   map[int64]int
	userByName map[string]int

	words       []*wordSlot
	wordByID    map[int64]int
	wordsByUser map[int64][]int

	attempts       []model.PracticeAttempt
	attemptsByUser map[int64][]int

	userSeq    sequence
	wordSeq    sequence
	attemptSeq sequence

	now func() time.Time
}

type MemoryOption func(*MemoryStore)

// WithClock sets the source of attempt timestamps.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		userByID:       make(map[int64]int),
		userByName:     make(map[string]int),
		wordByID:       make(map[int64]int),
		wordsByUser:    make(map[int64][]int),
		attemptsByUser: make(map[int64][]int),
		now:            func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *MemoryStore) CreateUser(ctx context.Context, r CreateUserRequest) (model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.userByName[r.Username]; exists {
		return model.User{}, ErrDuplicateUsername
	}

	u := model.User{
		ID:           s.userSeq.Next(),
		Username:     r.Username,
		PasswordHash: r.PasswordHash,
	}

	s.users = append(s.users, u)
	s.userByID[u.ID] = len(s.users) - 1
	s.userByName[u.Username] = len(s.users) - 1

	return u, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.userByID[id]
	if !ok {
		return model.User{}, ErrNotFound
	}

	return s.users[i], nil
}

func (s *MemoryStore) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.userByName[username]
	if !ok {
		return model.User{}, ErrNotFound
	}

	return s.users[i], nil
}

func (s *MemoryStore) CreateWord(ctx context.Context, r CreateWordRequest) (model.Word, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.RequireOwner {
		if _, ok := s.userByID[r.UserID]; !ok {
			return model.Word{}, ErrInvalidOwner
		}
	}

	w := model.Word{
		ID:         s.wordSeq.Next(),
		UserID:     r.UserID,
		Word:       r.Word,
		Definition: cloneString(r.Definition),
	}

	s.words = append(s.words, &wordSlot{word: w})
	pos := len(s.words) - 1
	s.wordByID[w.ID] = pos
	s.wordsByUser[w.UserID] = append(s.wordsByUser[w.UserID], pos)

	return cloneWord(w), nil
}

func (s *MemoryStore) GetWord(ctx context.Context, id int64) (model.Word, error) {
	slot, ok := s.wordSlot(id)
	if !ok {
		return model.Word{}, ErrNotFound
	}

	return slot.load(), nil
}

func (s *MemoryStore) GetWordsForUser(ctx context.Context, userID int64) ([]model.Word, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.wordsByUser[userID]
	words := make([]model.Word, 0, len(positions))
	for _, pos := range positions {
		words = append(words, s.words[pos].load())
	}

	return words, nil
}

// UpdateWord applies mutate while holding the word's own lock. Concurrent updates of the same
// word run one after another and never lose a change. ID and UserID cannot be changed.
func (s *MemoryStore) UpdateWord(ctx context.Context, id int64, mutate WordMutator) (model.Word, error) {
	slot, ok := s.wordSlot(id)
	if !ok {
		return model.Word{}, ErrNotFound
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	w := cloneWord(slot.word)
	if err := mutate(&w); err != nil {
		return model.Word{}, err
	}

	w.ID = slot.word.ID
	w.UserID = slot.word.UserID
	slot.word = w

	return cloneWord(w), nil
}

func (s *MemoryStore) AddPracticeAttempt(ctx context.Context, r AddPracticeAttemptRequest) (model.PracticeAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a := model.PracticeAttempt{
		ID:        s.attemptSeq.Next(),
		UserID:    r.UserID,
		WordID:    r.WordID,
		Correct:   r.Correct,
		Timestamp: s.now(),
	}

	s.attempts = append(s.attempts, a)
	s.attemptsByUser[a.UserID] = append(s.attemptsByUser[a.UserID], len(s.attempts)-1)

	return a, nil
}

func (s *MemoryStore) GetAttemptsForUser(ctx context.Context, userID int64) ([]model.PracticeAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	positions := s.attemptsByUser[userID]
	attempts := make([]model.PracticeAttempt, 0, len(positions))
	for _, pos := range positions {
		attempts = append(attempts, s.attempts[pos])
	}

	return attempts, nil
}

func (s *MemoryStore) wordSlot(id int64) (*wordSlot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.wordByID[id]
	if !ok {
		return nil, false
	}

	return s.words[pos], true
}

func cloneWord(w model.Word) model.Word {
	w.Definition = cloneString(w.Definition)
	return w
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}

	c := *s
	return &c
}
