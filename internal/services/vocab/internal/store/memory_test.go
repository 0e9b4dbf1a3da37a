package store

import (
	"sync"
	"testing"
	"time"

	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestMemoryStore_Clock(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	s := NewMemoryStore(WithClock(func() time.Time { return at }))

	a, err := s.AddPracticeAttempt(t.Context(), AddPracticeAttemptRequest{UserID: 1, WordID: 1, Correct: true})
	require.NoError(t, err)
	assert.Equal(t, at, a.Timestamp)
}

func TestMemoryStore_CopiesDefinition(t *testing.T) {
	s := NewMemoryStore()

	def := "beat"
	w, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: 1, Word: "rhythm", Definition: &def})
	require.NoError(t, err)

	def = "changed by caller"
	*w.Definition = "changed through result"

	got, err := s.GetWord(t.Context(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, "beat", *got.Definition)
}

func TestMemoryStore_FailedCreateKeepsSequence(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.CreateUser(t.Context(), CreateUserRequest{Username: "alice"})
	require.NoError(t, err)
	_, err = s.CreateUser(t.Context(), CreateUserRequest{Username: "alice"})
	require.ErrorIs(t, err, ErrDuplicateUsername)
	_, err = s.CreateWord(t.Context(), CreateWordRequest{UserID: 9, Word: "x", RequireOwner: true})
	require.ErrorIs(t, err, ErrInvalidOwner)

	u, err := s.CreateUser(t.Context(), CreateUserRequest{Username: "bob"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)

	w, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: 1, Word: "y"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), w.ID)
}

func TestMemoryStore_UpdateDoesNotBlockOtherWords(t *testing.T) {
	s := NewMemoryStore()

	slow, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: 1, Word: "slow"})
	require.NoError(t, err)
	fast, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: 1, Word: "fast"})
	require.NoError(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})

	var wg sync.WaitGroup
	wg.Go(func() {
		_, err := s.UpdateWord(t.Context(), slow.ID, func(w *model.Word) error {
			close(entered)
			<-release
			w.TimesCorrect++
			return nil
		})
		assert.NoError(t, err)
	})

	<-entered
	updated, err := s.UpdateWord(t.Context(), fast.ID, func(w *model.Word) error {
		w.TimesIncorrect++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TimesIncorrect)

	words, err := s.GetWordsForUser(t.Context(), 2)
	require.NoError(t, err)
	assert.Empty(t, words)

	close(release)
	wg.Wait()

	got, err := s.GetWord(t.Context(), slow.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TimesCorrect)
}

func TestSequence(t *testing.T) {
	var seq sequence
	assert.Equal(t, int64(0), seq.Last())

	const n = 100
	var wg sync.WaitGroup
	for range n {
		wg.Go(func() { seq.Next() })
	}
	wg.Wait()

	assert.Equal(t, int64(n), seq.Last())
	assert.Equal(t, int64(n+1), seq.Next())
}
