package store

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*PostgresStore)(nil)
)

func ptr[T any](v T) *T {
	return &v
}

// runStoreContract runs the behaviour every Store implementation shares. newStore must
// return an empty store.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("CreateUser", func(t *testing.T) {
		s := newStore(t)

		u1, err := s.CreateUser(t.Context(), CreateUserRequest{Username: "alice", PasswordHash: "hash-a"})
		require.NoError(t, err)
		u2, err := s.CreateUser(t.Context(), CreateUserRequest{Username: "bob", PasswordHash: "hash-b"})
		require.NoError(t, err)

		assert.Equal(t, int64(1), u1.ID)
		assert.Equal(t, int64(2), u2.ID)
		assert.Equal(t, "alice", u1.Username)
		assert.Equal(t, "hash-a", u1.PasswordHash)
	})

	t.Run("CreateUser_Duplicate", func(t *testing.T) {
		s := newStore(t)

		_, err := s.CreateUser(t.Context(), CreateUserRequest{Username: "alice", PasswordHash: "x"})
		require.NoError(t, err)

		_, err = s.CreateUser(t.Context(), CreateUserRequest{Username: "alice", PasswordHash: "y"})
		assert.ErrorIs(t, err, ErrDuplicateUsername)

		_, err = s.CreateUser(t.Context(), CreateUserRequest{Username: "Alice", PasswordHash: "z"})
		assert.NoError(t, err, "usernames are case sensitive")
	})

	t.Run("GetUser", func(t *testing.T) {
		s := newStore(t)

		created, err := s.CreateUser(t.Context(), CreateUserRequest{Username: "alice", PasswordHash: "hash"})
		require.NoError(t, err)

		byName, err := s.GetUserByUsername(t.Context(), "alice")
		require.NoError(t, err)
		assert.Equal(t, created, byName)

		byID, err := s.GetUser(t.Context(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, created, byID)

		_, err = s.GetUserByUsername(t.Context(), "ALICE")
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.GetUser(t.Context(), 999)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("CreateWord", func(t *testing.T) {
		s := newStore(t)

		w, err := s.CreateWord(t.Context(), CreateWordRequest{
			UserID:     7,
			Word:       "rhythm",
			Definition: ptr("a strong regular repeated pattern"),
		})
		require.NoError(t, err)

		assert.Equal(t, int64(1), w.ID)
		assert.Equal(t, int64(7), w.UserID)
		assert.Equal(t, "rhythm", w.Word)
		require.NotNil(t, w.Definition)
		assert.Equal(t, "a strong regular repeated pattern", *w.Definition)
		assert.Zero(t, w.TimesCorrect)
		assert.Zero(t, w.TimesIncorrect)
		assert.False(t, w.Mastered)

		got, err := s.GetWord(t.Context(), w.ID)
		require.NoError(t, err)
		assert.Equal(t, w, got)
	})

	t.Run("CreateWord_NoDefinition", func(t *testing.T) {
		s := newStore(t)

		w, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: 1, Word: "queue"})
		require.NoError(t, err)

		got, err := s.GetWord(t.Context(), w.ID)
		require.NoError(t, err)
		assert.Nil(t, got.Definition)
	})

	t.Run("CreateWord_RequireOwner", func(t *testing.T) {
		s := newStore(t)

		_, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: 42, Word: "orphan", RequireOwner: true})
		assert.ErrorIs(t, err, ErrInvalidOwner)

		u, err := s.CreateUser(t.Context(), CreateUserRequest{Username: "owner", PasswordHash: "x"})
		require.NoError(t, err)

		w, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: u.ID, Word: "owned", RequireOwner: true})
		require.NoError(t, err)
		assert.Equal(t, u.ID, w.UserID)
	})

	t.Run("GetWord_NotFound", func(t *testing.T) {
		s := newStore(t)

		_, err := s.GetWord(t.Context(), 1)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("GetWordsForUser_ScopedAndOrdered", func(t *testing.T) {
		s := newStore(t)

		for _, r := range []CreateWordRequest{
			{UserID: 1, Word: "apple"},
			{UserID: 2, Word: "banana"},
			{UserID: 1, Word: "cherry"},
		} {
			_, err := s.CreateWord(t.Context(), r)
			require.NoError(t, err)
		}

		a, err := s.GetWordsForUser(t.Context(), 1)
		require.NoError(t, err)
		require.Len(t, a, 2)
		assert.Equal(t, "apple", a[0].Word)
		assert.Equal(t, "cherry", a[1].Word)

		b, err := s.GetWordsForUser(t.Context(), 2)
		require.NoError(t, err)
		require.Len(t, b, 1)
		assert.Equal(t, "banana", b[0].Word)

		none, err := s.GetWordsForUser(t.Context(), 3)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("UpdateWord", func(t *testing.T) {
		s := newStore(t)

		w, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: 1, Word: "rhythm"})
		require.NoError(t, err)

		updated, err := s.UpdateWord(t.Context(), w.ID, func(w *model.Word) error {
			w.TimesCorrect = 3
			w.TimesIncorrect = 2
			w.Mastered = true
			w.UserID = 99
			return nil
		})
		require.NoError(t, err)

		assert.Equal(t, w.ID, updated.ID)
		assert.Equal(t, int64(1), updated.UserID, "owner cannot be changed")
		assert.Equal(t, 3, updated.TimesCorrect)
		assert.Equal(t, 2, updated.TimesIncorrect)
		assert.True(t, updated.Mastered)

		got, err := s.GetWord(t.Context(), w.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, got)
	})

	t.Run("UpdateWord_NotFound", func(t *testing.T) {
		s := newStore(t)

		_, err := s.UpdateWord(t.Context(), 5, func(w *model.Word) error { return nil })
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("UpdateWord_MutatorError", func(t *testing.T) {
		s := newStore(t)

		w, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: 1, Word: "rhythm"})
		require.NoError(t, err)

		boom := errors.New("boom")
		_, err = s.UpdateWord(t.Context(), w.ID, func(w *model.Word) error {
			w.TimesCorrect = 100
			return boom
		})
		assert.ErrorIs(t, err, boom)

		got, err := s.GetWord(t.Context(), w.ID)
		require.NoError(t, err)
		assert.Zero(t, got.TimesCorrect)
	})

	t.Run("UpdateWord_ConcurrentSameKey", func(t *testing.T) {
		s := newStore(t)

		w, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: 1, Word: "rhythm"})
		require.NoError(t, err)

		const n = 50
		var wg sync.WaitGroup
		for range n {
			wg.Go(func() {
				_, err := s.UpdateWord(t.Context(), w.ID, func(w *model.Word) error {
					w.TimesCorrect++
					return nil
				})
				assert.NoError(t, err)
			})
		}
		wg.Wait()

		got, err := s.GetWord(t.Context(), w.ID)
		require.NoError(t, err)
		assert.Equal(t, n, got.TimesCorrect)
	})

	t.Run("PracticeAttempts_RoundTrip", func(t *testing.T) {
		s := newStore(t)

		var created []model.PracticeAttempt
		for i, r := range []AddPracticeAttemptRequest{
			{UserID: 1, WordID: 10, Correct: true},
			{UserID: 2, WordID: 20, Correct: false},
			{UserID: 1, WordID: 11, Correct: false},
		} {
			a, err := s.AddPracticeAttempt(t.Context(), r)
			require.NoError(t, err)
			assert.Equal(t, int64(i+1), a.ID)
			assert.False(t, a.Timestamp.IsZero())
			created = append(created, a)
		}

		got, err := s.GetAttemptsForUser(t.Context(), 1)
		require.NoError(t, err)
		assert.Equal(t, []model.PracticeAttempt{created[0], created[2]}, got)

		got, err = s.GetAttemptsForUser(t.Context(), 2)
		require.NoError(t, err)
		assert.Equal(t, []model.PracticeAttempt{created[1]}, got)

		got, err = s.GetAttemptsForUser(t.Context(), 3)
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("ConcurrentCreates_DistinctIDs", func(t *testing.T) {
		s := newStore(t)

		const n = 40
		ids := make(chan int64, n)
		var wg sync.WaitGroup
		for i := range n {
			wg.Go(func() {
				w, err := s.CreateWord(t.Context(), CreateWordRequest{UserID: 1, Word: fmt.Sprintf("word-%d", i)})
				assert.NoError(t, err)
				ids <- w.ID
			})
		}
		wg.Wait()
		close(ids)

		seen := make(map[int64]bool)
		for id := range ids {
			assert.False(t, seen[id], "duplicate id %d", id)
			seen[id] = true
		}
		assert.Len(t, seen, n)

		words, err := s.GetWordsForUser(t.Context(), 1)
		require.NoError(t, err)
		assert.Len(t, words, n)
	})
}
