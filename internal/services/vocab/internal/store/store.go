package store

import (
	"context"
	"errors"

	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/model"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrInvalidOwner      = errors.New("owner does not exist")
	ErrConflict          = errors.New("concurrent update conflict")
)

// WordMutator changes a word in place. Returning an error aborts the update.
type WordMutator func(w *model.Word) error

// Store holds users, words and practice attempts. Every create assigns the next identifier
// of its collection; identifiers start at 1 and are never reused.
type Store interface {
	CreateUser(ctx context.Context, r CreateUserRequest) (model.User, error)
	GetUser(ctx context.Context, id int64) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	CreateWord(ctx context.Context, r CreateWordRequest) (model.Word, error)
	GetWord(ctx context.Context, id int64) (model.Word, error)
	GetWordsForUser(ctx context.Context, userID int64) ([]model.Word, error)
	UpdateWord(ctx context.Context, id int64, mutate WordMutator) (model.Word, error)
	AddPracticeAttempt(ctx context.Context, r AddPracticeAttemptRequest) (model.PracticeAttempt, error)
	GetAttemptsForUser(ctx context.Context, userID int64) ([]model.PracticeAttempt, error)
}
