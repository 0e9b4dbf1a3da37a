package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gamma-omg/lexi-spell/internal/pkg/serr"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/model"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/session"
	"github.com/google/uuid"
)

// cursorStore keeps the position of every running practice session
type cursorStore interface {
	Create(ctx context.Context, userID int64, sessionID string) error
	Advance(ctx context.Context, userID int64, sessionID string) (int64, error)
}

type wordLister interface {
	GetWordsForUser(ctx context.Context, userID int64) ([]model.Word, error)
}

// Sessions walks a user through their words in creation order, starting over after the last one.
type Sessions struct {
	words   wordLister
	cursors cursorStore
	newID   func() string
}

func NewSessions(words wordLister, cursors cursorStore) *Sessions {
	return &Sessions{
		words:   words,
		cursors: cursors,
		newID:   uuid.NewString,
	}
}

type Session struct {
	ID         string
	TotalWords int
}

// Start opens a practice session. A user without words gets a ServiceError with status 404.
func (s *Sessions) Start(ctx context.Context, userID int64) (Session, error) {
	words, err := s.words.GetWordsForUser(ctx, userID)
	if err != nil {
		return Session{}, fmt.Errorf("get words: %w", err)
	}

	if len(words) == 0 {
		return Session{}, serr.NewServiceError(nil, http.StatusNotFound, "no words to practice").
			With("user_id", userID)
	}

	for range 3 {
		id := s.newID()
		err := s.cursors.Create(ctx, userID, id)
		if errors.Is(err, session.ErrExists) {
			continue
		}
		if err != nil {
			return Session{}, fmt.Errorf("create session: %w", err)
		}

		return Session{ID: id, TotalWords: len(words)}, nil
	}

	return Session{}, fmt.Errorf("failed to generate unique session id")
}

// Next returns the next word of the session. Unknown or expired sessions are reported with
// status 404.
func (s *Sessions) Next(ctx context.Context, userID int64, sessionID string) (model.Word, error) {
	pos, err := s.cursors.Advance(ctx, userID, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return model.Word{}, serr.NewServiceError(err, http.StatusNotFound, "session not found").
				With("user_id", userID).
				With("session_id", sessionID)
		}

		return model.Word{}, fmt.Errorf("advance session: %w", err)
	}

	words, err := s.words.GetWordsForUser(ctx, userID)
	if err != nil {
		return model.Word{}, fmt.Errorf("get words: %w", err)
	}

	if len(words) == 0 {
		return model.Word{}, serr.NewServiceError(nil, http.StatusNotFound, "no words to practice").
			With("user_id", userID)
	}

	return words[pos%int64(len(words))], nil
}
