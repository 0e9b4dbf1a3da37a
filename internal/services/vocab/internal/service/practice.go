package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/gamma-omg/lexi-spell/internal/pkg/fn"
	"github.com/gamma-omg/lexi-spell/internal/pkg/serr"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/model"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/store"
	"golang.org/x/text/cases"
)

// DefaultMasteryThreshold is the number of correct answers after which a correct answer marks
// a word as mastered.
const DefaultMasteryThreshold = 4

// Practice applies practice results to words and aggregates the progress of a user.
type Practice struct {
	store      store.Store
	threshold  int
	ownerCheck bool
}

type PracticeOption func(*Practice) *Practice

func WithStore(st store.Store) PracticeOption {
	return func(p *Practice) *Practice {
		p.store = st
		return p
	}
}

func WithMasteryThreshold(n int) PracticeOption {
	return func(p *Practice) *Practice {
		p.threshold = n
		return p
	}
}

// WithOwnerCheck makes AddWord refuse words for users that are not registered.
func WithOwnerCheck(on bool) PracticeOption {
	return func(p *Practice) *Practice {
		p.ownerCheck = on
		return p
	}
}

func NewPractice(opts ...PracticeOption) *Practice {
	p := &Practice{threshold: DefaultMasteryThreshold}
	for _, opt := range opts {
		p = opt(p)
	}

	if p.store == nil {
		panic("store is required")
	}

	if p.threshold <= 0 {
		panic("mastery threshold must be positive")
	}

	return p
}

func (p *Practice) MasteryThreshold() int {
	return p.threshold
}

// ApplyResult returns w with one more correct or incorrect answer. Mastery is derived again on
// every call: the word is mastered only when this answer is correct and the updated number of
// correct answers reached threshold.
func ApplyResult(w model.Word, correct bool, threshold int) model.Word {
	if correct {
		w.TimesCorrect++
	} else {
		w.TimesIncorrect++
	}

	w.Mastered = correct && w.TimesCorrect >= threshold
	return w
}

// CheckSpelling reports whether input spells word, ignoring case and surrounding whitespace.
func CheckSpelling(input, word string) bool {
	fold := cases.Fold()
	return fold.String(strings.TrimSpace(input)) == fold.String(word)
}

type PracticeResult struct {
	Word    model.Word
	Attempt model.PracticeAttempt
}

// PracticeError reports which of the two writes of a practice submission failed. The half
// that succeeded stays applied.
type PracticeError struct {
	WordErr    error
	AttemptErr error
}

func (e *PracticeError) Error() string {
	var parts []string
	if e.WordErr != nil {
		parts = append(parts, fmt.Sprintf("update word: %v", e.WordErr))
	}
	if e.AttemptErr != nil {
		parts = append(parts, fmt.Sprintf("add practice attempt: %v", e.AttemptErr))
	}

	return strings.Join(parts, "; ")
}

func (e *PracticeError) Unwrap() []error {
	return fn.Filter([]error{e.WordErr, e.AttemptErr}, func(err error) bool { return err != nil })
}

// Partial reports whether exactly one of the two writes was applied.
func (e *PracticeError) Partial() bool {
	return (e.WordErr == nil) != (e.AttemptErr == nil)
}

// RecordPracticeResult counts one answer for the word and appends it to the user's practice
// history. Both writes run concurrently. If either fails the returned error wraps a
// *PracticeError and the result still holds whatever was written.
func (p *Practice) RecordPracticeResult(ctx context.Context, userID, wordID int64, correct bool) (PracticeResult, error) {
	w, err := p.store.GetWord(ctx, wordID)
	if err != nil {
		return PracticeResult{}, wordLookupErr(err, wordID)
	}

	return p.record(ctx, userID, w.ID, correct)
}

func (p *Practice) record(ctx context.Context, userID, wordID int64, correct bool) (PracticeResult, error) {
	var (
		res PracticeResult
		pe  PracticeError
		wg  sync.WaitGroup
	)

	wg.Go(func() {
		res.Word, pe.WordErr = p.store.UpdateWord(ctx, wordID, func(w *model.Word) error {
			*w = ApplyResult(*w, correct, p.threshold)
			return nil
		})
	})

	wg.Go(func() {
		res.Attempt, pe.AttemptErr = p.store.AddPracticeAttempt(ctx, store.AddPracticeAttemptRequest{
			UserID:  userID,
			WordID:  wordID,
			Correct: correct,
		})
	})

	wg.Wait()

	if pe.WordErr == nil && pe.AttemptErr == nil {
		return res, nil
	}

	if pe.WordErr != nil {
		slog.Error("failed to update word counters", "user_id", userID, "word_id", wordID, "error", pe.WordErr)
	}
	if pe.AttemptErr != nil {
		slog.Error("failed to record practice attempt", "user_id", userID, "word_id", wordID, "error", pe.AttemptErr)
	}

	status := http.StatusInternalServerError
	if errors.Is(pe.WordErr, store.ErrConflict) {
		status = http.StatusConflict
	}

	msg := "practice result was not recorded"
	if pe.Partial() {
		msg = "practice result was recorded partially"
	}

	return res, serr.NewServiceError(&pe, status, "%s", msg).
		With("user_id", userID).
		With("word_id", wordID).
		With("partial", pe.Partial())
}

// ComputeProgress counts the words of a user, how many of them are mastered and how many
// practice attempts the user made.
func (p *Practice) ComputeProgress(ctx context.Context, userID int64) (model.Progress, error) {
	words, err := p.store.GetWordsForUser(ctx, userID)
	if err != nil {
		return model.Progress{}, fmt.Errorf("get words: %w", err)
	}

	attempts, err := p.store.GetAttemptsForUser(ctx, userID)
	if err != nil {
		return model.Progress{}, fmt.Errorf("get practice attempts: %w", err)
	}

	return model.Progress{
		TotalWords:    len(words),
		MasteredWords: fn.Count(words, func(w model.Word) bool { return w.Mastered }),
		PracticeCount: len(attempts),
	}, nil
}

func (p *Practice) ListWords(ctx context.Context, userID int64) ([]model.Word, error) {
	words, err := p.store.GetWordsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get words: %w", err)
	}

	return words, nil
}

type AddWordRequest struct {
	UserID     int64
	Word       string
	Definition *string
}

// AddWord adds a word to the user's list. Surrounding whitespace is trimmed; a blank word is
// rejected with status 400 and a blank definition is stored as no definition.
func (p *Practice) AddWord(ctx context.Context, r AddWordRequest) (model.Word, error) {
	word := strings.TrimSpace(r.Word)
	if word == "" {
		return model.Word{}, serr.NewServiceError(nil, http.StatusBadRequest, "word must not be empty").
			With("user_id", r.UserID)
	}

	var def *string
	if r.Definition != nil {
		if d := strings.TrimSpace(*r.Definition); d != "" {
			def = &d
		}
	}

	w, err := p.store.CreateWord(ctx, store.CreateWordRequest{
		UserID:       r.UserID,
		Word:         word,
		Definition:   def,
		RequireOwner: p.ownerCheck,
	})
	if err != nil {
		if errors.Is(err, store.ErrInvalidOwner) {
			return model.Word{}, serr.NewServiceError(err, http.StatusNotFound, "user not found").
				With("user_id", r.UserID)
		}

		return model.Word{}, fmt.Errorf("create word: %w", err)
	}

	return w, nil
}

// SubmitPractice records an answer for a word owned by userID. Words of other users are
// reported as not found.
func (p *Practice) SubmitPractice(ctx context.Context, userID, wordID int64, correct bool) (PracticeResult, error) {
	w, err := p.ownedWord(ctx, userID, wordID)
	if err != nil {
		return PracticeResult{}, err
	}

	return p.record(ctx, userID, w.ID, correct)
}

// SubmitSpelling checks input against the stored spelling of the word and records the outcome.
func (p *Practice) SubmitSpelling(ctx context.Context, userID, wordID int64, input string) (PracticeResult, error) {
	w, err := p.ownedWord(ctx, userID, wordID)
	if err != nil {
		return PracticeResult{}, err
	}

	return p.record(ctx, userID, w.ID, CheckSpelling(input, w.Word))
}

func (p *Practice) GetProgress(ctx context.Context, userID int64) (model.Progress, error) {
	progress, err := p.ComputeProgress(ctx, userID)
	if err != nil {
		return model.Progress{}, fmt.Errorf("compute progress: %w", err)
	}

	return progress, nil
}

// ListAttempts returns the practice history of a user. A non-zero wordID limits it to one word.
func (p *Practice) ListAttempts(ctx context.Context, userID, wordID int64) ([]model.PracticeAttempt, error) {
	attempts, err := p.store.GetAttemptsForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get practice attempts: %w", err)
	}

	if wordID == 0 {
		return attempts, nil
	}

	filtered := fn.Filter(attempts, func(a model.PracticeAttempt) bool { return a.WordID == wordID })
	if filtered == nil {
		filtered = []model.PracticeAttempt{}
	}

	return filtered, nil
}

func (p *Practice) ownedWord(ctx context.Context, userID, wordID int64) (model.Word, error) {
	w, err := p.store.GetWord(ctx, wordID)
	if err != nil {
		return model.Word{}, wordLookupErr(err, wordID)
	}

	if w.UserID != userID {
		return model.Word{}, serr.NewServiceError(store.ErrNotFound, http.StatusNotFound, "word not found").
			With("word_id", wordID).
			With("user_id", userID)
	}

	return w, nil
}

func wordLookupErr(err error, wordID int64) error {
	if errors.Is(err, store.ErrNotFound) {
		return serr.NewServiceError(err, http.StatusNotFound, "word not found").With("word_id", wordID)
	}

	return fmt.Errorf("get word: %w", err)
}
