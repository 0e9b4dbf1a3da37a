package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/model"
	"github.com/lib/pq"
)

const (
	errUniqueViolation      pq.ErrorCode = "23505"
	errSerializationFailure pq.ErrorCode = "40001"
	errDeadlockDetected     pq.ErrorCode = "40P01"
)

// dbtx defines the interface for database and transactions
type dbtx interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// PostgresConfig holds the configuration for connecting to a Postgres database
type PostgresConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
}

// PostgresStore implements Store on top of PostgreSQL. Identifiers come from the BIGSERIAL
// sequences of each table.
type PostgresStore struct {
	db dbtx
}

// NewPostgresDB creates a new Postgres database connection
func NewPostgresDB(cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.DB))
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return db, nil
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateUser(ctx context.Context, r CreateUserRequest) (model.User, error) {
	u := model.User{Username: r.Username, PasswordHash: r.PasswordHash}
	err := s.db.QueryRowContext(ctx,
		"INSERT INTO users (username, password_hash) VALUES ($1, $2) RETURNING id",
		r.Username, r.PasswordHash).Scan(&u.ID)
	if err != nil {
		if isPqErr(err, errUniqueViolation) {
			return model.User{}, ErrDuplicateUsername
		}

		return model.User{}, fmt.Errorf("insert user: %w", err)
	}

	return u, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int64) (model.User, error) {
	return s.getUser(ctx, "SELECT id, username, password_hash FROM users WHERE id = $1", id)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (model.User, error) {
	return s.getUser(ctx, "SELECT id, username, password_hash FROM users WHERE username = $1", username)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg any) (model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}

		return model.User{}, fmt.Errorf("select user: %w", err)
	}

	return u, nil
}

// CreateWord inserts a word with zero counters. With RequireOwner the insert only happens
// when the owner exists; otherwise no row comes back and ErrInvalidOwner is returned.
func (s *PostgresStore) CreateWord(ctx context.Context, r CreateWordRequest) (model.Word, error) {
	w := model.Word{
		UserID:     r.UserID,
		Word:       r.Word,
		Definition: cloneString(r.Definition),
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO words (user_id, word, definition)
		 SELECT $1::bigint, $2::text, $3::text
		 WHERE NOT $4::boolean OR EXISTS (SELECT 1 FROM users WHERE id = $1::bigint)
		 RETURNING id`,
		r.UserID, r.Word, r.Definition, r.RequireOwner).Scan(&w.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Word{}, ErrInvalidOwner
		}

		return model.Word{}, fmt.Errorf("insert word: %w", err)
	}

	return w, nil
}

const selectWord = `SELECT id, user_id, word, definition, times_correct, times_incorrect, mastered FROM words`

func (s *PostgresStore) GetWord(ctx context.Context, id int64) (model.Word, error) {
	return s.getWord(ctx, selectWord+" WHERE id = $1", id)
}

func (s *PostgresStore) getWord(ctx context.Context, query string, id int64) (model.Word, error) {
	w, err := scanWord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Word{}, ErrNotFound
		}

		return model.Word{}, fmt.Errorf("select word: %w", err)
	}

	return w, nil
}

func (s *PostgresStore) GetWordsForUser(ctx context.Context, userID int64) ([]model.Word, error) {
	rows, err := s.db.QueryContext(ctx, selectWord+" WHERE user_id = $1 ORDER BY id", userID)
	if err != nil {
		return nil, fmt.Errorf("select words: %w", err)
	}
	defer rows.Close()

	words := []model.Word{}
	for rows.Next() {
		w, err := scanWord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan word: %w", err)
		}
		words = append(words, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate words: %w", err)
	}

	return words, nil
}

// UpdateWord locks the row with SELECT ... FOR UPDATE, applies mutate and writes the result
// back in the same transaction, so concurrent updates of one word are serialized by Postgres.
func (s *PostgresStore) UpdateWord(ctx context.Context, id int64, mutate WordMutator) (model.Word, error) {
	var updated model.Word
	err := s.withinTx(ctx, func(tx *PostgresStore) error {
		w, err := tx.getWord(ctx, selectWord+" WHERE id = $1 FOR UPDATE", id)
		if err != nil {
			return err
		}

		orig := w
		if err := mutate(&w); err != nil {
			return err
		}
		w.ID, w.UserID = orig.ID, orig.UserID

		_, err = tx.db.ExecContext(ctx,
			`UPDATE words
			 SET word = $2, definition = $3, times_correct = $4, times_incorrect = $5, mastered = $6, updated_at = now()
			 WHERE id = $1`,
			id, w.Word, w.Definition, w.TimesCorrect, w.TimesIncorrect, w.Mastered)
		if err != nil {
			return fmt.Errorf("update word: %w", err)
		}

		updated = w
		return nil
	})
	if err != nil {
		if isPqErr(err, errSerializationFailure) || isPqErr(err, errDeadlockDetected) {
			return model.Word{}, fmt.Errorf("%w: %v", ErrConflict, err)
		}

		return model.Word{}, err
	}

	return updated, nil
}

func (s *PostgresStore) AddPracticeAttempt(ctx context.Context, r AddPracticeAttemptRequest) (model.PracticeAttempt, error) {
	a := model.PracticeAttempt{
		UserID:  r.UserID,
		WordID:  r.WordID,
		Correct: r.Correct,
	}

	err := s.db.QueryRowContext(ctx,
		"INSERT INTO practice_attempts (user_id, word_id, correct) VALUES ($1, $2, $3) RETURNING id, created_at",
		r.UserID, r.WordID, r.Correct).Scan(&a.ID, &a.Timestamp)
	if err != nil {
		return model.PracticeAttempt{}, fmt.Errorf("insert practice attempt: %w", err)
	}

	a.Timestamp = a.Timestamp.UTC()
	return a, nil
}

func (s *PostgresStore) GetAttemptsForUser(ctx context.Context, userID int64) ([]model.PracticeAttempt, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, user_id, word_id, correct, created_at FROM practice_attempts WHERE user_id = $1 ORDER BY id",
		userID)
	if err != nil {
		return nil, fmt.Errorf("select practice attempts: %w", err)
	}
	defer rows.Close()

	attempts := []model.PracticeAttempt{}
	for rows.Next() {
		var a model.PracticeAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.WordID, &a.Correct, &a.Timestamp); err != nil {
			return nil, fmt.Errorf("scan practice attempt: %w", err)
		}

		a.Timestamp = a.Timestamp.UTC()
		attempts = append(attempts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate practice attempts: %w", err)
	}

	return attempts, nil
}

// withinTx runs fn inside a transaction. A store that is already bound to a transaction
// runs fn directly.
func (s *PostgresStore) withinTx(ctx context.Context, fn func(tx *PostgresStore) error) error {
	db, ok := s.db.(*sql.DB)
	if !ok {
		return fn(s)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err = fn(&PostgresStore{db: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("rollback: %v after: %w", rbErr, err)
		}

		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWord(row rowScanner) (model.Word, error) {
	var (
		w          model.Word
		definition sql.NullString
	)

	err := row.Scan(&w.ID, &w.UserID, &w.Word, &definition, &w.TimesCorrect, &w.TimesIncorrect, &w.Mastered)
	if err != nil {
		return model.Word{}, err
	}

	if definition.Valid {
		w.Definition = &definition.String
	}

	return w, nil
}

func isPqErr(err error, code pq.ErrorCode) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == code
}
