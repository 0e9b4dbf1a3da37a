package model

import "time"

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

// Word is an entry of a user's vocabulary together with its practice counters.
type Word struct {
	ID             int64
	UserID         int64
	Word           string
	Definition     *string
	TimesCorrect   int
	TimesIncorrect int
	Mastered       bool
}

// PracticeAttempt is one immutable practice submission.
type PracticeAttempt struct {
	ID        int64
	UserID    int64
	WordID    int64
	Correct   bool
	Timestamp time.Time
}

// Progress is the per-user aggregate over words and attempts.
type Progress struct {
	TotalWords    int
	MasteredWords int
	PracticeCount int
}

// MasteryPercentage is the rounded share of mastered words, 0 when the user has no words.
func (p Progress) MasteryPercentage() int {
	if p.TotalWords == 0 {
		return 0
	}

	return (p.MasteredWords*200 + p.TotalWords) / (p.TotalWords * 2)
}
