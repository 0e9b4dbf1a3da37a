package session

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExists   = errors.New("session already exists")
)

func key(userID int64, sessionID string) string {
	return fmt.Sprintf("practice:%d:%s", userID, sessionID)
}
