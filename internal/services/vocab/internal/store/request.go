package store

type CreateUserRequest struct {
	Username     string
	PasswordHash string
}

type CreateWordRequest struct {
	UserID     int64
	Word       string
	Definition *string
	// RequireOwner makes CreateWord fail with ErrInvalidOwner when UserID does not exist.
	RequireOwner bool
}

type AddPracticeAttemptRequest struct {
	UserID  int64
	WordID  int64
	Correct bool
}
