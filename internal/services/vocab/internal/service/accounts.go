package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/gamma-omg/lexi-spell/internal/pkg/serr"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/model"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/store"
	"golang.org/x/crypto/bcrypt"
)

var errBadCredentials = errors.New("bad credentials")

type userStore interface {
	CreateUser(ctx context.Context, r store.CreateUserRequest) (model.User, error)
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
}

// tokenIssuer issues access tokens for authenticated users
type tokenIssuer interface {
	Issue(userID int64) (string, error)
}

// Accounts registers users and exchanges their credentials for access tokens.
type Accounts struct {
	store    userStore
	tokens   tokenIssuer
	users    *ristretto.Cache[string, model.User]
	hashCost int
}

type AccountsConfig struct {
	CacheKeys int64
	CacheCost int64
	HashCost  int
}

func NewAccounts(st userStore, tokens tokenIssuer, cfg AccountsConfig) *Accounts {
	c, err := ristretto.NewCache(&ristretto.Config[string, model.User]{
		NumCounters: cfg.CacheKeys * 10,
		MaxCost:     cfg.CacheCost,
		BufferItems: 64,
		// cost counts users, not bytes
		IgnoreInternalCost: true,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create users cache: %v", err))
	}

	cost := cfg.HashCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}

	return &Accounts{
		store:    st,
		tokens:   tokens,
		users:    c,
		hashCost: cost,
	}
}

// Register creates a user with a bcrypt hash of password. A taken username is reported with
// status 409, a blank username or an empty password with status 400.
func (a *Accounts) Register(ctx context.Context, username, password string) (model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return model.User{}, serr.NewServiceError(nil, http.StatusBadRequest, "username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return model.User{}, serr.NewServiceError(err, http.StatusBadRequest, "password is too long")
		}

		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := a.store.CreateUser(ctx, store.CreateUserRequest{
		Username:     username,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			return model.User{}, serr.NewServiceError(err, http.StatusConflict, "username already exists").
				With("username", username)
		}

		return model.User{}, fmt.Errorf("create user: %w", err)
	}

	a.users.Set(u.Username, u, 1)
	return u, nil
}

// Login verifies the credentials and returns a signed access token. Unknown users and wrong
// passwords are both reported with status 401.
func (a *Accounts) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)

	u, err := a.lookup(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", unauthorized(username)
		}

		return "", fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", unauthorized(username)
	}

	tk, err := a.tokens.Issue(u.ID)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}

	return tk, nil
}

// lookup reads through the users cache. Users never change after registration.
func (a *Accounts) lookup(ctx context.Context, username string) (model.User, error) {
	if u, ok := a.users.Get(username); ok {
		return u, nil
	}

	u, err := a.store.GetUserByUsername(ctx, username)
	if err != nil {
		return model.User{}, err
	}

	a.users.Set(username, u, 1)
	return u, nil
}

func unauthorized(username string) error {
	return serr.NewServiceError(errBadCredentials, http.StatusUnauthorized, "invalid username or password").
		With("username", username)
}

func (a *Accounts) Close() {
	a.users.Close()
}
