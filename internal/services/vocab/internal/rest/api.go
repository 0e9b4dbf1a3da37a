package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gamma-omg/lexi-spell/internal/pkg/fn"
	"github.com/gamma-omg/lexi-spell/internal/pkg/httpx"
	"github.com/gamma-omg/lexi-spell/internal/pkg/middleware"
	"github.com/gamma-omg/lexi-spell/internal/pkg/router"
	"github.com/gamma-omg/lexi-spell/internal/pkg/serr"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/model"
	"github.com/gamma-omg/lexi-spell/internal/services/vocab/internal/service"
)

type practiceService interface {
	ListWords(ctx context.Context, userID int64) ([]model.Word, error)
	AddWord(ctx context.Context, r service.AddWordRequest) (model.Word, error)
	SubmitPractice(ctx context.Context, userID, wordID int64, correct bool) (service.PracticeResult, error)
	SubmitSpelling(ctx context.Context, userID, wordID int64, input string) (service.PracticeResult, error)
	GetProgress(ctx context.Context, userID int64) (model.Progress, error)
	ListAttempts(ctx context.Context, userID, wordID int64) ([]model.PracticeAttempt, error)
}

type sessionService interface {
	Start(ctx context.Context, userID int64) (service.Session, error)
	Next(ctx context.Context, userID int64, sessionID string) (model.Word, error)
}

type accountService interface {
	Register(ctx context.Context, username, password string) (model.User, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type API struct {
	practice practiceService
	sessions sessionService
	accounts accountService
	auth     router.Middleware
	router   *router.Router
}

type APIConfig struct {
	Practice practiceService
	Sessions sessionService
	Accounts accountService
	Tokens   middleware.TokenValidator
}

func NewAPI(cfg APIConfig) *API {
	api := &API{
		practice: cfg.Practice,
		sessions: cfg.Sessions,
		accounts: cfg.Accounts,
		auth:     middleware.Auth(cfg.Tokens),
		router:   router.New(),
	}

	api.mount()
	return api
}

func (api *API) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	api.router.ServeHTTP(w, r)
}

func (api *API) mount() {
	api.router.HandleFunc("POST /register", api.handleRegister)
	api.router.HandleFunc("POST /login", api.handleLogin)

	api.protected("GET /words", api.handleListWords)
	api.protected("POST /words", api.handleAddWord)
	api.protected("POST /practice", api.handlePractice)
	api.protected("GET /attempts", api.handleListAttempts)
	api.protected("GET /words/{word_id}/attempts", api.handleListWordAttempts)
	api.protected("GET /progress", api.handleProgress)
	api.protected("POST /sessions", api.handleStartSession)
	api.protected("GET /sessions/{session_id}/next", api.handleNextWord)
}

// protected registers a handler that requires an access token.
func (api *API) protected(pattern string, h http.HandlerFunc) {
	api.router.Handle(pattern, api.auth(h))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func (api *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, httpx.BadRequest(err))
		return
	}

	u, err := api.accounts.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusCreated, registerResponse{ID: u.ID, Username: u.Username})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
}

func (api *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, httpx.BadRequest(err))
		return
	}

	tk, err := api.accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, loginResponse{AccessToken: tk})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type wordResponse struct {
	ID             int64   `json:"id"`
	Word           string  `json:"word"`
	Definition     *string `json:"definition"`
	TimesCorrect   int     `json:"times_correct"`
	TimesIncorrect int     `json:"times_incorrect"`
	Mastered       bool    `json:"mastered"`
}

func toWordResponse(w model.Word) wordResponse {
	return wordResponse{
		ID:             w.ID,
		Word:           w.Word,
		Definition:     w.Definition,
		TimesCorrect:   w.TimesCorrect,
		TimesIncorrect: w.TimesIncorrect,
		Mastered:       w.Mastered,
	}
}

type listWordsResponse struct {
	Words []wordResponse `json:"words"`
}

func (api *API) handleListWords(w http.ResponseWriter, r *http.Request) {
	words, err := api.practice.ListWords(r.Context(), userID(r))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, listWordsResponse{
		Words: fn.Map(words, toWordResponse),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type addWordRequest struct {
	Word       string  `json:"word"`
	Definition *string `json:"definition"`
}

func (api *API) handleAddWord(w http.ResponseWriter, r *http.Request) {
	var req addWordRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, httpx.BadRequest(err))
		return
	}

	word, err := api.practice.AddWord(r.Context(), service.AddWordRequest{
		UserID:     userID(r),
		Word:       req.Word,
		Definition: req.Definition,
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusCreated, toWordResponse(word))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

// practiceRequest carries either a self-assessed result or the typed spelling, never both.
type practiceRequest struct {
	WordID  int64   `json:"word_id"`
	Correct *bool   `json:"correct"`
	Input   *string `json:"input"`
}

type attemptResponse struct {
	ID        int64     `json:"id"`
	WordID    int64     `json:"word_id"`
	Correct   bool      `json:"correct"`
	Timestamp time.Time `json:"timestamp"`
}

func toAttemptResponse(a model.PracticeAttempt) attemptResponse {
	return attemptResponse{
		ID:        a.ID,
		WordID:    a.WordID,
		Correct:   a.Correct,
		Timestamp: a.Timestamp,
	}
}

type practiceResponse struct {
	Word    wordResponse    `json:"word"`
	Attempt attemptResponse `json:"attempt"`
}

var errAmbiguousPractice = errors.New("exactly one of correct and input must be set")

func (api *API) handlePractice(w http.ResponseWriter, r *http.Request) {
	var req practiceRequest
	if err := httpx.ReadJSON(r, &req); err != nil {
		httpx.HandleErr(w, r, httpx.BadRequest(err))
		return
	}

	if (req.Correct == nil) == (req.Input == nil) {
		httpx.HandleErr(w, r, serr.NewServiceError(errAmbiguousPractice, http.StatusBadRequest, "invalid practice submission"))
		return
	}

	var (
		res service.PracticeResult
		err error
	)
	if req.Input != nil {
		res, err = api.practice.SubmitSpelling(r.Context(), userID(r), req.WordID, *req.Input)
	} else {
		res, err = api.practice.SubmitPractice(r.Context(), userID(r), req.WordID, *req.Correct)
	}
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusCreated, practiceResponse{
		Word:    toWordResponse(res.Word),
		Attempt: toAttemptResponse(res.Attempt),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type listAttemptsResponse struct {
	Attempts []attemptResponse `json:"attempts"`
}

func (api *API) handleListAttempts(w http.ResponseWriter, r *http.Request) {
	api.writeAttempts(w, r, 0)
}

func (api *API) handleListWordAttempts(w http.ResponseWriter, r *http.Request) {
	wordID, err := httpx.PathInt64(r, "word_id")
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	api.writeAttempts(w, r, wordID)
}

func (api *API) writeAttempts(w http.ResponseWriter, r *http.Request, wordID int64) {
	attempts, err := api.practice.ListAttempts(r.Context(), userID(r), wordID)
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, listAttemptsResponse{
		Attempts: fn.Map(attempts, toAttemptResponse),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type progressResponse struct {
	TotalWords        int `json:"total_words"`
	MasteredWords     int `json:"mastered_words"`
	PracticeCount     int `json:"practice_count"`
	MasteryPercentage int `json:"mastery_percentage"`
}

func (api *API) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := api.practice.GetProgress(r.Context(), userID(r))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, progressResponse{
		TotalWords:        p.TotalWords,
		MasteredWords:     p.MasteredWords,
		PracticeCount:     p.PracticeCount,
		MasteryPercentage: p.MasteryPercentage(),
	})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

type sessionResponse struct {
	SessionID  string `json:"session_id"`
	TotalWords int    `json:"total_words"`
}

func (api *API) handleStartSession(w http.ResponseWriter, r *http.Request) {
	s, err := api.sessions.Start(r.Context(), userID(r))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusCreated, sessionResponse{SessionID: s.ID, TotalWords: s.TotalWords})
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

func (api *API) handleNextWord(w http.ResponseWriter, r *http.Request) {
	word, err := api.sessions.Next(r.Context(), userID(r), r.PathValue("session_id"))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}

	err = httpx.WriteJSON(w, http.StatusOK, toWordResponse(word))
	if err != nil {
		httpx.HandleErr(w, r, err)
		return
	}
}

// userID returns the authenticated user. Handlers behind middleware.Auth always have one.
func userID(r *http.Request) int64 {
	uid, _ := middleware.UserIDFromContext(r.Context())
	return uid
}
