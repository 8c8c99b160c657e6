// Package api serves the JSON HTTP API and the websocket event stream.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"techhourse/internal/account"
	"techhourse/internal/behavior"
	"techhourse/internal/catalog"
	"techhourse/internal/chat"
	"techhourse/internal/logging"
	"techhourse/internal/store"
)

// Server holds dependencies and provides HTTP handlers
type Server struct {
	store    Store
	chat     ChatService
	accounts AccountService
	recorder Recorder
	loader   Reloader
	wsHub    *WebSocketHub
	config   *ServerConfig
	logger   *logging.Logger
}

// Store interface for API operations
type Store interface {
	ListPhones(ctx context.Context) ([]catalog.Phone, error)
	GetPhone(ctx context.Context, id int64) (*catalog.Phone, error)
	GetPhones(ctx context.Context, ids []int64) ([]catalog.Phone, error)
	PhonesByBrand(ctx context.Context, brand string) ([]catalog.Phone, error)
	SearchPhones(ctx context.Context, query string) ([]catalog.Phone, error)
	Brands(ctx context.Context) ([]string, error)

	LatestBehavior(ctx context.Context) (*behavior.Snapshot, error)

	AddFavorite(ctx context.Context, userID, phoneID int64) error
	RemoveFavorite(ctx context.Context, userID, phoneID int64) error
	IsFavorite(ctx context.Context, userID, phoneID int64) (bool, error)
	ListFavorites(ctx context.Context, userID int64) ([]catalog.Phone, error)

	RecordView(ctx context.Context, userID, phoneID int64, maxEntries int) error
	RecentHistory(ctx context.Context, userID int64, limit int) ([]store.HistoryEntry, error)
	DeleteHistory(ctx context.Context, userID, phoneID int64) error
	ClearHistory(ctx context.Context, userID int64) error
}

// ChatService runs chat turns
type ChatService interface {
	Send(ctx context.Context, message string) chat.Turn
	Compare(ctx context.Context, phones []catalog.Phone) (chat.Turn, error)
	SystemPrompt(ctx context.Context) string
}

// AccountService manages the local accounts
type AccountService interface {
	Register(ctx context.Context, reg account.Registration) (*store.Account, error)
	Login(ctx context.Context, phone, password string) (*store.Account, error)
	Logout(ctx context.Context) error
	Current(ctx context.Context) (*store.Account, error)
	SecurityQuestion(ctx context.Context, phone string) (string, error)
	ResetPassword(ctx context.Context, phone, answer, newPassword string) error
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	UpdateSecurity(ctx context.Context, password, question, answer string) error
	Delete(ctx context.Context, password string) error
}

// Recorder stores behavior snapshots
type Recorder interface {
	Record(ctx context.Context, usage map[string]string) (*behavior.Snapshot, error)
}

// Reloader replaces the catalog from its import file
type Reloader interface {
	Reload(ctx context.Context) (int, error)
}

// ServerConfig holds server configuration
type ServerConfig struct {
	HistoryMaxEntries   int
	HistoryDisplayLimit int
}

// Deps groups the collaborators of a Server.
type Deps struct {
	Store    Store
	Chat     ChatService
	Accounts AccountService
	Recorder Recorder
	Loader   Reloader
	Hub      *WebSocketHub
	Config   *ServerConfig
	Logger   *logging.Logger
}

// NewServer creates a server. The hub must be running; a nil hub gets a
// new one started in the background.
func NewServer(d Deps) *Server {
	logger := logging.OrDiscard(d.Logger)
	hub := d.Hub
	if hub == nil {
		hub = NewWebSocketHub(logger)
		go hub.Run(context.Background())
	}
	cfg := d.Config
	if cfg == nil {
		cfg = &ServerConfig{HistoryMaxEntries: 50, HistoryDisplayLimit: 7}
	}
	return &Server{
		store:    d.Store,
		chat:     d.Chat,
		accounts: d.Accounts,
		recorder: d.Recorder,
		loader:   d.Loader,
		wsHub:    hub,
		config:   cfg,
		logger:   logger,
	}
}

// Hub returns the server's websocket hub.
func (s *Server) Hub() *WebSocketHub { return s.wsHub }

// RegisterRoutes sets up all HTTP routes
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	// Chat
	mux.HandleFunc("POST /api/chat", s.handleChat)
	mux.HandleFunc("POST /api/compare", s.handleCompare)
	mux.HandleFunc("GET /api/prompt", s.handlePrompt)

	// Catalog
	mux.HandleFunc("GET /api/phones", s.handlePhones)
	mux.HandleFunc("GET /api/phones/{id}", s.handlePhone)
	mux.HandleFunc("GET /api/brands", s.handleBrands)
	mux.HandleFunc("POST /api/catalog/reload", s.handleReload)

	// Behavior
	mux.HandleFunc("POST /api/behavior", s.handleRecordBehavior)
	mux.HandleFunc("GET /api/behavior/latest", s.handleLatestBehavior)

	// Account
	mux.HandleFunc("POST /api/account/register", s.handleRegister)
	mux.HandleFunc("POST /api/account/login", s.handleLogin)
	mux.HandleFunc("POST /api/account/logout", s.handleLogout)
	mux.HandleFunc("GET /api/account/security-question", s.handleSecurityQuestion)
	mux.HandleFunc("POST /api/account/reset-password", s.handleResetPassword)
	mux.HandleFunc("POST /api/account/change-password", s.requireUser(s.handleChangePassword))
	mux.HandleFunc("POST /api/account/security", s.requireUser(s.handleUpdateSecurity))
	mux.HandleFunc("GET /api/account/current", s.handleCurrent)
	mux.HandleFunc("DELETE /api/account", s.requireUser(s.handleDeleteAccount))

	// Favorites and history of the current user
	mux.HandleFunc("GET /api/favorites", s.requireUser(s.handleFavorites))
	mux.HandleFunc("PUT /api/favorites/{phoneID}", s.requireUser(s.handleAddFavorite))
	mux.HandleFunc("DELETE /api/favorites/{phoneID}", s.requireUser(s.handleRemoveFavorite))
	mux.HandleFunc("GET /api/history", s.requireUser(s.handleHistory))
	mux.HandleFunc("DELETE /api/history", s.requireUser(s.handleClearHistory))
	mux.HandleFunc("DELETE /api/history/{phoneID}", s.requireUser(s.handleDeleteHistory))

	// WebSocket
	mux.HandleFunc("GET /ws", s.handleWebSocket)
}

// Handler returns the routed API wrapped in the current-user and request
// logging middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s.logRequests(s.CurrentUserMiddleware(mux))
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errBadRequest marks malformed requests.
var errBadRequest = errors.New("bad request")

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: malformed JSON body", errBadRequest)
	}
	return nil
}

// writeError maps domain errors to status codes. Unclassified errors are
// logged and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, account.ErrInvalidInput),
		errors.Is(err, chat.ErrNothingToCompare), errors.Is(err, catalog.ErrNoRows):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrNotLoggedIn):
		status, msg = http.StatusUnauthorized, err.Error()
	case errors.Is(err, account.ErrSecurityMismatch):
		status, msg = http.StatusForbidden, err.Error()
	case errors.Is(err, store.ErrNotFound):
		status, msg = http.StatusNotFound, err.Error()
	case errors.Is(err, account.ErrPhoneTaken):
		status, msg = http.StatusConflict, err.Error()
	default:
		s.logger.WithFields(map[string]interface{}{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			next.ServeHTTP(w, r)
			return
		}
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.WithFields(map[string]interface{}{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"latency_ms": time.Since(start).Milliseconds(),
		}).Debug("request handled")
	})
}
