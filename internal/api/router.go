package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/savebridge/internal/api/handler"
	"github.com/mcoot/savebridge/internal/api/middleware"
	"github.com/mcoot/savebridge/internal/api/response"
	"github.com/mcoot/savebridge/internal/services/auth"
	"github.com/mcoot/savebridge/internal/services/savedgames"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger            *slog.Logger
	AuthService       *auth.Service
	SavedGamesService *savedgames.Service
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	accountHandler := handler.NewAccountHandler(cfg.AuthService)
	slotHandler := handler.NewSlotHandler(cfg.SavedGamesService)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Account routes (no auth required for registering/logging in)
	api.HandleFunc("/accounts/register", accountHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/accounts/login", accountHandler.Login).Methods(http.MethodPost)

	// Protected account routes
	accountProtected := api.PathPrefix("/accounts").Subrouter()
	accountProtected.Use(authMiddleware)
	accountProtected.HandleFunc("/logout", accountHandler.Logout).Methods(http.MethodPost)
	accountProtected.HandleFunc("/me", accountHandler.GetMe).Methods(http.MethodGet)

	// Slot routes (all require auth)
	slots := api.PathPrefix("/slots").Subrouter()
	slots.Use(authMiddleware)
	slots.HandleFunc("", slotHandler.List).Methods(http.MethodGet)
	slots.HandleFunc("/{name}", slotHandler.Commit).Methods(http.MethodPut)
	slots.HandleFunc("/{name}", slotHandler.Delete).Methods(http.MethodDelete)
	slots.HandleFunc("/{name}/open", slotHandler.Open).Methods(http.MethodPost)
	slots.HandleFunc("/{name}/data", slotHandler.ReadData).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusOK, response.Health{Status: "ok"})
}
