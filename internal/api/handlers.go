package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/finsim/papertrade/internal/auth"
	"github.com/finsim/papertrade/internal/db"
	"github.com/finsim/papertrade/internal/models"
	"github.com/finsim/papertrade/internal/portfolio"
	"github.com/finsim/papertrade/internal/quotes"
	"github.com/finsim/papertrade/internal/trading"

	"go.uber.org/zap"
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	DB          *db.DB
	Portfolio   *portfolio.Aggregator
	Executor    *trading.Executor
	Quotes      quotes.Provider
	AuthService *auth.AuthService
	Logger      *zap.Logger
}

// NewHandler creates a new handler
func NewHandler(database *db.DB, agg *portfolio.Aggregator, ex *trading.Executor, provider quotes.Provider, authService *auth.AuthService, logger *zap.Logger) *Handler {
	return &Handler{
		DB:          database,
		Portfolio:   agg,
		Executor:    ex,
		Quotes:      provider,
		AuthService: authService,
		Logger:      logger,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy to HTTP statuses: business-rule
// rejections and bad input render as 400-class responses with the real
// message, everything else is a generic failure so store and quote-API
// internals never leak to the client.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, trading.ErrInvalidQuantity),
		errors.Is(err, auth.ErrValidation),
		errors.Is(err, quotes.ErrNotFound),
		errors.Is(err, db.ErrInsufficientFunds),
		errors.Is(err, db.ErrInsufficientShares):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, db.ErrUsernameTaken):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, db.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		h.Logger.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "something went wrong"})
	}
}

// RequestLogger logs one line per request
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
			)
		})
	}
}

// Register handles user registration
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username     string `json:"username"`
		Password     string `json:"password"`
		Confirmation string `json:"confirmation"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Username and password required"})
		return
	}
	if req.Confirmation != req.Password {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Confirmation must match password"})
		return
	}

	user, err := h.AuthService.Register(r.Context(), req.Username, req.Password, req.Confirmation)
	if err != nil {
		if errors.Is(err, db.ErrUsernameTaken) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "Username already taken"})
			return
		}
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"id":       user.ID,
		"username": user.Username,
		"cash":     user.Cash,
	})
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	token, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// Logout acknowledges a logout. Tokens are stateless, so the client
// discards its copy; there is no server-side session to clear.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// JWTAuthMiddleware verifies JWT tokens
func (h *Handler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Authorization header required"})
			return
		}

		// Remove "Bearer " prefix if present
		if len(tokenString) > 7 && tokenString[:7] == "Bearer " {
			tokenString = tokenString[7:]
		}

		userID, err := h.AuthService.GetUserFromToken(tokenString)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid or expired token"})
			return
		}

		// Add user_id to context
		ctx := context.WithValue(r.Context(), "user_id", userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Quote looks up the current price for a symbol
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	symbol, err := quotes.Normalize(r.URL.Query().Get("symbol"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	quote, err := h.Quotes.Lookup(r.Context(), symbol)
	if err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Symbol not found"})
			return
		}
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// Buy purchases shares at the current market price
func (h *Handler) Buy(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.Executor.Buy)
}

// Sell sells shares at the current market price
func (h *Handler) Sell(w http.ResponseWriter, r *http.Request) {
	h.trade(w, r, h.Executor.Sell)
}

func (h *Handler) trade(w http.ResponseWriter, r *http.Request, op func(context.Context, int, string, int64) (*models.LedgerEntry, error)) {
	userID, ok := r.Context().Value("user_id").(int)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	var req struct {
		Symbol string `json:"symbol"`
		Shares int64  `json:"shares"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	entry, err := op(r.Context(), userID, req.Symbol, req.Shares)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Trade executed",
		"entry":   entry,
	})
}

// GetPortfolio renders the aggregated portfolio view
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(int)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	view, err := h.Portfolio.View(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// GetHistory renders the user's full trade ledger in order
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("user_id").(int)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	entries, err := h.DB.EntriesForUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if entries == nil {
		entries = []models.LedgerEntry{}
	}

	writeJSON(w, http.StatusOK, entries)
}
