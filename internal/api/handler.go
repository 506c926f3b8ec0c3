// Package api exposes the ledger engine over HTTP. Handlers only parse and
// validate requests, call the engine, and translate results: all business
// logic stays in internal/ledger.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/duffiwer/ledger-service/internal/ledger"
	"github.com/duffiwer/ledger-service/internal/models"
)

// Server is the HTTP layer over the ledger engine.
type Server struct {
	engine *ledger.Engine
	logger *zap.Logger
}

func NewServer(engine *ledger.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{engine: engine, logger: logger}
}

// users handles POST /users: user registration.
func (s *Server) users(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := s.engine.RegisterUser(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// accounts handles POST /accounts (open an account) and
// GET /accounts?user_id= (list a user's accounts).
func (s *Server) accounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		var req struct {
			UserID         string          `json:"user_id"`
			Currency       string          `json:"currency"`
			OpeningBalance decimal.Decimal `json:"opening_balance"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
			return
		}

		account, err := s.engine.CreateAccount(r.Context(), req.UserID, req.Currency, req.OpeningBalance)
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, account)

	case http.MethodGet:
		userID := r.URL.Query().Get("user_id")
		if userID == "" {
			writeErrorMessage(w, http.StatusBadRequest, "user_id is a mandatory field")
			return
		}

		accounts, err := s.engine.ListAccountsByUser(r.Context(), userID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if accounts == nil {
			accounts = []models.Account{}
		}
		writeJSON(w, http.StatusOK, accounts)

	default:
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// transactions handles POST /transactions: execute a transfer.
func (s *Server) transactions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req struct {
		FromAccountID string          `json:"from_account_id"`
		ToAccountID   string          `json:"to_account_id"`
		Amount        decimal.Decimal `json:"amount"`
		Currency      string          `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tx, err := s.engine.Transfer(r.Context(), req.FromAccountID, req.ToAccountID, req.Amount, req.Currency)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

// history handles GET /transactions/history?account_id=.
func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeErrorMessage(w, http.StatusBadRequest, "account_id is a mandatory field")
		return
	}

	history, err := s.engine.GetHistory(r.Context(), accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if history == nil {
		history = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, history)
}

// health handles GET /health for liveness probes.
func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
