package api

import "net/http"

// Router binds the HTTP endpoints to their handlers.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", s.health)
	mux.HandleFunc("/users", s.users)
	mux.HandleFunc("/accounts", s.accounts)
	mux.HandleFunc("/transactions", s.transactions)
	mux.HandleFunc("/transactions/history", s.history)

	return mux
}
