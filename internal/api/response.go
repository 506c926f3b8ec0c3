package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/duffiwer/ledger-service/internal/models"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMessage(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps the engine's error taxonomy to HTTP status codes. A
// recording failure gets its own status: the movement was applied, so the
// response must be distinguishable from a rejected transfer.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var recording *models.RecordingFailedError
	switch {
	case errors.As(err, &recording):
		s.logger.Error("transfer requires reconciliation",
			zap.String("from_account_id", recording.FromAccountID),
			zap.String("to_account_id", recording.ToAccountID),
			zap.String("amount", recording.Amount.String()),
			zap.String("currency", recording.Currency),
			zap.Error(recording.Err))
		writeErrorMessage(w, http.StatusBadGateway, err.Error())
	case errors.Is(err, models.ErrInvalidRequest):
		writeErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrAccountNotFound), errors.Is(err, models.ErrUserNotFound):
		writeErrorMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrEmailTaken), errors.Is(err, models.ErrConflict):
		writeErrorMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrInsufficientFunds):
		writeErrorMessage(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, models.ErrStorageUnavailable):
		writeErrorMessage(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("unhandled error", zap.Error(err))
		writeErrorMessage(w, http.StatusInternalServerError, "internal error")
	}
}
