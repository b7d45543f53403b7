package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xela07ax/instavibe/internal/web/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError транслирует типизированные ошибки сервисного слоя
// в контракт статусов: 400/404/503, остальное — 500 с общим текстом.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var ve *service.ValidationError
	var nfe *service.NotFoundError

	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Msg)
	case errors.As(err, &nfe):
		writeError(w, http.StatusNotFound, nfe.Msg)
	case errors.Is(err, service.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, "Database connection not available")
	default:
		logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "An internal server error occurred")
	}
}
