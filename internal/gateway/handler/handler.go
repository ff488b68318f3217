package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"taskgateway/internal/apperr"
	"taskgateway/internal/gateway/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError renders err as {"detail": "..."} with the status of its kind.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		fields := []zap.Field{
			zap.String("request_id", middleware.RequestIDFrom(r.Context())),
			zap.Error(err),
		}
		var ae *apperr.Error
		if errors.As(err, &ae) && ae.UpstreamStatus != 0 {
			fields = append(fields, zap.Int("upstream_status", ae.UpstreamStatus))
		}
		logger.Error("request failed", fields...)
	}
	writeJSON(w, status, map[string]string{"detail": err.Error()})
}

func allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"detail": "method not allowed"})
	return false
}

// HandleHealth reports liveness.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
