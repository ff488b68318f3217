package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"taskgateway/internal/operation"
)

// TaskRunner is satisfied by dispatch.Dispatcher.
type TaskRunner interface {
	Run(ctx context.Context, task string) (*operation.Result, error)
}

type RunHandler struct {
	runner TaskRunner
	logger *zap.Logger
}

func NewRunHandler(runner TaskRunner, logger *zap.Logger) *RunHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RunHandler{runner: runner, logger: logger}
}

// HandleRun serves POST /run?task=<text>.
func (h *RunHandler) HandleRun(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodPost) {
		return
	}
	res, err := h.runner.Run(r.Context(), r.URL.Query().Get("task"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
