package handler

import (
	"net/http"

	"go.uber.org/zap"

	"taskgateway/internal/safeio"
)

type ReadHandler struct {
	fs     *safeio.SafeFS
	logger *zap.Logger
}

func NewReadHandler(fs *safeio.SafeFS, logger *zap.Logger) *ReadHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReadHandler{fs: fs, logger: logger}
}

// HandleRead serves GET /read?path=<path> with the file's raw text. Only
// files inside the data root are served.
func (h *ReadHandler) HandleRead(w http.ResponseWriter, r *http.Request) {
	if !allowMethod(w, r, http.MethodGet) {
		return
	}
	data, err := h.fs.SafeReadFile(r.URL.Query().Get("path"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
