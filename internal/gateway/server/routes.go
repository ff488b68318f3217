package server

import (
	"net/http"

	"go.uber.org/zap"

	"taskgateway/internal/gateway/handler"
	"taskgateway/internal/gateway/middleware"
)

func NewMux(runHandler *handler.RunHandler, readHandler *handler.ReadHandler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/run", runHandler.HandleRun)
	mux.HandleFunc("/read", readHandler.HandleRead)
	mux.HandleFunc("/healthz", handler.HandleHealth)

	// Middleware
	return middleware.RequestID(middleware.AccessLog(logger)(middleware.CORS(mux)))
}
