package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"taskgateway/internal/classifier"
	"taskgateway/internal/dispatch"
	"taskgateway/internal/gateway/config"
	"taskgateway/internal/gateway/handler"
	"taskgateway/internal/gateway/server"
	"taskgateway/internal/llmclient"
	"taskgateway/internal/operation"
	"taskgateway/internal/safeio"
	"taskgateway/internal/tasks"
)

type App struct {
	server     *server.Server
	dispatcher *dispatch.Dispatcher
	registry   *operation.Registry
	logger     *zap.Logger
}

// Options overrides dependencies that New would otherwise build from cfg.
type Options struct {
	LLM    llmclient.Client
	Runner tasks.CommandRunner
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	// Dependencies
	fs, err := safeio.NewSafeFS(cfg.DataRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to open data root %q: %w", cfg.DataRoot, err)
	}
	llm := opts.LLM
	if llm == nil {
		if cfg.LLM.Provider == config.ProviderOpenAI && cfg.LLM.APIKey == "" {
			logger.Warn("AIPROXY_TOKEN is not set; LLM calls will be rejected upstream")
		}
		llm, err = newLLMClient(ctx, cfg.LLM)
		if err != nil {
			return nil, err
		}
	}
	llm = llmclient.Wrap(llm, llmclient.WithLogging(logger.Named("llm")))

	registry := operation.NewRegistry()
	host := tasks.Host{
		FS:     fs,
		LLM:    llm,
		Runner: opts.Runner,
		Logger: logger.Named("tasks"),
		Tools: tasks.ToolConfig{
			DatagenRunner: cfg.Tools.DatagenRunner,
			NPM:           cfg.Tools.NPM,
			NPX:           cfg.Tools.NPX,
		},
	}
	if err := tasks.RegisterDefault(registry, host); err != nil {
		return nil, fmt.Errorf("failed to register operations: %w", err)
	}
	cls := classifier.New(llm, registry, cfg.LLM.ClassifyTimeout)
	dispatcher := dispatch.New(cls, registry, logger.Named("dispatch"))

	// Routing & Server
	mux := server.NewMux(
		handler.NewRunHandler(dispatcher, logger),
		handler.NewReadHandler(fs, logger),
		logger.Named("access"),
	)
	srv := server.New(cfg.Port, mux, logger)

	logger.Info("gateway initialized",
		zap.String("env", cfg.Env),
		zap.String("data_root", fs.Root()),
		zap.String("llm", llm.Name()),
		zap.Strings("operations", registry.Names()))

	return &App{server: srv, dispatcher: dispatcher, registry: registry, logger: logger}, nil
}

func newLLMClient(ctx context.Context, cfg config.LLMConfig) (llmclient.Client, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err := llmclient.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.Model, cfg.VisionModel)
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client: %w", err)
		}
		return c, nil
	default:
		return llmclient.NewOpenAIClient(llmclient.OpenAIConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			VisionModel: cfg.VisionModel,
		}), nil
	}
}

// Dispatcher runs tasks without going through HTTP.
func (a *App) Dispatcher() *dispatch.Dispatcher { return a.dispatcher }

func (a *App) Registry() *operation.Registry { return a.registry }

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}
