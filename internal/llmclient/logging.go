package llmclient

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// WithLogging logs request timing and errors. A nil logger disables output.
func WithLogging(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next Client) Client {
		return &logging{next: next, log: logger.With(zap.String("llm", next.Name()))}
	}
}

type logging struct {
	next Client
	log  *zap.Logger
}

func (l *logging) Name() string { return l.next.Name() }

func (l *logging) CallFunction(ctx context.Context, req FunctionRequest) (*FunctionCall, error) {
	start := time.Now()
	l.log.Debug("LLM function request", zap.Int("functions", len(req.Functions)), zap.Int("bytes", len(req.System)+len(req.User)))
	fc, err := l.next.CallFunction(ctx, req)
	if err != nil {
		l.log.Warn("LLM function error", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return nil, err
	}
	l.log.Info("LLM function selected", zap.String("function", fc.Name), zap.Duration("elapsed", time.Since(start)))
	return fc, nil
}

func (l *logging) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	out, err := l.next.Complete(ctx, system, user)
	if err != nil {
		l.log.Warn("LLM completion error", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", err
	}
	l.log.Debug("LLM completion", zap.Int("bytes", len(out)), zap.Duration("elapsed", time.Since(start)))
	return out, nil
}

func (l *logging) StreamVision(ctx context.Context, req VisionRequest, onToken func(token string)) (string, error) {
	start := time.Now()
	l.log.Debug("LLM vision stream request", zap.Int("image_bytes", len(req.Image)), zap.String("mime", req.MIMEType))
	out, err := l.next.StreamVision(ctx, req, onToken)
	if err != nil {
		l.log.Warn("LLM vision stream error", zap.Duration("elapsed", time.Since(start)), zap.Error(err))
		return "", err
	}
	l.log.Debug("LLM vision stream done", zap.Int("bytes", len(out)), zap.Duration("elapsed", time.Since(start)))
	return out, nil
}
