// Package dispatch runs a free-text task end to end: classify, look the
// operation up in the registry, call it.
package dispatch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"taskgateway/internal/apperr"
	"taskgateway/internal/classifier"
	"taskgateway/internal/operation"
)

// Lookup is the part of the registry the dispatcher needs.
type Lookup interface {
	Lookup(name string) (operation.Operation, bool)
}

type Dispatcher struct {
	classifier classifier.Classifier
	ops        Lookup
	log        *zap.Logger
}

func New(c classifier.Classifier, ops Lookup, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{classifier: c, ops: ops, log: logger}
}

// Run classifies task and executes the selected operation. Every returned
// error is an *apperr.Error.
func (d *Dispatcher) Run(ctx context.Context, task string) (*operation.Result, error) {
	cls, err := d.classifier.Classify(ctx, task)
	if err != nil {
		d.log.Warn("classification failed", zap.Error(err))
		return nil, apperr.Wrap(err)
	}
	op, ok := d.ops.Lookup(cls.Name)
	if !ok {
		d.log.Warn("undefined function", zap.String("operation", cls.Name))
		return nil, apperr.Invalid("Bad Request response: undefined function")
	}

	log := d.log.With(zap.String("operation", cls.Name))
	log.Info("dispatching", zap.Any("arguments", cls.Arguments))
	res, err := d.call(ctx, op, cls.Arguments)
	if err != nil {
		log.Warn("operation failed", zap.Error(err))
		return nil, apperr.Wrap(err)
	}
	log.Info("operation done", zap.String("message", res.Message))
	return res, nil
}

func (d *Dispatcher) call(ctx context.Context, op operation.Operation, raw map[string]any) (res *operation.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, apperr.Internal(fmt.Errorf("%v", r), "internal server error")
		}
	}()
	res, err = op.Call(ctx, operation.NewArgs(op.Spec(), raw))
	if err == nil && res == nil {
		err = apperr.Internal(nil, "%s returned no result", op.Spec().Name)
	}
	return res, err
}
