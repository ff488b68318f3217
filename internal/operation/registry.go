package operation

import (
	"errors"
	"fmt"
	"sync"

	"taskgateway/internal/llmclient"
)

// Registry holds operation registrations in declaration order. It is filled
// at startup and only read afterwards.
type Registry struct {
	mu    sync.RWMutex
	ops   map[string]Operation
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: map[string]Operation{}}
}

// Register adds an operation. Invalid specs and duplicate names are rejected.
func (r *Registry) Register(op Operation) error {
	if op == nil {
		return errors.New("operation is nil")
	}
	spec := op.Spec()
	if err := spec.Validate(); err != nil {
		return fmt.Errorf("invalid operation: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ops[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, spec.Name)
	}
	r.ops[spec.Name] = op
	r.order = append(r.order, spec.Name)
	return nil
}

// MustRegister registers an operation and panics on error.
func (r *Registry) MustRegister(op Operation) {
	if err := r.Register(op); err != nil {
		panic(fmt.Sprintf("failed to register operation: %v", err))
	}
}

// Lookup returns the operation registered under name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[name]
	return op, ok
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Specs returns the registered specs in registration order.
func (r *Registry) Specs() []Spec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Spec, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.ops[name].Spec())
	}
	return out
}

// FunctionSchemas is the function-calling document sent to the classifier.
func (r *Registry) FunctionSchemas() []llmclient.FunctionDef {
	specs := r.Specs()
	out := make([]llmclient.FunctionDef, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.FunctionDef())
	}
	return out
}

// Check verifies that the schema document and the dispatch table agree.
func (r *Registry) Check() error {
	defs := r.FunctionSchemas()
	if len(defs) == 0 {
		return errors.New("registry has no operations")
	}
	for _, d := range defs {
		op, ok := r.Lookup(d.Name)
		if !ok {
			return fmt.Errorf("schema names %q but no operation is registered", d.Name)
		}
		if op.Spec().Name != d.Name {
			return fmt.Errorf("operation registered as %q reports name %q", d.Name, op.Spec().Name)
		}
	}
	return nil
}
