package dispatch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"taskgateway/internal/apperr"
	"taskgateway/internal/classifier"
	"taskgateway/internal/operation"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeClassifier struct {
	cls *classifier.Classification
	err error
}

func (f fakeClassifier) Classify(context.Context, string) (*classifier.Classification, error) {
	return f.cls, f.err
}

type recordingOp struct {
	name  string
	calls int
	args  operation.Args
	call  func(operation.Args) (*operation.Result, error)
}

func (o *recordingOp) Spec() operation.Spec {
	return operation.Spec{
		Name: o.name,
		Params: []operation.Param{
			{Name: "path", Type: operation.TypeString, Required: true},
			{Name: "mode", Type: operation.TypeString, Default: "fast"},
		},
	}
}

func (o *recordingOp) Call(_ context.Context, args operation.Args) (*operation.Result, error) {
	o.calls++
	o.args = args
	return o.call(args)
}

func newRegistry(t *testing.T, ops ...operation.Operation) *operation.Registry {
	t.Helper()
	reg := operation.NewRegistry()
	for _, op := range ops {
		require.NoError(t, reg.Register(op))
	}
	return reg
}

func TestRunReturnsExecutorResultUnchanged(t *testing.T) {
	want := operation.FileCreated("/data/out.txt")
	op := &recordingOp{name: "sort_contacts", call: func(operation.Args) (*operation.Result, error) { return want, nil }}
	d := New(fakeClassifier{cls: &classifier.Classification{Name: "sort_contacts", Arguments: map[string]any{"path": "/data/in.json"}}}, newRegistry(t, op), nil)

	got, err := d.Run(context.Background(), "sort contacts")
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 1, op.calls)
	assert.Equal(t, "/data/in.json", op.args.String("path"))
	assert.Equal(t, "fast", op.args.String("mode"))
}

func TestRunUndefinedFunctionNeverExecutes(t *testing.T) {
	op := &recordingOp{name: "sort_contacts", call: func(operation.Args) (*operation.Result, error) {
		t.Fatal("executor must not run")
		return nil, nil
	}}
	d := New(fakeClassifier{cls: &classifier.Classification{Name: "os.system"}}, newRegistry(t, op), nil)

	_, err := d.Run(context.Background(), "rm -rf /")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "undefined function")
	assert.Equal(t, 0, op.calls)
}

func TestRunClassificationErrorPassesThrough(t *testing.T) {
	upstream := apperr.Upstream(503, errors.New("unavailable"), "HTTP error occurred")
	d := New(fakeClassifier{err: upstream}, newRegistry(t), nil)

	_, err := d.Run(context.Background(), "anything")
	assert.Same(t, upstream, err)
}

func TestRunWrapsUnclassifiedErrors(t *testing.T) {
	op := &recordingOp{name: "calculate_gold_ticket_sales", call: func(operation.Args) (*operation.Result, error) {
		return nil, errors.New("database is locked")
	}}
	d := New(fakeClassifier{cls: &classifier.Classification{Name: "calculate_gold_ticket_sales"}}, newRegistry(t, op), nil)

	_, err := d.Run(context.Background(), "gold sales")
	var ae *apperr.Error
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, apperr.KindInternal, ae.Kind)
	assert.Contains(t, err.Error(), "database is locked")
}

func TestRunKeepsClientErrors(t *testing.T) {
	op := &recordingOp{name: "count_specific_day", call: func(operation.Args) (*operation.Result, error) {
		return nil, apperr.Invalid("Bad Request response: Invalid day")
	}}
	d := New(fakeClassifier{cls: &classifier.Classification{Name: "count_specific_day"}}, newRegistry(t, op), nil)

	_, err := d.Run(context.Background(), "count fundays")
	assert.Equal(t, apperr.KindInvalid, apperr.KindOf(err))
}

func TestRunRecoversPanics(t *testing.T) {
	op := &recordingOp{name: "get_recent_logs", call: func(operation.Args) (*operation.Result, error) {
		panic("index out of range")
	}}
	d := New(fakeClassifier{cls: &classifier.Classification{Name: "get_recent_logs"}}, newRegistry(t, op), nil)

	_, err := d.Run(context.Background(), "logs")
	require.Error(t, err)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
	assert.Contains(t, err.Error(), "index out of range")
}
