package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgateway/internal/apperr"
	"taskgateway/internal/operation"
	"taskgateway/internal/safeio"
)

type runnerFunc func(ctx context.Context, task string) (*operation.Result, error)

func (f runnerFunc) Run(ctx context.Context, task string) (*operation.Result, error) {
	return f(ctx, task)
}

func decodeDetail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestHandleRunSuccess(t *testing.T) {
	var gotTask string
	h := NewRunHandler(runnerFunc(func(_ context.Context, task string) (*operation.Result, error) {
		gotTask = task
		return operation.FileCreated("/data/out.txt"), nil
	}), nil)

	rec := httptest.NewRecorder()
	h.HandleRun(rec, httptest.NewRequest(http.MethodPost, "/run?task="+url.QueryEscape("sort /data/contacts.json"), nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "sort /data/contacts.json", gotTask)
	assert.JSONEq(t, `{"status":"success","message":"file created at: /data/out.txt"}`, rec.Body.String())
}

func TestHandleRunErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{apperr.Invalid("Bad Request response: undefined function"), http.StatusBadRequest},
		{apperr.NotFound("file not found at /data/x"), http.StatusNotFound},
		{apperr.Upstream(503, errors.New("unavailable"), "HTTP error occurred"), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		h := NewRunHandler(runnerFunc(func(context.Context, string) (*operation.Result, error) { return nil, tc.err }), nil)
		rec := httptest.NewRecorder()
		h.HandleRun(rec, httptest.NewRequest(http.MethodPost, "/run?task=x", nil))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.err.Error(), decodeDetail(t, rec))
	}
}

func TestHandleRunRejectsGet(t *testing.T) {
	h := NewRunHandler(runnerFunc(func(context.Context, string) (*operation.Result, error) {
		t.Fatal("runner must not be called")
		return nil, nil
	}), nil)
	rec := httptest.NewRecorder()
	h.HandleRun(rec, httptest.NewRequest(http.MethodGet, "/run?task=x", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHandleRead(t *testing.T) {
	root := t.TempDir()
	fs, err := safeio.NewSafeFS(root)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "out.txt"), []byte("42"), 0o644))
	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	h := NewReadHandler(fs, nil)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.HandleRead(rec, httptest.NewRequest(http.MethodGet, "/read?path="+url.QueryEscape(path), nil))
		return rec
	}

	rec := get(filepath.Join(root, "out.txt"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")

	assert.Equal(t, http.StatusNotFound, get(filepath.Join(root, "missing.txt")).Code)

	rec = get(outside)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")

	assert.Equal(t, http.StatusBadRequest, get("").Code)
}

func TestHandleHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleHealth(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
