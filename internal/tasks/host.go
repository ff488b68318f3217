// Package tasks implements the operations the dispatcher can run. Every
// operation validates its arguments (required values, sandbox membership of
// each path, overwrite guard on each output) before any side effect.
package tasks

import (
	"go.uber.org/zap"

	"taskgateway/internal/apperr"
	"taskgateway/internal/llmclient"
	"taskgateway/internal/operation"
	"taskgateway/internal/safeio"
)

// Host wires filesystem, LLM and subprocess access for operations.
type Host struct {
	FS     *safeio.SafeFS
	LLM    llmclient.Client
	Runner CommandRunner
	Logger *zap.Logger
	Tools  ToolConfig
}

// ToolConfig names the external programs operations shell out to.
type ToolConfig struct {
	DatagenRunner string // e.g. "uv"
	NPM           string
	NPX           string
}

func (h Host) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

func (h Host) tools() ToolConfig {
	t := h.Tools
	if t.DatagenRunner == "" {
		t.DatagenRunner = "uv"
	}
	if t.NPM == "" {
		t.NPM = "npm"
	}
	if t.NPX == "" {
		t.NPX = "npx"
	}
	return t
}

// RegisterDefault installs every operation into r.
func RegisterDefault(r *operation.Registry, h Host) error {
	if h.Runner == nil {
		h.Runner = ExecRunner{}
	}
	ops := []operation.Operation{
		newRunDatagen(h),
		newFormatMarkdown(h),
		newCountSpecificDay(h),
		newSortContacts(h),
		newRecentLogs(h),
		newMarkdownIndex(h),
		newEmailSender(h),
		newCardNumber(h),
		newGoldTicketSales(h),
	}
	for _, op := range ops {
		if err := r.Register(op); err != nil {
			return err
		}
	}
	return r.Check()
}

func upstream(err error, format string, args ...any) error {
	return apperr.Upstream(llmclient.StatusCode(err), err, format, args...)
}

// pathParam and outputParam keep the path argument descriptions uniform.
func pathParam(name, desc string) operation.Param {
	return operation.Param{Name: name, Type: operation.TypeString, Description: desc, Required: true}
}

func outputParam(name, desc string) operation.Param {
	return operation.Param{
		Name:        name,
		Type:        operation.TypeString,
		Description: desc + ". If not specified or invalid or without extension, returns empty string",
		Required:    true,
	}
}
