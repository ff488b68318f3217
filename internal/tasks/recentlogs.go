package tasks

import (
	"bufio"
	"context"
	"errors"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/bmatcuk/doublestar"
	"go.uber.org/zap"

	"taskgateway/internal/apperr"
	"taskgateway/internal/operation"
)

const recentLogLimit = 10

type logFile struct {
	path    string
	modTime time.Time
}

type recentLogs struct{ host Host }

func newRecentLogs(h Host) *recentLogs { return &recentLogs{host: h} }

func (o *recentLogs) Spec() operation.Spec {
	return operation.Spec{
		Name:        "get_recent_logs",
		Description: "Write the first line of the 10 most recent .log files, most recent first",
		Params: []operation.Param{
			pathParam("logs_directory", "Directory containing .log files"),
			outputParam("output_file_path", "Path to output file"),
		},
	}
}

func (o *recentLogs) Call(ctx context.Context, args operation.Args) (*operation.Result, error) {
	dirArg, err := args.RequireString("logs_directory")
	if err != nil {
		return nil, err
	}
	out, err := args.RequireString("output_file_path")
	if err != nil {
		return nil, apperr.Invalid("invalid output filename")
	}
	if _, err := o.host.FS.Resolve(dirArg); err != nil {
		return nil, err
	}
	if _, err := o.host.FS.CheckTarget(out); err != nil {
		return nil, err
	}
	dir, err := o.host.FS.ResolveDir(dirArg)
	if err != nil {
		return nil, err
	}

	files, err := o.listLogs(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, apperr.NotFound("No .log files found in %s", dirArg)
	}
	slices.SortStableFunc(files, func(a, b logFile) int { return b.modTime.Compare(a.modTime) })
	if len(files) > recentLogLimit {
		files = files[:recentLogLimit]
	}

	var lines []string
	for _, f := range files {
		line, err := o.firstLine(f.path)
		if err != nil {
			o.host.logger().Warn("skipping log file", zap.String("path", f.path), zap.Error(err))
			continue
		}
		lines = append(lines, line)
	}
	content := strings.Join(lines, "\n")
	if len(lines) > 0 {
		content += "\n"
	}
	if err := o.host.FS.SafeWriteFile(out, []byte(content)); err != nil {
		return nil, err
	}
	return operation.FileCreated(out), nil
}

// listLogs returns the regular *.log files directly inside dir.
func (o *recentLogs) listLogs(dir string) ([]logFile, error) {
	entries, err := o.host.FS.SafeReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []logFile
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if ok, _ := doublestar.Match("*.log", e.Name()); !ok {
			continue
		}
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		files = append(files, logFile{path: filepath.Join(dir, e.Name()), modTime: info.ModTime()})
	}
	return files, nil
}

func (o *recentLogs) firstLine(path string) (string, error) {
	f, err := o.host.FS.SafeOpen(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if !utf8.ValidString(line) {
		return "", apperr.Invalid("%s is not valid UTF-8", filepath.Base(path))
	}
	return strings.TrimRightFunc(line, unicode.IsSpace), nil
}
