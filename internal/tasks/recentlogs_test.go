package tasks

import (
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskgateway/internal/apperr"
)

func TestRecentLogsKeepsTenNewest(t *testing.T) {
	sb := newSandbox(t)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 12 {
		p := sb.write(t, fmt.Sprintf("logs/app-%02d.log", i), fmt.Sprintf("line %d   \nsecond line\n", i))
		mt := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(p, mt, mt))
	}
	sb.write(t, "logs/notes.txt", "ignored\n")
	sb.write(t, "logs/.hidden.log", "ignored\n")
	out := sb.path("recent.txt")

	_, err := call(t, newRecentLogs(sb.host), map[string]any{"logs_directory": sb.path("logs"), "output_file_path": out})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(sb.read(t, out), "\n"), "\n")
	require.Len(t, lines, 10)
	for i, line := range lines {
		assert.Equal(t, fmt.Sprintf("line %d", 11-i), line)
	}
}

func TestRecentLogsNoMatches(t *testing.T) {
	sb := newSandbox(t)
	sb.write(t, "logs/readme.txt", "x")

	_, err := call(t, newRecentLogs(sb.host), map[string]any{"logs_directory": sb.path("logs"), "output_file_path": sb.path("o.txt")})
	requireKind(t, err, apperr.KindNotFound)
	assert.Contains(t, err.Error(), "No .log files found")
}

func TestRecentLogsMissingDirectory(t *testing.T) {
	sb := newSandbox(t)
	_, err := call(t, newRecentLogs(sb.host), map[string]any{"logs_directory": sb.path("nope"), "output_file_path": sb.path("o.txt")})
	requireKind(t, err, apperr.KindNotFound)
	assert.Contains(t, err.Error(), "not found")
}

func TestRecentLogsFileAsDirectory(t *testing.T) {
	sb := newSandbox(t)
	file := sb.write(t, "notadir.log", "line\n")

	_, err := call(t, newRecentLogs(sb.host), map[string]any{"logs_directory": file, "output_file_path": sb.path("o.txt")})
	requireKind(t, err, apperr.KindInvalid)
	assert.Contains(t, err.Error(), "is not a directory")
}

func TestRecentLogsSkipsUndecodableFile(t *testing.T) {
	sb := newSandbox(t)
	sb.write(t, "logs/good.log", "ok\n")
	sb.write(t, "logs/bad.log", "\xff\xfe\n")
	out := sb.path("o.txt")

	_, err := call(t, newRecentLogs(sb.host), map[string]any{"logs_directory": sb.path("logs"), "output_file_path": out})
	require.NoError(t, err)
	assert.Equal(t, "ok\n", sb.read(t, out))
}
