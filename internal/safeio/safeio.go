// Package safeio confines file access to a single data root. Every path an
// operation touches is canonicalized (absolute, `..` removed, symlinks
// resolved) and must land strictly below the root.
package safeio

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"taskgateway/internal/apperr"
)

// SafeFS resolves caller-supplied paths against a fixed root.
type SafeFS struct {
	absRoot string // absolute root with symlinks resolved
	locks   *pathLocks
}

// NewSafeFS locks all future operations to the given root directory.
// The root path is resolved to an absolute, symlink-free directory.
func NewSafeFS(root string) (*SafeFS, error) {
	if root == "" {
		return nil, errors.New("safeio: empty root")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	abs, err = filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("safeio: root is not a directory")
	}
	return &SafeFS{absRoot: abs, locks: newPathLocks()}, nil
}

// Root returns the absolute root directory bound to this SafeFS.
func (s *SafeFS) Root() string {
	if s == nil {
		return ""
	}
	return s.absRoot
}

// IsWithinSandbox reports whether the canonical form of path lies strictly
// below the root. The root itself is not within the sandbox.
func (s *SafeFS) IsWithinSandbox(path string) bool {
	if s == nil || strings.TrimSpace(path) == "" {
		return false
	}
	p, err := s.canonical(path)
	if err != nil {
		return false
	}
	return isProperDescendant(p, s.absRoot)
}

// Resolve returns the canonical path for userPath or a client error when it
// escapes the root.
func (s *SafeFS) Resolve(userPath string) (string, error) {
	if s == nil {
		return "", errors.New("safeio: filesystem not configured")
	}
	if strings.TrimSpace(userPath) == "" {
		return "", apperr.Invalid("path required")
	}
	p, err := s.canonical(userPath)
	if err != nil || !isProperDescendant(p, s.absRoot) {
		return "", apperr.Invalid("not configured to process files outside '%s'", s.absRoot)
	}
	return p, nil
}

// SafeReadFile reads a regular file under the root.
func (s *SafeFS) SafeReadFile(userPath string) ([]byte, error) {
	p, err := s.resolveFile(userPath)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

// SafeOpen opens a regular file under the root for reading.
func (s *SafeFS) SafeOpen(userPath string) (*os.File, error) {
	p, err := s.resolveFile(userPath)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// SafeStat returns metadata for a file or directory under the root.
func (s *SafeFS) SafeStat(userPath string) (fs.FileInfo, error) {
	p, err := s.Resolve(userPath)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperr.NotFound("file not found at %s", userPath)
	}
	return info, err
}

// ResolveDir resolves userPath and requires it to be an existing directory.
func (s *SafeFS) ResolveDir(userPath string) (string, error) {
	dir, err := s.Resolve(userPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", apperr.NotFound("directory %s not found", userPath)
	}
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", apperr.Invalid("%s is not a directory", userPath)
	}
	return dir, nil
}

// SafeReadDir lists entries for a directory under the root.
func (s *SafeFS) SafeReadDir(userPath string) ([]fs.DirEntry, error) {
	dir, err := s.ResolveDir(userPath)
	if err != nil {
		return nil, err
	}
	return os.ReadDir(dir)
}

func (s *SafeFS) resolveFile(userPath string) (string, error) {
	p, err := s.Resolve(userPath)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return "", apperr.NotFound("file not found at %s", userPath)
	}
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", apperr.Invalid("%s is a directory", userPath)
	}
	return p, nil
}

// canonical makes userPath absolute (relative paths are taken from the root)
// and resolves symlinks on its longest existing prefix.
func (s *SafeFS) canonical(userPath string) (string, error) {
	clean := filepath.Clean(userPath)
	isAbs := filepath.IsAbs(clean) || (runtime.GOOS == "windows" && filepath.VolumeName(clean) != "")
	if !isAbs {
		if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
			return "", errors.New("safeio: path traversal not allowed")
		}
		clean = filepath.Join(s.absRoot, clean)
	}
	return evalExisting(clean)
}

func evalExisting(p string) (string, error) {
	var rest []string
	cur := p
	for {
		resolved, err := filepath.EvalSymlinks(cur)
		if err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", err
		}
		// A dangling symlink exists but points nowhere; following it later
		// could land anywhere.
		if _, lerr := os.Lstat(cur); lerr == nil {
			return "", err
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return p, nil
		}
		rest = append([]string{filepath.Base(cur)}, rest...)
		cur = parent
	}
}

func isProperDescendant(path, root string) bool {
	path = filepath.Clean(path)
	root = filepath.Clean(root)
	if runtime.GOOS == "windows" {
		path = strings.ToLower(path)
		root = strings.ToLower(root)
	}
	if path == root {
		return false
	}
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(root, sep) {
		root += sep
	}
	return strings.HasPrefix(path, root)
}
