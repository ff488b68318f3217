package tasks

import (
	"context"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"taskgateway/internal/apperr"
	"taskgateway/internal/operation"
	"taskgateway/internal/util/jsonutil"
)

var h1Pattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

const indexReadLimit = 8

// firstHeading returns the text of the first level-one ATX heading.
func firstHeading(content []byte) (string, bool) {
	m := h1Pattern.FindSubmatch(content)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(strings.TrimRight(string(m[1]), "\r")), true
}

type markdownIndex struct{ host Host }

func newMarkdownIndex(h Host) *markdownIndex { return &markdownIndex{host: h} }

func (o *markdownIndex) Spec() operation.Spec {
	return operation.Spec{
		Name:        "create_markdown_index",
		Description: "Index the first H1 heading of every Markdown file under a directory",
		Params: []operation.Param{
			pathParam("docs_directory", "Directory containing Markdown files"),
			outputParam("output_file_path", "Path to output index JSON"),
		},
	}
}

func (o *markdownIndex) Call(ctx context.Context, args operation.Args) (*operation.Result, error) {
	dirArg, err := args.RequireString("docs_directory")
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

	index, err := o.build(ctx, dir)
	if err != nil {
		return nil, err
	}
	encoded, err := jsonutil.MarshalNoEscape(index)
	if err != nil {
		return nil, apperr.Internal(err, "encode index")
	}
	if err := o.host.FS.SafeWriteFile(out, encoded); err != nil {
		return nil, err
	}
	return operation.FileCreated(out), nil
}

// build maps the slash-separated path of each Markdown file relative to dir
// to its first heading. Files without a heading are left out.
func (o *markdownIndex) build(ctx context.Context, dir string) (map[string]string, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if ok, _ := doublestar.Match("**/*.md", filepath.ToSlash(rel)); ok {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Internal(err, "walk %s", dir)
	}

	var (
		mu    sync.Mutex
		index = make(map[string]string, len(paths))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(indexReadLimit)
	for _, p := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			content, err := o.host.FS.SafeReadFile(p)
			if apperr.KindOf(err) == apperr.KindInvalid {
				o.host.logger().Warn("skipping markdown file", zap.String("path", p), zap.Error(err))
				return nil
			}
			if err != nil {
				return err
			}
			heading, ok := firstHeading(content)
			if !ok {
				return nil
			}
			rel, _ := filepath.Rel(dir, p)
			mu.Lock()
			index[filepath.ToSlash(rel)] = heading
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperr.Wrap(err)
	}
	return index, nil
}
