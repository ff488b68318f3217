package tasks

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"taskgateway/internal/apperr"
	"taskgateway/internal/operation"
)

type formatMarkdown struct{ host Host }

func newFormatMarkdown(h Host) *formatMarkdown { return &formatMarkdown{host: h} }

func (o *formatMarkdown) Spec() operation.Spec {
	return operation.Spec{
		Name:        "format_markdown",
		Description: "Format a Markdown file in place with an npm formatter such as prettier",
		Params: []operation.Param{
			pathParam("file_path", "Path to the Markdown file"),
			{Name: "library", Type: operation.TypeString, Description: "Formatter package name", Default: "prettier"},
			{Name: "version", Type: operation.TypeString, Description: "Formatter package version", Default: "3.4.2"},
		},
	}
}

func (o *formatMarkdown) Call(ctx context.Context, args operation.Args) (*operation.Result, error) {
	file, err := args.RequireString("file_path")
	if err != nil {
		return nil, err
	}
	library := strings.TrimSpace(args.String("library"))
	if library == "" {
		return nil, apperr.Invalid("Error formatting file: library not provided")
	}
	version := strings.TrimSpace(args.String("version"))
	if version == "" {
		return nil, apperr.Invalid("Error formatting file: version not provided")
	}
	if strings.HasPrefix(library, "-") || strings.HasPrefix(version, "-") {
		return nil, apperr.Invalid("Error formatting file: invalid library %q", library+"@"+version)
	}
	path, err := o.host.FS.Resolve(file)
	if err != nil {
		return nil, err
	}
	if _, err := o.host.FS.SafeStat(path); err != nil {
		return nil, err
	}

	pkg := library + "@" + version
	t := o.host.tools()
	steps := [][]string{
		{t.NPM, "install", pkg},
		{t.NPX, pkg, "--check", path},
		{t.NPX, pkg, "--write", path},
	}
	log := o.host.logger().With(zap.String("package", pkg), zap.String("file", path))
	for _, step := range steps {
		res, err := o.host.Runner.Run(ctx, step[0], step[1:]...)
		switch {
		case err != nil:
			log.Warn("formatter step failed to start", zap.Strings("command", step), zap.Error(err))
		case res.ExitCode != 0:
			log.Warn("formatter step failed",
				zap.Strings("command", step),
				zap.Int("exit_code", res.ExitCode),
				zap.String("stderr", strings.TrimSpace(res.Stderr)))
		default:
			log.Debug("formatter step done", zap.Strings("command", step))
		}
	}
	return operation.Success("Formatted file: "+file, nil), nil
}
