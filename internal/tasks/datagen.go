package tasks

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"taskgateway/internal/apperr"
	"taskgateway/internal/operation"
)

type runDatagen struct{ host Host }

func newRunDatagen(h Host) *runDatagen { return &runDatagen{host: h} }

func (o *runDatagen) Spec() operation.Spec {
	return operation.Spec{
		Name:        "run_datagen",
		Description: "Run a data-generation script with the user's email to download input files",
		Params: []operation.Param{
			pathParam("script_path", "URL or local path of the data-generation script"),
			{Name: "email", Type: operation.TypeString, Description: "Email address passed to the script", Required: true},
		},
	}
}

func isRemoteScript(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (o *runDatagen) Call(ctx context.Context, args operation.Args) (*operation.Result, error) {
	script := strings.TrimSpace(args.String("script_path"))
	if script == "" {
		return nil, apperr.Invalid("Error downloading files: script path not provided")
	}
	email := strings.TrimSpace(args.String("email"))
	if email == "" {
		return nil, apperr.Invalid("Error downloading files: email not provided")
	}
	if strings.HasPrefix(email, "-") {
		return nil, apperr.Invalid("Error downloading files: invalid email")
	}
	if !isRemoteScript(script) {
		if strings.HasPrefix(script, "-") {
			return nil, apperr.Invalid("Error downloading files: invalid script path")
		}
		if _, err := o.host.FS.SafeStat(script); err != nil {
			return nil, err
		}
		p, err := o.host.FS.Resolve(script)
		if err != nil {
			return nil, err
		}
		script = p
	}

	runner := o.host.tools().DatagenRunner
	res, err := o.host.Runner.Run(ctx, runner, "run", script, email)
	if err != nil {
		return nil, apperr.Internal(err, "Internal server error")
	}
	if res.ExitCode != 0 {
		stderr := strings.TrimSpace(res.Stderr)
		o.host.logger().Warn("datagen script failed",
			zap.String("script", script),
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", stderr))
		return nil, apperr.Internal(errors.New(stderr), "Script error")
	}
	return operation.Success("downloaded input files", nil), nil
}
