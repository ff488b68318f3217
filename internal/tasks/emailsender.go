package tasks

import (
	"context"

	"taskgateway/internal/apperr"
	"taskgateway/internal/operation"
)

const emailSenderPrompt = "You are a helpful assistant. Extract only the sender/from email address " +
	"(e.g. name@xmail.com, yyyy@gmail.com) from the given email. Reply with the address and nothing else."

type emailSender struct{ host Host }

func newEmailSender(h Host) *emailSender { return &emailSender{host: h} }

func (o *emailSender) Spec() operation.Spec {
	return operation.Spec{
		Name:        "extract_email_sender",
		Description: "Extract the sender's email address from an email message",
		Params: []operation.Param{
			pathParam("input_file_path", "Path to input email file"),
			outputParam("output_file_path", "Path to output email address file"),
		},
	}
}

func (o *emailSender) Call(ctx context.Context, args operation.Args) (*operation.Result, error) {
	in, err := args.RequireString("input_file_path")
	if err != nil {
		return nil, err
	}
	out, err := args.RequireString("output_file_path")
	if err != nil {
		return nil, apperr.Invalid("invalid output filename")
	}
	if _, err := o.host.FS.Resolve(in); err != nil {
		return nil, err
	}
	if _, err := o.host.FS.CheckTarget(out); err != nil {
		return nil, err
	}

	message, err := o.host.FS.SafeReadFile(in)
	if err != nil {
		return nil, err
	}
	sender, err := o.host.LLM.Complete(ctx, emailSenderPrompt, string(message))
	if err != nil {
		return nil, upstream(err, "HTTP error occurred")
	}
	if err := o.host.FS.SafeWriteFile(out, []byte(sender)); err != nil {
		return nil, err
	}
	return operation.FileCreated(out), nil
}
