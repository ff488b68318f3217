package tasks

import (
	"context"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"taskgateway/internal/apperr"
	"taskgateway/internal/llmclient"
	"taskgateway/internal/operation"
)

const cardNumberPrompt = "Extract the credit card number from this image. " +
	"Reply with the digits only, without spaces or any other text."

// imageMIMEType prefers the file extension and falls back to sniffing.
func imageMIMEType(path string, data []byte) string {
	if t := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); strings.HasPrefix(t, "image/") {
		return t
	}
	return http.DetectContentType(data)
}

type cardNumber struct{ host Host }

func newCardNumber(h Host) *cardNumber { return &cardNumber{host: h} }

func (o *cardNumber) Spec() operation.Spec {
	return operation.Spec{
		Name:        "extract_card_number",
		Description: "Extract credit card number from image",
		Params: []operation.Param{
			pathParam("image_file", "Path to credit card image"),
			outputParam("output_file", "Path to output card number file"),
		},
	}
}

func (o *cardNumber) Call(ctx context.Context, args operation.Args) (*operation.Result, error) {
	in, err := args.RequireString("image_file")
	if err != nil {
		return nil, err
	}
	out, err := args.RequireString("output_file")
	if err != nil {
		return nil, apperr.Invalid("invalid output filename")
	}
	if _, err := o.host.FS.Resolve(in); err != nil {
		return nil, err
	}
	if _, err := o.host.FS.CheckTarget(out); err != nil {
		return nil, err
	}

	img, err := o.host.FS.SafeReadFile(in)
	if err != nil {
		return nil, err
	}
	tokens := 0
	text, err := o.host.LLM.StreamVision(ctx, llmclient.VisionRequest{
		Prompt:   cardNumberPrompt,
		Image:    img,
		MIMEType: imageMIMEType(in, img),
	}, func(string) { tokens++ })
	if err != nil {
		return nil, upstream(err, "HTTP error occurred")
	}
	o.host.logger().Debug("card number streamed", zap.Int("tokens", tokens))
	if err := o.host.FS.SafeWriteFile(out, []byte(text)); err != nil {
		return nil, err
	}
	return operation.FileCreated(out), nil
}
