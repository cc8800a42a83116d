package transcode

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/handiism/vidconv/internal/model"
	"github.com/handiism/vidconv/internal/pipeline"
)

// ErrFormatMismatch is returned by Passthrough for a file that is not
// already in the target format.
var ErrFormatMismatch = errors.New("file is not in the target format")

// Passthrough hands back files that already have the target extension.
type Passthrough struct{}

// Transcode implements pipeline.Transcoder.
func (Passthrough) Transcode(ctx context.Context, inputPath string, format model.TargetFormat, emit func(model.ProgressEvent)) (pipeline.Transcoded, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.Transcoded{}, err
	}
	if !HasFormat(inputPath, format) {
		return pipeline.Transcoded{}, fmt.Errorf("%s: %w (%s)", filepath.Base(inputPath), ErrFormatMismatch, format)
	}
	info, err := os.Stat(inputPath)
	if err != nil {
		return pipeline.Transcoded{}, fmt.Errorf("input file: %w", err)
	}

	emit(model.ProgressEvent{Fraction: 1, Message: "Ready"})
	return pipeline.Transcoded{OutputPath: inputPath, SizeBytes: info.Size()}, nil
}

// HasFormat reports whether path already carries the extension of format.
func HasFormat(path string, format model.TargetFormat) bool {
	return strings.EqualFold(filepath.Ext(path), format.Extension())
}

// Auto passes files through when they already match the target format and
// converts them otherwise.
type Auto struct {
	Passthrough Passthrough
	Converter   pipeline.Transcoder
}

// NewAuto returns an Auto that converts with c.
func NewAuto(c pipeline.Transcoder) *Auto {
	return &Auto{Converter: c}
}

// Transcode implements pipeline.Transcoder.
func (a *Auto) Transcode(ctx context.Context, inputPath string, format model.TargetFormat, emit func(model.ProgressEvent)) (pipeline.Transcoded, error) {
	if HasFormat(inputPath, format) || a.Converter == nil {
		return a.Passthrough.Transcode(ctx, inputPath, format, emit)
	}
	return a.Converter.Transcode(ctx, inputPath, format, emit)
}
