// Package notify holds the completion sinks a session controller reports
// successful conversions to.
package notify

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/handiism/vidconv/internal/audio"
	ioutils "github.com/handiism/vidconv/internal/io"
	"github.com/handiism/vidconv/internal/model"
)

// Sink receives each successful result once.
type Sink interface {
	OnCompleted(ctx context.Context, result *model.ConversionResult)
}

// Multi fans a result out to several sinks in order.
type Multi []Sink

// OnCompleted implements Sink.
func (m Multi) OnCompleted(ctx context.Context, result *model.ConversionResult) {
	for _, s := range m {
		if s != nil {
			s.OnCompleted(ctx, result)
		}
	}
}

// LogSink records finished conversions in the log.
type LogSink struct {
	Logger *slog.Logger
}

// OnCompleted implements Sink.
func (s LogSink) OnCompleted(ctx context.Context, result *model.ConversionResult) {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "conversion finished",
		slog.String("title", result.Title),
		slog.String("file", result.FilePath),
		slog.Int64("bytes", result.FileSizeBytes),
		slog.Int("items", len(result.Items)),
		slog.String("url", result.SourceURL),
	)
}

// PlaylistSink writes a playlist next to results that produced more than
// one file.
type PlaylistSink struct {
	creator *audio.PlaylistCreator
	logger  *slog.Logger
}

// NewPlaylistSink creates a PlaylistSink writing with creator.
func NewPlaylistSink(creator *audio.PlaylistCreator, logger *slog.Logger) *PlaylistSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &PlaylistSink{creator: creator, logger: logger}
}

// PlaylistPath returns where the playlist for result is written.
func (s *PlaylistSink) PlaylistPath(result *model.ConversionResult) string {
	name := ioutils.SanitizeFileName(result.Title)
	if name == "" {
		name = "playlist"
	}
	return filepath.Join(result.Dir(), name+s.creator.Format().Extension())
}

// OnCompleted implements Sink. Single-file results are ignored.
func (s *PlaylistSink) OnCompleted(ctx context.Context, result *model.ConversionResult) {
	if !result.IsPlaylist() || result.Dir() == "" {
		return
	}

	path := s.PlaylistPath(result)
	if err := ioutils.WriteFile(ctx, path, []byte(s.creator.CreatePlaylist(result))); err != nil {
		s.logger.WarnContext(ctx, "playlist not written",
			slog.String("path", path),
			slog.Any("error", err),
		)
		return
	}
	s.logger.DebugContext(ctx, "playlist written",
		slog.String("path", path),
		slog.Int("entries", len(result.Items)),
	)
}
