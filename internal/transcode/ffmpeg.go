package transcode

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	ioutils "github.com/handiism/vidconv/internal/io"
	"github.com/handiism/vidconv/internal/model"
	"github.com/handiism/vidconv/internal/pipeline"
)

// FFmpeg settings.
const (
	FFmpegCommand  = "ffmpeg"
	FFprobeCommand = "ffprobe"

	AudioCodec       = "libmp3lame"
	AudioBitrate     = "192k"
	VideoCodec       = "libx264"
	VideoPreset      = "medium"
	VideoCRF         = "23"
	VideoAudioCodec  = "aac"
	VideoAudioRate   = "128k"
	FastStartFlag    = "+faststart"
	progressPipe     = "pipe:2"
	partialExtension = ".part"

	// DefaultStallTimeout is how long ffmpeg may stay silent before it is
	// killed.
	DefaultStallTimeout = 30 * time.Second
)

var (
	// ErrUnavailable is returned when ffmpeg is not installed.
	ErrUnavailable = errors.New("ffmpeg is not available")

	// ErrStalled is returned when ffmpeg stopped reporting progress.
	ErrStalled = errors.New("ffmpeg stopped reporting progress")
)

// FFmpeg converts files with the ffmpeg executable.
type FFmpeg struct {
	binary       string
	probeBinary  string
	stallTimeout time.Duration
	keepSource   bool
	logger       *slog.Logger
}

// Option configures FFmpeg.
type Option func(*FFmpeg)

// WithBinary sets the ffmpeg executable.
func WithBinary(path string) Option {
	return func(f *FFmpeg) {
		if path != "" {
			f.binary = path
		}
	}
}

// WithProbeBinary sets the ffprobe executable.
func WithProbeBinary(path string) Option {
	return func(f *FFmpeg) {
		if path != "" {
			f.probeBinary = path
		}
	}
}

// WithStallTimeout sets how long ffmpeg may go without output.
func WithStallTimeout(d time.Duration) Option {
	return func(f *FFmpeg) {
		if d > 0 {
			f.stallTimeout = d
		}
	}
}

// WithKeepSource keeps the acquired file after a successful conversion.
func WithKeepSource(keep bool) Option {
	return func(f *FFmpeg) { f.keepSource = keep }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *FFmpeg) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFFmpeg creates an ffmpeg based transcoder.
func NewFFmpeg(opts ...Option) *FFmpeg {
	f := &FFmpeg{
		binary:       FFmpegCommand,
		probeBinary:  FFprobeCommand,
		stallTimeout: DefaultStallTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Available returns the resolved ffmpeg path, or ErrUnavailable.
func (f *FFmpeg) Available() (string, error) {
	path, err := exec.LookPath(f.binary)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return path, nil
}

// ProbeAvailable returns the resolved ffprobe path. Without ffprobe the
// duration is read from ffmpeg's own header instead.
func (f *FFmpeg) ProbeAvailable() (string, error) {
	return exec.LookPath(f.probeBinary)
}

// Transcode implements pipeline.Transcoder.
//
// The output sits next to the input with the extension of format. ffmpeg
// writes to a partial file first, so a failed run never leaves a truncated
// output behind.
func (f *FFmpeg) Transcode(ctx context.Context, inputPath string, format model.TargetFormat, emit func(model.ProgressEvent)) (pipeline.Transcoded, error) {
	if _, err := f.Available(); err != nil {
		return pipeline.Transcoded{}, err
	}
	if _, err := os.Stat(inputPath); err != nil {
		return pipeline.Transcoded{}, fmt.Errorf("input file: %w", err)
	}

	outputPath := OutputPath(inputPath, format)
	partPath := strings.TrimSuffix(outputPath, format.Extension()) + partialExtension + format.Extension()

	parser := &progressParser{}
	if d, err := f.probe(ctx, inputPath); err == nil {
		parser.total = d
	} else {
		f.logger.DebugContext(ctx, "ffprobe failed, using ffmpeg header duration",
			slog.String("file", inputPath),
			slog.String("error", err.Error()),
		)
	}

	emit(model.ProgressEvent{Fraction: 0, Message: "Converting"})

	cmd := exec.CommandContext(ctx, f.binary, BuildArgs(inputPath, partPath, format)...)
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return pipeline.Transcoded{}, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return pipeline.Transcoded{}, fmt.Errorf("start ffmpeg: %w", err)
	}

	var stalled atomic.Bool
	dog := newWatchdog(f.stallTimeout, func() {
		stalled.Store(true)
		cmd.Process.Kill()
	})

	var lastLine string
	sc := bufio.NewScanner(stderr)
	sc.Split(scanLines)
	for sc.Scan() {
		dog.Kick()
		line := sc.Text()
		if fraction, ok := parser.feed(line); ok {
			emit(model.ProgressEvent{Fraction: fraction, Message: "Converting"})
			continue
		}
		if !isProgressField(line) && strings.TrimSpace(line) != "" {
			lastLine = line
		}
	}
	dog.Stop()

	if err := cmd.Wait(); err != nil {
		os.Remove(partPath)
		switch {
		case ctx.Err() != nil:
			return pipeline.Transcoded{}, ctx.Err()
		case stalled.Load():
			return pipeline.Transcoded{}, fmt.Errorf("%w after %s", ErrStalled, f.stallTimeout)
		default:
			return pipeline.Transcoded{}, fmt.Errorf("ffmpeg can't convert %s: %s: %w", filepath.Base(inputPath), lastLine, err)
		}
	}

	if err := os.Rename(partPath, outputPath); err != nil {
		os.Remove(partPath)
		return pipeline.Transcoded{}, err
	}
	if !f.keepSource && inputPath != outputPath {
		if err := os.Remove(inputPath); err != nil {
			f.logger.WarnContext(ctx, "could not remove source file",
				slog.String("file", inputPath),
				slog.String("error", err.Error()),
			)
		}
	}

	emit(model.ProgressEvent{Fraction: 1, Message: "Converted"})

	return pipeline.Transcoded{
		OutputPath:     outputPath,
		SizeBytes:      ioutils.FileSize(outputPath),
		DurationMillis: parser.total.Milliseconds(),
	}, nil
}

func (f *FFmpeg) probe(ctx context.Context, path string) (time.Duration, error) {
	cmd := exec.CommandContext(ctx, f.probeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "csv=p=0",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("run ffprobe: %w", err)
	}
	return parseProbeDuration(out)
}

// BuildArgs builds the ffmpeg arguments for converting in to out.
func BuildArgs(in, out string, format model.TargetFormat) []string {
	args := []string{
		"-y",
		"-nostdin",
		"-hide_banner",
		"-i", in,
	}
	if format.IsVideo() {
		args = append(args,
			"-c:v", VideoCodec,
			"-preset", VideoPreset,
			"-crf", VideoCRF,
			"-c:a", VideoAudioCodec,
			"-b:a", VideoAudioRate,
			"-movflags", FastStartFlag,
			"-f", "mp4",
		)
	} else {
		args = append(args,
			"-vn",
			"-c:a", AudioCodec,
			"-b:a", AudioBitrate,
			"-f", "mp3",
		)
	}
	return append(args,
		"-progress", progressPipe,
		"-nostats",
		out,
	)
}

// OutputPath replaces the extension of in with the one of format.
func OutputPath(in string, format model.TargetFormat) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + format.Extension()
}

// isProgressField matches the key=value lines of "-progress" output.
func isProgressField(line string) bool {
	i := strings.IndexByte(line, '=')
	return i > 0 && !strings.ContainsAny(line[:i], " \t:")
}
