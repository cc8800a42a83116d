package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lrstanley/go-ytdlp"

	ioutils "github.com/handiism/vidconv/internal/io"
	"github.com/handiism/vidconv/internal/model"
	"github.com/handiism/vidconv/internal/pipeline"
)

// DefaultBinary is the executable looked up on PATH.
const DefaultBinary = "yt-dlp"

// outputTemplate keeps the id in the name so two videos with the same title
// do not overwrite each other.
const outputTemplate = "%(title).150B [%(id)s].%(ext)s"

// Extractor implements pipeline.Acquirer for platform URLs.
type Extractor struct {
	binary           string
	transcodes       bool
	progressInterval time.Duration
	logger           *slog.Logger

	lookPath func(string) (string, error)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithBinary sets the yt-dlp executable name used for the availability check.
func WithBinary(name string) Option {
	return func(e *Extractor) {
		if name != "" {
			e.binary = name
		}
	}
}

// WithAudioExtraction lets yt-dlp produce the MP3 itself, so the transcode
// phase becomes a pass-through.
func WithAudioExtraction(on bool) Option {
	return func(e *Extractor) { e.transcodes = on }
}

// WithProgressInterval sets how often yt-dlp reports progress.
func WithProgressInterval(d time.Duration) Option {
	return func(e *Extractor) {
		if d > 0 {
			e.progressInterval = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		binary:           DefaultBinary,
		progressInterval: 500 * time.Millisecond,
		logger:           slog.Default(),
		lookPath:         exec.LookPath,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Available reports whether yt-dlp can be run on this machine.
func (e *Extractor) Available() error {
	if _, err := e.lookPath(e.binary); err != nil {
		return model.NewConversionError(model.KindAcquisitionUnavailable,
			fmt.Errorf("%w: %s not found on PATH", model.ErrExtractorUnavailable, e.binary))
	}
	return nil
}

// ProducesFinal implements pipeline.FinalFormatter.
func (e *Extractor) ProducesFinal(req pipeline.Request) bool {
	if req.Format.IsVideo() {
		return true
	}
	return e.transcodes
}

// Acquire implements pipeline.Acquirer.
func (e *Extractor) Acquire(ctx context.Context, req pipeline.Request, emit func(pipeline.AcquireEvent)) (pipeline.Acquired, error) {
	if err := e.Available(); err != nil {
		return pipeline.Acquired{}, err
	}

	dir := req.OutputDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := ioutils.EnsureDir(dir); err != nil {
		return pipeline.Acquired{}, fmt.Errorf("create output dir: %w", err)
	}

	var (
		metaOnce sync.Once
		meta     pipeline.Metadata
		metaMu   sync.Mutex
	)

	dl := e.command(req, dir)
	dl.ProgressFunc(e.progressInterval, func(update ytdlp.ProgressUpdate) {
		if update.Info != nil {
			metaOnce.Do(func() {
				m := metadataFrom(update.Info)
				metaMu.Lock()
				meta = m
				metaMu.Unlock()
				if !m.IsZero() {
					emit(pipeline.MetadataOf(m))
				}
			})
		}

		fraction := model.IndeterminateFraction
		if update.TotalBytes > 0 {
			fraction = float64(update.DownloadedBytes) / float64(update.TotalBytes)
		}
		emit(pipeline.ProgressOf(fraction, progressMessage(update)))
	})

	e.logger.DebugContext(ctx, "running yt-dlp",
		slog.String("url", req.URL),
		slog.String("dir", dir),
		slog.String("format", req.Format.String()),
	)

	result, err := dl.Run(ctx, req.URL)
	if err != nil {
		if ctx.Err() != nil {
			return pipeline.Acquired{}, ctx.Err()
		}
		return pipeline.Acquired{}, classify(err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return pipeline.Acquired{}, fmt.Errorf("read yt-dlp output: %w", err)
	}

	acquired := pipeline.Acquired{}
	for _, info := range infos {
		if info == nil || info.Filename == nil {
			continue
		}
		path := resolveOutput(*info.Filename, req.Format, e.ProducesFinal(req))
		m := metadataFrom(info)
		acquired.Files = append(acquired.Files, pipeline.AcquiredFile{
			Path:           path,
			Title:          m.Title,
			Thumbnail:      m.Thumbnail,
			DurationMillis: m.DurationMillis,
		})
	}
	if len(acquired.Files) == 0 {
		return pipeline.Acquired{}, pipeline.ErrNothingAcquired
	}

	metaMu.Lock()
	acquired.Metadata = meta
	metaMu.Unlock()
	if len(infos) > 0 && infos[0] != nil {
		acquired.Metadata = acquired.Metadata.Merge(metadataFrom(infos[0]))
	}
	acquired.Metadata.FilePath = acquired.Files[0].Path

	emit(pipeline.ProgressOf(1, "Downloaded"))
	return acquired, nil
}

func (e *Extractor) command(req pipeline.Request, dir string) *ytdlp.Command {
	dl := ytdlp.New().
		ForceOverwrites().
		RestrictFilenames().
		PrintJSON().
		Output(filepath.Join(dir, outputTemplate))

	if req.AllowPlaylist {
		dl.YesPlaylist()
	} else {
		dl.NoPlaylist()
	}

	switch {
	case req.Format.IsVideo():
		dl.Format("bv*+ba/b").MergeOutputFormat("mp4")
	case e.transcodes:
		dl.Format("ba/b").ExtractAudio().AudioFormat("mp3")
	default:
		dl.Format("ba/b")
	}

	if c := req.Credentials; !c.IsZero() {
		if c.Username != "" {
			dl.Username(c.Username).Password(c.Password)
		}
		if c.CookiesFromBrowser != "" {
			dl.CookiesFromBrowser(c.CookiesFromBrowser)
		}
		if c.CookiesFile != "" {
			dl.Cookies(c.CookiesFile)
		}
	}

	return dl
}

func metadataFrom(info *ytdlp.ExtractedInfo) pipeline.Metadata {
	var m pipeline.Metadata
	if info.Title != nil {
		m.Title = *info.Title
	}
	if info.Uploader != nil {
		m.Uploader = *info.Uploader
	}
	if info.Thumbnail != nil {
		m.Thumbnail = *info.Thumbnail
	}
	if info.Duration != nil {
		m.DurationMillis = int64(*info.Duration * 1000)
	}
	return m
}

func progressMessage(u ytdlp.ProgressUpdate) string {
	if eta := u.ETA(); eta > 0 {
		return fmt.Sprintf("Downloading (%s left)", eta.Round(time.Second))
	}
	return "Downloading"
}

// resolveOutput returns the path yt-dlp actually left on disk. The reported
// filename predates post-processing, so an extracted or merged file may
// carry the target extension instead.
func resolveOutput(reported string, format model.TargetFormat, final bool) string {
	if _, err := os.Stat(reported); err == nil {
		return reported
	}
	if final {
		candidate := strings.TrimSuffix(reported, filepath.Ext(reported)) + format.Extension()
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return reported
}

var authMarkers = []string{
	"sign in to confirm",
	"login required",
	"private video",
	"members-only",
	"this video is only available for registered users",
	"use --cookies",
}

// classify maps yt-dlp failures onto the error sentinels.
func classify(err error) error {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return model.NewConversionError(model.KindAcquisitionUnavailable,
			fmt.Errorf("%w: %v", model.ErrExtractorUnavailable, err))
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unsupported url"):
		return fmt.Errorf("%w: %v", model.ErrUnsupportedURL, err)
	case containsAny(msg, authMarkers):
		return fmt.Errorf("%w: %v", model.ErrAuthRequired, err)
	default:
		return fmt.Errorf("yt-dlp: %w", err)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
