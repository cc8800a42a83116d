// Package app wires settings into a ready session controller.
package app

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/handiism/vidconv/internal/audio"
	"github.com/handiism/vidconv/internal/cache"
	"github.com/handiism/vidconv/internal/config"
	"github.com/handiism/vidconv/internal/extract"
	"github.com/handiism/vidconv/internal/history"
	apphttp "github.com/handiism/vidconv/internal/http"
	ioutils "github.com/handiism/vidconv/internal/io"
	"github.com/handiism/vidconv/internal/notify"
	"github.com/handiism/vidconv/internal/pipeline"
	"github.com/handiism/vidconv/internal/route"
	"github.com/handiism/vidconv/internal/session"
	"github.com/handiism/vidconv/internal/transcode"
)

// App holds the collaborators of one session.
type App struct {
	Settings   *config.Settings
	Logger     *slog.Logger
	Selector   *route.Selector
	Extractor  *extract.Extractor
	FFmpeg     *transcode.FFmpeg
	Controller *session.Controller

	// History is nil when history_db_path is empty.
	History *history.Store
}

// NewLogger returns a text logger writing to w.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// New validates settings and builds the session.
func New(settings *config.Settings, logger *slog.Logger) (*App, error) {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	a := &App{Settings: settings, Logger: logger}

	a.Selector = route.DefaultSelector()
	a.Selector.Add(settings.Domains()...)

	client := apphttp.NewClient(
		apphttp.WithTimeout(settings.HTTPTimeout.D()),
		apphttp.WithUserAgent(settings.UserAgent),
		apphttp.WithProgressInterval(settings.ProgressInterval.D()),
		apphttp.WithLogger(logger.With(slog.String("component", "http"))),
	)
	a.Extractor = extract.New(
		extract.WithAudioExtraction(settings.ExtractorTranscodes),
		extract.WithProgressInterval(settings.ProgressInterval.D()),
		extract.WithLogger(logger.With(slog.String("component", "extract"))),
	)
	a.FFmpeg = transcode.NewFFmpeg(
		transcode.WithStallTimeout(settings.FFmpegStallTimeout.D()),
		transcode.WithKeepSource(settings.KeepSourceFile),
		transcode.WithLogger(logger.With(slog.String("component", "ffmpeg"))),
	)
	transcoder := transcode.NewAuto(a.FFmpeg)

	pipeOpts := []pipeline.Option{
		pipeline.WithWeights(settings.Weights()),
		pipeline.WithMaxConcurrentTranscodes(settings.MaxConcurrentTranscodes),
		pipeline.WithLogger(logger.With(slog.String("component", "pipeline"))),
	}
	if settings.TagOutput {
		tagCfg := audio.DefaultTagConfig()
		tagCfg.EmbedArtwork = settings.EmbedThumbnail
		tagCfg.ArtworkMaxSize = settings.ThumbnailMaxSize
		tagger := audio.NewTagger(tagCfg, ioutils.NewArtworkService(client), logger)
		pipeOpts = append(pipeOpts, pipeline.WithTagger(tagger))
	}
	pipe := pipeline.New(pipeline.NewRouted(a.Selector, a.Extractor, client), transcoder, pipeOpts...)

	sinks := notify.Multi{notify.LogSink{Logger: logger}}
	if settings.CreatePlaylist {
		creator := audio.NewPlaylistCreator(settings.Playlist(), settings.M3UExtended)
		sinks = append(sinks, notify.NewPlaylistSink(creator, logger))
	}
	if settings.HistoryDBPath != "" {
		store, err := history.Open(settings.HistoryDBPath, logger)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.History = store
		sinks = append(sinks, store)
	}

	a.Controller = session.New(pipe,
		session.WithCache(cache.New()),
		session.WithSink(sinks),
		session.WithLogger(logger),
		session.WithMetadataGrace(settings.MetadataGrace.D()),
		session.WithTargetFormat(settings.Format()),
		session.WithOutputDir(settings.DownloadsPath),
		session.WithPlaylist(settings.AllowPlaylist),
	)

	return a, nil
}

// Route reports how url would be acquired.
func (a *App) Route(url string) route.Strategy {
	return a.Selector.Select(url)
}

// Close stops the controller and closes the history database.
func (a *App) Close() error {
	a.Controller.Close()
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}
