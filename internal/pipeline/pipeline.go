package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/vidconv/internal/model"
)

// ErrNothingAcquired is returned when an acquirer reports success without
// producing a file.
var ErrNothingAcquired = errors.New("acquisition produced no files")

// Hooks receive out-of-band information during Run. Both are optional.
type Hooks struct {
	OnProgress func(model.ProgressEvent)
	OnMetadata func(Metadata)
}

// Output is what a successful Run produced.
type Output struct {
	Items    []model.VideoItem
	Metadata Metadata
}

// Pipeline wires an Acquirer and a Transcoder into one conversion run.
type Pipeline struct {
	acquirer      Acquirer
	transcoder    Transcoder
	tagger        Tagger
	weights       Weights
	maxConcurrent int
	logger        *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWeights sets the phase weights.
func WithWeights(w Weights) Option {
	return func(p *Pipeline) { p.weights = w }
}

// WithTagger enables tagging of MP3 outputs.
func WithTagger(t Tagger) Option {
	return func(p *Pipeline) { p.tagger = t }
}

// WithMaxConcurrentTranscodes bounds how many items are transcoded at once.
func WithMaxConcurrentTranscodes(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxConcurrent = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Pipeline.
func New(acquirer Acquirer, transcoder Transcoder, opts ...Option) *Pipeline {
	p := &Pipeline{
		acquirer:      acquirer,
		transcoder:    transcoder,
		weights:       DefaultWeights(),
		maxConcurrent: 2,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one conversion.
//
// Progress and metadata are delivered through hooks while Run executes; no
// hook is called after Run returns. On failure the returned error is a
// *model.ConversionError, or ctx.Err() when ctx was cancelled.
func (p *Pipeline) Run(ctx context.Context, req Request, hooks Hooks) (Output, error) {
	weights := p.weights
	if ff, ok := p.acquirer.(FinalFormatter); ok && ff.ProducesFinal(req) {
		weights = weights.Folded()
	}

	agg := NewAggregator(weights, hooks.OnProgress)

	var (
		metaMu sync.Mutex
		meta   Metadata
	)
	onMetadata := func(m Metadata) {
		metaMu.Lock()
		meta = meta.Merge(m)
		metaMu.Unlock()
		if hooks.OnMetadata != nil {
			hooks.OnMetadata(m)
		}
	}
	metaSnapshot := func() Metadata {
		metaMu.Lock()
		defer metaMu.Unlock()
		return meta
	}

	acquired, err := p.acquirer.Acquire(ctx, req, func(ev AcquireEvent) {
		switch {
		case ev.Progress != nil:
			agg.Acquire(*ev.Progress)
		case ev.Metadata != nil:
			onMetadata(*ev.Metadata)
		}
	})
	if err != nil {
		if ctx.Err() != nil {
			return Output{}, ctx.Err()
		}
		return Output{}, model.NewConversionError(model.KindAcquisitionFailed, err)
	}
	if len(acquired.Files) == 0 {
		return Output{}, model.NewConversionError(model.KindAcquisitionFailed, ErrNothingAcquired)
	}

	final := acquired.Metadata
	if final.FilePath == "" {
		final.FilePath = acquired.Files[0].Path
	}
	if !final.IsZero() {
		onMetadata(final)
	}

	p.logger.DebugContext(ctx, "acquisition finished",
		slog.String("url", req.URL),
		slog.Int("files", len(acquired.Files)),
	)

	items, err := p.transcodeAll(ctx, req, acquired.Files, agg)
	if err != nil {
		if ctx.Err() != nil {
			return Output{}, ctx.Err()
		}
		return Output{}, model.NewConversionError(model.KindTranscodeFailed, err)
	}

	meta = metaSnapshot()
	if len(items) == 1 {
		if items[0].Title == "" || items[0].Title == titleFromPath(items[0].FilePath) {
			if meta.Title != "" {
				items[0].Title = meta.Title
			}
		}
		if items[0].Thumbnail == "" {
			items[0].Thumbnail = meta.Thumbnail
		}
	}

	if req.Format == model.FormatMP3 && p.tagger != nil {
		p.tagAll(ctx, items, meta)
	}

	agg.Complete("Done")

	return Output{Items: items, Metadata: meta}, nil
}

func (p *Pipeline) transcodeAll(ctx context.Context, req Request, files []AcquiredFile, agg *Aggregator) ([]model.VideoItem, error) {
	agg.StartTranscode(len(files))

	items := make([]model.VideoItem, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)

	for i, f := range files {
		g.Go(func() error {
			out, err := p.transcoder.Transcode(gctx, f.Path, req.Format, func(ev model.ProgressEvent) {
				agg.Transcode(i, ev)
			})
			if err != nil {
				return fmt.Errorf("transcode %s: %w", filepath.Base(f.Path), err)
			}
			agg.FinishItem(i, "Converted")

			items[i] = toItem(f, out)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return items, nil
}

func (p *Pipeline) tagAll(ctx context.Context, items []model.VideoItem, meta Metadata) {
	for _, item := range items {
		if !strings.EqualFold(filepath.Ext(item.FilePath), ".mp3") {
			continue
		}
		m := meta
		if len(items) > 1 {
			m.Title = item.Title
			m.Thumbnail = item.Thumbnail
			m.DurationMillis = item.DurationMillis
		}
		if err := p.tagger.Tag(ctx, item, m); err != nil {
			p.logger.WarnContext(ctx, "tagging failed",
				slog.String("file", item.FilePath),
				slog.Any("error", err),
			)
		}
	}
}

func toItem(f AcquiredFile, out Transcoded) model.VideoItem {
	path := out.OutputPath
	if path == "" {
		path = f.Path
	}

	size := out.SizeBytes
	if size <= 0 {
		if fi, err := os.Stat(path); err == nil {
			size = fi.Size()
		}
	}

	duration := out.DurationMillis
	if duration <= 0 {
		duration = f.DurationMillis
	}

	title := f.Title
	if title == "" {
		title = titleFromPath(path)
	}

	return model.VideoItem{
		Title:          title,
		FileName:       filepath.Base(path),
		FileSizeBytes:  size,
		FilePath:       path,
		Thumbnail:      f.Thumbnail,
		DurationMillis: duration,
	}
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
