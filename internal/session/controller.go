package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/handiism/vidconv/internal/cache"
	"github.com/handiism/vidconv/internal/model"
	"github.com/handiism/vidconv/internal/pipeline"
)

// PreparingMessage is the message of the first InProgress state of an attempt.
const PreparingMessage = "Preparing…"

// DefaultMetadataGrace is how long a finished attempt waits for a title.
const DefaultMetadataGrace = 750 * time.Millisecond

// Runner performs one conversion. *pipeline.Pipeline implements it.
type Runner interface {
	Run(ctx context.Context, req pipeline.Request, hooks pipeline.Hooks) (pipeline.Output, error)
}

// NotificationSink is told about every successful attempt exactly once.
type NotificationSink interface {
	OnCompleted(ctx context.Context, result *model.ConversionResult)
}

// Controller owns the single live conversion attempt of a session and
// publishes its state.
//
// Every attempt gets a new generation. A state is published only while its
// generation is current and the attempt has not reached a terminal state, so
// observers never see output of a superseded or cancelled attempt.
type Controller struct {
	runner        Runner
	cache         *cache.Cache
	sink          NotificationSink
	logger        *slog.Logger
	metadataGrace time.Duration
	onSuperseded  func(generation uint64, url string)

	baseCtx    context.Context
	baseCancel context.CancelFunc
	dispatcher *dispatcher
	wg         sync.WaitGroup

	mu            sync.Mutex
	gen           uint64
	state         model.ConversionState
	live          *attempt
	format        model.TargetFormat
	outputDir     string
	allowPlaylist bool
}

// attempt is the slot of one conversion attempt. done is guarded by the
// controller mutex.
type attempt struct {
	id    uuid.UUID
	url   string
	gen   uint64
	creds *model.Credentials

	cancel context.CancelFunc
	done   bool

	metaMu     sync.Mutex
	meta       pipeline.Metadata
	titleReady chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithCache sets the result cache. A private cache is used otherwise.
func WithCache(c *cache.Cache) Option {
	return func(ctl *Controller) {
		if c != nil {
			ctl.cache = c
		}
	}
}

// WithSink sets the completion sink.
func WithSink(s NotificationSink) Option {
	return func(ctl *Controller) { ctl.sink = s }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(ctl *Controller) {
		if l != nil {
			ctl.logger = l
		}
	}
}

// WithMetadataGrace sets how long completion waits for a missing title.
func WithMetadataGrace(d time.Duration) Option {
	return func(ctl *Controller) {
		if d >= 0 {
			ctl.metadataGrace = d
		}
	}
}

// WithSupersededHook registers fn to be called whenever a live attempt is
// replaced by a newer Start. Supersession never produces a public state.
func WithSupersededHook(fn func(generation uint64, url string)) Option {
	return func(ctl *Controller) { ctl.onSuperseded = fn }
}

// WithTargetFormat sets the initial target format.
func WithTargetFormat(f model.TargetFormat) Option {
	return func(ctl *Controller) { ctl.format = f }
}

// WithOutputDir sets where files are written.
func WithOutputDir(dir string) Option {
	return func(ctl *Controller) { ctl.outputDir = dir }
}

// WithPlaylist lets platform URLs produce several files.
func WithPlaylist(allow bool) Option {
	return func(ctl *Controller) { ctl.allowPlaylist = allow }
}

// WithBaseContext sets the parent context of every attempt.
func WithBaseContext(ctx context.Context) Option {
	return func(ctl *Controller) {
		if ctx != nil {
			ctl.baseCtx = ctx
		}
	}
}

// New creates a Controller in the Idle state.
func New(runner Runner, opts ...Option) *Controller {
	c := &Controller{
		runner:        runner,
		cache:         cache.New(),
		logger:        slog.Default(),
		metadataGrace: DefaultMetadataGrace,
		baseCtx:       context.Background(),
		dispatcher:    newDispatcher(),
		state:         model.Idle{},
		format:        model.FormatMP3,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.baseCtx, c.baseCancel = context.WithCancel(c.baseCtx)
	return c
}

// Start begins converting url and returns the attempt's generation.
//
// If an attempt for the same url is already in progress nothing happens and
// started is false. Any other live attempt is superseded silently.
func (c *Controller) Start(url string, creds *model.Credentials) (generation uint64, started bool) {
	c.mu.Lock()

	if a := c.live; a != nil && !a.done && a.url == url {
		if s, ok := c.state.(model.InProgress); ok && s.Gen == c.gen {
			c.mu.Unlock()
			return c.gen, false
		}
	}

	var superseded *attempt
	if a := c.live; a != nil && !a.done {
		a.done = true
		a.cancel()
		superseded = a
	}

	c.gen++
	a := &attempt{
		id:         newAttemptID(),
		url:        url,
		gen:        c.gen,
		creds:      creds,
		titleReady: make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(c.baseCtx)
	a.cancel = cancel
	c.live = a

	c.cache.Invalidate(url)
	c.publishLocked(model.InProgress{
		Progress: model.ProgressEvent{Fraction: 0, Message: PreparingMessage},
		Gen:      a.gen,
	})

	req := pipeline.Request{
		URL:           url,
		Format:        c.format,
		Credentials:   creds,
		OutputDir:     c.outputDir,
		AllowPlaylist: c.allowPlaylist,
	}

	c.wg.Add(1)
	go c.run(ctx, a, req)
	c.mu.Unlock()

	if superseded != nil {
		c.logger.Info("attempt superseded",
			slog.Uint64("generation", superseded.gen),
			slog.String("attempt_id", superseded.id.String()),
			slog.String("url", superseded.url),
			slog.Uint64("by_generation", a.gen),
		)
		if c.onSuperseded != nil {
			c.onSuperseded(superseded.gen, superseded.url)
		}
	}

	attrs := []any{
		slog.Uint64("generation", a.gen),
		slog.String("attempt_id", a.id.String()),
		slog.String("url", url),
		slog.String("format", req.Format.String()),
	}
	if !creds.IsZero() {
		attrs = append(attrs, slog.Any("credentials", creds.Redacted()))
	}
	c.logger.Info("attempt started", attrs...)

	return a.gen, true
}

// Cancel stops the live attempt and publishes Cancelled. It returns false
// when there was nothing to cancel.
func (c *Controller) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := c.live
	if a == nil || a.done {
		return false
	}
	a.done = true
	a.cancel()
	c.publishLocked(model.Cancelled{Gen: a.gen})

	c.logger.Info("attempt cancelled",
		slog.Uint64("generation", a.gen),
		slog.String("attempt_id", a.id.String()),
	)
	return true
}

// Reset cancels the live attempt without a Cancelled state and returns to
// Idle.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if a := c.live; a != nil && !a.done {
		a.done = true
		a.cancel()
	}
	c.live = nil
	c.publishLocked(model.Idle{})
}

// State returns the current state.
func (c *Controller) State() model.ConversionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Generation returns the generation of the most recent attempt, 0 before
// the first Start.
func (c *Controller) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Result returns the cached result for url.
func (c *Controller) Result(url string) (*model.ConversionResult, bool) {
	return c.cache.Get(url)
}

// TargetFormat returns the format used by the next Start.
func (c *Controller) TargetFormat() model.TargetFormat {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

// SetTargetFormat changes the format used by the next Start. The live attempt
// keeps the format it started with.
func (c *Controller) SetTargetFormat(f model.TargetFormat) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.format = f
}

// Subscribe calls fn with the current state and then with every later state,
// in publication order, on a goroutine owned by the subscription. The
// returned function ends the subscription.
func (c *Controller) Subscribe(fn func(model.ConversionState)) (cancel func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatcher.subscribe(fn, c.state)
}

// Close cancels the live attempt, waits for its goroutine and stops every
// subscription.
func (c *Controller) Close() {
	c.mu.Lock()
	if a := c.live; a != nil && !a.done {
		a.done = true
	}
	c.mu.Unlock()

	c.baseCancel()
	c.wg.Wait()
	c.dispatcher.close()
}

// publishLocked must be called with c.mu held.
func (c *Controller) publishLocked(s model.ConversionState) {
	c.state = s
	c.dispatcher.publish(s)
}

// publishFor publishes s only while a is the live, non-terminal attempt of
// the current generation. terminal marks a as done in the same critical
// section. It reports whether s was published.
func (c *Controller) publishFor(a *attempt, s model.ConversionState, terminal bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.live != a || a.done || a.gen != c.gen {
		return false
	}
	if terminal {
		a.done = true
	}
	c.publishLocked(s)
	return true
}

func (c *Controller) run(ctx context.Context, a *attempt, req pipeline.Request) {
	defer c.wg.Done()
	defer a.cancel()

	logger := c.logger.With(
		slog.Uint64("generation", a.gen),
		slog.String("attempt_id", a.id.String()),
		slog.String("url", a.url),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("attempt panicked", slog.Any("panic", r))
			c.publishFor(a, model.Failed{
				Reason: fmt.Sprintf("internal error: %v", r),
				Kind:   model.KindAcquisitionFailed,
				Gen:    a.gen,
			}, true)
		}
	}()

	out, err := c.runner.Run(ctx, req, pipeline.Hooks{
		OnProgress: func(ev model.ProgressEvent) {
			c.publishFor(a, model.InProgress{Progress: ev, Gen: a.gen}, false)
		},
		OnMetadata: a.setMetadata,
	})
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug("attempt interrupted", slog.Any("error", err))
			return
		}
		kind := model.KindOf(err)
		if kind == model.KindCancelledByUser || kind == model.KindSuperseded {
			logger.Debug("attempt stopped", slog.String("kind", kind.String()))
			return
		}
		if c.publishFor(a, model.Failed{Reason: err.Error(), Kind: kind, Gen: a.gen}, true) {
			logger.Warn("attempt failed", slog.String("kind", kind.String()), slog.Any("error", err))
		}
		return
	}

	meta, ok := a.awaitTitle(ctx, c.metadataGrace)
	if !ok {
		logger.Debug("attempt interrupted during metadata grace")
		return
	}
	meta = meta.Merge(out.Metadata)

	result := model.NewConversionResult(a.url, req.Format, meta.Title, meta.Thumbnail, out.Items)

	c.mu.Lock()
	if c.live != a || a.done || a.gen != c.gen {
		c.mu.Unlock()
		logger.Debug("result discarded", slog.String("reason", "attempt no longer current"))
		return
	}
	a.done = true
	c.cache.Put(a.url, result)
	c.publishLocked(model.Succeeded{Result: result, Gen: a.gen})
	c.mu.Unlock()

	logger.Info("attempt succeeded",
		slog.String("file", result.FilePath),
		slog.Int("items", len(result.Items)),
		slog.Int64("bytes", result.FileSizeBytes),
	)

	if c.sink != nil {
		c.sink.OnCompleted(context.WithoutCancel(ctx), result)
	}
}

func (a *attempt) setMetadata(m pipeline.Metadata) {
	a.metaMu.Lock()
	defer a.metaMu.Unlock()
	hadTitle := a.meta.Title != ""
	a.meta = a.meta.Merge(m)
	if !hadTitle && a.meta.Title != "" {
		close(a.titleReady)
	}
}

func (a *attempt) metadata() pipeline.Metadata {
	a.metaMu.Lock()
	defer a.metaMu.Unlock()
	return a.meta
}

// awaitTitle waits at most grace for a title to arrive. ok is false when ctx
// ends first.
func (a *attempt) awaitTitle(ctx context.Context, grace time.Duration) (pipeline.Metadata, bool) {
	if m := a.metadata(); m.Title != "" || grace <= 0 {
		return m, ctx.Err() == nil
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-a.titleReady:
	case <-timer.C:
	case <-ctx.Done():
		return pipeline.Metadata{}, false
	}
	return a.metadata(), true
}

func newAttemptID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
