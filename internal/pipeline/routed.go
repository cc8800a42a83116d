package pipeline

import (
	"context"
	"fmt"

	"github.com/handiism/vidconv/internal/model"
	"github.com/handiism/vidconv/internal/route"
)

// Routed dispatches each request to the platform or direct acquirer chosen
// by a route.Selector.
type Routed struct {
	selector *route.Selector
	platform Acquirer
	direct   Acquirer
}

// NewRouted creates a Routed acquirer. Either acquirer may be nil, in which
// case URLs routed to it fail with model.ErrUnsupportedURL.
func NewRouted(sel *route.Selector, platform, direct Acquirer) *Routed {
	if sel == nil {
		sel = route.DefaultSelector()
	}
	return &Routed{selector: sel, platform: platform, direct: direct}
}

// Acquire implements Acquirer.
func (r *Routed) Acquire(ctx context.Context, req Request, emit func(AcquireEvent)) (Acquired, error) {
	req.URL = route.Normalize(req.URL)
	strategy := r.selector.Select(req.URL)
	acq := r.pick(strategy)
	if acq == nil {
		return Acquired{}, fmt.Errorf("%s acquisition for %s: %w", strategy, req.URL, model.ErrUnsupportedURL)
	}
	return acq.Acquire(ctx, req, emit)
}

// ProducesFinal implements FinalFormatter by asking the chosen acquirer.
func (r *Routed) ProducesFinal(req Request) bool {
	ff, ok := r.pick(r.selector.Select(req.URL)).(FinalFormatter)
	return ok && ff.ProducesFinal(req)
}

func (r *Routed) pick(s route.Strategy) Acquirer {
	if s == route.Platform {
		return r.platform
	}
	return r.direct
}
