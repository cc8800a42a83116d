package session

import (
	"sync"

	"github.com/handiism/vidconv/internal/model"
)

// dispatcher fans states out to subscribers.
//
// Each subscriber owns an unbounded FIFO mailbox drained by its own goroutine,
// so publish never blocks and a subscriber may call back into the controller
// from its callback.
type dispatcher struct {
	mu          sync.Mutex
	subscribers []*subscriber
	closed      bool
}

type subscriber struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []model.ConversionState
	closed bool
	fn     func(model.ConversionState)
}

func newDispatcher() *dispatcher {
	return &dispatcher{}
}

// publish queues s for every current subscriber.
func (d *dispatcher) publish(s model.ConversionState) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, sub := range d.subscribers {
		sub.push(s)
	}
}

// subscribe registers fn. initial, when non-nil, is delivered before any
// later publication.
func (d *dispatcher) subscribe(fn func(model.ConversionState), initial model.ConversionState) (cancel func()) {
	sub := &subscriber{fn: fn}
	sub.cond = sync.NewCond(&sub.mu)
	if initial != nil {
		sub.queue = append(sub.queue, initial)
	}

	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return func() {}
	}
	d.subscribers = append(d.subscribers, sub)
	d.mu.Unlock()

	go sub.run()

	var once sync.Once
	return func() {
		once.Do(func() { d.unsubscribe(sub) })
	}
}

func (d *dispatcher) unsubscribe(s *subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.subscribers {
		if d.subscribers[i] == s {
			d.subscribers[i] = d.subscribers[len(d.subscribers)-1]
			d.subscribers[len(d.subscribers)-1] = nil
			d.subscribers = d.subscribers[:len(d.subscribers)-1]
			break
		}
	}
	s.close()
}

// close stops every delivery goroutine. Pending states are dropped.
func (d *dispatcher) close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for _, s := range d.subscribers {
		s.close()
	}
	d.subscribers = nil
}

func (s *subscriber) push(state model.ConversionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, state)
	s.cond.Signal()
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.queue = nil
	s.cond.Signal()
}

func (s *subscriber) run() {
	for {
		s.mu.Lock()
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed {
			s.mu.Unlock()
			return
		}
		next := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		s.fn(next)
	}
}
