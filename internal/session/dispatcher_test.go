package session

import (
	"testing"
	"time"

	"github.com/handiism/vidconv/internal/model"
)

func TestDispatcher_OrderedDelivery(t *testing.T) {
	d := newDispatcher()
	defer d.close()

	got := make(chan model.ConversionState, 16)
	cancel := d.subscribe(func(s model.ConversionState) { got <- s }, model.Idle{})
	defer cancel()

	for i := uint64(1); i <= 5; i++ {
		d.publish(model.InProgress{Gen: i})
	}

	if s := <-got; s != (model.Idle{}) {
		t.Fatalf("first delivery = %v, want the initial state", s)
	}
	for i := uint64(1); i <= 5; i++ {
		select {
		case s := <-got:
			if gen, _ := s.Generation(); gen != i {
				t.Errorf("delivery %d has generation %d", i, gen)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("delivery timed out")
		}
	}
}

func TestDispatcher_PublishDoesNotBlockOnSlowSubscriber(t *testing.T) {
	d := newDispatcher()
	defer d.close()

	release := make(chan struct{})
	cancel := d.subscribe(func(model.ConversionState) { <-release }, nil)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			d.publish(model.InProgress{Gen: uint64(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
	close(release)
}

func TestDispatcher_Unsubscribe(t *testing.T) {
	d := newDispatcher()
	defer d.close()

	got := make(chan model.ConversionState, 4)
	cancel := d.subscribe(func(s model.ConversionState) { got <- s }, nil)
	cancel()
	cancel()

	d.publish(model.Cancelled{Gen: 1})

	select {
	case s := <-got:
		t.Errorf("delivered after unsubscribe: %v", s)
	case <-time.After(50 * time.Millisecond):
	}
}
