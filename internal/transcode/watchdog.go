package transcode

import "time"

// watchdog calls its callback once the interval elapses without a Kick.
type watchdog struct {
	interval time.Duration
	timer    *time.Timer
}

func newWatchdog(interval time.Duration, callback func()) *watchdog {
	return &watchdog{
		interval: interval,
		timer:    time.AfterFunc(interval, callback),
	}
}

func (w *watchdog) Stop() {
	w.timer.Stop()
}

func (w *watchdog) Kick() {
	w.timer.Stop()
	w.timer.Reset(w.interval)
}
