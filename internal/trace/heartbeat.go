package trace

import (
	"fmt"
	"sync"
	"time"
)

// Heartbeat emits a driver-scope event every interval while a long
// search runs. Beats without budget span ends mean the search is still
// enumerating one depth; lowering --max-depth is the usual cure.
type Heartbeat struct {
	tracer   Tracer
	interval time.Duration
	started  time.Time
	done     chan struct{}
	stopped  sync.WaitGroup
	stopOnce sync.Once
}

// StartHeartbeat returns nil when tracing is off or interval is not
// positive; Stop on nil is a no-op.
func StartHeartbeat(tracer Tracer, interval time.Duration) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{
		tracer:   tracer,
		interval: interval,
		started:  time.Now(),
		done:     make(chan struct{}),
	}
	h.stopped.Add(1)
	go h.loop()
	return h
}

func (h *Heartbeat) loop() {
	defer h.stopped.Done()
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for beat := 1; ; beat++ {
		select {
		case now := <-ticker.C:
			h.tracer.Emit(&Event{
				Time:   now,
				Seq:    NextSeq(),
				Kind:   KindHeartbeat,
				Scope:  ScopeDriver,
				GID:    getGoroutineID(),
				Name:   "heartbeat",
				Detail: fmt.Sprintf("#%d after %s", beat, now.Sub(h.started).Round(time.Millisecond)),
			})
		case <-h.done:
			return
		}
	}
}

// Stop ends the beat and waits for the goroutine. Safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.stopOnce.Do(func() { close(h.done) })
	h.stopped.Wait()
}
