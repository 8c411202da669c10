package codeintel

import (
	"context"
	"sync"
	"time"

	"github.com/pders01/srcview/internal/debuglog"
)

// DefaultPollInterval is the delay between two fetches of a non-terminal index.
const DefaultPollInterval = 5 * time.Second

// Update is the settled result of one fetch.
type Update struct {
	Index *Index
	Err   error
}

// Final reports whether the watcher stops after this update.
func (u Update) Final() bool {
	return u.Err != nil || (u.Index != nil && u.Index.State.IsTerminal())
}

// Watcher polls a single index until it reaches a terminal state or a fetch
// fails. At most one request is in flight; the next one is scheduled only
// after the previous has settled.
type Watcher struct {
	svc      Service
	id       string
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewWatcher returns an idle watcher for id. A non-positive interval means
// DefaultPollInterval.
func NewWatcher(svc Service, id string, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Watcher{svc: svc, id: id, interval: interval}
}

// Start begins polling and returns the update stream, which is closed when
// polling ends. The first fetch is issued immediately. Calling Start on a
// running watcher restarts it.
func (w *Watcher) Start(ctx context.Context) <-chan Update {
	w.Stop()

	ctx, cancel := context.WithCancel(ctx)
	updates := make(chan Update)
	done := make(chan struct{})

	w.mu.Lock()
	w.cancel = cancel
	w.done = done
	w.mu.Unlock()

	go w.run(ctx, updates, done)
	return updates
}

// Stop cancels any pending tick and discards the result of an in-flight
// fetch. It blocks until the polling goroutine has exited.
func (w *Watcher) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.cancel, w.done = nil, nil
	w.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Watcher) run(ctx context.Context, updates chan<- Update, done chan<- struct{}) {
	defer close(done)
	defer close(updates)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		idx, err := w.svc.Index(ctx, w.id)
		if ctx.Err() != nil {
			return
		}
		u := Update{Index: idx, Err: err}
		if err != nil {
			debuglog.Warnf("polling index %s stopped: %v", w.id, err)
		}

		select {
		case updates <- u:
		case <-ctx.Done():
			return
		}

		if u.Final() {
			debuglog.Debugf("polling index %s finished", w.id)
			return
		}
		timer.Reset(w.interval)
	}
}
