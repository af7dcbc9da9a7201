// Package ticker runs periodic tasks that share one cancellation handle.
package ticker

import (
	"context"
	"sync"
	"time"
)

// Task is a named callback fired every Interval.
type Task struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context, now time.Time)
}

// Handle stops every task started with it.
type Handle struct {
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// Start launches each task on its own goroutine. Tasks stop when ctx is done
// or Stop is called. A tick already running is allowed to finish.
func Start(ctx context.Context, tasks ...Task) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel}
	for _, task := range tasks {
		if task.Interval <= 0 || task.Run == nil {
			continue
		}
		h.wg.Add(1)
		go h.loop(ctx, task)
	}
	return h
}

func (h *Handle) loop(ctx context.Context, task Task) {
	defer h.wg.Done()
	t := time.NewTicker(task.Interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			// a tick and a cancel can race; cancelled wins
			if ctx.Err() != nil {
				return
			}
			task.Run(ctx, now)
		}
	}
}

// Stop cancels all tasks and waits for them to return. Safe to call twice.
func (h *Handle) Stop() {
	h.once.Do(h.cancel)
	h.wg.Wait()
}

// Wait blocks until every task has returned.
func (h *Handle) Wait() {
	h.wg.Wait()
}
