package risibot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ptondereau/risibot/internal/metrics"
	"github.com/ptondereau/risibot/internal/syncutil"
	"github.com/ptondereau/risibot/tg"
)

// InlineHandler handles one inline query. Implemented by *inline.Handler.
type InlineHandler interface {
	Handle(ctx context.Context, q *tg.InlineQuery)
}

// dispatcher fans inline queries out to one goroutine each. Handlers run on
// a base context that is cancelled only once the drain window has elapsed.
type dispatcher struct {
	handler InlineHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
	timeout time.Duration

	base   context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newDispatcher(handler InlineHandler, logger *slog.Logger, m *metrics.Metrics, timeout time.Duration) *dispatcher {
	base, cancel := context.WithCancel(context.Background())
	return &dispatcher{
		handler: handler,
		logger:  logger,
		metrics: m,
		timeout: timeout,
		base:    base,
		cancel:  cancel,
	}
}

// run dispatches updates until stop is closed, then hands off whatever is
// still buffered.
func (d *dispatcher) run(updates <-chan tg.Update, stop <-chan struct{}) {
	for {
		select {
		case u := <-updates:
			d.dispatch(u)
		case <-stop:
			for {
				select {
				case u := <-updates:
					d.dispatch(u)
				default:
					return
				}
			}
		}
	}
}

func (d *dispatcher) dispatch(u tg.Update) {
	kind := u.Kind()
	if kind != tg.UpdateInlineQuery {
		d.logger.Debug("ignoring update", "update_id", u.UpdateID, "kind", kind)
		return
	}

	q := u.InlineQuery
	syncutil.Go(&d.wg, func() {
		d.metrics.HandlerStarted()
		defer d.metrics.HandlerFinished()

		ctx, cancel := context.WithTimeout(d.base, d.timeout)
		defer cancel()
		d.handler.Handle(ctx, q)
	}, func(v any, stack []byte) {
		d.logger.Error("inline query handler panicked",
			"query_id", q.ID,
			"panic", v,
			"stack", string(stack),
		)
	})
}

// drain waits up to window for running handlers, then cancels the rest.
func (d *dispatcher) drain(window time.Duration) {
	if !syncutil.WaitTimeout(&d.wg, window) {
		d.logger.Warn("drain window elapsed, dropping in-flight inline queries", "window", window)
	}
	d.cancel()
}
