// Package notify delivers booking events after their transaction commits:
// to RabbitMQ for durable consumers and to a Redis channel that the SSE
// endpoint relays to dashboards.  Delivery is best-effort; callers log
// errors and move on.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/hotelops/hotel-backend/internal/queue"
)

// Notifier delivers one event.
type Notifier interface {
	Emit(ctx context.Context, ev queue.Event) error
}

// Fanout emits to every notifier concurrently and joins their errors.  A
// failing or slow notifier does not hold up the others.
type Fanout []Notifier

func (f Fanout) Emit(ctx context.Context, ev queue.Event) error {
	errs := make([]error, len(f))
	var wg sync.WaitGroup
	for i, n := range f {
		if n == nil {
			continue
		}
		wg.Add(1)
		go func(i int, n Notifier) {
			defer wg.Done()
			errs[i] = n.Emit(ctx, ev)
		}(i, n)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, ev queue.Event) error

func (f Func) Emit(ctx context.Context, ev queue.Event) error { return f(ctx, ev) }

func encode(ev queue.Event) ([]byte, error) { return json.Marshal(ev) }
