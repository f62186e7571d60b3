package booking

import (
	"context"
	"time"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/queue"
)

// Notifier delivers events to real-time clients and the broker.
type Notifier interface {
	Emit(ctx context.Context, ev queue.Event) error
}

// Logger is the subset of echo's logger used by the engine and sweeper.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Options configures Service and Sweeper.  Zero fields get defaults.
type Options struct {
	Notifier Notifier
	Logger   Logger
	// Lead is how far ahead of check-out a near-expiry alert fires.
	Lead     time.Duration
	Location *time.Location
	Now      func() time.Time
}

const defaultLead = 10 * time.Minute

type nopNotifier struct{}

func (nopNotifier) Emit(context.Context, queue.Event) error { return nil }

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

type deps struct {
	notifier Notifier
	log      Logger
	lead     time.Duration
	loc      *time.Location
	now      func() time.Time
}

func newDeps(o Options) deps {
	d := deps{notifier: o.Notifier, log: o.Logger, lead: o.Lead, loc: o.Location, now: o.Now}
	if d.notifier == nil {
		d.notifier = nopNotifier{}
	}
	if d.log == nil {
		d.log = nopLogger{}
	}
	if d.lead <= 0 {
		d.lead = defaultLead
	}
	if d.loc == nil {
		d.loc = time.UTC
	}
	if d.now == nil {
		d.now = time.Now
	}
	return d
}

func (d deps) clock() time.Time { return d.now().UTC() }

func (d deps) event(name string, v model.BookingView, at time.Time) queue.Event {
	return queue.Event{
		Name:       name,
		BookingID:  v.ID,
		ClientID:   v.ClientID,
		ClientName: v.ClientName,
		RoomID:     v.RoomID,
		RoomNumber: v.RoomNumber,
		CheckOut:   FormatWire(v.CheckOut, d.loc),
		Status:     v.Status,
		Value:      v.Value.StringFixed(2),
		OccurredAt: FormatWire(at, d.loc),
	}
}

// emit is best-effort: the transaction already committed.
func (d deps) emit(ctx context.Context, ev queue.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := d.notifier.Emit(ctx, ev); err != nil {
		d.log.Warnf("emit %s for booking %d: %v", ev.Name, ev.BookingID, err)
	}
}
