package booking

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/hotelops/hotel-backend/internal/model"
	"github.com/hotelops/hotel-backend/internal/queue"
	"github.com/hotelops/hotel-backend/internal/store"
)

// Sweeper periodically alerts on bookings about to check out and archives
// the ones whose check-out has passed.  Each pass is one transaction and
// events are emitted only after it commits.
type Sweeper struct {
	st store.Store
	deps
	running atomic.Bool
}

func NewSweeper(st store.Store, opts Options) *Sweeper {
	if st == nil {
		panic("nil store passed to NewSweeper")
	}
	return &Sweeper{st: st, deps: newDeps(opts)}
}

// Schedule registers the sweeper on a new cron scheduler.  The caller
// starts and stops the returned scheduler.
func (s *Sweeper) Schedule(spec string) (*cron.Cron, error) {
	logger := cron.PrintfLogger(printfLogger{s.log})
	c := cron.New(cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.RunOnce(ctx)
	}); err != nil {
		return nil, fmt.Errorf("sweeper schedule %q: %w", spec, err)
	}
	return c, nil
}

// RunOnce performs both passes.  It returns false without doing anything
// when another run is still in progress.  Pass failures are logged.
func (s *Sweeper) RunOnce(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warnf("sweeper: previous run still in progress, skipping")
		return false
	}
	defer s.running.Store(false)

	now := s.clock()
	if n, err := s.notifyNearExpiry(ctx, now); err != nil {
		s.log.Errorf("sweeper: near-expiry pass: %v", err)
	} else if n > 0 {
		s.log.Infof("sweeper: %d booking(s) checking out soon", n)
	}
	if n, err := s.expireOverdue(ctx, now); err != nil {
		s.log.Errorf("sweeper: expiry pass: %v", err)
	} else if n > 0 {
		s.log.Infof("sweeper: archived %d expired booking(s)", n)
	}
	return true
}

func (s *Sweeper) notifyNearExpiry(ctx context.Context, now time.Time) (int, error) {
	var due []model.BookingView
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		rows, err := tx.LockUnnotifiedCheckingOut(ctx, now, now.Add(s.lead))
		if err != nil || len(rows) == 0 {
			return err
		}
		ids := make([]uint64, len(rows))
		for i, r := range rows {
			ids[i] = r.ID
		}
		if err := tx.MarkNotified(ctx, ids); err != nil {
			return err
		}
		due = rows
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, v := range due {
		s.emit(ctx, s.event(queue.EventNearExpiry, v, now))
	}
	return len(due), nil
}

type expiredBooking struct {
	view model.BookingView
	res  ArchiveResult
}

func (s *Sweeper) expireOverdue(ctx context.Context, now time.Time) (int, error) {
	var done []expiredBooking
	err := s.st.InTx(ctx, func(tx store.Tx) error {
		rows, err := tx.LockOverdue(ctx, now)
		if err != nil {
			return err
		}
		done = done[:0]
		for _, v := range rows {
			res, err := archiveBooking(ctx, tx, v.Booking, model.StatusExpired, "", now)
			if err != nil {
				return fmt.Errorf("booking %d: %w", v.ID, err)
			}
			done = append(done, expiredBooking{view: v, res: res})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	for _, d := range done {
		ev := s.event(queue.EventExpired, d.view, now)
		ev.ArchiveID = d.res.ArchiveID
		ev.Status = d.res.Status
		ev.IncomeChanged = d.res.IncomeMigrated
		s.emit(ctx, ev)
	}
	return len(done), nil
}

// printfLogger adapts Logger to cron's Printf-style logger.
type printfLogger struct{ l Logger }

func (p printfLogger) Printf(format string, args ...interface{}) { p.l.Infof(format, args...) }
