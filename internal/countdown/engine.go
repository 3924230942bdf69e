package countdown

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jgivc/harmonyfest/internal/clock"
	"github.com/jgivc/harmonyfest/internal/common"
)

const (
	DefaultPeriod = time.Second
)

// TickFunc receives every sample. Calls never overlap.
type TickFunc func(Sample)

// Ticker is the periodic source driving an engine handle.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

type stdTicker struct {
	t *time.Ticker
}

func (s stdTicker) C() <-chan time.Time {
	return s.t.C
}

func (s stdTicker) Stop() {
	s.t.Stop()
}

func newStdTicker(d time.Duration) Ticker {
	return stdTicker{t: time.NewTicker(d)}
}

type Option func(*Engine)

func WithPeriod(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.period = d
		}
	}
}

func WithTicker(f TickerFactory) Option {
	return func(e *Engine) {
		if f != nil {
			e.newTicker = f
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// Engine starts countdown handles. One Engine may serve many handles; each
// handle has its own ticker and goroutine.
type Engine struct {
	clock     clock.Clock
	period    time.Duration
	newTicker TickerFactory
	log       *slog.Logger
}

func NewEngine(c clock.Clock, opts ...Option) *Engine {
	if c == nil {
		c = clock.NewSystem()
	}

	e := &Engine{
		clock:     c,
		period:    DefaultPeriod,
		newTicker: newStdTicker,
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.log = e.log.With(slog.String("item", "CountdownEngine"))

	return e
}

func (e *Engine) Period() time.Duration {
	return e.period
}

// Now computes the sample for target at the current clock reading.
func (e *Engine) Now(target time.Time) (Sample, error) {
	now, err := e.now()
	if err != nil {
		return Sample{}, err
	}

	return Compute(target, now), nil
}

func (e *Engine) now() (time.Time, error) {
	now := e.clock.Now()
	if now.IsZero() {
		return time.Time{}, common.ErrClockUnavailable
	}

	return now, nil
}

// Start begins emitting samples for target every period, the first one a
// full period after activation. When the target is already reached the
// zero sample is delivered before Start returns and the handle is done.
// A clock without usable time fails Start.
//
// The handle stops on Cancel, when ctx is done, after the reached sample or
// on a clock failure. onTick may cancel its own handle.
func (e *Engine) Start(ctx context.Context, target time.Time, onTick TickFunc) (*Handle, error) {
	if onTick == nil {
		return nil, common.ErrNilTickFunc
	}

	now, err := e.now()
	if err != nil {
		return nil, err
	}

	h := newHandle()

	first := Compute(target, now)
	if first.Reached {
		h.last = first
		onTick(first)
		close(h.done)

		return h, nil
	}

	h.last = first

	go e.run(ctx, h, target, onTick)

	return h, nil
}

func (e *Engine) run(ctx context.Context, h *Handle, target time.Time, onTick TickFunc) {
	defer close(h.done)

	t := e.newTicker(e.period)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.stop:
			return
		case <-t.C():
		}

		// A tick may become ready together with cancellation.
		select {
		case <-ctx.Done():
			return
		case <-h.stop:
			return
		default:
		}

		now, err := e.now()
		if err != nil {
			e.log.Error("Cannot read clock", slog.Any("error", err))
			h.setErr(err)

			return
		}

		s := Compute(target, now)
		if !s.Reached && s.TotalSeconds() > h.last.TotalSeconds() {
			e.log.Warn("Clock moved backwards", slog.String("sample", s.String()), slog.String("last", h.last.String()))
			s = h.last
		}

		h.setLast(s)
		h.delivering.Store(true)
		onTick(s)
		h.delivering.Store(false)

		if s.Reached {
			return
		}
	}
}

// Handle controls one running countdown.
type Handle struct {
	stop       chan struct{}
	done       chan struct{}
	once       sync.Once
	delivering atomic.Bool

	mu   sync.Mutex
	err  error
	last Sample
}

func newHandle() *Handle {
	return &Handle{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Cancel stops future ticks and waits for the handle to finish. While a
// tick is being delivered it returns at once, so onTick can call it; other
// goroutines then wait on Done for the tick to return. Cancel is idempotent
// and safe after the handle stopped by itself.
func (h *Handle) Cancel() {
	h.once.Do(func() {
		close(h.stop)
	})

	if h.delivering.Load() {
		return
	}

	<-h.done
}

// Done is closed once no more ticks will be delivered.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Err reports why the handle stopped, nil unless the clock failed.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}

// Last returns the most recent sample computed by the handle.
func (h *Handle) Last() Sample {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.last
}

func (h *Handle) setErr(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

func (h *Handle) setLast(s Sample) {
	h.mu.Lock()
	h.last = s
	h.mu.Unlock()
}
