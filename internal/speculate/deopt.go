package speculate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"tachyon/internal/ir"
	"tachyon/internal/observ"
	"tachyon/internal/trace"
	"tachyon/internal/types"
)

// Recompiler produces a new generation for key. It is called with the
// generation that failed and must be idempotent: when a newer generation
// already exists it returns that one without compiling again.
type Recompiler interface {
	Recompile(ctx context.Context, key FunctionKey, failed uint64) (uint64, error)
}

// RecompilerFunc adapts a function to Recompiler.
type RecompilerFunc func(ctx context.Context, key FunctionKey, failed uint64) (uint64, error)

func (f RecompilerFunc) Recompile(ctx context.Context, key FunctionKey, failed uint64) (uint64, error) {
	return f(ctx, key, failed)
}

// Deopt describes one handled speculation failure.
type Deopt struct {
	Key        FunctionKey
	Point      ir.ProgramPoint
	From       types.Type
	To         types.Type
	Observed   types.Type
	Generation uint64 // generation that failed
	Next       uint64 // generation to retry on
	Changed    bool   // false when another invocation widened first
	At         time.Time
}

func (d Deopt) String() string {
	return fmt.Sprintf("%s pp=%d %s->%s (saw %s) gen %d->%d", d.Key, d.Point, d.From, d.To, d.Observed, d.Generation, d.Next)
}

// DivergedError is returned when an invocation keeps deoptimizing past the
// restart bound.
type DivergedError struct {
	Key      FunctionKey
	Restarts int
}

func (e *DivergedError) Error() string {
	return fmt.Sprintf("%s did not converge after %d restarts", e.Key, e.Restarts)
}

// RestartBound is the most restarts an invocation touching points program
// points can need: each failure widens one point by at least one lattice
// step.
func RestartBound(points int) int {
	return points*types.Height + 1
}

// WidenTarget is the type a failed point moves to: the join of the assumed
// and observed types, or one step along the widening chain when the join is
// no wider than the assumption.
func WidenTarget(assumed, observed types.Type) types.Type {
	t := types.Join(assumed, observed)
	if !assumed.NarrowerThan(t) {
		t = assumed.Next()
	}
	return t
}

const deoptLogSize = 256

// Controller turns speculation failures into widened store entries and new
// generations.
type Controller struct {
	store      *Store
	recompiler Recompiler
	log        zerolog.Logger
	group      singleflight.Group

	mu      sync.Mutex
	history []Deopt
	hooks   []func(Deopt)
}

func NewController(store *Store, r Recompiler, log zerolog.Logger) *Controller {
	return &Controller{store: store, recompiler: r, log: log}
}

// OnDeopt registers fn to be called after each handled failure.
func (c *Controller) OnDeopt(fn func(Deopt)) {
	c.mu.Lock()
	c.hooks = append(c.hooks, fn)
	c.mu.Unlock()
}

// Handle widens the failed point and returns the generation to restart on.
// Concurrent failures of the same generation share one recompilation.
func (c *Controller) Handle(ctx context.Context, sig *Signal) (uint64, error) {
	return c.HandleAll(ctx, []*Signal{sig})
}

// HandleAll widens every point in sigs and recompiles once. The failures
// must come from one generation of one key, as when an attempt ran past
// checks it could not abandon.
func (c *Controller) HandleAll(ctx context.Context, sigs []*Signal) (uint64, error) {
	if len(sigs) == 0 {
		return 0, errors.New("speculate: no failures to handle")
	}
	first := sigs[0]
	ds := make([]Deopt, len(sigs))
	for i, sig := range sigs {
		if sig.Key != first.Key || sig.Generation != first.Generation {
			return 0, fmt.Errorf("speculate: failure of %s generation %d handled with %s generation %d",
				sig.Key, sig.Generation, first.Key, first.Generation)
		}
		to := WidenTarget(sig.Assumed, sig.Observed())
		ds[i] = Deopt{
			Key:        sig.Key,
			Point:      sig.Point,
			From:       sig.Assumed,
			To:         to,
			Observed:   sig.Observed(),
			Generation: sig.Generation,
			Changed:    c.store.Widen(sig.Key, sig.Point, to),
		}
	}

	flight := first.Key.Function + "|" + first.Key.Context + "|" + strconv.FormatUint(first.Generation, 10)
	v, err, _ := c.group.Do(flight, func() (any, error) {
		return c.recompiler.Recompile(ctx, first.Key, first.Generation)
	})
	if err != nil {
		c.log.Error().Err(err).Str("fn", first.Key.String()).Int32("pp", int32(first.Point)).Msg("recompile after deopt failed")
		return 0, fmt.Errorf("recompile %s: %w", first.Key, err)
	}
	next := v.(uint64)

	now := time.Now()
	for i := range ds {
		d := &ds[i]
		d.Next = next
		d.At = now
		observ.RecordDeopt(d.To.String())
		trace.Point(trace.FromContext(ctx), trace.ScopeFunction, "deopt", d.String())
		c.log.Debug().
			Str("fn", d.Key.String()).
			Int32("pp", int32(d.Point)).
			Stringer("from", d.From).
			Stringer("to", d.To).
			Uint64("generation", next).
			Bool("changed", d.Changed).
			Msg("deoptimized")
	}

	c.mu.Lock()
	for _, d := range ds {
		if len(c.history) == deoptLogSize {
			copy(c.history, c.history[1:])
			c.history = c.history[:deoptLogSize-1]
		}
		c.history = append(c.history, d)
	}
	hooks := slices.Clone(c.hooks)
	c.mu.Unlock()
	for _, d := range ds {
		for _, h := range hooks {
			h(d)
		}
	}
	return next, nil
}

// History returns the most recent deopts, oldest first.
func (c *Controller) History() []Deopt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Deopt(nil), c.history...)
}

func (c *Controller) Store() *Store { return c.store }
