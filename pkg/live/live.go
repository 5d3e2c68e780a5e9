// Package live turns one-shot queries into live sequences of snapshots.
//
// A subscription delivers the current result immediately and a fresh result
// after every change notification for the tables the query reads, until it is
// cancelled or the query fails. Each subscription is served by its own
// goroutine, so deliveries for one subscription are strictly ordered and
// independent subscriptions never interfere.
package live

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Invalidator publishes table change notifications.
type Invalidator interface {
	Observe(tables ...string) (<-chan struct{}, func())
}

// Fetcher runs one execution of a query.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Sequence is a source of live snapshots.
type Sequence[T any] interface {
	Subscribe(ctx context.Context) *Subscription[T]
}

// Option configures a Query.
type Option func(*settings)

type settings struct {
	tables []string
	inv    Invalidator
	exec   *Executor
	log    *zap.Logger
}

// WithTables names the tables whose changes trigger a re-query.
func WithTables(tables ...string) Option {
	return func(s *settings) { s.tables = append(s.tables, tables...) }
}

// WithInvalidator sets the change feed. Without one a subscription emits once.
func WithInvalidator(inv Invalidator) Option {
	return func(s *settings) { s.inv = inv }
}

// WithExecutor sets the pool that runs fetches.
func WithExecutor(e *Executor) Option {
	return func(s *settings) {
		if e != nil {
			s.exec = e
		}
	}
}

// WithLogger sets the logger for subscription diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.log = l
		}
	}
}

// Query is a Sequence backed by a Fetcher.
type Query[T any] struct {
	name  string
	fetch Fetcher[T]
	settings
}

// NewQuery creates a live query. name is used in logs only.
func NewQuery[T any](name string, fetch Fetcher[T], opts ...Option) *Query[T] {
	q := &Query[T]{name: name, fetch: fetch}
	q.log = zap.NewNop()
	for _, opt := range opts {
		opt(&q.settings)
	}
	if q.exec == nil {
		q.exec = NewExecutor(DefaultWorkers)
	}
	return q
}

// Name returns the query name.
func (q *Query[T]) Name() string { return q.name }

// Subscribe starts a new subscription. It ends when ctx is done, when Cancel
// is called or when a fetch fails.
func (q *Query[T]) Subscribe(ctx context.Context) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		id:     uuid.NewString(),
		c:      make(chan T),
		done:   make(chan struct{}),
		cancel: cancel,
	}
	// Register before the first fetch so no change between fetch and wait is lost.
	var (
		changed <-chan struct{}
		stop    = func() {}
	)
	if q.inv != nil {
		changed, stop = q.inv.Observe(q.tables...)
	}
	go q.run(ctx, sub, changed, stop)
	return sub
}

func (q *Query[T]) run(ctx context.Context, sub *Subscription[T], changed <-chan struct{}, stop func()) {
	log := q.log.With(zap.String("query", q.name), zap.String("subscription", sub.id))
	log.Debug("subscription started")
	defer func() {
		stop()
		sub.cancel()
		close(sub.c)
		close(sub.done)
		log.Debug("subscription stopped", zap.Error(sub.err))
	}()

	for emitted := 0; ; emitted++ {
		snap, err := Run(ctx, q.exec, q.fetch)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn("query failed", zap.Error(err), zap.Int("emitted", emitted))
			sub.err = err
			return
		}
		select {
		case sub.c <- snap:
		case <-ctx.Done():
			return
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return
		}
	}
}

// Subscription is one consumer's stream of snapshots.
type Subscription[T any] struct {
	id     string
	c      chan T
	done   chan struct{}
	cancel context.CancelFunc
	err    error
}

// ID returns the unique id of the subscription.
func (s *Subscription[T]) ID() string { return s.id }

// C returns the snapshot channel. It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T { return s.c }

// Done is closed once the subscription has fully stopped.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

// Err blocks until the subscription has stopped and returns the query error
// that ended it, or nil if it was cancelled.
func (s *Subscription[T]) Err() error {
	<-s.done
	return s.err
}

// Cancel ends the subscription and waits for its goroutine to stop. Once
// Cancel returns nothing more is delivered on C. An in-flight fetch is not
// aborted; its result is discarded.
func (s *Subscription[T]) Cancel() {
	s.cancel()
	<-s.done
}

// First subscribes to seq, returns its first snapshot and cancels.
func First[T any](ctx context.Context, seq Sequence[T]) (T, error) {
	sub := seq.Subscribe(ctx)
	defer sub.Cancel()
	select {
	case v, ok := <-sub.C():
		if !ok {
			var zero T
			if err := sub.Err(); err != nil {
				return zero, err
			}
			return zero, ctx.Err()
		}
		return v, nil
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
