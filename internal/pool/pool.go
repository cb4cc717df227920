// Package pool mediates every use of the database. Callers hand it a unit
// of work; the pool acquires a slot and a dedicated connection, runs the work
// on a worker goroutine and always gives both back.
package pool

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// Default pool settings.
const (
	DefaultMaxConns       = 8
	DefaultAcquireTimeout = 2 * time.Second
)

// Config bounds the pool.
type Config struct {
	// MaxConns is the number of slots, i.e. concurrent units of work.
	MaxConns int
	// AcquireTimeout is how long a caller waits for a free slot before
	// failing with ErrPoolExhausted. Zero fails immediately when full.
	AcquireTimeout time.Duration
}

// Work is a unit of work run against a dedicated connection.
type Work func(ctx context.Context, conn *sql.Conn) error

// Pool runs units of work on a bounded set of connections.
type Pool struct {
	db             *sql.DB
	slots          *semaphore.Weighted
	size           int64
	acquireTimeout time.Duration
	logger         *slog.Logger

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup

	inUse    atomic.Int64
	rejected atomic.Int64
}

// Stats is a snapshot of pool usage.
type Stats struct {
	Capacity int64
	InUse    int64
	Rejected int64
}

// New creates a pool over db. The pool takes ownership of db and closes it
// in Close.
func New(db *sql.DB, cfg Config, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.MaxConns <= 0 {
		cfg.MaxConns = DefaultMaxConns
	}
	if cfg.AcquireTimeout < 0 {
		cfg.AcquireTimeout = 0
	}

	return &Pool{
		db:             db,
		slots:          semaphore.NewWeighted(int64(cfg.MaxConns)),
		size:           int64(cfg.MaxConns),
		acquireTimeout: cfg.AcquireTimeout,
		logger:         logger,
	}
}

// Do acquires a slot and a connection, runs fn on a worker goroutine and
// waits for it. Acquisition failures are returned as *AcquisitionError;
// errors from fn are returned unchanged.
//
// If ctx ends while fn is still running, Do returns ctx.Err() at once and the
// worker releases the connection and slot when fn returns.
func (p *Pool) Do(ctx context.Context, fn Work) error {
	if err := p.acquire(ctx); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		err := p.run(ctx, fn)
		p.release()
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// WithConnection runs fn through p and returns its value.
func WithConnection[T any](ctx context.Context, p *Pool, fn func(ctx context.Context, conn *sql.Conn) (T, error)) (T, error) {
	var result T
	err := p.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		v, err := fn(ctx, conn)
		if err != nil {
			return err
		}
		result = v
		return nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

// Ping checks that a connection can be obtained and the backend answers.
func (p *Pool) Ping(ctx context.Context) error {
	return p.Do(ctx, func(ctx context.Context, conn *sql.Conn) error {
		return conn.PingContext(ctx)
	})
}

// Stats returns current usage.
func (p *Pool) Stats() Stats {
	return Stats{
		Capacity: p.size,
		InUse:    p.inUse.Load(),
		Rejected: p.rejected.Load(),
	}
}

// Close stops accepting work, waits for in-flight units (or ctx) and closes
// the database.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.inflight.Wait()
		close(drained)
	}()

	var drainErr error
	select {
	case <-drained:
	case <-ctx.Done():
		drainErr = fmt.Errorf("pool drain interrupted: %w", ctx.Err())
		p.logger.Warn("closing pool with work still in flight", slog.Int64("in_use", p.inUse.Load()))
	}

	if err := p.db.Close(); err != nil {
		return errors.Join(drainErr, fmt.Errorf("failed to close database: %w", err))
	}
	return drainErr
}

func (p *Pool) acquire(ctx context.Context) error {
	// Holding the read lock while registering in-flight work keeps Close from
	// starting its drain between the closed check and inflight.Add.
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return &AcquisitionError{Err: ErrPoolClosed}
	}
	p.inflight.Add(1)
	p.mu.RUnlock()

	if p.slots.TryAcquire(1) {
		p.inUse.Add(1)
		return nil
	}

	if p.acquireTimeout > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, p.acquireTimeout)
		err := p.slots.Acquire(waitCtx, 1)
		cancel()
		if err == nil {
			p.inUse.Add(1)
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			p.inflight.Done()
			return &AcquisitionError{Err: ctxErr}
		}
	}

	p.inflight.Done()
	p.rejected.Add(1)
	p.logger.Debug("pool exhausted", slog.Int64("capacity", p.size))
	return &AcquisitionError{Err: ErrPoolExhausted}
}

func (p *Pool) release() {
	p.inUse.Add(-1)
	p.slots.Release(1)
	p.inflight.Done()
}

// run executes fn on a dedicated connection and returns the connection to
// database/sql whatever fn does.
func (p *Pool) run(ctx context.Context, fn Work) (err error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return &AcquisitionError{Err: err}
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			p.logger.Warn("failed to return connection", slog.Any("error", cerr))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unit of work panicked: %v", r)
		}
	}()

	return fn(ctx, conn)
}
