package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Amund211/collapser/internal/domain"
	"github.com/Amund211/collapser/internal/logging"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const DefaultUpstreamTimeout = 5 * time.Second

// inFlightHandle is the single outstanding fetch for one key.
// value and err are written once, before done is closed.
type inFlightHandle[T any] struct {
	key       string
	done      chan struct{}
	value     T
	err       error
	followers atomic.Int64
	startedAt time.Time
}

func newInFlightHandle[T any](key string) *inFlightHandle[T] {
	return &inFlightHandle[T]{
		key:       key,
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
}

func (h *inFlightHandle[T]) resolve(value T, err error) {
	h.value = value
	h.err = err
	close(h.done)
}

// wait blocks until the handle settles, timeout elapses or ctx is done.
// A timeout <= 0 waits for as long as ctx allows.
func (h *inFlightHandle[T]) wait(ctx context.Context, timeout time.Duration) (T, error) {
	var empty T

	select {
	case <-h.done:
		return h.value, h.err
	default:
	}

	var timeoutChan <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timeoutChan = timer.C
	}

	select {
	case <-h.done:
		return h.value, h.err
	case <-timeoutChan:
		return empty, fmt.Errorf("%w: waited %s", domain.ErrFollowerTimeout, timeout)
	case <-ctx.Done():
		return empty, fmt.Errorf("stopped waiting for in-flight fetch: %w", ctx.Err())
	}
}

type claimResult[T any] struct {
	handle *inFlightHandle[T]
	leader bool

	data T
	hit  bool
}

// Coordinator collapses concurrent lookups of the same key into a single
// upstream fetch and shares the outcome with every caller.
type Coordinator[T any] struct {
	store           Store[T]
	upstreamTimeout time.Duration

	inFlight     map[string]*inFlightHandle[T]
	inFlightLock sync.Mutex
}

func NewCoordinator[T any](store Store[T], upstreamTimeout time.Duration) *Coordinator[T] {
	if upstreamTimeout <= 0 {
		upstreamTimeout = DefaultUpstreamTimeout
	}
	return &Coordinator[T]{
		store:           store,
		upstreamTimeout: upstreamTimeout,
		inFlight:        make(map[string]*inFlightHandle[T]),
	}
}

// GetOrFetch returns the cached value for key, or fetches it.
//
// Only one fetch per key is in flight at any time. Callers arriving while it is
// outstanding wait at most timeout for it to settle (timeout <= 0 waits as long
// as ctx allows). Giving up never cancels the fetch itself.
// Failed fetches are not cached.
func (c *Coordinator[T]) GetOrFetch(ctx context.Context, key string, timeout time.Duration, fetch Fetcher[T]) (T, error) {
	var empty T

	if err := domain.ValidateKey(key); err != nil {
		return empty, err
	}

	logger := logging.FromContext(ctx)

	if data, ok := c.store.Get(key); ok {
		logger.InfoContext(ctx, "Getting data", "cache", "hit")
		recordLookup(ctx, "hit")
		return data, nil
	}

	result := c.getOrClaim(key)

	if result.hit {
		logger.InfoContext(ctx, "Getting data", "cache", "hit")
		recordLookup(ctx, "hit")
		return result.data, nil
	}

	if result.leader {
		logger.InfoContext(ctx, "Getting data", "cache", "miss", "role", "leader")
		recordLookup(ctx, "leader")

		// The fetch outlives the caller that started it
		go c.fetchAndSettle(context.WithoutCancel(ctx), key, result.handle, fetch)

		return result.handle.wait(ctx, 0)
	}

	result.handle.followers.Add(1)
	logger.InfoContext(ctx, "Waiting for in-flight fetch", "cache", "miss", "role", "follower")
	recordLookup(ctx, "follower")

	data, err := result.handle.wait(ctx, timeout)
	if errors.Is(err, domain.ErrFollowerTimeout) {
		logger.WarnContext(ctx, "Gave up waiting for in-flight fetch", "timeout", timeout.String())
		metrics.followerTimeouts.Add(ctx, 1)
	}
	return data, err
}

// Invalidate drops the cached value for key. In-flight fetches are unaffected.
func (c *Coordinator[T]) Invalidate(key string) {
	c.store.Delete(key)
}

func (c *Coordinator[T]) getOrClaim(key string) claimResult[T] {
	c.inFlightLock.Lock()
	defer c.inFlightLock.Unlock()

	if handle, ok := c.inFlight[key]; ok {
		return claimResult[T]{handle: handle, leader: false}
	}

	// A leader may have settled between our first lookup and taking the lock.
	// Leaders store their value before removing their handle.
	if data, ok := c.store.Get(key); ok {
		return claimResult[T]{data: data, hit: true}
	}

	handle := newInFlightHandle[T](key)
	c.inFlight[key] = handle
	return claimResult[T]{handle: handle, leader: true}
}

func (c *Coordinator[T]) fetchAndSettle(ctx context.Context, key string, handle *inFlightHandle[T], fetch Fetcher[T]) {
	var data T
	err := fmt.Errorf("%w: fetch did not complete", domain.ErrUpstream)
	defer func() {
		c.settle(ctx, key, handle, data, err)
	}()

	data, err = c.fetchWithTimeout(ctx, key, fetch)
}

type fetchResult[T any] struct {
	data T
	err  error
}

func (c *Coordinator[T]) fetchWithTimeout(ctx context.Context, key string, fetch Fetcher[T]) (T, error) {
	var empty T

	ctx, cancel := context.WithTimeout(ctx, c.upstreamTimeout)
	defer cancel()

	// Buffered so an abandoned fetch can still finish
	resultChan := make(chan fetchResult[T], 1)
	go func() {
		var result fetchResult[T]
		defer func() {
			if r := recover(); r != nil {
				result = fetchResult[T]{err: fmt.Errorf("%w: fetcher panicked: %v", domain.ErrUpstream, r)}
			}
			resultChan <- result
		}()

		data, err := fetch(ctx, key)
		result = fetchResult[T]{data: data, err: err}
	}()

	select {
	case result := <-resultChan:
		if result.err != nil {
			return empty, classifyFetchError(ctx, result.err)
		}
		return result.data, nil
	case <-ctx.Done():
		return empty, fmt.Errorf("%w: no response within %s", domain.ErrUpstreamTimeout, c.upstreamTimeout)
	}
}

func classifyFetchError(ctx context.Context, err error) error {
	if errors.Is(err, domain.ErrUpstream) || errors.Is(err, domain.ErrUpstreamTimeout) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() != nil {
		return fmt.Errorf("%w: %w", domain.ErrUpstreamTimeout, err)
	}
	return fmt.Errorf("%w: %w", domain.ErrUpstream, err)
}

func (c *Coordinator[T]) settle(ctx context.Context, key string, handle *inFlightHandle[T], data T, err error) {
	if err == nil {
		c.store.Put(key, data)
	}

	c.inFlightLock.Lock()
	if current, ok := c.inFlight[key]; ok && current == handle {
		delete(c.inFlight, key)
	}
	c.inFlightLock.Unlock()

	handle.resolve(data, err)

	outcome := "success"
	if errors.Is(err, domain.ErrUpstreamTimeout) {
		outcome = "timeout"
	} else if err != nil {
		outcome = "error"
	}

	attributesOption := metric.WithAttributes(attribute.String("outcome", outcome))
	metrics.fetches.Add(ctx, 1, attributesOption)
	metrics.fetchDuration.Record(ctx, time.Since(handle.startedAt).Seconds(), attributesOption)

	logArgs := []any{
		slog.String("outcome", outcome),
		slog.Int64("followers", handle.followers.Load()),
		slog.String("duration", time.Since(handle.startedAt).String()),
	}
	if err != nil {
		logArgs = append(logArgs, slog.String("error", err.Error()))
	}
	logging.FromContext(ctx).InfoContext(ctx, "In-flight fetch settled", logArgs...)
}

func (c *Coordinator[T]) inFlightCount() int {
	c.inFlightLock.Lock()
	defer c.inFlightLock.Unlock()

	return len(c.inFlight)
}

func recordLookup(ctx context.Context, result string) {
	metrics.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
