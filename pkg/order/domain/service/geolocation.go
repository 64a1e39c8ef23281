package service

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"foodorder/pkg/order/domain/model"
)

const DefaultLocationTimeout = 10 * time.Second

type LocationState int

const (
	LocationUnset LocationState = iota
	LocationPending
	LocationResolved
	LocationFailed
)

func (s LocationState) String() string {
	switch s {
	case LocationPending:
		return "pending"
	case LocationResolved:
		return "resolved"
	case LocationFailed:
		return "failed"
	}
	return "unset"
}

// LocationFix is the observable state of a location request. Coordinate is
// only meaningful when State is LocationResolved, Failure only when
// State is LocationFailed.
type LocationFix struct {
	State      LocationState
	Coordinate model.GeoCoordinate
	Failure    model.LocationFailure
}

func (f LocationFix) Resolved() bool {
	return f.State == LocationResolved && !f.Coordinate.IsSentinel()
}

// Geolocator acquires the device position asynchronously. Disable drops
// whatever a request still in flight would have produced.
type Geolocator struct {
	provider model.LocationProvider
	timeout  time.Duration
	logger   log.FieldLogger

	mu     sync.Mutex
	fix    LocationFix
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
}

func NewGeolocator(provider model.LocationProvider, timeout time.Duration, logger log.FieldLogger) *Geolocator {
	if timeout <= 0 {
		timeout = DefaultLocationTimeout
	}
	return &Geolocator{provider: provider, timeout: timeout, logger: logger}
}

// Enable starts a new request, superseding any earlier one.
func (g *Geolocator) Enable(ctx context.Context) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	if g.provider == nil {
		g.fix = LocationFix{State: LocationFailed, Failure: model.LocationUnsupported}
		return
	}

	g.gen++
	gen := g.gen
	reqCtx, cancel := context.WithTimeout(ctx, g.timeout)
	done := make(chan struct{})
	g.cancel = cancel
	g.done = done
	g.fix = LocationFix{State: LocationPending}

	go g.acquire(reqCtx, gen, done)
}

// Disable resets to LocationUnset immediately.
func (g *Geolocator) Disable() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.stopLocked()
	g.fix = LocationFix{}
}

func (g *Geolocator) Fix() LocationFix {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fix
}

// Wait blocks until the current request settles or ctx ends.
func (g *Geolocator) Wait(ctx context.Context) (LocationFix, error) {
	g.mu.Lock()
	done := g.done
	pending := g.fix.State == LocationPending
	g.mu.Unlock()

	if pending && done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return g.Fix(), ctx.Err()
		}
	}
	return g.Fix(), nil
}

func (g *Geolocator) acquire(ctx context.Context, gen uint64, done chan struct{}) {
	defer close(done)

	coordinate, err := g.provider.CurrentPosition(ctx)
	fix := settle(ctx, coordinate, err)

	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return
	}
	g.fix = fix
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	if fix.State == LocationFailed && g.logger != nil {
		g.logger.WithField("reason", fix.Failure.String()).Warn("location request failed")
	}
}

func (g *Geolocator) stopLocked() {
	g.gen++
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.done = nil
}

func settle(ctx context.Context, coordinate model.GeoCoordinate, err error) LocationFix {
	if err != nil {
		var locErr *model.LocationError
		switch {
		case errors.As(err, &locErr):
			return LocationFix{State: LocationFailed, Failure: locErr.Reason}
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			return LocationFix{State: LocationFailed, Failure: model.LocationTimeout}
		default:
			return LocationFix{State: LocationFailed, Failure: model.PositionUnavailable}
		}
	}
	// (0,0) is the "no location" marker, never a real answer.
	if coordinate.IsSentinel() {
		return LocationFix{State: LocationFailed, Failure: model.PositionUnavailable}
	}
	return LocationFix{State: LocationResolved, Coordinate: coordinate}
}
