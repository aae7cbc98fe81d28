package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/firewatch/core/algo"
	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/logger"
	"github.com/huangsam/firewatch/internal/metrics"
	"github.com/huangsam/firewatch/internal/state"
	"github.com/huangsam/firewatch/schema"
)

// Clock returns the current time. Tests swap it for a fake.
type Clock func() time.Time

// Decide applies the evaluator and the cooldown rule to one reading.
// It is pure: the returned state is a new value and the inputs are untouched.
func Decide(reading schema.SensorReading, st schema.GatekeeperState, now time.Time, p schema.EvaluationParams) (schema.RiskVerdict, bool, schema.GatekeeperState) {
	verdict := algo.Evaluate(reading, st.LastReading, p)

	shouldAlert := false
	if verdict.Level.AlertEligible() {
		shouldAlert = st.LastAlertAt == nil || now.Sub(*st.LastAlertAt) >= p.Cooldown
	}

	last := reading.Clone()
	next := schema.GatekeeperState{LastReading: &last}
	if shouldAlert {
		at := now
		next.LastAlertAt = &at
	} else if st.LastAlertAt != nil {
		at := *st.LastAlertAt
		next.LastAlertAt = &at
	}
	return verdict, shouldAlert, next
}

// deviceLock is a refcounted mutex so idle devices do not pin memory.
type deviceLock struct {
	mu   sync.Mutex
	refs int
}

// Gatekeeper owns per-device state and serializes evaluations per device.
// Different devices are evaluated in parallel.
type Gatekeeper struct {
	params schema.EvaluationParams
	store  contract.StateStore
	now    Clock

	mu    sync.Mutex
	locks map[string]*deviceLock
	// last state decided per device, used when the backend cannot be read
	known map[string]schema.GatekeeperState
}

// NewGatekeeper creates a gatekeeper. A nil store selects the in-memory backend
// and a nil clock selects time.Now.
func NewGatekeeper(params schema.EvaluationParams, store contract.StateStore, now Clock) *Gatekeeper {
	if store == nil {
		store = state.NewMemoryStore()
	}
	if now == nil {
		now = time.Now
	}
	return &Gatekeeper{
		params: params,
		store:  store,
		now:    now,
		locks:  make(map[string]*deviceLock),
		known:  make(map[string]schema.GatekeeperState),
	}
}

// Now returns the gatekeeper's notion of the current time.
func (g *Gatekeeper) Now() time.Time {
	return g.now()
}

func (g *Gatekeeper) lock(deviceID string) func() {
	g.mu.Lock()
	l, ok := g.locks[deviceID]
	if !ok {
		l = &deviceLock{}
		g.locks[deviceID] = l
	}
	l.refs++
	g.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		g.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(g.locks, deviceID)
		}
		g.mu.Unlock()
	}
}

// Consider evaluates a reading for a device and decides whether to alert.
// The returned decision is always usable. A non-nil error reports a state
// backend failure: on load failure the last state this process decided for the
// device is used, so the cooldown survives a backend outage. A device this
// process has never seen is treated as fresh.
func (g *Gatekeeper) Consider(ctx context.Context, deviceID string, reading schema.SensorReading) (schema.Decision, error) {
	deviceID = ResolveDeviceID(deviceID, reading)
	log := logger.WithDevice(deviceID)

	unlock := g.lock(deviceID)
	defer unlock()

	var errs []error
	st, err := g.store.Load(ctx, deviceID)
	if err != nil {
		errs = append(errs, fmt.Errorf("load state for %s: %w", deviceID, err))
		var ok bool
		st, ok = g.lastKnown(deviceID)
		log.Warn().Err(err).Bool("last_known", ok).Msg("gatekeeper state unavailable")
	}

	now := g.now()
	verdict, shouldAlert, next := Decide(reading, st, now, g.params)

	if err := g.store.Save(ctx, deviceID, next); err != nil {
		log.Error().Err(err).Msg("failed to save gatekeeper state")
		errs = append(errs, fmt.Errorf("save state for %s: %w", deviceID, err))
	}
	g.track(deviceID, next)

	decision := schema.Decision{
		DeviceID:    deviceID,
		Verdict:     verdict,
		ShouldAlert: shouldAlert,
		State:       next,
		DecidedAt:   now,
	}
	log.Debug().
		Int("score", verdict.Score).
		Str("risk_level", string(verdict.Level)).
		Bool("should_alert", shouldAlert).
		Msg("reading considered")

	if len(errs) > 0 {
		return decision, errors.Join(errs...)
	}
	return decision, nil
}

// Forget drops the state of a deregistered device.
func (g *Gatekeeper) Forget(ctx context.Context, deviceID string) error {
	unlock := g.lock(deviceID)
	defer unlock()

	if err := g.store.Delete(ctx, deviceID); err != nil {
		return fmt.Errorf("forget %s: %w", deviceID, err)
	}
	g.mu.Lock()
	delete(g.known, deviceID)
	metrics.TrackedDevices.Set(float64(len(g.known)))
	g.mu.Unlock()
	return nil
}

// State returns the stored state of a device.
func (g *Gatekeeper) State(ctx context.Context, deviceID string) (schema.GatekeeperState, error) {
	unlock := g.lock(deviceID)
	defer unlock()
	return g.store.Load(ctx, deviceID)
}

// Status reports the state backend status.
func (g *Gatekeeper) Status(ctx context.Context) (schema.StateStatus, error) {
	return g.store.GetStatus(ctx)
}

// Close releases the state backend.
func (g *Gatekeeper) Close() error {
	return g.store.Close()
}

func (g *Gatekeeper) track(deviceID string, st schema.GatekeeperState) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.known[deviceID] = cloneState(st)
	metrics.TrackedDevices.Set(float64(len(g.known)))
}

func (g *Gatekeeper) lastKnown(deviceID string) (schema.GatekeeperState, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.known[deviceID]
	if !ok {
		return schema.GatekeeperState{}, false
	}
	return cloneState(st), true
}

func cloneState(st schema.GatekeeperState) schema.GatekeeperState {
	var out schema.GatekeeperState
	if st.LastReading != nil {
		r := st.LastReading.Clone()
		out.LastReading = &r
	}
	if st.LastAlertAt != nil {
		at := *st.LastAlertAt
		out.LastAlertAt = &at
	}
	return out
}

// ResolveDeviceID picks the explicit ID, then the reading's own, then the default.
func ResolveDeviceID(deviceID string, reading schema.SensorReading) string {
	if deviceID != "" {
		return deviceID
	}
	if reading.DeviceID != "" {
		return reading.DeviceID
	}
	return schema.DefaultDeviceID
}
