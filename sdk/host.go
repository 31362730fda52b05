package sdk

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Invocation is one call into the contract as submitted by a caller.
type Invocation struct {
	Function string
	Args     string
	Grants   []string
}

// Authorizer checks that addr signed off on the running invocation with the
// given arguments.
type Authorizer interface {
	RequireAuth(ctx context.Context, addr Address, args ...string) error
}

// AuthorizerFactory builds the authorizer for one invocation. It receives the
// invocation state so consumed grants roll back together with everything else.
type AuthorizerFactory func(inv Invocation, state *State) Authorizer

// Event is a contract event. Events are only published when the invocation commits.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}

// Env is what an entry point sees of the host during one invocation.
type Env struct {
	Contract Address
	Function string
	Storage  *State
	Auth     Authorizer
	events   []Event
}

// Ledger returns the sequence the invocation executes at.
func (e *Env) Ledger() uint32 { return e.Storage.Ledger() }

// Emit queues an event for publication on commit.
func (e *Env) Emit(eventType string, attributes map[string]string) {
	e.events = append(e.events, Event{Type: eventType, Attributes: attributes})
}

// Events returns the queued events.
func (e *Env) Events() []Event {
	out := make([]Event, len(e.events))
	copy(out, e.events)
	return out
}

// Publisher receives the events of every committed invocation, in commit order.
type Publisher interface {
	Publish(ledger uint32, events []Event)
}

// Host executes invocations one at a time against a Store.
type Host struct {
	mu        sync.Mutex
	contract  Address
	store     Store
	clock     Clock
	authorize AuthorizerFactory
	publisher Publisher
	log       *zap.Logger
	tracer    trace.Tracer
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithClock overrides the ledger clock.
func WithClock(c Clock) HostOption {
	return func(h *Host) { h.clock = c }
}

// WithLogger sets the logger used for published events.
func WithLogger(l *zap.Logger) HostOption {
	return func(h *Host) { h.log = l }
}

// WithPublisher forwards committed events to p.
func WithPublisher(p Publisher) HostOption {
	return func(h *Host) { h.publisher = p }
}

// NewHost returns a host for the contract deployed at contract.
func NewHost(contract Address, store Store, authorize AuthorizerFactory, opts ...HostOption) *Host {
	h := &Host{
		contract:  contract,
		store:     store,
		clock:     WallClock{},
		authorize: authorize,
		log:       zap.NewNop(),
		tracer:    otel.Tracer("alpha-duel/sdk"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Contract returns the address the host runs the contract under.
func (h *Host) Contract() Address { return h.contract }

// Invoke runs fn as a single atomic invocation: its buffered writes are
// committed only if fn returns nil, and its events are published after commit.
func (h *Host) Invoke(ctx context.Context, inv Invocation, fn func(ctx context.Context, env *Env) error) ([]Event, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ledger := h.clock.Ledger()
	ctx, span := h.tracer.Start(ctx, "contract."+inv.Function, trace.WithAttributes(
		attribute.String("contract.address", h.contract.String()),
		attribute.String("contract.function", inv.Function),
		attribute.Int64("ledger.sequence", int64(ledger)),
	))
	defer span.End()

	state := NewState(h.store, ledger)
	env := &Env{
		Contract: h.contract,
		Function: inv.Function,
		Storage:  state,
	}
	if h.authorize != nil {
		env.Auth = h.authorize(inv, state)
	}

	if err := fn(ctx, env); err != nil {
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, err.Error())
		h.log.Debug("invocation rolled back",
			zap.String("function", inv.Function),
			zap.Uint32("ledger", ledger),
			zap.Error(err),
		)
		return nil, err
	}

	if changes := state.Changes(); len(changes) > 0 {
		if err := h.store.Commit(ctx, changes); err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, err.Error())
			return nil, fmt.Errorf("commit %s: %w", inv.Function, err)
		}
	}

	events := env.Events()
	for _, ev := range events {
		h.log.Info("event",
			zap.String("type", ev.Type),
			zap.Any("attributes", ev.Attributes),
			zap.Uint32("ledger", ledger),
		)
	}
	if h.publisher != nil && len(events) > 0 {
		h.publisher.Publish(ledger, events)
	}
	return events, nil
}
