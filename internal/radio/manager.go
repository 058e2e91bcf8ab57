// Package radio owns the per-adapter power-save controllers. The
// manager is the single entry point the API and the receive path go
// through: it resolves an adapter ID to its controller, records the
// outcome of every operation in the event log and publishes state
// transitions for downstream integrations.
package radio

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/radiopm/radiopm-server/internal/models"
	"github.com/radiopm/radiopm-server/internal/ps"
	"github.com/radiopm/radiopm-server/internal/storage"
	"github.com/radiopm/radiopm-server/internal/transport"
)

// TransportFactory builds a ps.Transport for one adapter. Tests swap
// this out to capture frames instead of publishing them.
type TransportFactory func(adapterID string) ps.Transport

// Manager maintains one ps.Controller per registered adapter.
type Manager struct {
	store        storage.Store
	nc           *nats.Conn
	newTransport TransportFactory
	defaults     ps.Parameters

	mu          sync.Mutex
	controllers map[uuid.UUID]*ps.Controller
}

// NewManager creates a manager. nc may be nil when running without a
// message bus; state transitions are then not published and the
// default transport factory cannot be used, so one must be supplied.
func NewManager(store storage.Store, nc *nats.Conn, defaults ps.Parameters, factory TransportFactory) *Manager {
	m := &Manager{
		store:        store,
		nc:           nc,
		newTransport: factory,
		defaults:     defaults,
		controllers:  make(map[uuid.UUID]*ps.Controller),
	}
	if m.newTransport == nil {
		m.newTransport = func(adapterID string) ps.Transport {
			return transport.NewNATSTransport(nc, adapterID)
		}
	}
	return m
}

// controller returns the controller for an adapter, creating it on
// first use from the stored parameters. Returns storage.ErrNotFound
// for unknown adapters.
func (m *Manager) controller(ctx context.Context, adapterID uuid.UUID) (*ps.Controller, error) {
	m.mu.Lock()
	if c, ok := m.controllers[adapterID]; ok {
		m.mu.Unlock()
		return c, nil
	}
	m.mu.Unlock()

	adapter, err := m.store.GetAdapter(ctx, adapterID)
	if err != nil {
		return nil, err
	}

	c := ps.NewController(adapterID.String(), ps.Parameters(adapter.PowerSave), m.newTransport(adapterID.String()))

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another caller may have raced us here; keep the first one.
	if existing, ok := m.controllers[adapterID]; ok {
		return existing, nil
	}
	m.controllers[adapterID] = c
	return c, nil
}

// Remove drops the controller for a deleted adapter.
func (m *Manager) Remove(adapterID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.controllers, adapterID)
}

// State returns the current negotiation state for an adapter.
func (m *Manager) State(ctx context.Context, adapterID uuid.UUID) (ps.State, error) {
	c, err := m.controller(ctx, adapterID)
	if err != nil {
		return ps.StateIdle, err
	}
	return c.State(), nil
}

// Parameters returns the current power-save parameters for an adapter.
func (m *Manager) Parameters(ctx context.Context, adapterID uuid.UUID) (ps.Parameters, error) {
	c, err := m.controller(ctx, adapterID)
	if err != nil {
		return ps.Parameters{}, err
	}
	return c.Parameters(), nil
}

// SetParameters updates an adapter's power-save parameters in both the
// live controller and the store. Parameters take effect on the next
// enable, or through ReconfigureUAPSD for an established session.
func (m *Manager) SetParameters(ctx context.Context, adapterID uuid.UUID, params ps.Parameters) error {
	c, err := m.controller(ctx, adapterID)
	if err != nil {
		return err
	}

	adapter, err := m.store.GetAdapter(ctx, adapterID)
	if err != nil {
		return err
	}
	adapter.PowerSave = models.PSParameters(params)
	if err := m.store.UpdateAdapter(ctx, adapter); err != nil {
		return err
	}

	c.SetParameters(params)
	return nil
}

// RequestEnable starts power-save negotiation for an adapter.
func (m *Manager) RequestEnable(ctx context.Context, adapterID uuid.UUID) error {
	c, err := m.controller(ctx, adapterID)
	if err != nil {
		return err
	}
	err = c.RequestEnable(ctx)
	m.logRequest(ctx, adapterID, "enable", err)
	if err == nil {
		m.publishEvent(adapterID, c.State())
	}
	return err
}

// RequestDisable starts power-save teardown for an adapter.
func (m *Manager) RequestDisable(ctx context.Context, adapterID uuid.UUID) error {
	c, err := m.controller(ctx, adapterID)
	if err != nil {
		return err
	}
	err = c.RequestDisable(ctx)
	m.logRequest(ctx, adapterID, "disable", err)
	if err == nil {
		m.publishEvent(adapterID, c.State())
	}
	return err
}

// ReconfigureUAPSD refreshes UAPSD parameters on an established
// session. It does not change state and is a no-op when the session is
// not enabled.
func (m *Manager) ReconfigureUAPSD(ctx context.Context, adapterID uuid.UUID) error {
	c, err := m.controller(ctx, adapterID)
	if err != nil {
		return err
	}
	err = c.ReconfigureUAPSD(ctx)
	if err != nil {
		m.logRequest(ctx, adapterID, "uapsd", err)
	}
	return err
}

// HandleConfirmation feeds a confirmation from the receive path to the
// adapter's controller and records the outcome.
func (m *Manager) HandleConfirmation(ctx context.Context, adapterID uuid.UUID, conf ps.Confirmation) error {
	c, err := m.controller(ctx, adapterID)
	if err != nil {
		return err
	}

	err = c.HandleConfirmation(conf)
	if err != nil {
		m.logEvent(ctx, adapterID, models.EventTypePSAnomaly, models.EventLevelWarning,
			fmt.Sprintf("Unexpected confirmation %s in state %s", conf, c.State()),
			models.Variables{"confirmation": conf.String(), "state": c.State().String()})
		return err
	}

	m.logEvent(ctx, adapterID, models.EventTypePSConfirm, models.EventLevelInfo,
		fmt.Sprintf("Confirmation %s accepted, state now %s", conf, c.State()),
		models.Variables{"confirmation": conf.String(), "state": c.State().String()})
	m.publishEvent(adapterID, c.State())
	return nil
}

// logRequest records a request outcome in the event log.
func (m *Manager) logRequest(ctx context.Context, adapterID uuid.UUID, op string, opErr error) {
	switch {
	case opErr == nil:
		m.logEvent(ctx, adapterID, models.EventTypePSRequest, models.EventLevelInfo,
			fmt.Sprintf("Power-save %s request sent", op),
			models.Variables{"operation": op})
	case errors.Is(opErr, ps.ErrInvalidTransition):
		m.logEvent(ctx, adapterID, models.EventTypePSRejected, models.EventLevelWarning,
			fmt.Sprintf("Power-save %s request rejected: %s", op, opErr),
			models.Variables{"operation": op, "error": opErr.Error()})
	default:
		m.logEvent(ctx, adapterID, models.EventTypePSAnomaly, models.EventLevelError,
			fmt.Sprintf("Power-save %s request failed: %s", op, opErr),
			models.Variables{"operation": op, "error": opErr.Error()})
	}
}

func (m *Manager) logEvent(ctx context.Context, adapterID uuid.UUID, typ models.EventType, level models.EventLevel, desc string, details models.Variables) {
	event := &models.EventLog{
		AdapterID:   &adapterID,
		Type:        typ,
		Level:       level,
		Description: desc,
		Details:     details,
	}
	if err := m.store.CreateEventLog(ctx, event); err != nil {
		log.Error().Err(err).Msg("Failed to create event log")
	}
}

// publishEvent broadcasts a state transition on ps.event.<adapterID>
// for integrations. Best effort; a publish failure is logged only.
func (m *Manager) publishEvent(adapterID uuid.UUID, state ps.State) {
	if m.nc == nil {
		return
	}

	payload := map[string]interface{}{
		"adapterId": adapterID.String(),
		"state":     state.String(),
		"time":      time.Now().UTC().Format(time.RFC3339),
	}
	data, _ := json.Marshal(payload)
	subject := fmt.Sprintf("ps.event.%s", adapterID)

	if err := m.nc.Publish(subject, data); err != nil {
		log.Error().
			Err(err).
			Str("subject", subject).
			Msg("Failed to publish power-save event")
	}
}
