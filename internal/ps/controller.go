package ps

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Common errors
var (
	// ErrInvalidTransition is returned when an operation is invoked
	// while the controller is not in the required state. The state is
	// unchanged and no request is sent.
	ErrInvalidTransition = errors.New("invalid power-save state transition")
	// ErrSendFailed is returned when the transport could not hand the
	// request frame off. The state is unchanged because the request is
	// presumed never received by hardware.
	ErrSendFailed = errors.New("power-save request send failed")
	// ErrUnexpectedConfirmation is returned for a confirmation that does
	// not match the currently pending state or carries an unknown tag.
	// The event is discarded and the state is unchanged.
	ErrUnexpectedConfirmation = errors.New("unexpected power-save confirmation")
)

// Transport delivers a power-save request frame built from the current
// parameters to the hardware path. SendRequest returns once the frame
// is handed off, not once hardware acts on it.
type Transport interface {
	SendRequest(ctx context.Context, enable bool, params Parameters) error
}

// Controller runs the power-save negotiation state machine for a
// single adapter. Requests are issued from the control path and
// confirmations arrive asynchronously from the receive path; both are
// serialized through one mutex so a request can never observe a stale
// state.
//
// The protocol carries no per-request correlation ID, so a
// confirmation is accepted only when the current state is the pending
// state its tag resolves. A request whose confirmation never arrives
// leaves the controller pending indefinitely; recovering from that is
// the caller's policy decision.
type Controller struct {
	adapterID string
	transport Transport

	mu     sync.Mutex
	state  State
	params Parameters
}

// NewController creates a controller for one adapter, starting in
// StateIdle.
func NewController(adapterID string, params Parameters, transport Transport) *Controller {
	return &Controller{
		adapterID: adapterID,
		transport: transport,
		state:     StateIdle,
		params:    params,
	}
}

// State returns the current negotiation state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Parameters returns a copy of the current power-save parameters.
func (c *Controller) Parameters() Parameters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// SetParameters replaces the power-save parameters. It does not issue
// any request; callers use ReconfigureUAPSD to push updated parameters
// into an established session.
func (c *Controller) SetParameters(p Parameters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.params = p
}

// transition moves the state machine to a new state, logging the
// before/after pair. Callers must hold c.mu.
func (c *Controller) transition(next State) {
	log.Info().
		Str("adapterID", c.adapterID).
		Str("from", c.state.String()).
		Str("to", next.String()).
		Msg("Power-save state changed")
	c.state = next
}

// RequestEnable asks hardware to enter power save. Valid only in
// StateIdle; on a successful send the controller moves to
// StateEnablePending and the eventual confirmation completes the
// transition.
func (c *Controller) RequestEnable(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		log.Warn().
			Str("adapterID", c.adapterID).
			Str("state", c.state.String()).
			Msg("Cannot accept enable request in this state")
		return fmt.Errorf("%w: enable requires %s, have %s",
			ErrInvalidTransition, StateIdle, c.state)
	}

	if err := c.transport.SendRequest(ctx, true, c.params); err != nil {
		log.Error().
			Err(err).
			Str("adapterID", c.adapterID).
			Msg("Failed to send power-save enable request")
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	c.transition(StateEnablePending)
	return nil
}

// RequestDisable asks hardware to leave power save. Valid only in
// StateEnabled; on a successful send the controller moves to
// StateDisablePending.
func (c *Controller) RequestDisable(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEnabled {
		log.Warn().
			Str("adapterID", c.adapterID).
			Str("state", c.state.String()).
			Msg("Cannot accept disable request in this state")
		return fmt.Errorf("%w: disable requires %s, have %s",
			ErrInvalidTransition, StateEnabled, c.state)
	}

	if err := c.transport.SendRequest(ctx, false, c.params); err != nil {
		log.Error().
			Err(err).
			Str("adapterID", c.adapterID).
			Msg("Failed to send power-save disable request")
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	c.transition(StateDisablePending)
	return nil
}

// ReconfigureUAPSD pushes updated UAPSD parameters into an already
// established power-save session. Hardware picks new parameters up
// only across a full disable/enable cycle, so both requests are sent
// back to back without tracking a pending state; this is a best-effort
// refresh layered on an enabled session, not a tracked negotiation.
// Outside StateEnabled it is a silent no-op.
func (c *Controller) ReconfigureUAPSD(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateEnabled {
		return nil
	}

	if err := c.transport.SendRequest(ctx, false, c.params); err != nil {
		log.Error().
			Err(err).
			Str("adapterID", c.adapterID).
			Msg("Failed to send disable half of UAPSD reconfigure")
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	if err := c.transport.SendRequest(ctx, true, c.params); err != nil {
		log.Error().
			Err(err).
			Str("adapterID", c.adapterID).
			Msg("Failed to send enable half of UAPSD reconfigure")
		return fmt.Errorf("%w: %v", ErrSendFailed, err)
	}

	log.Debug().
		Str("adapterID", c.adapterID).
		Msg("UAPSD parameters reconfigured")
	return nil
}

// HandleConfirmation consumes an asynchronous confirmation from the
// receive path. A tag is accepted only when the current state is the
// pending state it resolves; anything else is logged and discarded
// with the state unchanged.
func (c *Controller) HandleConfirmation(conf Confirmation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch conf {
	case ConfirmationSleep:
		if c.state == StateEnablePending {
			c.transition(StateEnabled)
			return nil
		}
	case ConfirmationWakeup:
		if c.state == StateDisablePending {
			c.transition(StateIdle)
			return nil
		}
	}

	log.Warn().
		Str("adapterID", c.adapterID).
		Str("confirmation", conf.String()).
		Str("state", c.state.String()).
		Msg("Ignoring power-save confirmation")
	return fmt.Errorf("%w: %s in state %s", ErrUnexpectedConfirmation, conf, c.state)
}
