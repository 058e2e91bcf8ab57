// Package transport carries power-save requests to adapter firmware over NATS.
package transport

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/radiopm/radiopm-server/internal/ps"
	"github.com/radiopm/radiopm-server/pkg/psframe"
)

// NATSTransport publishes encoded power-save request frames on the
// per-adapter radio.<adapterID>.tx subject. It implements ps.Transport.
type NATSTransport struct {
	nc        *nats.Conn
	adapterID string
}

// NewNATSTransport creates a transport bound to one adapter.
func NewNATSTransport(nc *nats.Conn, adapterID string) *NATSTransport {
	return &NATSTransport{
		nc:        nc,
		adapterID: adapterID,
	}
}

// SendRequest encodes and publishes a power-save request frame.
func (t *NATSTransport) SendRequest(ctx context.Context, enable bool, params ps.Parameters) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	frame := psframe.EncodeRequest(enable, params)
	subject := fmt.Sprintf("radio.%s.tx", t.adapterID)

	if err := t.nc.Publish(subject, frame); err != nil {
		return fmt.Errorf("publish power-save request: %w", err)
	}

	log.Debug().
		Str("adapterID", t.adapterID).
		Str("subject", subject).
		Bool("enable", enable).
		Int("size", len(frame)).
		Msg("Power-save request published")

	return nil
}
