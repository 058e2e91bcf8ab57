// Package server hosts the receive-path subscriber that feeds hardware
// confirmations into the power-save controllers.
package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/radiopm/radiopm-server/internal/radio"
	"github.com/radiopm/radiopm-server/pkg/psframe"
)

// ConfirmSubscriber listens for confirmation frames from adapter
// firmware on radio.<adapterID>.rx and dispatches them to the radio
// manager. Malformed frames and unknown adapters are logged and
// dropped; the firmware never retries, so there is nothing to answer.
type ConfirmSubscriber struct {
	nc      *nats.Conn
	manager *radio.Manager
	subs    []*nats.Subscription
}

// NewConfirmSubscriber creates a confirmation subscriber.
func NewConfirmSubscriber(nc *nats.Conn, manager *radio.Manager) *ConfirmSubscriber {
	return &ConfirmSubscriber{
		nc:      nc,
		manager: manager,
		subs:    make([]*nats.Subscription, 0),
	}
}

// Start subscribes and blocks until ctx is cancelled.
func (s *ConfirmSubscriber) Start(ctx context.Context) error {
	sub, err := s.nc.Subscribe("radio.*.rx", s.handleConfirm)
	if err != nil {
		return fmt.Errorf("subscribe radio rx: %w", err)
	}
	s.subs = append(s.subs, sub)

	log.Info().
		Int("subscriptions", len(s.subs)).
		Msg("Confirmation subscriber started")

	<-ctx.Done()

	for _, sub := range s.subs {
		sub.Unsubscribe()
	}

	return ctx.Err()
}

// handleConfirm handles one confirmation frame.
func (s *ConfirmSubscriber) handleConfirm(msg *nats.Msg) {
	log.Debug().
		Str("subject", msg.Subject).
		Int("size", len(msg.Data)).
		Msg("Received confirmation frame")

	adapterID, err := adapterIDFromSubject(msg.Subject)
	if err != nil {
		log.Error().Err(err).Str("subject", msg.Subject).Msg("Invalid confirmation subject")
		return
	}

	conf, err := psframe.DecodeConfirm(msg.Data)
	if err != nil {
		log.Error().
			Err(err).
			Str("adapterID", adapterID.String()).
			Msg("Failed to decode confirmation frame")
		return
	}

	if err := s.manager.HandleConfirmation(context.Background(), adapterID, conf); err != nil {
		// Already recorded by the manager; nothing to send back.
		log.Debug().
			Err(err).
			Str("adapterID", adapterID.String()).
			Msg("Confirmation not applied")
		return
	}

	log.Info().
		Str("adapterID", adapterID.String()).
		Str("confirmation", conf.String()).
		Msg("Confirmation processed")
}

// adapterIDFromSubject extracts the adapter UUID from a
// radio.<adapterID>.rx subject.
func adapterIDFromSubject(subject string) (uuid.UUID, error) {
	parts := strings.Split(subject, ".")
	if len(parts) != 3 || parts[0] != "radio" || parts[2] != "rx" {
		return uuid.Nil, fmt.Errorf("unexpected subject format %q", subject)
	}
	return uuid.Parse(parts[1])
}
