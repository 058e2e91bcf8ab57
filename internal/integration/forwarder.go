// Package integration mirrors power-save state events to external
// systems over MQTT and HTTP webhooks.
package integration

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/radiopm/radiopm-server/internal/config"
)

// ForwarderService subscribes to ps.event.> and forwards each state
// transition event to the configured sinks. Forwarding is best effort:
// a sink failure is logged, never retried, and never blocks the bus.
type ForwarderService struct {
	nc  *nats.Conn
	cfg config.IntegrationConfig

	mqttClient mqtt.Client
	httpClient *http.Client
}

// NewForwarderService creates a forwarder service.
func NewForwarderService(nc *nats.Conn, cfg config.IntegrationConfig) *ForwarderService {
	timeout := cfg.Webhook.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &ForwarderService{
		nc:  nc,
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Start connects sinks, subscribes and blocks until ctx is cancelled.
func (s *ForwarderService) Start(ctx context.Context) error {
	if s.cfg.MQTT.Enabled {
		if err := s.connectMQTT(); err != nil {
			log.Error().Err(err).Msg("Failed to connect MQTT sink")
		}
	}

	sub, err := s.nc.Subscribe("ps.event.>", s.handleEvent)
	if err != nil {
		return fmt.Errorf("subscribe to power-save events: %w", err)
	}

	log.Info().
		Bool("mqtt", s.cfg.MQTT.Enabled).
		Bool("webhook", s.cfg.Webhook.Enabled).
		Msg("Integration forwarder service started")

	<-ctx.Done()

	sub.Unsubscribe()
	if s.mqttClient != nil && s.mqttClient.IsConnected() {
		s.mqttClient.Disconnect(250)
	}

	return nil
}

// handleEvent fans one state event out to the enabled sinks.
func (s *ForwarderService) handleEvent(msg *nats.Msg) {
	log.Debug().
		Str("subject", msg.Subject).
		Msg("Forwarding power-save event")

	// The payload is already the JSON event document; sinks receive
	// it unchanged.
	if s.cfg.Webhook.Enabled {
		go s.forwardToWebhook(msg.Data)
	}

	if s.cfg.MQTT.Enabled {
		go s.forwardToMQTT(msg.Data)
	}
}

// forwardToWebhook posts an event document to the webhook endpoint.
func (s *ForwarderService) forwardToWebhook(data []byte) {
	req, err := http.NewRequest(http.MethodPost, s.cfg.Webhook.URL, bytes.NewReader(data))
	if err != nil {
		log.Error().Err(err).Msg("Failed to create webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Error().
			Err(err).
			Str("url", s.cfg.Webhook.URL).
			Msg("Failed to forward event to webhook")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		log.Error().
			Int("status", resp.StatusCode).
			Str("url", s.cfg.Webhook.URL).
			Msg("Webhook forward failed")
		return
	}

	log.Debug().
		Int("status", resp.StatusCode).
		Str("url", s.cfg.Webhook.URL).
		Msg("Event forwarded to webhook")
}

// forwardToMQTT publishes an event document to the configured topic.
func (s *ForwarderService) forwardToMQTT(data []byte) {
	client := s.mqttClient
	if client == nil || !client.IsConnected() {
		log.Warn().Msg("MQTT sink not connected, event dropped")
		return
	}

	token := client.Publish(s.cfg.MQTT.Topic, 0, false, data)
	if !token.WaitTimeout(5 * time.Second) {
		log.Error().
			Str("topic", s.cfg.MQTT.Topic).
			Msg("MQTT publish timeout")
		return
	}
	if err := token.Error(); err != nil {
		log.Error().
			Err(err).
			Str("topic", s.cfg.MQTT.Topic).
			Msg("Failed to publish event to MQTT")
		return
	}

	log.Debug().
		Str("topic", s.cfg.MQTT.Topic).
		Msg("Event forwarded to MQTT")
}

// connectMQTT dials the MQTT broker sink.
func (s *ForwarderService) connectMQTT() error {
	clientID := s.cfg.MQTT.ClientID
	if clientID == "" {
		clientID = "radiopm-forwarder"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.MQTT.Broker)
	opts.SetClientID(clientID)

	if s.cfg.MQTT.Username != "" {
		opts.SetUsername(s.cfg.MQTT.Username)
		opts.SetPassword(s.cfg.MQTT.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetKeepAlive(30 * time.Second)

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Info().
			Str("broker", s.cfg.MQTT.Broker).
			Msg("MQTT sink connected")
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		log.Error().
			Err(err).
			Str("broker", s.cfg.MQTT.Broker).
			Msg("MQTT sink connection lost")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("connect to %s: timeout", s.cfg.MQTT.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to %s: %w", s.cfg.MQTT.Broker, err)
	}

	s.mqttClient = client
	return nil
}
