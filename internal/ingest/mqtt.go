package ingest

import (
	"context"
	"fmt"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/huangsam/firewatch/internal/contract"
	"github.com/huangsam/firewatch/internal/logger"
	"github.com/huangsam/firewatch/internal/metrics"
)

// DefaultConnectTimeout bounds the initial broker connection.
const DefaultConnectTimeout = 10 * time.Second

// SubscriberConfig holds the broker settings.
type SubscriberConfig struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      byte
}

// Subscriber feeds MQTT device messages to a reading processor.
type Subscriber struct {
	cfg       SubscriberConfig
	processor contract.ReadingProcessor
	timeout   time.Duration
}

// NewSubscriber creates a subscriber. Nothing connects until Run.
func NewSubscriber(cfg SubscriberConfig, processor contract.ReadingProcessor) *Subscriber {
	if cfg.Topic == "" {
		cfg.Topic = contract.DefaultMQTTTopic
	}
	if cfg.ClientID == "" {
		cfg.ClientID = contract.DefaultMQTTClientID
	}
	return &Subscriber{cfg: cfg, processor: processor, timeout: DefaultConnectTimeout}
}

// Run connects, subscribes and blocks until ctx is done.
// The subscription is renewed on every reconnect.
func (s *Subscriber) Run(ctx context.Context) error {
	log := logger.WithComponent("mqtt")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.cfg.Broker)
	opts.SetClientID(s.cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(s.timeout)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		token := c.Subscribe(s.cfg.Topic, s.cfg.QoS, func(_ mqtt.Client, msg mqtt.Message) {
			if err := s.HandleMessage(ctx, msg.Topic(), msg.Payload()); err != nil {
				log.Warn().Err(err).Str("topic", msg.Topic()).Msg("dropped MQTT message")
			}
		})
		s.logSubscribe(token)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("timed out connecting to MQTT broker %s", s.cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %w", err)
	}
	log.Info().Str("broker", s.cfg.Broker).Msg("MQTT connected")

	<-ctx.Done()
	client.Disconnect(250)
	log.Info().Msg("MQTT disconnected")
	return nil
}

// logSubscribe waits for the subscription to be acknowledged and logs the outcome.
// It reports whether the subscription is active.
func (s *Subscriber) logSubscribe(token mqtt.Token) bool {
	log := logger.WithComponent("mqtt")
	switch {
	case !token.WaitTimeout(s.timeout):
		metrics.MQTTSubscribeFailures.WithLabelValues("timeout").Inc()
		log.Error().Str("topic", s.cfg.Topic).Dur("timeout", s.timeout).Msg("subscribe timed out")
		return false
	case token.Error() != nil:
		metrics.MQTTSubscribeFailures.WithLabelValues("error").Inc()
		log.Error().Err(token.Error()).Str("topic", s.cfg.Topic).Msg("subscribe failed")
		return false
	}
	log.Info().Str("topic", s.cfg.Topic).Msg("subscribed")
	return true
}

// HandleMessage decodes one message and hands it to the processor.
// The device ID falls back to the wildcard segment of the topic.
func (s *Subscriber) HandleMessage(ctx context.Context, topic string, payload []byte) error {
	reading, err := ParsePayload(payload)
	if err != nil {
		metrics.ReadingsTotal.WithLabelValues("mqtt", "rejected").Inc()
		return fmt.Errorf("decode payload: %w", err)
	}
	if reading.DeviceID == "" {
		reading.DeviceID = DeviceFromTopic(s.cfg.Topic, topic)
	}
	metrics.ReadingsTotal.WithLabelValues("mqtt", "accepted").Inc()

	if _, err := s.processor.Process(ctx, reading); err != nil {
		return fmt.Errorf("process reading: %w", err)
	}
	return nil
}

// DeviceFromTopic returns the segment of topic matched by the first "+"
// wildcard in pattern, or "" when the pattern has none or does not match.
func DeviceFromTopic(pattern, topic string) string {
	want := strings.Split(pattern, "/")
	got := strings.Split(topic, "/")
	for i, seg := range want {
		if i >= len(got) {
			return ""
		}
		switch seg {
		case "+":
			return got[i]
		case "#":
			return ""
		default:
			if seg != got[i] {
				return ""
			}
		}
	}
	return ""
}
