package linkstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/gridfold/ucommit/core/model"
	"github.com/gridfold/ucommit/infra/logger"
)

// MQTTConfig defines the connection parameters for the MQTT-backed store.
type MQTTConfig struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	TopicPrefix string `json:"topic_prefix"`
	QoS         byte   `json:"qos"`
	TimeoutMS   int    `json:"timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *MQTTConfig) SetDefaults() {
	if c.TopicPrefix == "" {
		c.TopicPrefix = "ucommit"
	}
	if c.TimeoutMS <= 0 {
		c.TimeoutMS = 5000
	}
	if c.ClientID == "" {
		c.ClientID = "ucommit-linkstore"
	}
}

// Validate checks mandatory fields.
func (c MQTTConfig) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	return nil
}

// pahoClient is the slice of the Paho API the store uses. Tests substitute a
// fake through newMQTTClient.
type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// MQTTStore publishes boundary snapshots as retained messages, one topic per
// scenario, so the next subproblem job can pick them up whenever it starts.
type MQTTStore struct {
	cli     pahoClient
	prefix  string
	qos     byte
	timeout time.Duration
	log     logger.Logger
}

// NewMQTTStore connects to the broker.
func NewMQTTStore(cfg MQTTConfig) (*MQTTStore, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	log := logger.New("linkstore_mqtt")
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	return &MQTTStore{
		cli:     cli,
		prefix:  cfg.TopicPrefix,
		qos:     cfg.QoS,
		timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		log:     log,
	}, nil
}

func (s *MQTTStore) topic(scenario string) string {
	return s.prefix + "/" + scenario + "/boundary"
}

// Save publishes the snapshot as a retained message.
func (s *MQTTStore) Save(_ context.Context, scenario string, recs map[string]*model.LinkedBoundaryRecord) error {
	payload, err := json.Marshal(recs)
	if err != nil {
		return err
	}
	token := s.cli.Publish(s.topic(scenario), s.qos, true, payload)
	if token.Wait() && token.Error() != nil {
		return token.Error()
	}
	s.log.Debugw("boundary snapshot published", map[string]any{
		"scenario": scenario,
		"units":    len(recs),
	})
	return nil
}

// Load subscribes to the scenario topic and waits for the retained snapshot.
// ErrNotFound when nothing arrives within the configured timeout or the
// context expires first.
func (s *MQTTStore) Load(ctx context.Context, scenario string) (map[string]*model.LinkedBoundaryRecord, error) {
	topic := s.topic(scenario)
	msgs := make(chan []byte, 1)
	token := s.cli.Subscribe(topic, s.qos, func(_ paho.Client, m paho.Message) {
		select {
		case msgs <- m.Payload():
		default:
		}
	})
	if token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	defer func() {
		if t := s.cli.Unsubscribe(topic); t.Wait() && t.Error() != nil {
			s.log.Warnf("unsubscribe %s: %v", topic, t.Error())
		}
	}()

	select {
	case payload := <-msgs:
		var recs map[string]*model.LinkedBoundaryRecord
		if err := json.Unmarshal(payload, &recs); err != nil {
			return nil, fmt.Errorf("decode boundary snapshot %s: %w", scenario, err)
		}
		return recs, nil
	case <-time.After(s.timeout):
		return nil, fmt.Errorf("%w: %s", ErrNotFound, scenario)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close disconnects from the broker.
func (s *MQTTStore) Close() error {
	if s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
	return nil
}
