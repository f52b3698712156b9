// Package mqtt publishes gps snapshots to an MQTT broker.
package mqtt

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"gpsfix/internal/gps"
)

const publishTimeout = 5 * time.Second

type Config struct {
	Broker   string
	ClientID string
	Username string
	Password string
	// Topic receives the JSON snapshot; Topic+"/online" carries a retained
	// "true"/"false" presence flag.
	Topic    string
	QoS      byte
	Retain   bool
	Interval time.Duration
	Logger   *zerolog.Logger
}

type SnapshotSource interface {
	Snapshot() gps.Snapshot
}

// client is the subset of paho.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

type Publisher struct {
	cfg    Config
	client client
	log    zerolog.Logger
}

func (cfg Config) onlineTopic() string {
	return cfg.Topic + "/online"
}

// Connect dials the broker. The client reconnects on its own after the
// first successful connection.
func Connect(cfg Config) (*Publisher, error) {
	p := newPublisher(cfg, nil)

	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10*time.Second).
		SetWill(cfg.onlineTopic(), "false", cfg.QoS, true).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			p.log.Warn().Err(err).Msg("mqtt connection lost")
		}).
		SetOnConnectHandler(func(c paho.Client) {
			p.log.Info().Str("broker", cfg.Broker).Msg("mqtt connected")
			c.Publish(cfg.onlineTopic(), cfg.QoS, true, "true")
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := paho.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, errors.Errorf("mqtt connect to %s timed out", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, errors.Wrapf(err, "mqtt connect to %s", cfg.Broker)
	}
	p.client = c
	return p, nil
}

func newPublisher(cfg Config, c client) *Publisher {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	p := &Publisher{cfg: cfg, client: c, log: zerolog.Nop()}
	if cfg.Logger != nil {
		p.log = cfg.Logger.With().Str("module", "mqtt").Str("topic", cfg.Topic).Logger()
	}
	return p
}

// Run publishes the snapshot whenever a sentence has committed since the
// last publish, checking at most once per interval.
func (p *Publisher) Run(ctx context.Context, src SnapshotSource) error {
	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	var lastSeq uint64
	published := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if ctx.Err() != nil {
			return nil
		}

		snap := src.Snapshot()
		if published && snap.Seq == lastSeq {
			continue
		}
		if err := p.Publish(snap); err != nil {
			p.log.Warn().Err(err).Msg("mqtt publish failed")
			continue
		}
		lastSeq = snap.Seq
		published = true
	}
}

func (p *Publisher) Publish(snap gps.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}
	token := p.client.Publish(p.cfg.Topic, p.cfg.QoS, p.cfg.Retain, payload)
	if !token.WaitTimeout(publishTimeout) {
		return errors.New("publish timed out")
	}
	return token.Error()
}

// Close marks the publisher offline and disconnects.
func (p *Publisher) Close() {
	if p == nil || p.client == nil {
		return
	}
	token := p.client.Publish(p.cfg.onlineTopic(), p.cfg.QoS, true, "false")
	token.WaitTimeout(time.Second)
	p.client.Disconnect(250)
}
