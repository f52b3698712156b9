package config

import (
	"bytes"
	"io"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	GPS  GPSConfig  `yaml:"gps"`
	Web  WebConfig  `yaml:"web"`
	MQTT MQTTConfig `yaml:"mqtt"`
	UDP  UDPConfig  `yaml:"udp"`
	Log  LogConfig  `yaml:"log"`
}

type GPSConfig struct {
	Enable bool `yaml:"enable"`
	// Source is serial, gpsd or replay.
	Source   string `yaml:"source"`
	Device   string `yaml:"device"`
	Baud     int    `yaml:"baud"`
	GPSDAddr string `yaml:"gpsd_addr"`

	// EnablePin is the BCM GPIO that powers the receiver; 0 means none.
	EnablePin       int  `yaml:"enable_pin"`
	EnableActiveLow bool `yaml:"enable_active_low"`

	Record RecordConfig `yaml:"record"`
	Replay ReplayConfig `yaml:"replay"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type ReplayConfig struct {
	Path  string  `yaml:"path"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

type WebConfig struct {
	Enable bool   `yaml:"enable"`
	Listen string `yaml:"listen"`
	// PushInterval is how often /ws clients are checked for a newer snapshot.
	PushInterval time.Duration `yaml:"push_interval"`
}

type MQTTConfig struct {
	Enable   bool          `yaml:"enable"`
	Broker   string        `yaml:"broker"`
	ClientID string        `yaml:"client_id"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Topic    string        `yaml:"topic"`
	QoS      byte          `yaml:"qos"`
	Retain   bool          `yaml:"retain"`
	Interval time.Duration `yaml:"interval"`
}

type UDPConfig struct {
	Enable   bool          `yaml:"enable"`
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}

	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default is the configuration used when no file is given.
func Default() Config {
	cfg := Config{
		GPS: GPSConfig{Enable: true},
		Web: WebConfig{Enable: true},
	}
	// The zero config with GPS and web enabled always validates.
	_ = cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() error {
	g := &cfg.GPS
	g.Source = strings.ToLower(strings.TrimSpace(g.Source))
	if g.Source == "" {
		g.Source = "serial"
	}
	switch g.Source {
	case "serial":
		if g.Baud == 0 {
			g.Baud = 9600
		}
		if g.Baud < 0 {
			return errors.New("gps.baud must be > 0")
		}
	case "gpsd":
		if g.GPSDAddr == "" {
			g.GPSDAddr = "127.0.0.1:2947"
		}
	case "replay":
		if g.Replay.Path == "" {
			return errors.New("gps.replay.path is required when gps.source is 'replay'")
		}
		if g.Replay.Speed == 0 {
			g.Replay.Speed = 1
		}
		if g.Replay.Speed < 0 {
			return errors.New("gps.replay.speed must be > 0")
		}
		if g.Record.Enable {
			return errors.New("gps.record cannot be used with gps.source 'replay'")
		}
	default:
		return errors.Errorf("gps.source must be one of serial, gpsd, replay (got %q)", g.Source)
	}
	if g.Record.Enable && g.Record.Path == "" {
		return errors.New("gps.record.path is required when gps.record.enable is true")
	}
	if g.EnablePin < 0 {
		return errors.New("gps.enable_pin must be >= 0")
	}

	if cfg.Web.Listen == "" {
		cfg.Web.Listen = ":8080"
	}
	if cfg.Web.PushInterval <= 0 {
		cfg.Web.PushInterval = 250 * time.Millisecond
	}

	m := &cfg.MQTT
	if m.Enable {
		if m.Broker == "" {
			return errors.New("mqtt.broker is required")
		}
		if m.QoS > 2 {
			return errors.New("mqtt.qos must be 0, 1 or 2")
		}
	}
	if m.ClientID == "" {
		m.ClientID = "gpsfix"
	}
	if m.Topic == "" {
		m.Topic = "gpsfix/status"
	}
	if m.Interval <= 0 {
		m.Interval = 1 * time.Second
	}

	if cfg.UDP.Enable && cfg.UDP.Dest == "" {
		return errors.New("udp.dest is required")
	}
	if cfg.UDP.Interval <= 0 {
		cfg.UDP.Interval = 1 * time.Second
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	switch cfg.Log.Format {
	case "":
		cfg.Log.Format = "console"
	case "console", "json":
	default:
		return errors.Errorf("log.format must be 'console' or 'json' (got %q)", cfg.Log.Format)
	}
	return nil
}
