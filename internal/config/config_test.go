package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "gps:\n  enable: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Source != "serial" || cfg.GPS.Baud != 9600 {
		t.Fatalf("gps source=%q baud=%d", cfg.GPS.Source, cfg.GPS.Baud)
	}
	if cfg.Web.Listen != ":8080" || cfg.Web.PushInterval != 250*time.Millisecond {
		t.Fatalf("web=%+v", cfg.Web)
	}
	if cfg.MQTT.Topic != "gpsfix/status" || cfg.MQTT.ClientID != "gpsfix" || cfg.MQTT.Interval != 1*time.Second {
		t.Fatalf("mqtt=%+v", cfg.MQTT)
	}
	if cfg.UDP.Interval != 1*time.Second {
		t.Fatalf("udp interval=%s want 1s", cfg.UDP.Interval)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "console" {
		t.Fatalf("log=%+v", cfg.Log)
	}
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeTempConfig(t, "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Enable {
		t.Fatalf("gps should stay disabled unless asked")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if !cfg.GPS.Enable || !cfg.Web.Enable || cfg.GPS.Source != "serial" {
		t.Fatalf("cfg=%+v", cfg)
	}
}

func TestLoad_GPSDDefaultAddr(t *testing.T) {
	path := writeTempConfig(t, "gps:\n  enable: true\n  source: GPSD\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Source != "gpsd" || cfg.GPS.GPSDAddr != "127.0.0.1:2947" {
		t.Fatalf("gps=%+v", cfg.GPS)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "UnknownSource",
			body: "gps:\n  source: bluetooth\n",
			want: `gps.source must be one of serial, gpsd, replay (got "bluetooth")`,
		},
		{
			name: "ReplayRequiresPath",
			body: "gps:\n  source: replay\n",
			want: "gps.replay.path is required when gps.source is 'replay'",
		},
		{
			name: "ReplayNegativeSpeed",
			body: "gps:\n  source: replay\n  replay:\n    path: x.log\n    speed: -1\n",
			want: "gps.replay.speed must be > 0",
		},
		{
			name: "RecordAndReplayExclusive",
			body: "gps:\n  source: replay\n  replay:\n    path: x.log\n  record:\n    enable: true\n    path: y.log\n",
			want: "gps.record cannot be used with gps.source 'replay'",
		},
		{
			name: "RecordRequiresPath",
			body: "gps:\n  record:\n    enable: true\n",
			want: "gps.record.path is required when gps.record.enable is true",
		},
		{
			name: "NegativeBaud",
			body: "gps:\n  baud: -9600\n",
			want: "gps.baud must be > 0",
		},
		{
			name: "NegativePin",
			body: "gps:\n  enable_pin: -1\n",
			want: "gps.enable_pin must be >= 0",
		},
		{
			name: "MQTTRequiresBroker",
			body: "mqtt:\n  enable: true\n",
			want: "mqtt.broker is required",
		},
		{
			name: "MQTTQoS",
			body: "mqtt:\n  enable: true\n  broker: tcp://localhost:1883\n  qos: 3\n",
			want: "mqtt.qos must be 0, 1 or 2",
		},
		{
			name: "UDPRequiresDest",
			body: "udp:\n  enable: true\n",
			want: "udp.dest is required",
		},
		{
			name: "LogFormat",
			body: "log:\n  format: xml\n",
			want: `log.format must be 'console' or 'json' (got "xml")`,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.body))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_ReplaySpeedDefaultsToOne(t *testing.T) {
	path := writeTempConfig(t, "gps:\n  source: replay\n  replay:\n    path: './x.log'\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.GPS.Replay.Speed != 1 {
		t.Fatalf("speed=%v want 1", cfg.GPS.Replay.Speed)
	}
}

func TestLoad_Durations(t *testing.T) {
	path := writeTempConfig(t, "mqtt:\n  interval: 5s\nudp:\n  interval: 500ms\nweb:\n  push_interval: 1s\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.MQTT.Interval != 5*time.Second || cfg.UDP.Interval != 500*time.Millisecond || cfg.Web.PushInterval != time.Second {
		t.Fatalf("mqtt=%s udp=%s web=%s", cfg.MQTT.Interval, cfg.UDP.Interval, cfg.Web.PushInterval)
	}
}

func TestLoad_RejectsUnknownField(t *testing.T) {
	path := writeTempConfig(t, "gps:\n  bogus: 1\n")
	_, err := Load(path)
	if err == nil || !strings.Contains(err.Error(), "bogus") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !os.IsNotExist(errors.Cause(err)) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}
