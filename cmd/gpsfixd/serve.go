package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"gpsfix/internal/config"
	"gpsfix/internal/gpio"
	"gpsfix/internal/gps"
	"gpsfix/internal/mqtt"
	"gpsfix/internal/udp"
	"gpsfix/internal/web"
)

type ServeCmd struct{}

func (c *ServeCmd) Run(ctx context.Context, g *Globals) error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}

	logs := web.NewLogBuffer(2000)
	logger, err := newLogger(cfg.Log, os.Stderr, logs)
	if err != nil {
		return err
	}
	logger.Info().Str("config", g.Config).Msg("gpsfixd starting")

	if cfg.GPS.EnablePin > 0 {
		line, err := gpio.Open(gpio.Config{
			Pin:       cfg.GPS.EnablePin,
			ActiveLow: cfg.GPS.EnableActiveLow,
			Logger:    &logger,
		})
		if err != nil {
			// Receivers without a power switch still stream; keep going.
			logger.Warn().Err(err).Int("pin", cfg.GPS.EnablePin).Msg("receiver enable line unavailable")
		} else {
			defer line.Close()
		}
	}

	svc := gps.New(gpsConfig(cfg.GPS, &logger))
	if err := svc.Start(ctx); err != nil {
		// The error is also in the published snapshot for the web UI.
		logger.Error().Err(err).Msg("gps start failed")
	}
	defer svc.Close()

	grp, gctx := errgroup.WithContext(ctx)

	if cfg.Web.Enable {
		srv := web.New(svc, web.Options{
			PushInterval: cfg.Web.PushInterval,
			Logs:         logs,
			Logger:       &logger,
		})
		grp.Go(func() error {
			return errors.Wrap(srv.Serve(gctx, cfg.Web.Listen), "web")
		})
	}

	if cfg.MQTT.Enable {
		pub, err := mqtt.Connect(mqttConfig(cfg.MQTT, &logger))
		if err != nil {
			return err
		}
		defer pub.Close()
		grp.Go(func() error {
			return pub.Run(gctx, svc)
		})
	}

	if cfg.UDP.Enable {
		b, err := udp.NewBroadcaster(cfg.UDP.Dest, &logger)
		if err != nil {
			return errors.Wrapf(err, "udp dest=%s", cfg.UDP.Dest)
		}
		defer b.Close()
		logger.Info().Str("dest", cfg.UDP.Dest).Dur("interval", cfg.UDP.Interval).Msg("udp enabled")
		grp.Go(func() error {
			return b.Run(gctx, cfg.UDP.Interval, func() ([]byte, error) {
				return json.Marshal(svc.Snapshot())
			})
		})
	}

	grp.Go(func() error {
		<-gctx.Done()
		return nil
	})
	err = grp.Wait()
	logger.Info().Msg("gpsfixd stopping")
	return err
}

func gpsConfig(c config.GPSConfig, logger *zerolog.Logger) gps.Config {
	out := gps.Config{
		Enable:      c.Enable,
		Source:      c.Source,
		Device:      c.Device,
		Baud:        c.Baud,
		GPSDAddr:    c.GPSDAddr,
		ReplayPath:  c.Replay.Path,
		ReplaySpeed: c.Replay.Speed,
		ReplayLoop:  c.Replay.Loop,
		Logger:      logger,
	}
	if c.Record.Enable {
		out.RecordPath = c.Record.Path
	}
	return out
}

func mqttConfig(c config.MQTTConfig, logger *zerolog.Logger) mqtt.Config {
	return mqtt.Config{
		Broker:   c.Broker,
		ClientID: c.ClientID,
		Username: c.Username,
		Password: c.Password,
		Topic:    c.Topic,
		QoS:      c.QoS,
		Retain:   c.Retain,
		Interval: c.Interval,
		Logger:   logger,
	}
}
