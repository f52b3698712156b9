package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
)

type Globals struct {
	Config    string `help:"Path to YAML config. Built-in defaults are used when empty." short:"c" type:"path"`
	LogLevel  string `help:"Override log.level (trace, debug, info, warn, error)." name:"log-level"`
	LogFormat string `help:"Override log.format (console, json)." name:"log-format"`
}

type CLI struct {
	Globals

	Serve   ServeCmd   `cmd:"" default:"1" help:"Read the receiver and serve the fix over HTTP, MQTT and UDP."`
	Decode  DecodeCmd  `cmd:"" help:"Feed a capture through the parser and print one JSON snapshot per committed sentence."`
	Summary SummaryCmd `cmd:"" help:"Summarize a recorded capture."`
}

func main() {
	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("gpsfixd"),
		kong.Description("NMEA-0183 receiver daemon."),
		kong.UsageOnError(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	kctx.BindTo(ctx, (*context.Context)(nil))
	err := kctx.Run(&cli.Globals)
	cancel()
	kctx.FatalIfErrorf(err)
}
