package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urmzd/go-znp/pkg/diag"
	"github.com/urmzd/go-znp/pkg/mt/catalog"
	"github.com/urmzd/go-znp/pkg/znp"
	"github.com/urmzd/go-znp/pkg/znp/config"
	"github.com/urmzd/go-znp/pkg/znp/transport"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	devicePath := flag.String("port", "/dev/ttyUSB0", "path to the ZNP serial device, or \"auto\" to autodetect")
	baudRate := flag.Int("baud", config.DefaultBaudRate, "serial baud rate")
	probeOnly := flag.Bool("probe", false, "ping the device once and exit instead of attaching")
	diagAddr := flag.String("diag-addr", "", "if set, serve the read-only diagnostics HTTP surface on this address")
	flag.Parse()

	doc, _ := json.Marshal(map[string]any{
		"device": map[string]any{"path": *devicePath, "baudrate": *baudRate},
	})
	cfg, err := config.Load(doc)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	if *probeOnly {
		cat, err := catalog.Default()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to build command catalog")
		}
		if cfg.DevicePath == "auto" {
			path, err := transport.Autodetect(cfg, cat)
			if err != nil {
				log.Fatal().Err(err).Msg("no device found")
			}
			log.Info().Str("port", path).Msg("device responded to ping")
			return
		}
		ok, err := transport.Probe(cfg, cat)
		if err != nil {
			log.Fatal().Err(err).Msg("probe failed")
		}
		if !ok {
			log.Fatal().Msg("no response from device")
		}
		log.Info().Str("port", cfg.DevicePath).Msg("device responded to ping")
		return
	}

	ctx := context.Background()

	controller, err := znp.Connect(ctx, cfg, znp.NoopApplication{})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to ZNP radio")
	}
	defer func() {
		if err := controller.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close controller")
		}
	}()

	log.Info().Str("port", cfg.DevicePath).Int("catalog_size", controller.Catalog().Len()).Msg("attached to ZNP radio")

	if *diagAddr != "" {
		router := diag.NewRouter(controller)
		go func() {
			if err := router.Run(*diagAddr); err != nil {
				log.Error().Err(err).Msg("diagnostics server failed")
			}
		}()
		log.Info().Str("address", *diagAddr).Msg("diagnostics server listening")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("shutting down")
}
