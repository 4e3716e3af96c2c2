package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/screenctl/internal/control"
	"github.com/danmuck/screenctl/internal/logging"
	"github.com/danmuck/screenctl/internal/protocol/session"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "screenctl: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to client config toml")
	endpoint := flag.String("endpoint", "", "broker endpoint (overrides config)")
	deviceID := flag.String("device", "", "device identifier (overrides config)")
	flag.Parse()

	logging.ConfigureRuntime()

	cfg := control.DefaultConfig()
	if *configPath != "" {
		loaded, err := loadClientConfig(*configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}
	if *deviceID != "" {
		cfg.DeviceID = *deviceID
	}

	client, err := control.NewController(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start the automation session once, on the first connect.
	var sessionOnce sync.Once
	client.OnConnection(func(connected bool) {
		if !connected {
			return
		}
		sessionOnce.Do(func() {
			go func() {
				runCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
				defer cancel()
				ack, err := client.RunSession(runCtx)
				if err != nil {
					log.Error().Err(err).Msg("screenctl session start failed")
					return
				}
				log.Info().Str("status", ack.Status).Msg("screenctl session ack")
			}()
		})
	})
	client.OnStatus(func(st session.Status) {
		log.Info().Str("state", st.State).Int("code", st.Code).
			Str("message", st.Message).Msg("screenctl session status")
	})

	if err := client.Run(); err != nil {
		return err
	}
	defer client.Stop()

	<-ctx.Done()
	log.Info().Msg("screenctl shutting down")
	return nil
}
