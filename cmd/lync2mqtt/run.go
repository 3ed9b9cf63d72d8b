package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/enobrev/htd-lync-mqtt/internal/api"
	"github.com/enobrev/htd-lync-mqtt/internal/bridge"
	"github.com/enobrev/htd-lync-mqtt/internal/discovery"
	"github.com/enobrev/htd-lync-mqtt/internal/infrastructure/logging"
	"github.com/enobrev/htd-lync-mqtt/internal/infrastructure/mqtt"
	"github.com/enobrev/htd-lync-mqtt/internal/lync"
)

// run is the application logic, separated from main for testability.
// It returns nil on a clean shutdown after ctx is cancelled.
func run(ctx context.Context, configFlag string) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting lync2mqtt",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, path, err := loadConfig(configFlag)
	if err != nil {
		return err
	}

	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded", "path", path, "controller", cfg.Lync.Address())

	topics := mqtt.Topics{Prefix: cfg.Bridge.TopicPrefix}

	// MQTT client. Callbacks must be in place before Connect so the first
	// connect is not missed.
	mqttClient, err := mqtt.NewClient(cfg.MQTT, topics.Status())
	if err != nil {
		return fmt.Errorf("creating MQTT client: %w", err)
	}
	mqttClient.SetLogger(log)
	qos := mqttClient.QoS()

	// Controller connection
	lyncClient := lync.NewClient(lync.Config{
		Address:              cfg.Lync.Address(),
		ConnectTimeout:       cfg.Lync.GetConnectTimeout(),
		WriteTimeout:         cfg.Lync.GetWriteTimeout(),
		ReconnectInterval:    cfg.Lync.Reconnect.GetInitialDelay(),
		MaxReconnectInterval: cfg.Lync.Reconnect.GetMaxDelay(),
	})
	lyncClient.SetLogger(log.With("component", "lync"))

	disco := discovery.New(discovery.Options{
		Enabled:     cfg.Discovery.Enabled,
		Prefix:      cfg.Discovery.Prefix,
		DeviceGroup: cfg.Discovery.DeviceGroup,
		DeviceName:  cfg.Discovery.DeviceName,
		Topics:      topics,
		QoS:         qos,
		Publisher:   mqttClient,
		Logger:      log.With("component", "discovery"),
	})

	b, err := bridge.New(bridge.Options{
		TopicPrefix:    cfg.Bridge.TopicPrefix,
		QoS:            qos,
		Version:        version,
		DeviceAddress:  cfg.Lync.Address(),
		HealthInterval: cfg.Bridge.GetHealthInterval(),
		LaneQueueSize:  cfg.Bridge.LaneQueueSize,
		MQTT:           mqttClient,
		Device:         lyncClient,
		Discovery:      disco,
		Logger:         log.With("component", "bridge"),
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected")
		b.NotifyMQTTConnected()
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	if err := mqttClient.Connect(ctx); err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Status API (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:  cfg.API,
			Logger:  log.With("component", "api"),
			State:   b.Mirror(),
			Health:  b,
			Broker:  mqttClient,
			Intents: b.Sequencer(),
			Version: version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return lyncClient.Run(gctx)
	})
	g.Go(func() error {
		return b.Run(gctx)
	})

	log.Info("lync2mqtt running", "prefix", cfg.Bridge.TopicPrefix, "discovery", disco.Enabled())

	<-gctx.Done()
	log.Info("shutdown signal received")

	if closeErr := lyncClient.Close(); closeErr != nil {
		log.Error("error closing controller connection", "error", closeErr)
	}
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("lync2mqtt stopped")
	return nil
}
