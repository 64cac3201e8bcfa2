package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/bridge"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/entities"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/gateways/bactosense"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/gateways/cloud"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/gateways/state"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/logging"
	"github.com/janael-pinheiro/iotc-bridge-golang/pkg/utils"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

func runBridge(ctx context.Context, opts *options) error {
	conf, identities, err := loadConfiguration(opts)
	if err != nil {
		return err
	}

	log := logging.NewLogrus(conf.LogLevel, os.Stdout).Get("Bridge")
	store, err := state.NewFileStore(conf.StateDir)
	if err != nil {
		return errors.Wrap(err, "prepare state directory")
	}
	poller := bactosense.NewPoller(conf.DeviceAPI)
	connector := cloud.NewConnector(conf.Cloud.URL, conf.DuplicationFilter, log)
	metrics := bridge.NewMetrics(prometheus.DefaultRegisterer)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if opts.metricsAddr != "" {
		server := serveMetrics(opts.metricsAddr, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Shutdown(shutdownCtx)
		}()
	}

	fleet := bridge.NewFleet(func(identity entities.Identity) bridge.DeviceContext {
		deviceLog := logging.ForDevice(log, identity.DeviceID)
		return bridge.DeviceContext{
			Identity:       identity,
			Poller:         poller,
			Store:          store,
			Connector:      connector,
			Handlers:       cloud.LoggingHandlers(deviceLog),
			Metrics:        metrics,
			Log:            log,
			PollInterval:   conf.PollInterval,
			ConnectRetries: conf.ConnectRetries,
		}
	}, log)

	log.WithField("devices", len(identities)).Info("starting bridge")
	failures := fleet.Run(ctx, sortedIdentities(identities))
	for deviceID, err := range failures {
		log.WithField("device", deviceID).WithError(err).Error("device was not bridged")
	}
	log.Info("bridge stopped")
	if len(failures) == len(identities) && len(identities) > 0 {
		return fmt.Errorf("no device could be bridged")
	}
	return nil
}

func loadConfiguration(opts *options) (entities.BridgeConfig, map[string]entities.Identity, error) {
	conf, err := utils.LoadBridgeConfiguration(opts.configPath)
	if err != nil {
		return conf, nil, errors.Wrapf(err, "load %s", opts.configPath)
	}
	identities, err := utils.LoadIdentities(opts.devicesPath)
	if err != nil {
		return conf, nil, errors.Wrapf(err, "load %s", opts.devicesPath)
	}
	return conf, identities, nil
}

func serveMetrics(addr string, log *logrus.Entry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	log.WithField("addr", addr).Info("serving metrics")
	return server
}

func sortedIdentities(identities map[string]entities.Identity) []entities.Identity {
	names := make([]string, 0, len(identities))
	for name := range identities {
		names = append(names, name)
	}
	sort.Strings(names)

	sorted := make([]entities.Identity, 0, len(names))
	for _, name := range names {
		sorted = append(sorted, identities[name])
	}
	return sorted
}
