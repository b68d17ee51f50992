// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package node

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/blinklabs-io/bowerbird"
	"github.com/blinklabs-io/bowerbird/internal/config"
)

// Options converts the loaded configuration into service options
func Options(cfg *config.Config, logger *slog.Logger) ([]bowerbird.ConfigOptionFunc, error) {
	opts := []bowerbird.ConfigOptionFunc{
		bowerbird.WithLogger(logger),
		bowerbird.WithNetwork(cfg.Network),
		bowerbird.WithNetworkMagic(cfg.NetworkMagic),
		bowerbird.WithListenAddress(cfg.ListenAddress()),
		bowerbird.WithMetricsAddress(cfg.MetricsAddress()),
		bowerbird.WithTLSCertFilePath(cfg.TlsCertFilePath),
		bowerbird.WithTLSKeyFilePath(cfg.TlsKeyFilePath),
		bowerbird.WithSocketPath(cfg.SocketPath),
		bowerbird.WithSubmitTimeout(cfg.SubmitTimeout),
		bowerbird.WithProtocolParamsFile(cfg.ProtocolParamsFile),
		bowerbird.WithProtocolParamsTTL(cfg.ProtocolParamsTtl),
		bowerbird.WithRelativeTTL(cfg.RelativeTtl),
		bowerbird.WithTokenRegistryURL(cfg.TokenRegistryUrl),
		bowerbird.WithShutdownTimeout(cfg.ShutdownTimeout),
		bowerbird.WithTracing(cfg.Tracing),
		bowerbird.WithTracingStdout(cfg.TracingStdout),
	}
	if cfg.MetricsPort > 0 {
		// Enable metrics with default prometheus registry
		opts = append(
			opts,
			bowerbird.WithPrometheusRegistry(prometheus.DefaultRegisterer),
		)
	}
	clockCfg, ok, err := cfg.SlotClockConfig()
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, bowerbird.WithSlotClock(clockCfg))
	}
	return opts, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(
		"running with config",
		"network", cfg.Network,
		"listen_address", cfg.ListenAddress(),
		"socket_path", cfg.SocketPath,
		"protocol_params_file", cfg.ProtocolParamsFile,
		"component", "node",
	)
	opts, err := Options(cfg, logger)
	if err != nil {
		return err
	}
	b, err := bowerbird.New(bowerbird.NewConfig(opts...))
	if err != nil {
		return err
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// SIGHUP drops the cached protocol parameters
	hupChan := make(chan os.Signal, 1)
	signal.Notify(hupChan, syscall.SIGHUP)
	defer signal.Stop(hupChan)
	go func() {
		for {
			select {
			case <-hupChan:
				b.InvalidateParams()
			case <-signalCtx.Done():
				return
			}
		}
	}()

	if err := b.Run(signalCtx); err != nil {
		logger.Error("shutdown errors occurred", "error", err, "component", "node")
		return err
	}
	logger.Info("shutdown complete", "component", "node")
	return nil
}
