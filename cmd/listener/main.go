/**
 * Copyright 2025-present the escrow-ledger-go authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"escrow-ledger-go/internal/api"
	"escrow-ledger-go/internal/common"
	"escrow-ledger-go/internal/config"
	"escrow-ledger-go/internal/listener"

	"go.uber.org/zap"
)

func main() {
	onceFlag := flag.Bool("once", false, "Drain pending events once and exit instead of polling")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		_, _ = zap.NewProduction()
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting contract event listener")

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	apiService := api.NewLedgerService(services.DbService)

	l := listener.NewContractListener(listener.ContractListenerConfig{
		ApiService:      apiService,
		DbService:       services.DbService,
		PollingInterval: cfg.Listener.PollingInterval,
		BatchSize:       cfg.Listener.BatchSize,
		Workers:         cfg.Listener.Workers,
	})

	if *onceFlag {
		if err := l.DrainPendingEvents(ctx); err != nil {
			zap.L().Fatal("Failed to drain pending events", zap.Error(err))
		}
		zap.L().Info("Drained pending events, exiting")
		return
	}

	if err := l.Start(ctx); err != nil {
		zap.L().Fatal("Failed to start listener", zap.Error(err))
	}

	zap.L().Info("Listener running",
		zap.Duration("polling_interval", cfg.Listener.PollingInterval),
		zap.Int("workers", cfg.Listener.Workers))
	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, stopping listener...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		l.Stop()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("Listener stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
	}
}
