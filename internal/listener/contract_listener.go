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

package listener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"escrow-ledger-go/internal/api"
	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ContractListenerConfig contains configuration for ContractListener
type ContractListenerConfig struct {
	ApiService      *api.LedgerService
	DbService       store.LedgerStore
	PollingInterval time.Duration
	BatchSize       int
	Workers         int
}

// ContractListener drains pending contract-activation events from the inbox
// and dispatches each one through the escrow funding hook. Claiming an event
// is an atomic status flip, so running several listeners is safe: each
// activation funds escrow at most once.
type ContractListener struct {
	apiService *api.LedgerService
	dbService  store.LedgerStore

	pollingInterval time.Duration
	batchSize       int
	workers         int

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
}

// NewContractListener creates a new contract event listener
func NewContractListener(cfg ContractListenerConfig) *ContractListener {
	pollingInterval := cfg.PollingInterval
	if pollingInterval <= 0 {
		pollingInterval = 5 * time.Second
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = 4
	}

	return &ContractListener{
		apiService:      cfg.ApiService,
		dbService:       cfg.DbService,
		pollingInterval: pollingInterval,
		batchSize:       batchSize,
		workers:         workers,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start launches the polling loop.
func (l *ContractListener) Start(ctx context.Context) error {
	if l.apiService == nil || l.dbService == nil {
		return fmt.Errorf("listener requires api and db services")
	}

	zap.L().Info("Starting contract event listener",
		zap.Duration("polling_interval", l.pollingInterval),
		zap.Int("batch_size", l.batchSize),
		zap.Int("workers", l.workers))

	go l.run(ctx)
	return nil
}

// Stop signals the loop to exit and waits for it to finish.
func (l *ContractListener) Stop() {
	close(l.stopChan)
	<-l.doneChan
}

func (l *ContractListener) run(ctx context.Context) {
	defer close(l.doneChan)

	ticker := time.NewTicker(l.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := l.DrainPendingEvents(ctx); err != nil {
				zap.L().Error("Failed to drain pending contract events", zap.Error(err))
			}
		case <-l.stopChan:
			zap.L().Info("Contract event listener stopped")
			return
		case <-ctx.Done():
			zap.L().Info("Contract event listener context cancelled")
			return
		}
	}
}

// DrainPendingEvents fetches one batch of pending activation events and
// processes them with a bounded worker group.
func (l *ContractListener) DrainPendingEvents(ctx context.Context) error {
	events, err := l.dbService.GetPendingActivationEvents(ctx, l.batchSize)
	if err != nil {
		return fmt.Errorf("failed to fetch pending events: %w", err)
	}
	if len(events) == 0 {
		return nil
	}

	zap.L().Info("Draining pending contract events", zap.Int("count", len(events)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.workers)
	for _, event := range events {
		event := event
		g.Go(func() error {
			if err := l.ProcessEvent(gctx, &event); err != nil {
				zap.L().Error("Failed to process contract event",
					zap.String("event_id", event.Id),
					zap.String("contract_id", event.ContractId),
					zap.Error(err))
			}
			// One bad event must not stop the batch.
			return nil
		})
	}
	return g.Wait()
}

// ProcessEvent claims one event and runs the escrow funding hook. Losing the
// claim race is not an error: another worker owns the event.
func (l *ContractListener) ProcessEvent(ctx context.Context, event *models.ContractEvent) error {
	if err := l.dbService.ClaimContractEvent(ctx, event.Id); err != nil {
		if errors.Is(err, store.ErrEventAlreadyClaimed) {
			zap.L().Debug("Contract event already claimed",
				zap.String("event_id", event.Id),
				zap.String("contract_id", event.ContractId))
			return nil
		}
		return err
	}

	_, fundErr := l.apiService.FundContractEscrow(ctx, event)
	if fundErr != nil {
		if finishErr := l.dbService.FinishContractEvent(ctx, event.Id, models.ContractEventStatusFailed); finishErr != nil {
			zap.L().Error("Failed to mark contract event failed",
				zap.String("event_id", event.Id),
				zap.Error(finishErr))
		}
		return fundErr
	}

	if err := l.dbService.FinishContractEvent(ctx, event.Id, models.ContractEventStatusProcessed); err != nil {
		return fmt.Errorf("failed to mark contract event processed: %w", err)
	}

	zap.L().Info("Contract event processed",
		zap.String("event_id", event.Id),
		zap.String("contract_id", event.ContractId),
		zap.String("amount", event.AgreedBid.String()))
	return nil
}
