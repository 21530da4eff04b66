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
	"fmt"

	"escrow-ledger-go/internal/common"
	"escrow-ledger-go/internal/config"
	"escrow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type contractEventRequest struct {
	contractId string
	clientId   string
	bid        decimal.Decimal
	currency   string
	fromStatus string
	toStatus   string
}

func parseAndValidateFlags() (*contractEventRequest, error) {
	contractFlag := flag.String("contract", "", "Contract id (required)")
	clientFlag := flag.String("client", "", "Client user id or email (required)")
	bidFlag := flag.String("bid", "", "Agreed bid amount (required)")
	currencyFlag := flag.String("currency", "", "Currency code (optional, defaults to the client wallet's currency)")
	fromFlag := flag.String("from", "pending", "Previous contract status")
	toFlag := flag.String("to", models.ContractStatusActive, "New contract status")
	flag.Parse()

	if *contractFlag == "" || *clientFlag == "" || *bidFlag == "" {
		return nil, fmt.Errorf("required flags: --contract, --client, --bid")
	}

	bid, err := decimal.NewFromString(*bidFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid bid format: %w", err)
	}
	if bid.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("bid must be greater than zero")
	}

	return &contractEventRequest{
		contractId: *contractFlag,
		clientId:   *clientFlag,
		bid:        bid,
		currency:   *currencyFlag,
		fromStatus: *fromFlag,
		toStatus:   *toFlag,
	}, nil
}

// resolveClient accepts either a user id or an email for convenience.
func resolveClient(ctx context.Context, services *common.Services, clientRef string) (*models.User, error) {
	if user, err := services.DbService.GetUserById(ctx, clientRef); err == nil {
		return user, nil
	}
	return services.DbService.GetUserByEmail(ctx, clientRef)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	request, err := parseAndValidateFlags()
	if err != nil {
		fmt.Printf("Error: %v\n\n", err)
		flag.Usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	client, err := resolveClient(ctx, services, request.clientId)
	if err != nil {
		zap.L().Fatal("Client lookup failed", zap.String("client", request.clientId), zap.Error(err))
	}

	event, err := services.DbService.RecordContractEvent(ctx, models.ContractEvent{
		ContractId:     request.contractId,
		PreviousStatus: request.fromStatus,
		NewStatus:      request.toStatus,
		ClientUserId:   client.Id,
		AgreedBid:      request.bid,
		CurrencyCode:   request.currency,
	})
	if err != nil {
		zap.L().Fatal("Failed to record contract event", zap.Error(err))
	}

	common.PrintHeader("CONTRACT EVENT RECORDED", common.DefaultWidth)
	fmt.Printf("Event:      %s\n", event.Id)
	fmt.Printf("Contract:   %s\n", event.ContractId)
	fmt.Printf("Transition: %s -> %s\n", event.PreviousStatus, event.NewStatus)
	fmt.Printf("Client:     %s (%s)\n", client.Name, client.Email)
	fmt.Printf("Bid:        %s\n", event.AgreedBid.String())
	fmt.Printf("Status:     %s\n", event.Status)
	if event.Status == models.ContractEventStatusPending {
		fmt.Println("The listener will fund escrow on its next poll.")
	}
	common.PrintFooter("Done", common.DefaultWidth)
}
