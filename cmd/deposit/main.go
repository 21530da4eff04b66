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

	"escrow-ledger-go/internal/api"
	"escrow-ledger-go/internal/common"
	"escrow-ledger-go/internal/config"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type depositRequest struct {
	email     string
	amount    decimal.Decimal
	reference string
	gateway   string
}

func parseAndValidateFlags() (*depositRequest, error) {
	emailFlag := flag.String("email", "", "User email (required)")
	amountFlag := flag.String("amount", "", "Amount to deposit (required)")
	referenceFlag := flag.String("reference", "", "Gateway transaction reference (optional, generated when empty)")
	gatewayFlag := flag.String("gateway", "manual", "Payment gateway name recorded in metadata")
	flag.Parse()

	if *emailFlag == "" || *amountFlag == "" {
		return nil, fmt.Errorf("required flags: --email, --amount")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &depositRequest{
		email:     *emailFlag,
		amount:    amount,
		reference: *referenceFlag,
		gateway:   *gatewayFlag,
	}, nil
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

	apiService := api.NewLedgerService(services.DbService)

	user, err := services.DbService.GetUserByEmail(ctx, request.email)
	if err != nil {
		zap.L().Fatal("User lookup failed", zap.String("email", request.email), zap.Error(err))
	}

	wallet, err := services.DbService.GetWalletByUserId(ctx, user.Id)
	if err != nil {
		zap.L().Fatal("Wallet lookup failed", zap.String("user_id", user.Id), zap.Error(err))
	}

	result, err := apiService.Deposit(ctx, wallet.Id, request.amount, request.reference,
		map[string]string{"gateway": request.gateway})
	if err != nil {
		if api.IsBusinessError(err) {
			fmt.Printf("Deposit rejected: %v\n", err)
			return
		}
		zap.L().Fatal("Deposit failed", zap.Error(err))
	}

	currency, err := services.DbService.GetCurrency(ctx, wallet.CurrencyCode)
	if err != nil {
		zap.L().Warn("Currency lookup failed", zap.String("code", wallet.CurrencyCode), zap.Error(err))
	}

	common.PrintHeader("DEPOSIT RECORDED", common.DefaultWidth)
	fmt.Printf("User:           %s (%s)\n", user.Name, user.Email)
	fmt.Printf("Transaction:    %s\n", result.TransactionId)
	fmt.Printf("Reference:      %s\n", result.Reference)
	fmt.Printf("Amount:         %s\n", common.FormatAmount(result.Amount, currency))
	fmt.Printf("New balance:    %s\n", common.FormatAmount(result.NewBalance, currency))
	fmt.Printf("New available:  %s\n", common.FormatAmount(result.NewAvailable, currency))
	common.PrintFooter("Done", common.DefaultWidth)
}
