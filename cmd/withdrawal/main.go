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
	"escrow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type withdrawalFlags struct {
	email       string
	amount      string
	provider    string
	reference   string
	confirmId   string
	providerRef string
	failId      string
	reason      string
}

func parseFlags() *withdrawalFlags {
	f := &withdrawalFlags{}
	flag.StringVar(&f.email, "email", "", "User email (required for a new request)")
	flag.StringVar(&f.amount, "amount", "", "Amount to withdraw (required for a new request)")
	flag.StringVar(&f.provider, "provider", "bank", "Payout provider (bank, mobile_money)")
	flag.StringVar(&f.reference, "reference", "", "Idempotency reference (optional, generated when empty)")
	flag.StringVar(&f.confirmId, "confirm", "", "Withdrawal id to confirm")
	flag.StringVar(&f.providerRef, "provider-ref", "", "Provider reference for confirmation")
	flag.StringVar(&f.failId, "fail", "", "Withdrawal id to mark failed (funds are returned)")
	flag.StringVar(&f.reason, "reason", "", "Failure reason")
	flag.Parse()
	return f
}

func printWithdrawal(withdrawal *models.Withdrawal) {
	fmt.Printf("Withdrawal:   %s\n", withdrawal.Id)
	fmt.Printf("Wallet:       %s\n", withdrawal.WalletId)
	fmt.Printf("Amount:       %s\n", withdrawal.Amount.String())
	fmt.Printf("Provider:     %s\n", withdrawal.Provider)
	fmt.Printf("Status:       %s\n", withdrawal.Status)
	fmt.Printf("Reference:    %s\n", withdrawal.TransactionReference)
	if withdrawal.ProviderReference != "" {
		fmt.Printf("Provider ref: %s\n", withdrawal.ProviderReference)
	}
}

func runRequest(ctx context.Context, services *common.Services, apiService *api.LedgerService, f *withdrawalFlags) error {
	if f.email == "" || f.amount == "" {
		return fmt.Errorf("required flags for a new request: --email, --amount")
	}

	amount, err := decimal.NewFromString(f.amount)
	if err != nil {
		return fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("amount must be greater than zero")
	}

	user, err := services.DbService.GetUserByEmail(ctx, f.email)
	if err != nil {
		return fmt.Errorf("user lookup failed: %w", err)
	}

	wallet, err := services.DbService.GetWalletByUserId(ctx, user.Id)
	if err != nil {
		return fmt.Errorf("wallet lookup failed: %w", err)
	}

	withdrawal, err := apiService.RequestWithdrawal(ctx, wallet.Id, amount, f.provider, f.reference, nil)
	if err != nil {
		if api.IsBusinessError(err) {
			fmt.Printf("Withdrawal rejected: %v\n", err)
			return nil
		}
		return err
	}

	common.PrintHeader("WITHDRAWAL REQUESTED", common.DefaultWidth)
	printWithdrawal(withdrawal)
	common.PrintFooter("Pending provider confirmation", common.DefaultWidth)
	return nil
}

func runConfirm(ctx context.Context, apiService *api.LedgerService, f *withdrawalFlags) error {
	withdrawal, err := apiService.ConfirmWithdrawal(ctx, f.confirmId, f.providerRef)
	if err != nil {
		return err
	}
	common.PrintHeader("WITHDRAWAL CONFIRMED", common.DefaultWidth)
	printWithdrawal(withdrawal)
	common.PrintFooter("Done", common.DefaultWidth)
	return nil
}

func runFail(ctx context.Context, apiService *api.LedgerService, f *withdrawalFlags) error {
	withdrawal, err := apiService.FailWithdrawal(ctx, f.failId, f.reason)
	if err != nil {
		return err
	}
	common.PrintHeader("WITHDRAWAL FAILED", common.DefaultWidth)
	printWithdrawal(withdrawal)
	common.PrintFooter("Funds returned to wallet", common.DefaultWidth)
	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	f := parseFlags()

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

	switch {
	case f.confirmId != "":
		err = runConfirm(ctx, apiService, f)
	case f.failId != "":
		err = runFail(ctx, apiService, f)
	default:
		err = runRequest(ctx, services, apiService, f)
	}

	if err != nil {
		zap.L().Fatal("Withdrawal operation failed", zap.Error(err))
	}
}
