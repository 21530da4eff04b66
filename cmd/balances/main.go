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
	"errors"
	"flag"
	"fmt"

	"escrow-ledger-go/internal/common"
	"escrow-ledger-go/internal/config"
	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"go.uber.org/zap"
)

type balanceStats struct {
	totalUsers     int
	walletsPrinted int
}

func formatTransactionId(txId string) string {
	if txId == "" {
		return "none"
	}
	if len(txId) > 8 {
		return txId[:8] + "..."
	}
	return txId
}

func printWallet(wallet *models.Wallet, currency *models.Currency) {
	fmt.Printf("  Wallet %s (%s)\n", wallet.Id, wallet.CurrencyCode)
	fmt.Printf("    Balance:   %20s\n", common.FormatAmount(wallet.Balance, currency))
	fmt.Printf("    Available: %20s\n", common.FormatAmount(wallet.AvailableBalance, currency))
	fmt.Printf("    Version:   %d, updated: %s\n", wallet.Version, wallet.UpdatedAt.Format("2006-01-02 15:04:05"))
}

func printEscrow(escrow *models.EscrowAccount, currency *models.Currency) {
	label := "default"
	if escrow.ContractId != "" {
		label = "contract " + escrow.ContractId
	}
	fmt.Printf("  Escrow %s (%s)\n", escrow.Id, label)
	fmt.Printf("    Balance:   %20s\n", common.FormatAmount(escrow.Balance, currency))
}

func printHistory(transactions []models.Transaction, currency *models.Currency) {
	if len(transactions) == 0 {
		return
	}
	fmt.Printf("  Recent transactions:\n")
	for _, tx := range transactions {
		fmt.Printf("    %s  %-14s %20s  %s (%s)\n",
			tx.CreatedAt.Format("2006-01-02 15:04:05"),
			tx.Type,
			common.FormatAmount(tx.Amount, currency),
			formatTransactionId(tx.Id),
			tx.Status)
	}
}

func processUser(ctx context.Context, services *common.Services, user models.User, historyLimit int) error {
	wallet, err := services.DbService.GetWalletByUserId(ctx, user.Id)
	if err != nil {
		return fmt.Errorf("failed to get wallet: %w", err)
	}

	currency, err := services.DbService.GetCurrency(ctx, wallet.CurrencyCode)
	if err != nil {
		zap.L().Warn("Currency lookup failed", zap.String("code", wallet.CurrencyCode), zap.Error(err))
	}

	fmt.Printf("\nUser: %s (%s) [%s]\n", user.Name, user.Email, user.Role)
	printWallet(wallet, currency)

	escrow, err := services.DbService.GetEscrowAccountByUserId(ctx, user.Id)
	if err != nil && !errors.Is(err, store.ErrEscrowNotFound) {
		return fmt.Errorf("failed to get escrow account: %w", err)
	}
	if err == nil {
		printEscrow(escrow, currency)
	}

	if historyLimit > 0 {
		history, err := services.DbService.GetWalletTransactionHistory(ctx, wallet.Id, historyLimit, 0)
		if err != nil {
			return fmt.Errorf("failed to get wallet history: %w", err)
		}
		printHistory(history, currency)
	}

	return nil
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	emailFlag := flag.String("email", "", "Filter by specific user email (optional)")
	historyFlag := flag.Int("history", 0, "Show the N most recent wallet transactions")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	var users []models.User
	if *emailFlag != "" {
		user, err := services.DbService.GetUserByEmail(ctx, *emailFlag)
		if err != nil {
			zap.L().Fatal("User lookup failed", zap.String("email", *emailFlag), zap.Error(err))
		}
		users = []models.User{*user}
	} else {
		users, err = services.DbService.GetUsers(ctx)
		if err != nil {
			zap.L().Fatal("Failed to list users", zap.Error(err))
		}
	}

	common.PrintHeader("LEDGER BALANCES", common.DefaultWidth)

	stats := balanceStats{}
	for _, user := range users {
		stats.totalUsers++
		if err := processUser(ctx, services, user, *historyFlag); err != nil {
			zap.L().Error("Failed to process user",
				zap.String("user_id", user.Id),
				zap.String("user_name", user.Name),
				zap.Error(err))
			continue
		}
		stats.walletsPrinted++
	}

	common.PrintFooter(
		fmt.Sprintf("Users: %d, wallets printed: %d", stats.totalUsers, stats.walletsPrinted),
		common.DefaultWidth)
}
