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

package api

import (
	"context"
	"fmt"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"
)

// LedgerService is the surface exposed to the job/proposal/contract/payment
// layers. It wraps the transaction engine with typed convenience operations.
type LedgerService struct {
	db store.LedgerStore
}

func NewLedgerService(db store.LedgerStore) *LedgerService {
	return &LedgerService{
		db: db,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	_, err := s.db.GetUsers(ctx)
	if err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// GetWallet returns the balances and currency for a user's wallet.
func (s *LedgerService) GetWallet(ctx context.Context, userId string) (*models.WalletBalance, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	wallet, err := s.db.GetWalletByUserId(ctx, userId)
	if err != nil {
		return nil, err
	}

	return &models.WalletBalance{
		WalletId:         wallet.Id,
		UserId:           wallet.UserId,
		Balance:          wallet.Balance,
		AvailableBalance: wallet.AvailableBalance,
		CurrencyCode:     wallet.CurrencyCode,
	}, nil
}

// GetEscrowAccount returns a client's default escrow account.
func (s *LedgerService) GetEscrowAccount(ctx context.Context, userId string) (*models.EscrowAccount, error) {
	if userId == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	return s.db.GetEscrowAccountByUserId(ctx, userId)
}

// GetWalletHistory returns a wallet's transactions, newest first.
func (s *LedgerService) GetWalletHistory(ctx context.Context, walletId string, limit, offset int) ([]models.Transaction, error) {
	if walletId == "" {
		return nil, fmt.Errorf("wallet_id is required")
	}
	if limit <= 0 {
		limit = 50
	}
	return s.db.GetWalletTransactionHistory(ctx, walletId, limit, offset)
}

// GetEscrowHistory returns an escrow account's transactions, newest first.
func (s *LedgerService) GetEscrowHistory(ctx context.Context, escrowId string, limit, offset int) ([]models.Transaction, error) {
	if escrowId == "" {
		return nil, fmt.Errorf("escrow_id is required")
	}
	if limit <= 0 {
		limit = 50
	}
	return s.db.GetEscrowTransactionHistory(ctx, escrowId, limit, offset)
}
