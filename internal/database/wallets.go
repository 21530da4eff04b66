package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// maxCASRetries bounds the optimistic-lock retry loop for standalone wallet
// primitives. Engine-internal mutations run inside one database transaction
// and do not retry.
const maxCASRetries = 5

// dbtx is satisfied by both *sql.DB and *sql.Tx so row helpers can run inside
// or outside the engine's transaction scope.
type dbtx interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func scanWallet(row *sql.Row) (*models.Wallet, error) {
	var w models.Wallet
	var balanceStr, availableStr string
	err := row.Scan(&w.Id, &w.UserId, &w.CurrencyCode, &balanceStr, &availableStr,
		&w.Version, &w.CreatedAt, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	w.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse balance '%s': %w", balanceStr, err)
	}
	w.AvailableBalance, err = decimal.NewFromString(availableStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse available balance '%s': %w", availableStr, err)
	}
	return &w, nil
}

func getWalletByUserId(ctx context.Context, q dbtx, userId string) (*models.Wallet, error) {
	return scanWallet(q.QueryRowContext(ctx, queryGetWalletByUserId, userId))
}

func getWalletById(ctx context.Context, q dbtx, walletId string) (*models.Wallet, error) {
	return scanWallet(q.QueryRowContext(ctx, queryGetWalletById, walletId))
}

func (s *Service) GetWalletByUserId(ctx context.Context, userId string) (*models.Wallet, error) {
	return getWalletByUserId(ctx, s.db, userId)
}

func (s *Service) GetWalletById(ctx context.Context, walletId string) (*models.Wallet, error) {
	return getWalletById(ctx, s.db, walletId)
}

// applyWalletBalances writes both balance columns with an optimistic lock on
// the version column. Zero rows affected means a concurrent writer got there
// first and nothing was changed.
func applyWalletBalances(ctx context.Context, q dbtx, walletId string, balance, available decimal.Decimal, version int64) error {
	result, err := q.ExecContext(ctx, queryUpdateWalletBalances,
		balance.String(), available.String(), walletId, version)
	if err != nil {
		return fmt.Errorf("failed to update wallet balances: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("wallet %s balance update: %w", walletId, store.ErrConcurrentModification)
	}
	return nil
}

// mutateWallet runs a bounded compare-and-swap loop: load the wallet, compute
// new balances, apply conditionally on the loaded version.
func (s *Service) mutateWallet(ctx context.Context, walletId string, mutate func(*models.Wallet) (balance, available decimal.Decimal, err error)) error {
	for attempt := 0; attempt < maxCASRetries; attempt++ {
		w, err := s.GetWalletById(ctx, walletId)
		if err != nil {
			return err
		}

		newBalance, newAvailable, err := mutate(w)
		if err != nil {
			return err
		}

		err = applyWalletBalances(ctx, s.db, w.Id, newBalance, newAvailable, w.Version)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrConcurrentModification) {
			return err
		}

		zap.L().Debug("Wallet update lost optimistic lock, retrying",
			zap.String("wallet_id", walletId),
			zap.Int("attempt", attempt+1))
	}
	return fmt.Errorf("wallet %s: too many concurrent updates: %w", walletId, store.ErrConcurrentModification)
}

// AdjustBalance atomically adjusts the spendable balance only. Callers moving
// funds in or out of holds must also adjust the available balance.
func (s *Service) AdjustBalance(ctx context.Context, walletId string, amount decimal.Decimal, allowNegative bool) error {
	return s.mutateWallet(ctx, walletId, func(w *models.Wallet) (decimal.Decimal, decimal.Decimal, error) {
		newBalance := w.Balance.Add(amount)
		if !allowNegative && newBalance.IsNegative() {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: balance %s, adjustment %s",
				store.ErrInsufficientFunds, w.Balance.String(), amount.String())
		}
		return newBalance, w.AvailableBalance, nil
	})
}

// PlaceHold moves funds out of the available balance without touching the
// total balance. Fails when the wallet has less available than requested.
func (s *Service) PlaceHold(ctx context.Context, walletId string, amount decimal.Decimal) error {
	return s.mutateWallet(ctx, walletId, func(w *models.Wallet) (decimal.Decimal, decimal.Decimal, error) {
		if w.AvailableBalance.LessThan(amount) {
			return decimal.Zero, decimal.Zero, fmt.Errorf("%w: available %s, requested %s",
				store.ErrInsufficientAvailableFunds, w.AvailableBalance.String(), amount.String())
		}
		return w.Balance, w.AvailableBalance.Sub(amount), nil
	})
}

// ReleaseHold returns previously held funds to the available balance. No
// validation: holds always correspond to prior PlaceHold calls of equal or
// greater amount.
func (s *Service) ReleaseHold(ctx context.Context, walletId string, amount decimal.Decimal) error {
	return s.mutateWallet(ctx, walletId, func(w *models.Wallet) (decimal.Decimal, decimal.Decimal, error) {
		return w.Balance, w.AvailableBalance.Add(amount), nil
	})
}
