package api

import (
	"context"
	"errors"
	"fmt"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RequestWithdrawal debits the wallet and records a pending payout to the
// external provider. A timeout on this call means "unknown outcome": retry
// with the same reference and rely on duplicate detection.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, walletId string, amount decimal.Decimal, provider, reference string, metadata map[string]string) (*models.Withdrawal, error) {
	if walletId == "" || provider == "" {
		return nil, fmt.Errorf("wallet_id and provider are required")
	}

	zap.L().Info("Processing withdrawal request",
		zap.String("wallet_id", walletId),
		zap.String("amount", amount.String()),
		zap.String("provider", provider))

	withdrawal, err := s.db.RequestWithdrawal(ctx, store.RequestWithdrawalParams{
		WalletId:  walletId,
		Amount:    amount,
		Provider:  provider,
		Reference: reference,
		Metadata:  metadata,
	})
	if err != nil {
		if errors.Is(err, store.ErrInsufficientFunds) {
			zap.L().Info("Withdrawal rejected: insufficient funds",
				zap.String("wallet_id", walletId),
				zap.String("amount", amount.String()))
		} else {
			zap.L().Error("Withdrawal request failed",
				zap.String("wallet_id", walletId),
				zap.String("amount", amount.String()),
				zap.Error(err))
		}
		return nil, err
	}

	return withdrawal, nil
}

// ConfirmWithdrawal settles a pending withdrawal after the provider confirms.
func (s *LedgerService) ConfirmWithdrawal(ctx context.Context, withdrawalId, providerReference string) (*models.Withdrawal, error) {
	if withdrawalId == "" {
		return nil, fmt.Errorf("withdrawal_id is required")
	}
	return s.db.ConfirmWithdrawal(ctx, withdrawalId, providerReference)
}

// FailWithdrawal marks a withdrawal rejected by the provider and credits the
// funds back to the wallet. Safe to call more than once.
func (s *LedgerService) FailWithdrawal(ctx context.Context, withdrawalId, reason string) (*models.Withdrawal, error) {
	if withdrawalId == "" {
		return nil, fmt.Errorf("withdrawal_id is required")
	}
	return s.db.FailWithdrawal(ctx, withdrawalId, reason)
}
