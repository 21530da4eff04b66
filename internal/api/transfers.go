package api

import (
	"context"
	"errors"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// withMetadata copies the caller's metadata and stamps the ledger action key.
func withMetadata(action string, metadata map[string]string) map[string]string {
	merged := map[string]string{"action": action}
	for k, v := range metadata {
		merged[k] = v
	}
	return merged
}

func (s *LedgerService) transferResult(ctx context.Context, tx *models.Transaction) *models.TransferResult {
	result := &models.TransferResult{
		Success:       true,
		TransactionId: tx.Id,
		Reference:     tx.Reference,
		WalletId:      tx.WalletId,
		EscrowId:      tx.EscrowId,
		Amount:        tx.Amount,
	}

	if tx.WalletId != "" {
		wallet, err := s.db.GetWalletById(ctx, tx.WalletId)
		if err != nil {
			zap.L().Warn("Wallet lookup failed after transfer", zap.String("wallet_id", tx.WalletId), zap.Error(err))
		} else {
			result.NewBalance = wallet.Balance
			result.NewAvailable = wallet.AvailableBalance
		}
	}
	if tx.EscrowId != "" {
		escrow, err := s.db.GetEscrowAccountById(ctx, tx.EscrowId)
		if err != nil {
			zap.L().Warn("Escrow lookup failed after transfer", zap.String("escrow_id", tx.EscrowId), zap.Error(err))
		} else {
			result.NewEscrowBalance = escrow.Balance
		}
	}
	return result
}

func failedResult(err error) (*models.TransferResult, error) {
	return &models.TransferResult{Success: false, Error: err.Error()}, err
}

// Deposit records a gateway-confirmed deposit into a wallet. The reference is
// the gateway's transaction reference; retried confirmations are rejected as
// duplicates.
func (s *LedgerService) Deposit(ctx context.Context, walletId string, amount decimal.Decimal, reference string, metadata map[string]string) (*models.TransferResult, error) {
	tx, err := s.db.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  walletId,
		Amount:    amount,
		Type:      models.TransactionTypeDeposit,
		Reference: reference,
		Metadata:  withMetadata("deposit", metadata),
	})
	if err != nil {
		return failedResult(err)
	}
	return s.transferResult(ctx, tx), nil
}

// FundEscrowFromWallet places a hold on the client wallet and credits the
// escrow account as one escrow_hold transaction.
func (s *LedgerService) FundEscrowFromWallet(ctx context.Context, walletId, escrowId string, amount decimal.Decimal, reference string, metadata map[string]string) (*models.TransferResult, error) {
	tx, err := s.db.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  walletId,
		EscrowId:  escrowId,
		Amount:    amount,
		Type:      models.TransactionTypeEscrowHold,
		Reference: reference,
		Metadata:  withMetadata("fund_escrow", metadata),
	})
	if err != nil {
		return failedResult(err)
	}
	return s.transferResult(ctx, tx), nil
}

// ReleaseEscrowToWallet moves funds from escrow into the recipient's wallet.
func (s *LedgerService) ReleaseEscrowToWallet(ctx context.Context, escrowId, recipientWalletId string, amount decimal.Decimal, reference string, metadata map[string]string) (*models.TransferResult, error) {
	tx, err := s.db.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  recipientWalletId,
		EscrowId:  escrowId,
		Amount:    amount,
		Type:      models.TransactionTypeEscrowRelease,
		Reference: reference,
		Metadata:  withMetadata("release_escrow", metadata),
	})
	if err != nil {
		return failedResult(err)
	}
	return s.transferResult(ctx, tx), nil
}

// RefundEscrowToClient returns escrowed funds to the client's wallet, raising
// both the spendable and available balances.
func (s *LedgerService) RefundEscrowToClient(ctx context.Context, escrowId, clientWalletId string, amount decimal.Decimal, reference string, metadata map[string]string) (*models.TransferResult, error) {
	tx, err := s.db.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  clientWalletId,
		EscrowId:  escrowId,
		Amount:    amount,
		Type:      models.TransactionTypeRefund,
		Reference: reference,
		Metadata:  withMetadata("refund", metadata),
	})
	if err != nil {
		return failedResult(err)
	}
	return s.transferResult(ctx, tx), nil
}

// ChargeFee debits a platform fee from a wallet.
func (s *LedgerService) ChargeFee(ctx context.Context, walletId string, amount decimal.Decimal, reference string, metadata map[string]string) (*models.TransferResult, error) {
	tx, err := s.db.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  walletId,
		Amount:    amount,
		Type:      models.TransactionTypeFee,
		Reference: reference,
		Metadata:  withMetadata("fee", metadata),
	})
	if err != nil {
		return failedResult(err)
	}
	return s.transferResult(ctx, tx), nil
}

// IsBusinessError reports whether the failure is a business-rule rejection
// (safe to surface to the caller) rather than an infrastructure fault.
func IsBusinessError(err error) bool {
	return errors.Is(err, store.ErrInvalidAmount) ||
		errors.Is(err, store.ErrMissingParticipant) ||
		errors.Is(err, store.ErrInsufficientFunds) ||
		errors.Is(err, store.ErrInsufficientAvailableFunds) ||
		errors.Is(err, store.ErrInsufficientEscrowFunds) ||
		errors.Is(err, store.ErrDuplicateReference)
}
