package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// participantsForType returns which parties the given transaction type
// requires. Adjustment and transfer are record-only: the engine persists the
// record but applies no balance mutation itself.
func participantsForType(txType string) (needsWallet, needsEscrow bool, err error) {
	switch txType {
	case models.TransactionTypeDeposit,
		models.TransactionTypePayout,
		models.TransactionTypeWithdrawal,
		models.TransactionTypeFee:
		return true, false, nil
	case models.TransactionTypeEscrowHold,
		models.TransactionTypeEscrowRelease,
		models.TransactionTypeRefund:
		return true, true, nil
	case models.TransactionTypeAdjustment,
		models.TransactionTypeTransfer:
		return false, false, nil
	default:
		return false, false, fmt.Errorf("unknown transaction type %q", txType)
	}
}

// CreateTransaction is the single entry point for every balance-affecting
// event. The duplicate-reference check, all balance mutations for the type,
// and the transaction record insert commit together or not at all.
func (s *Service) CreateTransaction(ctx context.Context, params store.CreateTransactionParams) (*models.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	transaction, err := s.createTransactionTx(ctx, tx, params)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		if isUniqueConstraintErr(err) {
			return nil, fmt.Errorf("%w: reference %s already exists", store.ErrDuplicateReference, transaction.Reference)
		}
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	zap.L().Info("Transaction processed successfully",
		zap.String("transaction_id", transaction.Id),
		zap.String("reference", transaction.Reference),
		zap.String("type", transaction.Type),
		zap.String("amount", transaction.Amount.String()))

	return transaction, nil
}

// createTransactionTx runs the engine inside an existing transaction scope so
// callers (withdrawal requests, event hooks) can persist their own rows in the
// same atomic unit.
func (s *Service) createTransactionTx(ctx context.Context, tx *sql.Tx, params store.CreateTransactionParams) (*models.Transaction, error) {
	if params.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: got %s", store.ErrInvalidAmount, params.Amount.String())
	}

	needsWallet, needsEscrow, err := participantsForType(params.Type)
	if err != nil {
		return nil, err
	}
	if needsWallet && params.WalletId == "" {
		return nil, fmt.Errorf("%w: %s requires a wallet", store.ErrMissingParticipant, params.Type)
	}
	if needsEscrow && params.EscrowId == "" {
		return nil, fmt.Errorf("%w: %s requires an escrow account", store.ErrMissingParticipant, params.Type)
	}

	reference := params.Reference
	if reference == "" {
		reference = uuid.New().String()
	}

	zap.L().Info("Processing transaction",
		zap.String("reference", reference),
		zap.String("type", params.Type),
		zap.String("amount", params.Amount.String()),
		zap.String("wallet_id", params.WalletId),
		zap.String("escrow_id", params.EscrowId))

	// Duplicate reference check inside the transaction scope. The unique
	// index backs this up if a concurrent writer slips past the read.
	var existingTxId string
	err = tx.QueryRowContext(ctx, queryCheckDuplicateReference, reference).Scan(&existingTxId)
	if err == nil {
		zap.L().Warn("Duplicate transaction reference detected",
			zap.String("reference", reference),
			zap.String("existing_transaction_id", existingTxId))
		return nil, fmt.Errorf("%w: reference %s already exists", store.ErrDuplicateReference, reference)
	} else if err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to check for duplicate reference: %w", err)
	}

	var wallet *models.Wallet
	var escrow *models.EscrowAccount
	if params.WalletId != "" {
		if wallet, err = getWalletById(ctx, tx, params.WalletId); err != nil {
			return nil, err
		}
	}
	if params.EscrowId != "" {
		if escrow, err = getEscrowAccountById(ctx, tx, params.EscrowId); err != nil {
			return nil, err
		}
	}

	amount := params.Amount
	var newBalance, newAvailable, newEscrowBalance decimal.Decimal
	walletMutated, escrowMutated := false, false

	switch params.Type {
	case models.TransactionTypeDeposit:
		newBalance = wallet.Balance.Add(amount)
		newAvailable = wallet.AvailableBalance.Add(amount)
		walletMutated = true

	case models.TransactionTypeEscrowHold:
		if wallet.AvailableBalance.LessThan(amount) {
			return nil, fmt.Errorf("%w: available %s, requested %s",
				store.ErrInsufficientAvailableFunds, wallet.AvailableBalance.String(), amount.String())
		}
		newBalance = wallet.Balance
		newAvailable = wallet.AvailableBalance.Sub(amount)
		newEscrowBalance = escrow.Balance.Add(amount)
		walletMutated, escrowMutated = true, true

	case models.TransactionTypeEscrowRelease:
		if escrow.Balance.LessThan(amount) {
			return nil, fmt.Errorf("%w: escrow balance %s, requested %s",
				store.ErrInsufficientEscrowFunds, escrow.Balance.String(), amount.String())
		}
		// Released funds land in the recipient's spendable balance; the
		// available balance is deliberately left untouched here.
		newBalance = wallet.Balance.Add(amount)
		newAvailable = wallet.AvailableBalance
		newEscrowBalance = escrow.Balance.Sub(amount)
		walletMutated, escrowMutated = true, true

	case models.TransactionTypePayout, models.TransactionTypeWithdrawal, models.TransactionTypeFee:
		if wallet.AvailableBalance.LessThan(amount) {
			return nil, fmt.Errorf("%w: available %s, requested %s",
				store.ErrInsufficientFunds, wallet.AvailableBalance.String(), amount.String())
		}
		newBalance = wallet.Balance.Sub(amount)
		newAvailable = wallet.AvailableBalance.Sub(amount)
		walletMutated = true

	case models.TransactionTypeRefund:
		if escrow.Balance.LessThan(amount) {
			return nil, fmt.Errorf("%w: escrow balance %s, requested %s",
				store.ErrInsufficientEscrowFunds, escrow.Balance.String(), amount.String())
		}
		newBalance = wallet.Balance.Add(amount)
		newAvailable = wallet.AvailableBalance.Add(amount)
		newEscrowBalance = escrow.Balance.Sub(amount)
		walletMutated, escrowMutated = true, true

	case models.TransactionTypeAdjustment, models.TransactionTypeTransfer:
		// Record-only: the caller performs any balance movement separately.
	}

	if walletMutated {
		if err := applyWalletBalances(ctx, tx, wallet.Id, newBalance, newAvailable, wallet.Version); err != nil {
			return nil, err
		}
	}
	if escrowMutated {
		if err := applyEscrowBalance(ctx, tx, escrow.Id, newEscrowBalance, escrow.Version); err != nil {
			return nil, err
		}
	}

	metadata := params.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction metadata: %w", err)
	}

	transaction := &models.Transaction{
		Id:          uuid.New().String(),
		Reference:   reference,
		WalletId:    params.WalletId,
		EscrowId:    params.EscrowId,
		Amount:      amount,
		Type:        params.Type,
		Status:      models.TransactionStatusCompleted,
		RelatedType: params.RelatedType,
		RelatedId:   params.RelatedId,
		Metadata:    metadata,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	var balanceBefore, balanceAfter any
	if wallet != nil {
		transaction.BalanceBefore = wallet.Balance
		transaction.BalanceAfter = wallet.Balance
		if walletMutated {
			transaction.BalanceAfter = newBalance
		}
		balanceBefore = transaction.BalanceBefore.String()
		balanceAfter = transaction.BalanceAfter.String()
	}

	// The record is inserted already completed: the balance mutation and the
	// pending -> completed status transition are one atomic unit.
	_, err = tx.ExecContext(ctx, queryInsertTransaction,
		transaction.Id, transaction.Reference,
		nullIfEmpty(transaction.WalletId), nullIfEmpty(transaction.EscrowId),
		transaction.Amount.String(), transaction.Type, transaction.Status,
		transaction.RelatedType, transaction.RelatedId, string(metadataJSON),
		balanceBefore, balanceAfter,
		transaction.CreatedAt, transaction.UpdatedAt)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return nil, fmt.Errorf("%w: reference %s already exists", store.ErrDuplicateReference, reference)
		}
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	return transaction, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
