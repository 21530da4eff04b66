package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanWithdrawal(row txScanner) (*models.Withdrawal, error) {
	var w models.Withdrawal
	var amountStr, metadataJSON string
	var processedAt sql.NullTime
	err := row.Scan(&w.Id, &w.WalletId, &w.TransactionReference, &amountStr,
		&w.Provider, &w.ProviderReference, &w.Status, &metadataJSON,
		&w.RequestedAt, &processedAt)
	if err != nil {
		return nil, err
	}

	w.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse withdrawal amount '%s': %w", amountStr, err)
	}
	if processedAt.Valid {
		w.ProcessedAt = processedAt.Time
	}
	if err := json.Unmarshal([]byte(metadataJSON), &w.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode withdrawal metadata: %w", err)
	}
	return &w, nil
}

func (s *Service) GetWithdrawal(ctx context.Context, withdrawalId string) (*models.Withdrawal, error) {
	w, err := scanWithdrawal(s.db.QueryRowContext(ctx, queryGetWithdrawal, withdrawalId))
	if err == sql.ErrNoRows {
		return nil, store.ErrWithdrawalNotFound
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

// RequestWithdrawal debits the wallet through a payout transaction and records
// the pending withdrawal in the same atomic scope. The funds leave the wallet
// immediately; a failed provider settlement credits them back.
func (s *Service) RequestWithdrawal(ctx context.Context, params store.RequestWithdrawalParams) (*models.Withdrawal, error) {
	withdrawalId := uuid.New().String()
	reference := params.Reference
	if reference == "" {
		reference = fmt.Sprintf("wd-%s", withdrawalId)
	}

	metadata := map[string]string{"action": "withdrawal_request"}
	for k, v := range params.Metadata {
		metadata[k] = v
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = s.createTransactionTx(ctx, tx, store.CreateTransactionParams{
		WalletId:    params.WalletId,
		Amount:      params.Amount,
		Type:        models.TransactionTypePayout,
		Reference:   reference,
		RelatedType: "withdrawal",
		RelatedId:   withdrawalId,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode withdrawal metadata: %w", err)
	}
	_, err = tx.ExecContext(ctx, queryInsertWithdrawal,
		withdrawalId, params.WalletId, reference, params.Amount.String(), params.Provider, string(metadataJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to insert withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueConstraintErr(err) {
			return nil, fmt.Errorf("%w: reference %s already exists", store.ErrDuplicateReference, reference)
		}
		return nil, fmt.Errorf("failed to commit withdrawal request: %w", err)
	}

	zap.L().Info("Withdrawal requested",
		zap.String("withdrawal_id", withdrawalId),
		zap.String("wallet_id", params.WalletId),
		zap.String("amount", params.Amount.String()),
		zap.String("provider", params.Provider))

	return s.GetWithdrawal(ctx, withdrawalId)
}

// ConfirmWithdrawal marks a pending withdrawal as settled by the provider.
// Confirming an already-completed withdrawal is idempotent.
func (s *Service) ConfirmWithdrawal(ctx context.Context, withdrawalId, providerReference string) (*models.Withdrawal, error) {
	result, err := s.db.ExecContext(ctx, queryConfirmWithdrawal, providerReference, withdrawalId)
	if err != nil {
		return nil, fmt.Errorf("failed to confirm withdrawal: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}

	w, err := s.GetWithdrawal(ctx, withdrawalId)
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 && w.Status != models.WithdrawalStatusCompleted {
		return nil, fmt.Errorf("withdrawal %s is %s, cannot confirm", withdrawalId, w.Status)
	}

	zap.L().Info("Withdrawal confirmed",
		zap.String("withdrawal_id", withdrawalId),
		zap.String("provider_reference", providerReference))
	return w, nil
}

// FailWithdrawal marks a pending withdrawal as failed and credits the funds
// back to the wallet with a reversal transaction. The reversal reference is
// derived from the original, so retried failure callbacks stay idempotent.
func (s *Service) FailWithdrawal(ctx context.Context, withdrawalId, reason string) (*models.Withdrawal, error) {
	w, err := s.GetWithdrawal(ctx, withdrawalId)
	if err != nil {
		return nil, err
	}
	if w.Status == models.WithdrawalStatusFailed {
		return w, nil
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, fmt.Errorf("withdrawal %s is %s, cannot fail", withdrawalId, w.Status)
	}

	metadata := map[string]string{}
	for k, v := range w.Metadata {
		metadata[k] = v
	}
	metadata["failure_reason"] = reason
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode withdrawal metadata: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, queryFailWithdrawal, string(metadataJSON), withdrawalId)
	if err != nil {
		return nil, fmt.Errorf("failed to mark withdrawal failed: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Lost the race to a concurrent confirm/fail; report current state.
		return nil, fmt.Errorf("withdrawal %s was settled concurrently", withdrawalId)
	}

	// Credit back the amount; deposits raise both balance and available.
	_, err = s.createTransactionTx(ctx, tx, store.CreateTransactionParams{
		WalletId:    w.WalletId,
		Amount:      w.Amount,
		Type:        models.TransactionTypeDeposit,
		Reference:   w.TransactionReference + "-reversal",
		RelatedType: "withdrawal",
		RelatedId:   withdrawalId,
		Metadata: map[string]string{
			"action":         "withdrawal_reversal",
			"failure_reason": reason,
		},
	})
	if err != nil && !errors.Is(err, store.ErrDuplicateReference) {
		return nil, fmt.Errorf("failed to reverse withdrawal: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit withdrawal failure: %w", err)
	}

	zap.L().Info("Withdrawal failed and reversed",
		zap.String("withdrawal_id", withdrawalId),
		zap.String("wallet_id", w.WalletId),
		zap.String("amount", w.Amount.String()),
		zap.String("reason", reason))

	return s.GetWithdrawal(ctx, withdrawalId)
}
