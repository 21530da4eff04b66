package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"escrow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type txScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row txScanner) (*models.Transaction, error) {
	var t models.Transaction
	var walletId, escrowId, balanceBefore, balanceAfter sql.NullString
	var amountStr, metadataJSON string
	err := row.Scan(&t.Id, &t.Reference, &walletId, &escrowId, &amountStr,
		&t.Type, &t.Status, &t.RelatedType, &t.RelatedId, &metadataJSON,
		&balanceBefore, &balanceAfter, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	t.WalletId = walletId.String
	t.EscrowId = escrowId.String

	t.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	if balanceBefore.Valid {
		t.BalanceBefore, err = decimal.NewFromString(balanceBefore.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance before '%s': %w", balanceBefore.String, err)
		}
	}
	if balanceAfter.Valid {
		t.BalanceAfter, err = decimal.NewFromString(balanceAfter.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse balance after '%s': %w", balanceAfter.String, err)
		}
	}

	if err := json.Unmarshal([]byte(metadataJSON), &t.Metadata); err != nil {
		return nil, fmt.Errorf("failed to decode transaction metadata: %w", err)
	}
	return &t, nil
}

// GetTransactionByReference fetches one transaction by its idempotency key.
// Callers receiving ErrDuplicateReference use this to recover the original
// outcome of a retried request.
func (s *Service) GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	t, err := scanTransaction(s.db.QueryRowContext(ctx, queryGetTransactionByReference, reference))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("transaction %s: %w", reference, sql.ErrNoRows)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *Service) queryTransactionHistory(ctx context.Context, query, id string, limit, offset int) ([]models.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, id, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction history: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during transaction row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}

	return transactions, nil
}

// GetWalletTransactionHistory returns a wallet's transactions, newest first.
func (s *Service) GetWalletTransactionHistory(ctx context.Context, walletId string, limit, offset int) ([]models.Transaction, error) {
	if _, err := s.GetWalletById(ctx, walletId); err != nil {
		return nil, err
	}
	return s.queryTransactionHistory(ctx, queryGetWalletTransactionHistory, walletId, limit, offset)
}

// GetEscrowTransactionHistory returns an escrow account's transactions,
// newest first.
func (s *Service) GetEscrowTransactionHistory(ctx context.Context, escrowId string, limit, offset int) ([]models.Transaction, error) {
	if _, err := s.GetEscrowAccountById(ctx, escrowId); err != nil {
		return nil, err
	}
	return s.queryTransactionHistory(ctx, queryGetEscrowTransactionHistory, escrowId, limit, offset)
}
