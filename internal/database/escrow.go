package database

import (
	"context"
	"database/sql"
	"fmt"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanEscrowAccount(row *sql.Row) (*models.EscrowAccount, error) {
	var e models.EscrowAccount
	var balanceStr string
	err := row.Scan(&e.Id, &e.UserId, &e.ContractId, &e.Reference, &e.CurrencyCode,
		&balanceStr, &e.Version, &e.CreatedAt, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrEscrowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan escrow account: %w", err)
	}

	e.Balance, err = decimal.NewFromString(balanceStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse escrow balance '%s': %w", balanceStr, err)
	}
	return &e, nil
}

func getEscrowAccountById(ctx context.Context, q dbtx, escrowId string) (*models.EscrowAccount, error) {
	return scanEscrowAccount(q.QueryRowContext(ctx, queryGetEscrowAccountById, escrowId))
}

// GetEscrowAccountByUserId returns the client's default escrow account (the
// one not tied to any contract).
func (s *Service) GetEscrowAccountByUserId(ctx context.Context, userId string) (*models.EscrowAccount, error) {
	return scanEscrowAccount(s.db.QueryRowContext(ctx, queryGetEscrowAccountByUserId, userId))
}

func (s *Service) GetEscrowAccountById(ctx context.Context, escrowId string) (*models.EscrowAccount, error) {
	return getEscrowAccountById(ctx, s.db, escrowId)
}

func (s *Service) GetEscrowAccountByReference(ctx context.Context, reference string) (*models.EscrowAccount, error) {
	return scanEscrowAccount(s.db.QueryRowContext(ctx, queryGetEscrowAccountByReference, reference))
}

// GetOrCreateContractEscrow returns the escrow account scoped to one contract,
// creating it on first use. Per-contract scoping keeps funds pledged for one
// contract out of reach of disputes on another.
func (s *Service) GetOrCreateContractEscrow(ctx context.Context, userId, contractId, currencyCode string) (*models.EscrowAccount, error) {
	if contractId == "" {
		return nil, fmt.Errorf("contract id cannot be empty")
	}

	existing, err := scanEscrowAccount(s.db.QueryRowContext(ctx, queryGetEscrowAccountByContract, userId, contractId))
	if err == nil {
		return existing, nil
	}
	if err != store.ErrEscrowNotFound {
		return nil, err
	}

	if currencyCode == "" {
		// Inherit the client's wallet currency when the event omits one.
		wallet, walletErr := s.GetWalletByUserId(ctx, userId)
		if walletErr != nil {
			return nil, walletErr
		}
		currencyCode = wallet.CurrencyCode
	}

	escrowId := uuid.New().String()
	reference := fmt.Sprintf("contract-%s-escrow", contractId)
	_, err = s.db.ExecContext(ctx, queryInsertEscrowAccount,
		escrowId, userId, contractId, reference, currencyCode)
	if err != nil {
		// A concurrent creator may have won the unique(user_id, contract_id)
		// race; re-read before reporting failure.
		if isUniqueConstraintErr(err) {
			return scanEscrowAccount(s.db.QueryRowContext(ctx, queryGetEscrowAccountByContract, userId, contractId))
		}
		return nil, fmt.Errorf("failed to create contract escrow account: %w", err)
	}

	zap.L().Info("Created contract escrow account",
		zap.String("escrow_id", escrowId),
		zap.String("user_id", userId),
		zap.String("contract_id", contractId),
		zap.String("reference", reference))

	return getEscrowAccountById(ctx, s.db, escrowId)
}

// applyEscrowBalance writes the escrow balance with an optimistic lock on the
// version column.
func applyEscrowBalance(ctx context.Context, q dbtx, escrowId string, balance decimal.Decimal, version int64) error {
	result, err := q.ExecContext(ctx, queryUpdateEscrowBalance, balance.String(), escrowId, version)
	if err != nil {
		return fmt.Errorf("failed to update escrow balance: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("escrow %s balance update: %w", escrowId, store.ErrConcurrentModification)
	}
	return nil
}
