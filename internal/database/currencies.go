package database

import (
	"context"
	"database/sql"
	"fmt"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"
)

// SeedCurrency inserts a currency if it does not exist. Currencies are
// immutable reference data; re-seeding an existing code is a no-op.
func (s *Service) SeedCurrency(ctx context.Context, currency models.Currency) error {
	if currency.Code == "" {
		return fmt.Errorf("currency code cannot be empty")
	}
	_, err := s.db.ExecContext(ctx, queryInsertCurrency,
		currency.Code, currency.Name, currency.Symbol, currency.Decimals)
	if err != nil {
		return fmt.Errorf("failed to seed currency %s: %w", currency.Code, err)
	}
	return nil
}

func (s *Service) GetCurrency(ctx context.Context, code string) (*models.Currency, error) {
	var c models.Currency
	err := s.db.QueryRowContext(ctx, queryGetCurrency, code).Scan(&c.Code, &c.Name, &c.Symbol, &c.Decimals)
	if err == sql.ErrNoRows {
		return nil, store.ErrCurrencyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get currency %s: %w", code, err)
	}
	return &c, nil
}
