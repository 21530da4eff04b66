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

package database

import (
	"context"
	"database/sql"
	"fmt"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// countryCurrencyMap defaults a new wallet's currency from the user's country.
var countryCurrencyMap = map[string]string{
	"GH":  "GHS",
	"USA": "USD",
	"UK":  "GBP",
	"NG":  "NGN",
}

const fallbackCurrencyCode = "USD"

// CurrencyForCountry returns the default wallet currency for a country code,
// falling back to USD.
func CurrencyForCountry(country string) string {
	if code, ok := countryCurrencyMap[country]; ok {
		return code
	}
	return fallbackCurrencyCode
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.Id, &u.Name, &u.Email, &u.Country, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

func (s *Service) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, queryGetActiveUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.Id, &u.Name, &u.Email, &u.Country, &u.Role, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}

func (s *Service) GetUserById(ctx context.Context, userId string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, queryGetUserById, userId))
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, queryGetUserByEmail, email))
}

// CreateUser provisions a user with their wallet in one transaction. Clients
// also get their default escrow account. The wallet currency is defaulted
// from the user's country and must already be seeded.
func (s *Service) CreateUser(ctx context.Context, params store.CreateUserParams) (*models.User, error) {
	if params.Name == "" || params.Email == "" {
		return nil, fmt.Errorf("user name and email are required")
	}
	role := params.Role
	if role == "" {
		role = models.RoleFreelancer
	}
	if role != models.RoleClient && role != models.RoleFreelancer {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	userId := params.Id
	if userId == "" {
		userId = uuid.New().String()
	}

	currencyCode := CurrencyForCountry(params.Country)
	if _, err := s.GetCurrency(ctx, currencyCode); err != nil {
		if err != store.ErrCurrencyNotFound {
			return nil, err
		}
		zap.L().Warn("No currency seeded for country, falling back",
			zap.String("country", params.Country),
			zap.String("currency", currencyCode))
		currencyCode = fallbackCurrencyCode
		if _, err := s.GetCurrency(ctx, currencyCode); err != nil {
			return nil, fmt.Errorf("fallback currency %s not seeded: %w", currencyCode, err)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, queryInsertUser, userId, params.Name, params.Email, params.Country, role); err != nil {
		if isUniqueConstraintErr(err) {
			return nil, fmt.Errorf("user with email %s already exists", params.Email)
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	walletId := uuid.New().String()
	if _, err := tx.ExecContext(ctx, queryInsertWallet, walletId, userId, currencyCode); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	if role == models.RoleClient {
		escrowId := uuid.New().String()
		reference := fmt.Sprintf("client-%s-escrow", userId)
		if _, err := tx.ExecContext(ctx, queryInsertEscrowAccount, escrowId, userId, "", reference, currencyCode); err != nil {
			return nil, fmt.Errorf("failed to create escrow account: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user provisioning: %w", err)
	}

	zap.L().Info("User provisioned",
		zap.String("user_id", userId),
		zap.String("role", role),
		zap.String("currency", currencyCode))

	return s.GetUserById(ctx, userId)
}
