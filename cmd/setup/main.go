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

package main

import (
	"context"
	"flag"
	"fmt"

	"escrow-ledger-go/internal/common"
	"escrow-ledger-go/internal/config"
	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"go.uber.org/zap"
)

type demoUser struct {
	name    string
	email   string
	country string
	role    string
}

var demoUsers = []demoUser{
	{name: "Alice Mensah", email: "alice@example.com", country: "USA", role: models.RoleClient},
	{name: "Kwame Boateng", email: "kwame@example.com", country: "GH", role: models.RoleFreelancer},
	{name: "Ngozi Adeyemi", email: "ngozi@example.com", country: "NG", role: models.RoleFreelancer},
}

func seedCurrencies(ctx context.Context, services *common.Services, currenciesFile string) (int, error) {
	currencies, err := common.LoadCurrencyConfig(currenciesFile)
	if err != nil {
		return 0, fmt.Errorf("failed to load currency config: %w", err)
	}

	for _, currency := range currencies {
		if err := services.DbService.SeedCurrency(ctx, currency); err != nil {
			return 0, fmt.Errorf("failed to seed currency %s: %w", currency.Code, err)
		}
		zap.L().Info("Seeded currency",
			zap.String("code", currency.Code),
			zap.String("name", currency.Name))
	}

	return len(currencies), nil
}

func createDemoUsers(ctx context.Context, services *common.Services) int {
	created := 0
	for _, du := range demoUsers {
		if _, err := services.DbService.GetUserByEmail(ctx, du.email); err == nil {
			zap.L().Info("Demo user already exists", zap.String("email", du.email))
			continue
		}

		user, err := services.DbService.CreateUser(ctx, store.CreateUserParams{
			Name:    du.name,
			Email:   du.email,
			Country: du.country,
			Role:    du.role,
		})
		if err != nil {
			zap.L().Error("Failed to create demo user",
				zap.String("email", du.email),
				zap.Error(err))
			continue
		}

		zap.L().Info("Created demo user",
			zap.String("user_id", user.Id),
			zap.String("email", user.Email),
			zap.String("role", user.Role))
		created++
	}
	return created
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	demoFlag := flag.Bool("demo", false, "Create demo users after seeding")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	// Opening the service creates the schema if it does not exist yet.
	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	common.PrintHeader("LEDGER SETUP", common.DefaultWidth)
	fmt.Printf("Database: %s\n", cfg.Database.Path)

	seeded, err := seedCurrencies(ctx, services, cfg.Listener.CurrenciesFile)
	if err != nil {
		zap.L().Fatal("Currency seeding failed", zap.Error(err))
	}
	fmt.Printf("Currencies seeded: %d\n", seeded)

	if *demoFlag || cfg.Database.CreateDemoUsers {
		created := createDemoUsers(ctx, services)
		fmt.Printf("Demo users created: %d\n", created)
	}

	common.PrintFooter("Setup complete", common.DefaultWidth)
}
