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
	"regexp"

	"escrow-ledger-go/internal/common"
	"escrow-ledger-go/internal/config"
	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type newUserRequest struct {
	name    string
	email   string
	country string
	role    string
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email cannot be empty")
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format: %s", email)
	}
	return nil
}

func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("name cannot be empty")
	}
	if len(name) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	return nil
}

func parseAndValidateFlags() (*newUserRequest, error) {
	nameFlag := flag.String("name", "", "User's full name (required)")
	emailFlag := flag.String("email", "", "User's email address (required)")
	countryFlag := flag.String("country", "", "Country code (e.g., GH, USA, UK, NG)")
	roleFlag := flag.String("role", models.RoleFreelancer, "User role: client or freelancer")
	flag.Parse()

	if err := validateName(*nameFlag); err != nil {
		return nil, err
	}
	if err := validateEmail(*emailFlag); err != nil {
		return nil, err
	}
	if *roleFlag != models.RoleClient && *roleFlag != models.RoleFreelancer {
		return nil, fmt.Errorf("role must be %q or %q", models.RoleClient, models.RoleFreelancer)
	}

	return &newUserRequest{
		name:    *nameFlag,
		email:   *emailFlag,
		country: *countryFlag,
		role:    *roleFlag,
	}, nil
}

func printProvisionedUser(ctx context.Context, services *common.Services, user *models.User) {
	common.PrintHeader("USER PROVISIONED", common.DefaultWidth)
	fmt.Printf("ID:      %s\n", user.Id)
	fmt.Printf("Name:    %s\n", user.Name)
	fmt.Printf("Email:   %s\n", user.Email)
	fmt.Printf("Country: %s\n", user.Country)
	fmt.Printf("Role:    %s\n", user.Role)

	wallet, err := services.DbService.GetWalletByUserId(ctx, user.Id)
	if err != nil {
		zap.L().Error("Failed to load provisioned wallet", zap.Error(err))
	} else {
		fmt.Printf("Wallet:  %s (%s)\n", wallet.Id, wallet.CurrencyCode)
	}

	if user.Role == models.RoleClient {
		escrow, err := services.DbService.GetEscrowAccountByUserId(ctx, user.Id)
		if err != nil {
			zap.L().Error("Failed to load provisioned escrow account", zap.Error(err))
		} else {
			fmt.Printf("Escrow:  %s (%s)\n", escrow.Id, escrow.Reference)
		}
	}

	common.PrintFooter("Done", common.DefaultWidth)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	request, err := parseAndValidateFlags()
	if err != nil {
		fmt.Printf("Error: %v\n\n", err)
		flag.Usage()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	user, err := services.DbService.CreateUser(ctx, store.CreateUserParams{
		Name:    request.name,
		Email:   request.email,
		Country: request.country,
		Role:    request.role,
	})
	if err != nil {
		zap.L().Fatal("Failed to create user",
			zap.String("email", request.email),
			zap.Error(err))
	}

	printProvisionedUser(ctx, services, user)
}
