package database

import (
	"context"
	"errors"
	"testing"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestCreateUser_ClientGetsWalletAndEscrow(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "client@example.com")

	wallet := mustGetWallet(t, service, client.Id)
	if wallet.CurrencyCode != "USD" {
		t.Errorf("Expected USD wallet for USA, got %s", wallet.CurrencyCode)
	}
	if !wallet.Balance.Equal(decimal.Zero) || !wallet.AvailableBalance.Equal(decimal.Zero) {
		t.Error("New wallet must start at zero")
	}

	escrow, err := service.GetEscrowAccountByUserId(ctx, client.Id)
	if err != nil {
		t.Fatalf("Expected default escrow account for client: %v", err)
	}
	if escrow.ContractId != "" {
		t.Errorf("Default escrow must not be contract-scoped, got %q", escrow.ContractId)
	}
	if escrow.Reference != "client-"+client.Id+"-escrow" {
		t.Errorf("Unexpected escrow reference %q", escrow.Reference)
	}
}

func TestCreateUser_FreelancerHasNoEscrow(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	freelancer := createTestFreelancer(t, service, "freelancer@example.com")

	wallet := mustGetWallet(t, service, freelancer.Id)
	if wallet.CurrencyCode != "GHS" {
		t.Errorf("Expected GHS wallet for GH, got %s", wallet.CurrencyCode)
	}

	_, err := service.GetEscrowAccountByUserId(ctx, freelancer.Id)
	if !errors.Is(err, store.ErrEscrowNotFound) {
		t.Errorf("Expected ErrEscrowNotFound for freelancer, got: %v", err)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	createTestClient(t, service, "dupe@example.com")

	_, err := service.CreateUser(ctx, store.CreateUserParams{
		Name:    "Other User",
		Email:   "dupe@example.com",
		Country: "USA",
		Role:    models.RoleClient,
	})
	if err == nil {
		t.Fatal("Expected error for duplicate email")
	}
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	_, err := service.CreateUser(context.Background(), store.CreateUserParams{
		Name:  "Bad Role",
		Email: "badrole@example.com",
		Role:  "admin",
	})
	if err == nil {
		t.Fatal("Expected error for unknown role")
	}
}

func TestCreateUser_UnknownCountryFallsBackToUSD(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	user, err := service.CreateUser(context.Background(), store.CreateUserParams{
		Name:    "Remote User",
		Email:   "remote@example.com",
		Country: "FR",
		Role:    models.RoleFreelancer,
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	wallet := mustGetWallet(t, service, user.Id)
	if wallet.CurrencyCode != "USD" {
		t.Errorf("Expected USD fallback, got %s", wallet.CurrencyCode)
	}
}

func TestCurrencyForCountry(t *testing.T) {
	cases := map[string]string{
		"GH":  "GHS",
		"USA": "USD",
		"UK":  "GBP",
		"NG":  "NGN",
		"":    "USD",
		"DE":  "USD",
	}
	for country, want := range cases {
		if got := CurrencyForCountry(country); got != want {
			t.Errorf("CurrencyForCountry(%q) = %q, want %q", country, got, want)
		}
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetUserByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound, got: %v", err)
	}
}

func TestGetCurrency_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetCurrency(context.Background(), "XAU")
	if !errors.Is(err, store.ErrCurrencyNotFound) {
		t.Errorf("Expected ErrCurrencyNotFound, got: %v", err)
	}
}
