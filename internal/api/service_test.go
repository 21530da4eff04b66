package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"escrow-ledger-go/internal/database"
	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func setupTestService(t *testing.T) (*LedgerService, *database.Service, func()) {
	t.Helper()

	db, err := database.NewService(context.Background(), models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  5 * time.Second,
		BusyTimeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	ctx := context.Background()
	for _, c := range []models.Currency{
		{Code: "USD", Name: "US Dollar", Symbol: "$", Decimals: 2},
		{Code: "GHS", Name: "Ghanaian Cedi", Symbol: "GH₵", Decimals: 2},
	} {
		if err := db.SeedCurrency(ctx, c); err != nil {
			t.Fatalf("Failed to seed currency %s: %v", c.Code, err)
		}
	}

	return NewLedgerService(db), db, func() { db.Close() }
}

func provisionClient(t *testing.T, db *database.Service, email string) (*models.User, *models.Wallet, *models.EscrowAccount) {
	t.Helper()
	ctx := context.Background()
	user, err := db.CreateUser(ctx, store.CreateUserParams{
		Name:    "Test Client",
		Email:   email,
		Country: "USA",
		Role:    models.RoleClient,
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}
	wallet, err := db.GetWalletByUserId(ctx, user.Id)
	if err != nil {
		t.Fatalf("Failed to get wallet: %v", err)
	}
	escrow, err := db.GetEscrowAccountByUserId(ctx, user.Id)
	if err != nil {
		t.Fatalf("Failed to get escrow account: %v", err)
	}
	return user, wallet, escrow
}

func TestGetWallet(t *testing.T) {
	service, db, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	user, wallet, _ := provisionClient(t, db, "getwallet@example.com")

	balance, err := service.GetWallet(ctx, user.Id)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if balance.WalletId != wallet.Id {
		t.Errorf("Expected wallet %s, got %s", wallet.Id, balance.WalletId)
	}
	if balance.CurrencyCode != "USD" {
		t.Errorf("Expected USD, got %s", balance.CurrencyCode)
	}

	if _, err := service.GetWallet(ctx, ""); err == nil {
		t.Error("Expected error for empty user id")
	}
}

func TestDeposit(t *testing.T) {
	service, db, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	_, wallet, _ := provisionClient(t, db, "apideposit@example.com")

	result, err := service.Deposit(ctx, wallet.Id, decimal.NewFromInt(250), "gw-1", map[string]string{"gateway": "paystack"})
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if !result.Success {
		t.Fatalf("Expected success, got error %q", result.Error)
	}
	if !result.NewBalance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected new balance 250, got %s", result.NewBalance.String())
	}
	if !result.NewAvailable.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected new available 250, got %s", result.NewAvailable.String())
	}

	tx, err := db.GetTransactionByReference(ctx, "gw-1")
	if err != nil {
		t.Fatalf("Transaction missing: %v", err)
	}
	if tx.Metadata["action"] != "deposit" || tx.Metadata["gateway"] != "paystack" {
		t.Errorf("Unexpected metadata: %v", tx.Metadata)
	}
}

func TestDeposit_FailureResult(t *testing.T) {
	service, db, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	_, wallet, _ := provisionClient(t, db, "apifail@example.com")

	result, err := service.Deposit(ctx, wallet.Id, decimal.Zero, "gw-zero", nil)
	if !errors.Is(err, store.ErrInvalidAmount) {
		t.Fatalf("Expected ErrInvalidAmount, got: %v", err)
	}
	if result.Success {
		t.Error("Expected failed result")
	}
	if result.Error == "" {
		t.Error("Expected error message in result")
	}
	if !IsBusinessError(err) {
		t.Error("Invalid amount must classify as a business error")
	}
}

func TestEscrowFlow(t *testing.T) {
	service, db, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	client, clientWallet, escrow := provisionClient(t, db, "flow-client@example.com")

	freelancer, err := db.CreateUser(ctx, store.CreateUserParams{
		Name:    "Flow Freelancer",
		Email:   "flow-freelancer@example.com",
		Country: "GH",
		Role:    models.RoleFreelancer,
	})
	if err != nil {
		t.Fatalf("Failed to create freelancer: %v", err)
	}
	freelancerWallet, err := db.GetWalletByUserId(ctx, freelancer.Id)
	if err != nil {
		t.Fatalf("Failed to get freelancer wallet: %v", err)
	}

	if _, err := service.Deposit(ctx, clientWallet.Id, decimal.NewFromInt(1000), "dep-1", nil); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	fund, err := service.FundEscrowFromWallet(ctx, clientWallet.Id, escrow.Id, decimal.NewFromInt(400), "hold-1", nil)
	if err != nil {
		t.Fatalf("FundEscrowFromWallet failed: %v", err)
	}
	if !fund.NewEscrowBalance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected escrow 400, got %s", fund.NewEscrowBalance.String())
	}
	if !fund.NewAvailable.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected available 600, got %s", fund.NewAvailable.String())
	}

	release, err := service.ReleaseEscrowToWallet(ctx, escrow.Id, freelancerWallet.Id, decimal.NewFromInt(400), "release-1", nil)
	if err != nil {
		t.Fatalf("ReleaseEscrowToWallet failed: %v", err)
	}
	if !release.NewBalance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected freelancer balance 400, got %s", release.NewBalance.String())
	}
	if !release.NewEscrowBalance.Equal(decimal.Zero) {
		t.Errorf("Expected escrow drained, got %s", release.NewEscrowBalance.String())
	}

	// Client's wallet still shows the hold spent, not returned.
	clientBalance, err := service.GetWallet(ctx, client.Id)
	if err != nil {
		t.Fatalf("GetWallet failed: %v", err)
	}
	if !clientBalance.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected client balance 1000, got %s", clientBalance.Balance.String())
	}
	if !clientBalance.AvailableBalance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected client available 600, got %s", clientBalance.AvailableBalance.String())
	}
}

func TestRefundEscrowToClient(t *testing.T) {
	service, db, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	_, wallet, escrow := provisionClient(t, db, "apirefund@example.com")

	if _, err := service.Deposit(ctx, wallet.Id, decimal.NewFromInt(500), "dep-1", nil); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if _, err := service.FundEscrowFromWallet(ctx, wallet.Id, escrow.Id, decimal.NewFromInt(300), "hold-1", nil); err != nil {
		t.Fatalf("FundEscrowFromWallet failed: %v", err)
	}

	refund, err := service.RefundEscrowToClient(ctx, escrow.Id, wallet.Id, decimal.NewFromInt(300), "refund-1", nil)
	if err != nil {
		t.Fatalf("RefundEscrowToClient failed: %v", err)
	}
	// The hold only reduced available, so the refund credit lands on top of
	// the untouched balance: 500 deposited + 300 refunded.
	if !refund.NewBalance.Equal(decimal.NewFromInt(800)) {
		t.Errorf("Expected balance 800, got %s", refund.NewBalance.String())
	}
	if !refund.NewAvailable.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected available 500, got %s", refund.NewAvailable.String())
	}
}

func TestChargeFee(t *testing.T) {
	service, db, cleanup := setupTestService(t)
	defer cleanup()

	ctx := context.Background()
	_, wallet, _ := provisionClient(t, db, "apifee@example.com")

	if _, err := service.Deposit(ctx, wallet.Id, decimal.NewFromInt(100), "dep-1", nil); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	fee, err := service.ChargeFee(ctx, wallet.Id, decimal.NewFromInt(10), "fee-1", nil)
	if err != nil {
		t.Fatalf("ChargeFee failed: %v", err)
	}
	if !fee.NewBalance.Equal(decimal.NewFromInt(90)) {
		t.Errorf("Expected balance 90, got %s", fee.NewBalance.String())
	}

	_, err = service.ChargeFee(ctx, wallet.Id, decimal.NewFromInt(1000), "fee-2", nil)
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got: %v", err)
	}
}

func TestIsBusinessError(t *testing.T) {
	business := []error{
		store.ErrInvalidAmount,
		store.ErrMissingParticipant,
		store.ErrInsufficientFunds,
		store.ErrInsufficientAvailableFunds,
		store.ErrInsufficientEscrowFunds,
		store.ErrDuplicateReference,
	}
	for _, err := range business {
		if !IsBusinessError(err) {
			t.Errorf("Expected %v to be a business error", err)
		}
	}
	if IsBusinessError(store.ErrConcurrentModification) {
		t.Error("Concurrent modification is an infrastructure fault, not a business error")
	}
	if IsBusinessError(errors.New("boom")) {
		t.Error("Arbitrary errors are not business errors")
	}
}
