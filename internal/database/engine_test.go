package database

import (
	"context"
	"errors"
	"testing"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

func TestCreateTransaction_Deposit(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "deposit@example.com")
	wallet := mustGetWallet(t, service, client.Id)

	amount := decimal.NewFromInt(1000)
	tx, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		Amount:    amount,
		Type:      models.TransactionTypeDeposit,
		Reference: "dep-1",
	})
	if err != nil {
		t.Fatalf("CreateTransaction failed: %v", err)
	}

	if tx.Status != models.TransactionStatusCompleted {
		t.Errorf("Expected status completed, got %s", tx.Status)
	}
	if !tx.BalanceBefore.Equal(decimal.Zero) {
		t.Errorf("Expected balance before 0, got %s", tx.BalanceBefore.String())
	}
	if !tx.BalanceAfter.Equal(amount) {
		t.Errorf("Expected balance after 1000, got %s", tx.BalanceAfter.String())
	}

	updated := mustGetWallet(t, service, client.Id)
	if !updated.Balance.Equal(amount) {
		t.Errorf("Expected balance 1000, got %s", updated.Balance.String())
	}
	if !updated.AvailableBalance.Equal(amount) {
		t.Errorf("Expected available 1000, got %s", updated.AvailableBalance.String())
	}
}

func TestCreateTransaction_EscrowHold(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "hold@example.com")
	wallet := mustGetWallet(t, service, client.Id)
	mustDeposit(t, service, wallet.Id, 1000, "dep-1")

	escrow, err := service.GetEscrowAccountByUserId(ctx, client.Id)
	if err != nil {
		t.Fatalf("Failed to get escrow account: %v", err)
	}

	_, err = service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		EscrowId:  escrow.Id,
		Amount:    decimal.NewFromInt(400),
		Type:      models.TransactionTypeEscrowHold,
		Reference: "hold-1",
	})
	if err != nil {
		t.Fatalf("Escrow hold failed: %v", err)
	}

	updated := mustGetWallet(t, service, client.Id)
	if !updated.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Hold must not change balance, got %s", updated.Balance.String())
	}
	if !updated.AvailableBalance.Equal(decimal.NewFromInt(600)) {
		t.Errorf("Expected available 600, got %s", updated.AvailableBalance.String())
	}

	updatedEscrow, err := service.GetEscrowAccountById(ctx, escrow.Id)
	if err != nil {
		t.Fatalf("Failed to reload escrow: %v", err)
	}
	if !updatedEscrow.Balance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected escrow balance 400, got %s", updatedEscrow.Balance.String())
	}
}

func TestCreateTransaction_EscrowRelease(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "release-client@example.com")
	freelancer := createTestFreelancer(t, service, "release-freelancer@example.com")
	clientWallet := mustGetWallet(t, service, client.Id)
	freelancerWallet := mustGetWallet(t, service, freelancer.Id)
	mustDeposit(t, service, clientWallet.Id, 1000, "dep-1")

	escrow, err := service.GetEscrowAccountByUserId(ctx, client.Id)
	if err != nil {
		t.Fatalf("Failed to get escrow account: %v", err)
	}

	_, err = service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  clientWallet.Id,
		EscrowId:  escrow.Id,
		Amount:    decimal.NewFromInt(400),
		Type:      models.TransactionTypeEscrowHold,
		Reference: "hold-1",
	})
	if err != nil {
		t.Fatalf("Escrow hold failed: %v", err)
	}

	_, err = service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  freelancerWallet.Id,
		EscrowId:  escrow.Id,
		Amount:    decimal.NewFromInt(400),
		Type:      models.TransactionTypeEscrowRelease,
		Reference: "release-1",
	})
	if err != nil {
		t.Fatalf("Escrow release failed: %v", err)
	}

	updatedFreelancer := mustGetWallet(t, service, freelancer.Id)
	if !updatedFreelancer.Balance.Equal(decimal.NewFromInt(400)) {
		t.Errorf("Expected freelancer balance 400, got %s", updatedFreelancer.Balance.String())
	}
	// Release credits the spendable balance only; available is untouched.
	if !updatedFreelancer.AvailableBalance.Equal(decimal.Zero) {
		t.Errorf("Expected freelancer available 0, got %s", updatedFreelancer.AvailableBalance.String())
	}

	updatedEscrow, err := service.GetEscrowAccountById(ctx, escrow.Id)
	if err != nil {
		t.Fatalf("Failed to reload escrow: %v", err)
	}
	if !updatedEscrow.Balance.Equal(decimal.Zero) {
		t.Errorf("Expected escrow balance 0, got %s", updatedEscrow.Balance.String())
	}
}

func TestCreateTransaction_RefundRestoresAvailable(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "refund@example.com")
	wallet := mustGetWallet(t, service, client.Id)
	mustDeposit(t, service, wallet.Id, 1000, "dep-1")

	escrow, err := service.GetEscrowAccountByUserId(ctx, client.Id)
	if err != nil {
		t.Fatalf("Failed to get escrow account: %v", err)
	}

	_, err = service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		EscrowId:  escrow.Id,
		Amount:    decimal.NewFromInt(400),
		Type:      models.TransactionTypeEscrowHold,
		Reference: "hold-1",
	})
	if err != nil {
		t.Fatalf("Escrow hold failed: %v", err)
	}

	_, err = service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		EscrowId:  escrow.Id,
		Amount:    decimal.NewFromInt(400),
		Type:      models.TransactionTypeRefund,
		Reference: "refund-1",
	})
	if err != nil {
		t.Fatalf("Refund failed: %v", err)
	}

	updated := mustGetWallet(t, service, client.Id)
	if !updated.Balance.Equal(decimal.NewFromInt(1400)) {
		t.Errorf("Expected balance 1400, got %s", updated.Balance.String())
	}
	if !updated.AvailableBalance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("Expected available 1000, got %s", updated.AvailableBalance.String())
	}
}

func TestCreateTransaction_PayoutRequiresAvailable(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "payout@example.com")
	wallet := mustGetWallet(t, service, client.Id)
	mustDeposit(t, service, wallet.Id, 100, "dep-1")

	_, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		Amount:    decimal.NewFromInt(150),
		Type:      models.TransactionTypePayout,
		Reference: "payout-1",
	})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got: %v", err)
	}

	// The failed payout must leave no trace.
	updated := mustGetWallet(t, service, client.Id)
	if !updated.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance unchanged at 100, got %s", updated.Balance.String())
	}
	if _, err := service.GetTransactionByReference(ctx, "payout-1"); err == nil {
		t.Error("Expected no transaction record for rejected payout")
	}
}

func TestCreateTransaction_HoldLimitsSpendable(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "heldfunds@example.com")
	wallet := mustGetWallet(t, service, client.Id)
	mustDeposit(t, service, wallet.Id, 200, "dep-1")

	escrow, err := service.GetEscrowAccountByUserId(ctx, client.Id)
	if err != nil {
		t.Fatalf("Failed to get escrow account: %v", err)
	}

	_, err = service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		EscrowId:  escrow.Id,
		Amount:    decimal.NewFromInt(150),
		Type:      models.TransactionTypeEscrowHold,
		Reference: "hold-1",
	})
	if err != nil {
		t.Fatalf("Escrow hold failed: %v", err)
	}

	// Balance is 200 but only 50 is available; a payout of 100 must fail.
	_, err = service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		Amount:    decimal.NewFromInt(100),
		Type:      models.TransactionTypePayout,
		Reference: "payout-1",
	})
	if !errors.Is(err, store.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds for held funds, got: %v", err)
	}
}

func TestCreateTransaction_InsufficientAvailableForHold(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "insufficient@example.com")
	wallet := mustGetWallet(t, service, client.Id)
	mustDeposit(t, service, wallet.Id, 100, "dep-1")

	escrow, err := service.GetEscrowAccountByUserId(ctx, client.Id)
	if err != nil {
		t.Fatalf("Failed to get escrow account: %v", err)
	}

	_, err = service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		EscrowId:  escrow.Id,
		Amount:    decimal.NewFromInt(101),
		Type:      models.TransactionTypeEscrowHold,
		Reference: "hold-1",
	})
	if !errors.Is(err, store.ErrInsufficientAvailableFunds) {
		t.Fatalf("Expected ErrInsufficientAvailableFunds, got: %v", err)
	}

	updatedEscrow, err := service.GetEscrowAccountById(ctx, escrow.Id)
	if err != nil {
		t.Fatalf("Failed to reload escrow: %v", err)
	}
	if !updatedEscrow.Balance.Equal(decimal.Zero) {
		t.Errorf("Expected escrow untouched, got %s", updatedEscrow.Balance.String())
	}
}

func TestCreateTransaction_DuplicateReference(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "duplicate@example.com")
	wallet := mustGetWallet(t, service, client.Id)

	params := store.CreateTransactionParams{
		WalletId:  wallet.Id,
		Amount:    decimal.NewFromInt(100),
		Type:      models.TransactionTypeDeposit,
		Reference: "gateway-ref-1",
	}
	if _, err := service.CreateTransaction(ctx, params); err != nil {
		t.Fatalf("First deposit failed: %v", err)
	}

	_, err := service.CreateTransaction(ctx, params)
	if !errors.Is(err, store.ErrDuplicateReference) {
		t.Fatalf("Expected ErrDuplicateReference, got: %v", err)
	}

	// The retry must not double-credit.
	updated := mustGetWallet(t, service, client.Id)
	if !updated.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance 100 after duplicate, got %s", updated.Balance.String())
	}
}

func TestCreateTransaction_RejectsZeroAndNegativeAmounts(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "zero@example.com")
	wallet := mustGetWallet(t, service, client.Id)

	for _, amount := range []decimal.Decimal{decimal.Zero, decimal.NewFromInt(-5)} {
		_, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
			WalletId:  wallet.Id,
			Amount:    amount,
			Type:      models.TransactionTypeDeposit,
			Reference: "bad-" + amount.String(),
		})
		if !errors.Is(err, store.ErrInvalidAmount) {
			t.Errorf("Amount %s: expected ErrInvalidAmount, got: %v", amount.String(), err)
		}
		if _, err := service.GetTransactionByReference(ctx, "bad-"+amount.String()); err == nil {
			t.Errorf("Amount %s: expected no transaction record", amount.String())
		}
	}
}

func TestCreateTransaction_RejectsUnknownType(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "unknown@example.com")
	wallet := mustGetWallet(t, service, client.Id)

	_, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		Amount:    decimal.NewFromInt(10),
		Type:      "bonus",
		Reference: "bonus-1",
	})
	if err == nil {
		t.Fatal("Expected error for unknown transaction type")
	}
}

func TestCreateTransaction_MissingParticipant(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()

	_, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		Amount:    decimal.NewFromInt(10),
		Type:      models.TransactionTypeDeposit,
		Reference: "no-wallet",
	})
	if !errors.Is(err, store.ErrMissingParticipant) {
		t.Fatalf("Expected ErrMissingParticipant for deposit without wallet, got: %v", err)
	}

	client := createTestClient(t, service, "participant@example.com")
	wallet := mustGetWallet(t, service, client.Id)
	_, err = service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		Amount:    decimal.NewFromInt(10),
		Type:      models.TransactionTypeEscrowHold,
		Reference: "no-escrow",
	})
	if !errors.Is(err, store.ErrMissingParticipant) {
		t.Fatalf("Expected ErrMissingParticipant for hold without escrow, got: %v", err)
	}
}

func TestCreateTransaction_RecordOnlyAdjustment(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "adjust@example.com")
	wallet := mustGetWallet(t, service, client.Id)
	mustDeposit(t, service, wallet.Id, 100, "dep-1")

	tx, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId:  wallet.Id,
		Amount:    decimal.NewFromInt(25),
		Type:      models.TransactionTypeAdjustment,
		Reference: "adj-1",
		Metadata:  map[string]string{"reason": "support correction"},
	})
	if err != nil {
		t.Fatalf("Adjustment failed: %v", err)
	}
	if tx.Status != models.TransactionStatusCompleted {
		t.Errorf("Expected completed, got %s", tx.Status)
	}

	// Record-only: the balance is not touched by the engine.
	updated := mustGetWallet(t, service, client.Id)
	if !updated.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("Expected balance unchanged at 100, got %s", updated.Balance.String())
	}
}

func TestCreateTransaction_GeneratesReference(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "genref@example.com")
	wallet := mustGetWallet(t, service, client.Id)

	tx, err := service.CreateTransaction(ctx, store.CreateTransactionParams{
		WalletId: wallet.Id,
		Amount:   decimal.NewFromInt(10),
		Type:     models.TransactionTypeDeposit,
	})
	if err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}
	if tx.Reference == "" {
		t.Error("Expected a generated reference")
	}
}

// Full contract flow: deposit, hold, partial release to the freelancer,
// refund of the remainder, platform fee. Everything pledged into escrow must
// come back out, and no balance may go negative.
func TestCreateTransaction_ContractFlow(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()
	seedTestCurrencies(t, service)

	ctx := context.Background()
	client := createTestClient(t, service, "conserve-client@example.com")
	freelancer := createTestFreelancer(t, service, "conserve-freelancer@example.com")
	clientWallet := mustGetWallet(t, service, client.Id)
	freelancerWallet := mustGetWallet(t, service, freelancer.Id)
	mustDeposit(t, service, clientWallet.Id, 1000, "dep-1")

	escrow, err := service.GetEscrowAccountByUserId(ctx, client.Id)
	if err != nil {
		t.Fatalf("Failed to get escrow account: %v", err)
	}

	steps := []store.CreateTransactionParams{
		{WalletId: clientWallet.Id, EscrowId: escrow.Id, Amount: decimal.NewFromInt(600), Type: models.TransactionTypeEscrowHold, Reference: "hold-1"},
		{WalletId: freelancerWallet.Id, EscrowId: escrow.Id, Amount: decimal.NewFromInt(450), Type: models.TransactionTypeEscrowRelease, Reference: "release-1"},
		{WalletId: clientWallet.Id, EscrowId: escrow.Id, Amount: decimal.NewFromInt(150), Type: models.TransactionTypeRefund, Reference: "refund-1"},
		{WalletId: clientWallet.Id, Amount: decimal.NewFromInt(50), Type: models.TransactionTypeFee, Reference: "fee-1"},
	}
	for _, step := range steps {
		if _, err := service.CreateTransaction(ctx, step); err != nil {
			t.Fatalf("Step %s failed: %v", step.Reference, err)
		}
	}

	clientAfter := mustGetWallet(t, service, client.Id)
	freelancerAfter := mustGetWallet(t, service, freelancer.Id)
	escrowAfter, err := service.GetEscrowAccountById(ctx, escrow.Id)
	if err != nil {
		t.Fatalf("Failed to reload escrow: %v", err)
	}

	// Hold pledges without debiting the balance, so the client keeps the
	// full 1000 plus the 150 refund, minus the 50 fee; the hold and fee
	// together leave available at 500.
	if !clientAfter.Balance.Equal(decimal.NewFromInt(1100)) {
		t.Errorf("Expected client balance 1100, got %s", clientAfter.Balance.String())
	}
	if !clientAfter.AvailableBalance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected client available 500, got %s", clientAfter.AvailableBalance.String())
	}
	// Release credits the freelancer's balance only; available stays zero
	// until a deposit or explicit hold release.
	if !freelancerAfter.Balance.Equal(decimal.NewFromInt(450)) {
		t.Errorf("Expected freelancer balance 450, got %s", freelancerAfter.Balance.String())
	}
	if !freelancerAfter.AvailableBalance.Equal(decimal.Zero) {
		t.Errorf("Expected freelancer available 0, got %s", freelancerAfter.AvailableBalance.String())
	}
	if !escrowAfter.Balance.Equal(decimal.Zero) {
		t.Errorf("Expected escrow drained, got %s", escrowAfter.Balance.String())
	}
	if clientAfter.Balance.IsNegative() || clientAfter.AvailableBalance.IsNegative() ||
		freelancerAfter.Balance.IsNegative() || freelancerAfter.AvailableBalance.IsNegative() {
		t.Error("No balance may go negative")
	}
}
