package store

import (
	"context"
	"errors"

	"escrow-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across the ledger. Precondition failures abort the
// whole atomic scope; callers discriminate with errors.Is.
var (
	// ErrInvalidAmount rejects zero or negative amounts before any I/O.
	ErrInvalidAmount = errors.New("transaction amount must be positive")
	// ErrMissingParticipant means the wallet/escrow required by the
	// transaction type was not supplied.
	ErrMissingParticipant = errors.New("missing required participant")
	// ErrInsufficientFunds covers spendable-balance failures (payout, fee).
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInsufficientAvailableFunds covers hold placement failures.
	ErrInsufficientAvailableFunds = errors.New("insufficient available funds")
	// ErrInsufficientEscrowFunds covers escrow debit failures.
	ErrInsufficientEscrowFunds = errors.New("insufficient escrow funds")
	// ErrDuplicateReference means the idempotency key was already used;
	// callers should treat it as "already processed, fetch existing record".
	ErrDuplicateReference = errors.New("duplicate transaction reference")
	// ErrConcurrentModification means a compare-and-swap update lost the
	// race; the operation was rolled back and may be retried.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	ErrUserNotFound       = errors.New("user not found")
	ErrWalletNotFound     = errors.New("wallet not found")
	ErrEscrowNotFound     = errors.New("escrow account not found")
	ErrCurrencyNotFound   = errors.New("currency not found")
	ErrWithdrawalNotFound = errors.New("withdrawal not found")
	ErrEventNotFound      = errors.New("contract event not found")
	// ErrEventAlreadyClaimed means another worker claimed the contract
	// event first; the caller must not fire the funding hook.
	ErrEventAlreadyClaimed = errors.New("contract event already claimed")
)

// CreateTransactionParams contains the parameters for the engine's single
// entry point. Reference is the idempotency key; when empty the engine
// generates one.
type CreateTransactionParams struct {
	WalletId    string
	EscrowId    string
	Amount      decimal.Decimal
	Type        string
	Reference   string
	RelatedType string
	RelatedId   string
	Metadata    map[string]string
}

// CreateUserParams provisions a user together with their wallet (and, for
// clients, their default escrow account).
type CreateUserParams struct {
	Id      string
	Name    string
	Email   string
	Country string
	Role    string
}

// RequestWithdrawalParams captures a payout request to an external provider.
type RequestWithdrawalParams struct {
	WalletId  string
	Amount    decimal.Decimal
	Provider  string
	Reference string
	Metadata  map[string]string
}

// LedgerStore defines the contract the ledger storage backend must satisfy.
type LedgerStore interface {
	// --- Users & provisioning ---
	GetUsers(ctx context.Context) ([]models.User, error)
	GetUserById(ctx context.Context, userId string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, params CreateUserParams) (*models.User, error)

	// --- Currencies ---
	SeedCurrency(ctx context.Context, currency models.Currency) error
	GetCurrency(ctx context.Context, code string) (*models.Currency, error)

	// --- Wallets ---
	GetWalletByUserId(ctx context.Context, userId string) (*models.Wallet, error)
	GetWalletById(ctx context.Context, walletId string) (*models.Wallet, error)
	AdjustBalance(ctx context.Context, walletId string, amount decimal.Decimal, allowNegative bool) error
	PlaceHold(ctx context.Context, walletId string, amount decimal.Decimal) error
	ReleaseHold(ctx context.Context, walletId string, amount decimal.Decimal) error

	// --- Escrow accounts ---
	GetEscrowAccountByUserId(ctx context.Context, userId string) (*models.EscrowAccount, error)
	GetEscrowAccountById(ctx context.Context, escrowId string) (*models.EscrowAccount, error)
	GetEscrowAccountByReference(ctx context.Context, reference string) (*models.EscrowAccount, error)
	GetOrCreateContractEscrow(ctx context.Context, userId, contractId, currencyCode string) (*models.EscrowAccount, error)

	// --- Transaction engine ---
	CreateTransaction(ctx context.Context, params CreateTransactionParams) (*models.Transaction, error)
	GetTransactionByReference(ctx context.Context, reference string) (*models.Transaction, error)
	GetWalletTransactionHistory(ctx context.Context, walletId string, limit, offset int) ([]models.Transaction, error)
	GetEscrowTransactionHistory(ctx context.Context, escrowId string, limit, offset int) ([]models.Transaction, error)

	// --- Withdrawals ---
	RequestWithdrawal(ctx context.Context, params RequestWithdrawalParams) (*models.Withdrawal, error)
	GetWithdrawal(ctx context.Context, withdrawalId string) (*models.Withdrawal, error)
	ConfirmWithdrawal(ctx context.Context, withdrawalId, providerReference string) (*models.Withdrawal, error)
	FailWithdrawal(ctx context.Context, withdrawalId, reason string) (*models.Withdrawal, error)

	// --- Contract events ---
	RecordContractEvent(ctx context.Context, event models.ContractEvent) (*models.ContractEvent, error)
	ClaimContractEvent(ctx context.Context, eventId string) error
	FinishContractEvent(ctx context.Context, eventId, status string) error
	GetPendingActivationEvents(ctx context.Context, limit int) ([]models.ContractEvent, error)

	// --- Lifecycle ---
	Close()
}
