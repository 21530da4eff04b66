package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types understood by the ledger engine.
const (
	TransactionTypeDeposit       = "deposit"
	TransactionTypeEscrowHold    = "escrow_hold"
	TransactionTypeEscrowRelease = "escrow_release"
	TransactionTypePayout        = "payout"
	TransactionTypeWithdrawal    = "withdrawal"
	TransactionTypeRefund        = "refund"
	TransactionTypeFee           = "fee"
	TransactionTypeAdjustment    = "adjustment"
	TransactionTypeTransfer      = "transfer"
)

// Transaction statuses. A transaction only moves pending -> completed or
// pending -> failed/cancelled; completed rows are immutable.
const (
	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
)

// Withdrawal statuses share the transaction status vocabulary.
const (
	WithdrawalStatusPending   = "pending"
	WithdrawalStatusCompleted = "completed"
	WithdrawalStatusFailed    = "failed"
	WithdrawalStatusCancelled = "cancelled"
)

// User roles. Clients fund escrow; freelancers receive releases.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
)

// Currency is immutable reference data seeded at setup time.
type Currency struct {
	Code     string `db:"code"`
	Name     string `db:"name"`
	Symbol   string `db:"symbol"`
	Decimals int    `db:"decimals"`
}

// User represents a user in the system
type User struct {
	Id        string    `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Country   string    `db:"country"`
	Role      string    `db:"role"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Wallet is a user's spendable balance (hot data). AvailableBalance is the
// portion not pledged to any escrow hold; it never exceeds Balance.
type Wallet struct {
	Id               string          `db:"id"`
	UserId           string          `db:"user_id"`
	CurrencyCode     string          `db:"currency_code"`
	Balance          decimal.Decimal `db:"balance"`
	AvailableBalance decimal.Decimal `db:"available_balance"`
	Version          int64           `db:"version"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

// CanDebit reports whether the wallet holds enough funds. When
// requireAvailable is true the check runs against the unencumbered balance,
// otherwise against the raw balance. Pure read, no side effect.
func (w *Wallet) CanDebit(amount decimal.Decimal, requireAvailable bool) bool {
	if requireAvailable {
		return w.AvailableBalance.GreaterThanOrEqual(amount)
	}
	return w.Balance.GreaterThanOrEqual(amount)
}

// EscrowAccount holds funds pledged but not yet released. ContractId is empty
// for a client's default account and set for per-contract accounts.
type EscrowAccount struct {
	Id           string          `db:"id"`
	UserId       string          `db:"user_id"`
	ContractId   string          `db:"contract_id"`
	Reference    string          `db:"reference"`
	CurrencyCode string          `db:"currency_code"`
	Balance      decimal.Decimal `db:"balance"`
	Version      int64           `db:"version"`
	CreatedAt    time.Time       `db:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at"`
}

// Transaction represents immutable transaction history (cold data).
// BalanceBefore/BalanceAfter snapshot the wallet side when a wallet is
// involved; they stay zero for escrow-only and record-only entries.
type Transaction struct {
	Id            string            `db:"id"`
	Reference     string            `db:"reference"`
	WalletId      string            `db:"wallet_id"`
	EscrowId      string            `db:"escrow_id"`
	Amount        decimal.Decimal   `db:"amount"`
	Type          string            `db:"type"`
	Status        string            `db:"status"`
	RelatedType   string            `db:"related_type"`
	RelatedId     string            `db:"related_id"`
	Metadata      map[string]string `db:"metadata"`
	BalanceBefore decimal.Decimal   `db:"balance_before"`
	BalanceAfter  decimal.Decimal   `db:"balance_after"`
	CreatedAt     time.Time         `db:"created_at"`
	UpdatedAt     time.Time         `db:"updated_at"`
}

// Withdrawal tracks a payout request to an external rail (bank, mobile money).
type Withdrawal struct {
	Id                   string            `db:"id"`
	WalletId             string            `db:"wallet_id"`
	TransactionReference string            `db:"transaction_reference"`
	Amount               decimal.Decimal   `db:"amount"`
	Provider             string            `db:"provider"`
	ProviderReference    string            `db:"provider_reference"`
	Status               string            `db:"status"`
	Metadata             map[string]string `db:"metadata"`
	RequestedAt          time.Time         `db:"requested_at"`
	ProcessedAt          time.Time         `db:"processed_at"`
}
