package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract statuses the ledger cares about. The contract workflow itself is
// external; only the transition into active triggers escrow funding.
const ContractStatusActive = "active"

// Contract event statuses. Pending events are claimed atomically before the
// funding hook runs, so two concurrent listeners cannot both fire the hold.
const (
	ContractEventStatusPending   = "pending"
	ContractEventStatusClaimed   = "claimed"
	ContractEventStatusProcessed = "processed"
	ContractEventStatusFailed    = "failed"
	ContractEventStatusSkipped   = "skipped"
)

// ContractEvent is one status-change notification from the contract workflow,
// persisted as an inbox row until the listener claims and processes it.
type ContractEvent struct {
	Id             string          `db:"id"`
	ContractId     string          `db:"contract_id"`
	PreviousStatus string          `db:"previous_status"`
	NewStatus      string          `db:"new_status"`
	ClientUserId   string          `db:"client_user_id"`
	AgreedBid      decimal.Decimal `db:"agreed_bid"`
	CurrencyCode   string          `db:"currency_code"`
	Status         string          `db:"status"`
	CreatedAt      time.Time       `db:"created_at"`
	ProcessedAt    time.Time       `db:"processed_at"`
}

// IsActivation reports whether this event is a first entry into active.
func (e *ContractEvent) IsActivation() bool {
	return e.PreviousStatus != ContractStatusActive && e.NewStatus == ContractStatusActive
}
