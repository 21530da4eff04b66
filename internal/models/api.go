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

package models

import (
	"github.com/shopspring/decimal"
)

// WalletBalance is the read model handed to dashboards and payout checks.
type WalletBalance struct {
	WalletId         string          `json:"wallet_id"`
	UserId           string          `json:"user_id"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	CurrencyCode     string          `json:"currency_code"`
}

// TransferResult represents the outcome of a ledger movement exposed to callers.
type TransferResult struct {
	Success          bool            `json:"success"`
	TransactionId    string          `json:"transaction_id,omitempty"`
	Reference        string          `json:"reference,omitempty"`
	WalletId         string          `json:"wallet_id,omitempty"`
	EscrowId         string          `json:"escrow_id,omitempty"`
	Amount           decimal.Decimal `json:"amount,omitempty"`
	NewBalance       decimal.Decimal `json:"new_balance,omitempty"`
	NewAvailable     decimal.Decimal `json:"new_available,omitempty"`
	NewEscrowBalance decimal.Decimal `json:"new_escrow_balance,omitempty"`
	Error            string          `json:"error,omitempty"`
}
