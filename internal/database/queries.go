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

const (
	// User queries
	queryGetActiveUsers = `
		SELECT id, name, email, country, role, created_at, updated_at
		FROM users
		WHERE active = 1
		ORDER BY created_at`

	queryInsertUser = `
		INSERT INTO users (id, name, email, country, role) VALUES (?, ?, ?, ?, ?)`

	queryGetUserById = `
		SELECT id, name, email, country, role, created_at, updated_at
		FROM users
		WHERE id = ? AND active = 1`

	queryGetUserByEmail = `
		SELECT id, name, email, country, role, created_at, updated_at
		FROM users
		WHERE email = ? AND active = 1`

	// Currency queries
	queryInsertCurrency = `
		INSERT OR IGNORE INTO currencies (code, name, symbol, decimals) VALUES (?, ?, ?, ?)`

	queryGetCurrency = `
		SELECT code, name, symbol, decimals FROM currencies WHERE code = ?`

	// Wallet queries
	queryInsertWallet = `
		INSERT INTO wallets (id, user_id, currency_code, balance, available_balance, version)
		VALUES (?, ?, ?, '0', '0', 1)`

	queryGetWalletByUserId = `
		SELECT id, user_id, currency_code, balance, available_balance, version, created_at, updated_at
		FROM wallets
		WHERE user_id = ?`

	queryGetWalletById = `
		SELECT id, user_id, currency_code, balance, available_balance, version, created_at, updated_at
		FROM wallets
		WHERE id = ?`

	queryUpdateWalletBalances = `
		UPDATE wallets
		SET balance = ?, available_balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	// Escrow account queries
	queryInsertEscrowAccount = `
		INSERT INTO escrow_accounts (id, user_id, contract_id, reference, currency_code, balance, version)
		VALUES (?, ?, ?, ?, ?, '0', 1)`

	queryGetEscrowAccountByUserId = `
		SELECT id, user_id, contract_id, reference, currency_code, balance, version, created_at, updated_at
		FROM escrow_accounts
		WHERE user_id = ? AND contract_id = ''`

	queryGetEscrowAccountById = `
		SELECT id, user_id, contract_id, reference, currency_code, balance, version, created_at, updated_at
		FROM escrow_accounts
		WHERE id = ?`

	queryGetEscrowAccountByReference = `
		SELECT id, user_id, contract_id, reference, currency_code, balance, version, created_at, updated_at
		FROM escrow_accounts
		WHERE reference = ?`

	queryGetEscrowAccountByContract = `
		SELECT id, user_id, contract_id, reference, currency_code, balance, version, created_at, updated_at
		FROM escrow_accounts
		WHERE user_id = ? AND contract_id = ?`

	queryUpdateEscrowBalance = `
		UPDATE escrow_accounts
		SET balance = ?, version = version + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND version = ?`

	// Transaction queries
	queryCheckDuplicateReference = `
		SELECT id FROM transactions WHERE reference = ? LIMIT 1`

	queryInsertTransaction = `
		INSERT INTO transactions (
			id, reference, wallet_id, escrow_id, amount, type, status,
			related_type, related_id, metadata, balance_before, balance_after,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	queryGetTransactionByReference = `
		SELECT id, reference, wallet_id, escrow_id, amount, type, status,
		       related_type, related_id, metadata, balance_before, balance_after,
		       created_at, updated_at
		FROM transactions
		WHERE reference = ?`

	queryGetWalletTransactionHistory = `
		SELECT id, reference, wallet_id, escrow_id, amount, type, status,
		       related_type, related_id, metadata, balance_before, balance_after,
		       created_at, updated_at
		FROM transactions
		WHERE wallet_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	queryGetEscrowTransactionHistory = `
		SELECT id, reference, wallet_id, escrow_id, amount, type, status,
		       related_type, related_id, metadata, balance_before, balance_after,
		       created_at, updated_at
		FROM transactions
		WHERE escrow_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	// Withdrawal queries
	queryInsertWithdrawal = `
		INSERT INTO withdrawals (id, wallet_id, transaction_reference, amount, provider, status, metadata)
		VALUES (?, ?, ?, ?, ?, 'pending', ?)`

	queryGetWithdrawal = `
		SELECT id, wallet_id, transaction_reference, amount, provider, provider_reference,
		       status, metadata, requested_at, processed_at
		FROM withdrawals
		WHERE id = ?`

	queryConfirmWithdrawal = `
		UPDATE withdrawals
		SET status = 'completed', provider_reference = ?, processed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'`

	queryFailWithdrawal = `
		UPDATE withdrawals
		SET status = 'failed', metadata = ?, processed_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = 'pending'`

	// Contract event queries
	queryInsertContractEvent = `
		INSERT INTO contract_events (
			id, contract_id, previous_status, new_status, client_user_id,
			agreed_bid, currency_code, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	queryClaimContractEvent = `
		UPDATE contract_events
		SET status = 'claimed'
		WHERE id = ? AND status = 'pending'`

	queryFinishContractEvent = `
		UPDATE contract_events
		SET status = ?, processed_at = CURRENT_TIMESTAMP
		WHERE id = ?`

	queryGetContractEvent = `
		SELECT id, contract_id, previous_status, new_status, client_user_id,
		       agreed_bid, currency_code, status, created_at, processed_at
		FROM contract_events
		WHERE id = ?`

	queryGetPendingActivationEvents = `
		SELECT id, contract_id, previous_status, new_status, client_user_id,
		       agreed_bid, currency_code, status, created_at, processed_at
		FROM contract_events
		WHERE status = 'pending'
		ORDER BY created_at, id
		LIMIT ?`
)
