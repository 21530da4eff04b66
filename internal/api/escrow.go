package api

import (
	"context"
	"errors"
	"fmt"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"go.uber.org/zap"
)

// FundContractEscrow reacts to a contract's first transition into active:
// it resolves the client's wallet, creates or reuses the per-contract escrow
// account, and places the hold for the agreed bid. The hold reference is
// derived from the contract id, so a redelivered event cannot double-fund.
func (s *LedgerService) FundContractEscrow(ctx context.Context, event *models.ContractEvent) (*models.TransferResult, error) {
	if !event.IsActivation() {
		return nil, fmt.Errorf("contract %s: transition %s -> %s is not an activation",
			event.ContractId, event.PreviousStatus, event.NewStatus)
	}

	wallet, err := s.db.GetWalletByUserId(ctx, event.ClientUserId)
	if err != nil {
		// A client without a wallet is a provisioning bug, not a business
		// rejection; log loudly and surface distinctly.
		zap.L().Error("Client wallet missing for contract activation",
			zap.String("contract_id", event.ContractId),
			zap.String("client_user_id", event.ClientUserId),
			zap.Error(err))
		return nil, err
	}

	escrow, err := s.db.GetOrCreateContractEscrow(ctx, event.ClientUserId, event.ContractId, event.CurrencyCode)
	if err != nil {
		return nil, err
	}

	reference := fmt.Sprintf("contract-%s-escrow-hold", event.ContractId)
	result, err := s.FundEscrowFromWallet(ctx, wallet.Id, escrow.Id, event.AgreedBid, reference,
		map[string]string{"contract_id": event.ContractId})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateReference) {
			zap.L().Info("Contract escrow already funded, skipping",
				zap.String("contract_id", event.ContractId),
				zap.String("reference", reference))
			existing, lookupErr := s.db.GetTransactionByReference(ctx, reference)
			if lookupErr != nil {
				return nil, lookupErr
			}
			return &models.TransferResult{
				Success:       true,
				TransactionId: existing.Id,
				Reference:     existing.Reference,
				WalletId:      existing.WalletId,
				EscrowId:      existing.EscrowId,
				Amount:        existing.Amount,
			}, nil
		}
		return result, err
	}

	zap.L().Info("Contract escrow funded",
		zap.String("contract_id", event.ContractId),
		zap.String("wallet_id", wallet.Id),
		zap.String("escrow_id", escrow.Id),
		zap.String("amount", event.AgreedBid.String()))

	return result, nil
}
