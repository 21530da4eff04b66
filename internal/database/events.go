package database

import (
	"context"
	"database/sql"
	"fmt"

	"escrow-ledger-go/internal/models"
	"escrow-ledger-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func scanContractEvent(row txScanner) (*models.ContractEvent, error) {
	var e models.ContractEvent
	var bidStr string
	var processedAt sql.NullTime
	err := row.Scan(&e.Id, &e.ContractId, &e.PreviousStatus, &e.NewStatus,
		&e.ClientUserId, &bidStr, &e.CurrencyCode, &e.Status, &e.CreatedAt, &processedAt)
	if err != nil {
		return nil, err
	}
	if e.AgreedBid, err = decimal.NewFromString(bidStr); err != nil {
		return nil, fmt.Errorf("failed to parse agreed bid '%s': %w", bidStr, err)
	}
	if processedAt.Valid {
		e.ProcessedAt = processedAt.Time
	}
	return &e, nil
}

// RecordContractEvent persists a status-change notification from the contract
// workflow. Non-activation transitions are recorded as skipped so the audit
// trail stays complete without the listener ever touching them.
func (s *Service) RecordContractEvent(ctx context.Context, event models.ContractEvent) (*models.ContractEvent, error) {
	if event.ContractId == "" || event.ClientUserId == "" {
		return nil, fmt.Errorf("contract event requires contract id and client user id")
	}

	eventId := event.Id
	if eventId == "" {
		eventId = uuid.New().String()
	}
	status := models.ContractEventStatusPending
	if !event.IsActivation() {
		status = models.ContractEventStatusSkipped
	}

	_, err := s.db.ExecContext(ctx, queryInsertContractEvent,
		eventId, event.ContractId, event.PreviousStatus, event.NewStatus,
		event.ClientUserId, event.AgreedBid.String(), event.CurrencyCode, status)
	if err != nil {
		return nil, fmt.Errorf("failed to record contract event: %w", err)
	}

	zap.L().Info("Contract event recorded",
		zap.String("event_id", eventId),
		zap.String("contract_id", event.ContractId),
		zap.String("previous_status", event.PreviousStatus),
		zap.String("new_status", event.NewStatus),
		zap.String("status", status))

	return s.getContractEvent(ctx, eventId)
}

func (s *Service) getContractEvent(ctx context.Context, eventId string) (*models.ContractEvent, error) {
	e, err := scanContractEvent(s.db.QueryRowContext(ctx, queryGetContractEvent, eventId))
	if err == sql.ErrNoRows {
		return nil, store.ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ClaimContractEvent flips a pending event to claimed in one conditional
// update. Exactly one caller wins; everyone else gets ErrEventAlreadyClaimed.
// This is the guard that keeps the funding hook at-most-once per transition.
func (s *Service) ClaimContractEvent(ctx context.Context, eventId string) error {
	result, err := s.db.ExecContext(ctx, queryClaimContractEvent, eventId)
	if err != nil {
		return fmt.Errorf("failed to claim contract event: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		if _, err := s.getContractEvent(ctx, eventId); err != nil {
			return err
		}
		return fmt.Errorf("event %s: %w", eventId, store.ErrEventAlreadyClaimed)
	}
	return nil
}

// FinishContractEvent records the outcome of a claimed event.
func (s *Service) FinishContractEvent(ctx context.Context, eventId, status string) error {
	if status != models.ContractEventStatusProcessed && status != models.ContractEventStatusFailed {
		return fmt.Errorf("invalid terminal event status %q", status)
	}
	result, err := s.db.ExecContext(ctx, queryFinishContractEvent, status, eventId)
	if err != nil {
		return fmt.Errorf("failed to finish contract event: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrEventNotFound
	}
	return nil
}

// GetPendingActivationEvents returns unclaimed activation events, oldest
// first, for the listener to drain.
func (s *Service) GetPendingActivationEvents(ctx context.Context, limit int) ([]models.ContractEvent, error) {
	rows, err := s.db.QueryContext(ctx, queryGetPendingActivationEvents, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending contract events: %w", err)
	}
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var events []models.ContractEvent
	for rows.Next() {
		e, err := scanContractEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan contract event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating contract event rows: %w", err)
	}
	return events, nil
}
