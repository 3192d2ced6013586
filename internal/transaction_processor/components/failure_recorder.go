package components

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/platform/messaging/producers"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
)

type FailureRecorderImpl struct {
	dlq    producers.DeadLetterPublisher
	logger *slog.Logger
}

func NewFailureRecorder(dlq producers.DeadLetterPublisher, logger *slog.Logger) service.FailureRecorder {
	return &FailureRecorderImpl{
		dlq:    dlq,
		logger: logger,
	}
}

// RecordFailure forwards a rejected request to the dead letter queue with its failure reason
func (r *FailureRecorderImpl) RecordFailure(ctx context.Context, request *shared.TransactionRequest, reason shared.FailureReason, cause error) error {
	logger := r.logger
	if request.CorrelationID != "" {
		logger = r.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Recording failed transaction",
		"transaction_id", request.TransactionID.String(),
		"reason", reason,
		"error", cause,
	)

	payload, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal failed request %s: %w", request.TransactionID, err)
	}

	dlqReason := fmt.Sprintf("%s: %v", reason, cause)
	if err := r.dlq.PublishToDLQ(ctx, request.TransactionID.String(), payload, dlqReason); err != nil {
		logger.Error("Failed to record transaction failure", "transaction_id", request.TransactionID.String(), "error", err)
		return err
	}
	return nil
}
