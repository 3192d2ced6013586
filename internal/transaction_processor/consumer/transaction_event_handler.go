package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/platform/messaging/producers"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
)

// TransactionEventHandler handles incoming transaction request messages from Kafka
type TransactionEventHandler struct {
	processingService service.ProcessingService
	failureRecorder   service.FailureRecorder
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

// NewTransactionEventHandler creates a new handler
func NewTransactionEventHandler(
	logger *slog.Logger,
	processingService service.ProcessingService,
	failureRecorder service.FailureRecorder,
	producer producers.DeadLetterPublisher,
) *TransactionEventHandler {
	return &TransactionEventHandler{
		processingService: processingService,
		failureRecorder:   failureRecorder,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage processes one request. Only storage failures are returned for redelivery; every
// other outcome commits the offset, since running a rejected or partially applied request again
// could move money twice.
func (h *TransactionEventHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.TransactionRequest
	if err := json.Unmarshal(value, &request); err != nil {
		unmarshalErrorMsg := "Failed to unmarshal transaction request from Kafka message"
		h.logger.Error(unmarshalErrorMsg,
			"error", err,
			"message_key", string(key),
		)

		dlqReason := fmt.Sprintf("%s: %s", unmarshalErrorMsg, err.Error())
		dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason)
		switch {
		case dlqErr == nil:
			h.logger.Info("Successfully published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
			return nil
		case errors.Is(dlqErr, producers.ErrDLQDisabled):
			h.logger.Warn("Dropping unprocessable message, DLQ disabled", "message_key", string(key))
			return nil
		}
		h.logger.Error("Failed to publish message to DLQ after unmarshal error",
			"dlq_error", dlqErr,
			"original_error", err,
			"message_key", string(key),
		)
		return fmt.Errorf("failed to unmarshal message value: %w", err)
	}

	ctx = shared.WithCorrelationID(ctx, request.CorrelationID)
	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received transaction request for processing",
		"transaction_id", request.TransactionID.String(),
		"account_id", request.AccountID,
		"type", request.Type,
		"amount", request.Amount.String(),
	)

	err := h.processingService.ProcessTransaction(ctx, &request)
	if err == nil {
		logger.Info("Successfully processed transaction", "transaction_id", request.TransactionID.String())
		return nil
	}

	reason, retryable := service.ClassifyFailure(err)
	if retryable {
		logger.Error("Transaction failed on storage, will retry",
			"transaction_id", request.TransactionID.String(),
			"error", err,
		)
		return fmt.Errorf("processing transaction %s failed: %w", request.TransactionID.String(), err)
	}

	logger.Warn("Transaction rejected",
		"transaction_id", request.TransactionID.String(),
		"reason", reason,
		"error", err,
	)
	if recordErr := h.failureRecorder.RecordFailure(ctx, &request, reason, err); recordErr != nil && !errors.Is(recordErr, producers.ErrDLQDisabled) {
		logger.Error("Failed to record transaction failure", "transaction_id", request.TransactionID.String(), "error", recordErr)
	}
	return nil
}
