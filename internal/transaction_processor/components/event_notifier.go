package components

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/domain/shared"
	"github.com/starkbank-ledger/internal/platform/messaging/producers"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
)

// PartialTransferAlert is published for every transfer left with an unmatched credit
type PartialTransferAlert struct {
	TransferID    uuid.UUID `json:"transfer_id"`
	FromAccountID string    `json:"from_account_id"`
	ToAccountID   string    `json:"to_account_id"`
	Amount        string    `json:"amount"`
	Reason            string    `json:"reason"`
	ReversalAttempted bool      `json:"reversal_attempted"`
	CorrelationID     string    `json:"correlation_id,omitempty"`
	DetectedAt        time.Time `json:"detected_at"`
}

// EventNotifierImpl publishes ledger events. Either publisher may be nil, which disables that stream.
type EventNotifierImpl struct {
	events producers.MessagePublisher
	alerts producers.MessagePublisher
	logger *slog.Logger
}

func NewEventNotifier(events, alerts producers.MessagePublisher, logger *slog.Logger) service.EventNotifier {
	return &EventNotifierImpl{
		events: events,
		alerts: alerts,
		logger: logger,
	}
}

// EntryCommitted publishes the entry keyed by account ID, keeping each account's events ordered
func (n *EventNotifierImpl) EntryCommitted(ctx context.Context, entry *ledger.Entry) {
	if n.events == nil {
		return
	}
	if err := n.events.Publish(ctx, entry.AccountID, entry); err != nil {
		n.logger.Error("Failed to publish ledger event",
			"transaction_id", entry.TransactionID.String(),
			"acc_id", entry.AccountID,
			"error", err,
		)
	}
}

// PartialTransfer publishes an operator alert
func (n *EventNotifierImpl) PartialTransfer(ctx context.Context, failure *shared.PartialTransferError) {
	if n.alerts == nil {
		n.logger.Warn("Partial transfer alert not published, alerts disabled", "transfer_id", failure.TransferID.String())
		return
	}

	alert := PartialTransferAlert{
		TransferID:    failure.TransferID,
		FromAccountID: failure.FromAccountID,
		ToAccountID:   failure.ToAccountID,
		Amount:        shared.FormatAmount(failure.Amount),
		Reason:            failure.Cause.Error(),
		ReversalAttempted: failure.ReversalAttempted,
		CorrelationID: shared.CorrelationID(ctx),
		DetectedAt:    time.Now().UTC(),
	}
	if err := n.alerts.Publish(ctx, failure.TransferID.String(), alert); err != nil {
		n.logger.Error("Failed to publish partial transfer alert",
			"transfer_id", failure.TransferID.String(),
			"error", err,
		)
	}
}
