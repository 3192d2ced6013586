package components

import (
	"context"
	"log/slog"

	"github.com/starkbank-ledger/internal/domain/ledger"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
)

type HistoryRecorderImpl struct {
	ledgerRepo ledger.Repository
	logger     *slog.Logger
}

func NewHistoryRecorder(ledgerRepo ledger.Repository, logger *slog.Logger) service.HistoryRecorder {
	return &HistoryRecorderImpl{
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// Record appends the entry to the account's transaction log
func (r *HistoryRecorderImpl) Record(ctx context.Context, entry *ledger.Entry) error {
	if err := r.ledgerRepo.Append(ctx, entry); err != nil {
		r.logger.Error("Failed to append ledger entry",
			"transaction_id", entry.TransactionID.String(),
			"acc_id", entry.AccountID,
			"error", err,
		)
		return err
	}
	return nil
}
