package components

import (
	"log/slog"
	"testing"
	"time"

	"github.com/starkbank-ledger/internal/config"
	"github.com/starkbank-ledger/internal/transaction_processor/service"
	"github.com/stretchr/testify/assert"
)

func TestCreateProcessingService(t *testing.T) {
	logger := slog.Default()

	cfg := &config.Config{
		Ledger: config.LedgerConfig{TransferPolicy: config.TransferPolicyReport, LockTimeout: time.Second},
		WorkerPool: config.WorkerPoolConfig{
			Size: 5,
		},
	}
	ledgerService := CreateLedgerService(&MockAccountRepo{}, &MockLedgerRepo{}, nil, nil, logger, cfg)
	assert.NotNil(t, ledgerService)

	t.Run("creates worker pool service with valid config", func(t *testing.T) {
		processingService := CreateProcessingService(ledgerService, logger, cfg)

		pool, ok := processingService.(*service.WorkerPoolProcessingService)
		assert.True(t, ok)
		assert.Equal(t, 5, pool.Capacity())
		assert.NoError(t, pool.Shutdown(time.Second))
	})

	t.Run("falls back to the base service without a usable pool size", func(t *testing.T) {
		noPool := *cfg
		noPool.WorkerPool.Size = 0
		processingService := CreateProcessingService(ledgerService, logger, &noPool)

		_, ok := processingService.(*service.ProcessingServiceImpl)
		assert.True(t, ok)
	})
}
