package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/starkbank-ledger/internal/domain/shared"
)

var (
	ErrInvalidPoolSize = errors.New("worker pool size must be greater than 0")
	ErrTaskPanicked    = errors.New("transaction processing panicked")
)

// idleWorkerExpiry is how long an idle worker goroutine is kept before ants reclaims it
const idleWorkerExpiry = time.Minute

// WorkerPoolProcessingService bounds how many queued requests are processed at once.
// Requests for different accounts run in parallel; the ledger engine's account locks
// still serialize requests touching the same account.
type WorkerPoolProcessingService struct {
	baseService ProcessingService
	pool        *ants.Pool
	logger      *slog.Logger
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolProcessingService(
	baseService ProcessingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	if config.Size <= 0 {
		return nil, ErrInvalidPoolSize
	}

	pool, err := ants.NewPool(config.Size, ants.WithExpiryDuration(idleWorkerExpiry))
	if err != nil {
		return nil, err
	}

	return &WorkerPoolProcessingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// ProcessTransaction runs the request on a pool worker and waits for its result.
// Submit blocks while every worker is busy.
func (s *WorkerPoolProcessingService) ProcessTransaction(ctx context.Context, request *shared.TransactionRequest) error {
	logger := s.logger.With("transaction_id", request.TransactionID.String(), "account_id", request.AccountID)
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	resultChan := make(chan error, 1)
	requestCopy := *request

	err := s.pool.Submit(func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("Recovered panic in worker", "panic", fmt.Sprint(r))
				resultChan <- fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			}
		}()
		resultChan <- s.baseService.ProcessTransaction(ctx, &requestCopy)
	})
	if err != nil {
		logger.Error("Failed to submit transaction to worker pool", "error", err)
		return fmt.Errorf("failed to submit transaction: %w", err)
	}

	return <-resultChan
}

// Shutdown waits up to timeout for running workers to finish, then releases the pool
func (s *WorkerPoolProcessingService) Shutdown(timeout time.Duration) error {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	if err := s.pool.ReleaseTimeout(timeout); err != nil {
		return fmt.Errorf("worker pool did not drain within %s: %w", timeout, err)
	}
	return nil
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
