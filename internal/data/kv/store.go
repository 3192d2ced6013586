// Package kv keeps account records, credentials and the transaction log in an embedded
// Badger key-value store.
//
// Key layout:
//
//	account/<id>             account record
//	credential/<username>    credential record
//	seq/<id>                 last appended sequence number of an account's log
//	entry/<id>/<seq>         log entry, seq as 8 big-endian bytes so keys sort in append order
//	txid/<transaction id>    key of the entry carrying that transaction ID
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// gcDiscardRatio is the fraction of stale data a value log file needs before it is rewritten
	gcDiscardRatio = 0.5
	// maxConflictRetries bounds how often a write transaction is retried after a conflict
	maxConflictRetries = 3
)

// ErrClosed is returned by Ping once the store has been closed
var ErrClosed = errors.New("kv store closed")

// Options configures the underlying Badger database
type Options struct {
	Dir        string
	InMemory   bool // Dir is ignored
	SyncWrites bool
	GCInterval time.Duration // 0 disables background value log GC
}

// Store owns the Badger database shared by the repositories of this package
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	stopCh chan struct{}
	doneCh chan struct{}
}

// Open opens (or creates) the database and starts value log GC when an interval is set
func Open(logger *slog.Logger, opts Options) (*Store, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, fmt.Errorf("kv: dir is required")
	}

	badgerOpts := badger.DefaultOptions(opts.Dir).
		WithSyncWrites(opts.SyncWrites).
		WithLogger(&badgerLogger{logger: logger})
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(&badgerLogger{logger: logger})
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("kv: open db: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if opts.GCInterval > 0 && !opts.InMemory {
		go s.gcLoop(opts.GCInterval)
	} else {
		close(s.doneCh)
	}

	logger.Info("Badger store opened", "dir", opts.Dir, "in_memory", opts.InMemory, "sync_writes", opts.SyncWrites)
	return s, nil
}

// Ping reports whether the database is still open and readable
func (s *Store) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return ErrClosed
	}
	return s.db.View(func(*badger.Txn) error { return nil })
}

// RegisterMetrics exposes the on-disk size of the LSM tree and the value log
func (s *Store) RegisterMetrics(registerer prometheus.Registerer) error {
	lsm := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "badger",
		Name:      "lsm_size_bytes",
		Help:      "Badger LSM tree size in bytes",
	}, func() float64 {
		size, _ := s.db.Size()
		return float64(size)
	})

	vlog := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "ledger",
		Subsystem: "badger",
		Name:      "value_log_size_bytes",
		Help:      "Badger value log size in bytes",
	}, func() float64 {
		_, size := s.db.Size()
		return float64(size)
	})

	for _, c := range []prometheus.Collector{lsm, vlog} {
		if err := registerer.Register(c); err != nil {
			return fmt.Errorf("kv: register metrics: %w", err)
		}
	}
	return nil
}

// Close stops GC and closes the database
func (s *Store) Close() error {
	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	<-s.doneCh

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("kv: close db: %w", err)
	}
	s.logger.Info("Badger store closed")
	return nil
}

// update runs fn in a read-write transaction, retrying when a concurrent commit conflicts
func (s *Store) update(fn func(txn *badger.Txn) error) error {
	var err error
	for range maxConflictRetries {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func (s *Store) gcLoop(interval time.Duration) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runGC()
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) runGC() {
	start := time.Now()
	rewrites := 0
	for {
		err := s.db.RunValueLogGC(gcDiscardRatio)
		if err != nil {
			if !errors.Is(err, badger.ErrNoRewrite) {
				s.logger.Error("Value log GC failed", "error", err)
			}
			break
		}
		rewrites++
	}
	s.logger.Debug("Value log GC finished", "rewrites", rewrites, "elapsed", time.Since(start))
}

// badgerLogger routes Badger's printf-style logging into slog
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)), "component", "badger")
}
