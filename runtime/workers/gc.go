package workers

import (
	"context"
	stderrors "errors"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"

	"chat-system/contract"
)

var _ contract.Worker = (*GCWorker)(nil)

// GCWorker periodically reclaims Badger value-log space. Badger never runs
// value-log GC on its own; without this the message log only ever grows.
type GCWorker struct {
	db       *badger.DB
	interval time.Duration
	log      *slog.Logger
}

func NewGCWorker(db *badger.DB, interval time.Duration, log *slog.Logger) *GCWorker {
	return &GCWorker{db: db, interval: interval, log: log}
}

func (w *GCWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case <-ticker.C:
			// Repeat until a pass finds nothing worth rewriting
			for {
				err := w.db.RunValueLogGC(0.5)
				if stderrors.Is(err, badger.ErrNoRewrite) {
					break
				}
				if err != nil {
					w.log.Warn("value log GC failed", "error", err)
					break
				}
				w.log.Debug("value log GC reclaimed a file")
			}
		}
	}
}
