package workers

import (
	"context"
	"log/slog"

	"chat-system/contract"
	"chat-system/domain/event"
	"chat-system/search"
)

var _ contract.Worker = (*IndexWorker)(nil)

// IndexWorker drains the gateway's append feed into the search index. It
// sits off the send path on purpose: indexing latency or failures must
// never slow down or fail a message append.
type IndexWorker struct {
	index  *search.Index
	events <-chan event.MessagePosted
	log    *slog.Logger
}

func NewIndexWorker(index *search.Index, events <-chan event.MessagePosted, log *slog.Logger) *IndexWorker {
	return &IndexWorker{index: index, events: events, log: log}
}

func (w *IndexWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping worker")
			return ctx.Err()
		case evt, ok := <-w.events:
			if !ok {
				w.log.Debug("Channel is closed")
				return nil
			}
			if err := w.index.Add(evt); err != nil {
				w.log.Error("failed to index message",
					"message_id", evt.ID,
					"channel_id", evt.Channel,
					"error", err)
			}
		}
	}
}
