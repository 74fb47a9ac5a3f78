// Package search maintains a bluge full-text index over channel messages.
// The index is fed asynchronously and is eventually consistent with the
// channel log; it is a lookup aid, not a source of truth.
package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"

	"chat-system/domain"
	"chat-system/domain/event"
)

type Index struct {
	writer *bluge.Writer
	log    *slog.Logger
}

type Hit struct {
	MessageID string    `json:"messageId"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	At        time.Time `json:"at"`
}

func OpenIndex(path string, log *slog.Logger) (*Index, error) {
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	return &Index{writer: writer, log: log}, nil
}

func (i *Index) Close() error {
	return i.writer.Close()
}

// Add indexes one appended message, keyed by message id so re-indexing the
// same event twice stays idempotent.
func (i *Index) Add(evt event.MessagePosted) error {
	doc := bluge.NewDocument(evt.ID.String()).
		AddField(bluge.NewKeywordField("channel", string(evt.Channel)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", evt.Sender).StoreValue()).
		AddField(bluge.NewTextField("text", evt.Text).StoreValue()).
		AddField(bluge.NewDateTimeField("at", evt.At).StoreValue())
	return i.writer.Update(doc.ID(), doc)
}

// Search runs a match query over one channel's messages.
func (i *Index) Search(ctx context.Context, channelID domain.ChannelID, terms string, limit int) ([]Hit, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(terms).SetField("text")).
		AddMust(bluge.NewTermQuery(string(channelID)).SetField("channel"))

	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var hits []Hit
	match, err := iterator.Next()
	for err == nil && match != nil {
		var hit Hit
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.MessageID = string(value)
			case "sender":
				hit.Sender = string(value)
			case "text":
				hit.Text = string(value)
			case "at":
				if at, decodeErr := bluge.DecodeDateTime(value); decodeErr == nil {
					hit.At = at
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, visitErr
		}
		hits = append(hits, hit)
		match, err = iterator.Next()
	}
	if err != nil {
		return nil, err
	}
	return hits, nil
}
