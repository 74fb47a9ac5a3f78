// Package observability aggregates runtime counters for the stats endpoint
// and the telemetry worker.
package observability

import "sync/atomic"

type Metrics struct {
	MessagesAppended    atomic.Uint64
	BroadcastsDelivered atomic.Uint64
	DeliveryFailures    atomic.Uint64
	NoticesSent         atomic.Uint64
	IndexEventsDropped  atomic.Uint64
	ActiveSessions      atomic.Int64
}

// Stats is the wire form of a metrics snapshot.
type Stats struct {
	MessagesAppended    uint64 `json:"messages_appended"`
	BroadcastsDelivered uint64 `json:"broadcasts_delivered"`
	DeliveryFailures    uint64 `json:"delivery_failures"`
	NoticesSent         uint64 `json:"notices_sent"`
	IndexEventsDropped  uint64 `json:"index_events_dropped"`
	ActiveSessions      int64  `json:"active_sessions"`
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) Snapshot() Stats {
	return Stats{
		MessagesAppended:    m.MessagesAppended.Load(),
		BroadcastsDelivered: m.BroadcastsDelivered.Load(),
		DeliveryFailures:    m.DeliveryFailures.Load(),
		NoticesSent:         m.NoticesSent.Load(),
		IndexEventsDropped:  m.IndexEventsDropped.Load(),
		ActiveSessions:      m.ActiveSessions.Load(),
	}
}
