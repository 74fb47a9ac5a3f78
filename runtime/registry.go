// Package runtime hosts the live messaging core: the channel registry, the
// per-channel serialization locks, and the gateway that ties the durable
// log to fan-out.
package runtime

import (
	"context"
	"log/slog"
	"sync"

	"chat-system/contract"
	"chat-system/domain"
	"chat-system/domain/event"
	"chat-system/observability"
)

type Set map[string]struct{}

// Registry tracks which sessions currently have which channels open. It is
// ephemeral by design: nothing here survives a restart, membership is
// rebuilt as sessions rejoin.
type Registry struct {
	mu          sync.RWMutex
	log         *slog.Logger
	metrics     *observability.Metrics
	sessions    map[string]contract.EventSink
	roomMembers map[domain.ChannelID]Set
}

func NewRegistry(log *slog.Logger, metrics *observability.Metrics) *Registry {
	return &Registry{
		log:         log,
		metrics:     metrics,
		sessions:    make(map[string]contract.EventSink),
		roomMembers: make(map[domain.ChannelID]Set),
	}
}

// Join subscribes a session to a channel's room. Joining twice is the same
// as joining once: membership is a set, so a session never receives a
// broadcast more than once per event.
func (r *Registry) Join(channelID domain.ChannelID, sessionID string, sink contract.EventSink) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, known := r.sessions[sessionID]; !known {
		r.metrics.ActiveSessions.Add(1)
	}
	r.sessions[sessionID] = sink

	if _, ok := r.roomMembers[channelID]; !ok {
		r.roomMembers[channelID] = make(Set)
	}
	r.roomMembers[channelID][sessionID] = struct{}{}
}

// Leave removes a session from one room. Leaving a room never joined is a
// no-op, not an error. The session stays registered while it is still a
// member of other rooms.
func (r *Registry) Leave(channelID domain.ChannelID, sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.removeFromRoom(channelID, sessionID)
	r.forgetIfUnused(sessionID)
}

// DropSession removes a session from every room it is part of. Called once
// per disconnection regardless of cause; later broadcasts never attempt
// delivery to the dropped session.
func (r *Registry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for channelID := range r.roomMembers {
		r.removeFromRoom(channelID, sessionID)
	}
	if _, known := r.sessions[sessionID]; known {
		delete(r.sessions, sessionID)
		r.metrics.ActiveSessions.Add(-1)
	}
}

// Broadcast delivers an event to every session in the room at the moment of
// the call. Delivery to one session is best-effort: a failing sink never
// aborts delivery to the rest and is never surfaced to the sender, it only
// gets that session dropped.
func (r *Registry) Broadcast(ctx context.Context, channelID domain.ChannelID, e event.DomainEvent) {
	type target struct {
		sessionID string
		sink      contract.EventSink
	}

	r.mu.RLock()
	members := r.roomMembers[channelID]
	targets := make([]target, 0, len(members))
	for sessionID := range members {
		if sink, ok := r.sessions[sessionID]; ok {
			targets = append(targets, target{sessionID: sessionID, sink: sink})
		}
	}
	r.mu.RUnlock()

	var failed []string
	for _, t := range targets {
		if err := t.sink.Consume(ctx, e); err != nil {
			r.log.Warn("delivery failed, dropping session",
				"session_id", t.sessionID,
				"channel_id", channelID,
				"error", err)
			r.metrics.DeliveryFailures.Add(1)
			failed = append(failed, t.sessionID)
			continue
		}
		r.metrics.BroadcastsDelivered.Add(1)
	}

	for _, sessionID := range failed {
		r.DropSession(sessionID)
	}
}

// removeFromRoom must be called with the write lock held.
func (r *Registry) removeFromRoom(channelID domain.ChannelID, sessionID string) {
	members, ok := r.roomMembers[channelID]
	if !ok {
		return
	}
	delete(members, sessionID)

	// If no one is left in the room, remove the room entry entirely
	if len(members) == 0 {
		delete(r.roomMembers, channelID)
	}
}

// forgetIfUnused drops the session's sink once it belongs to no room.
// Must be called with the write lock held.
func (r *Registry) forgetIfUnused(sessionID string) {
	for _, members := range r.roomMembers {
		if _, ok := members[sessionID]; ok {
			return
		}
	}
	if _, known := r.sessions[sessionID]; known {
		delete(r.sessions, sessionID)
		r.metrics.ActiveSessions.Add(-1)
	}
}
