//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"chat-system/domain"
	"chat-system/domain/event"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need for
// manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is one live session's inbox. Consume must not block: a full or
// closed inbox is a delivery failure, reported by the error return.
type EventSink interface {
	Consume(ctx context.Context, e event.DomainEvent) error
}

// IRegistry tracks live room membership. Sessions are referenced, never
// owned; dropping a session releases every room membership it holds.
type IRegistry interface {
	Join(channelID domain.ChannelID, sessionID string, sink EventSink)
	Leave(channelID domain.ChannelID, sessionID string)
	DropSession(sessionID string)
	Broadcast(ctx context.Context, channelID domain.ChannelID, e event.DomainEvent)
}
