package notify

import (
	"context"
	"time"

	"github.com/specialistvlad/socgrid/internal/ctxlog"
	"github.com/specialistvlad/socgrid/internal/dag"
)

// EventName is the socket.io event every task update is sent as.
const EventName = "task"

// Event is one task lifecycle change.
type Event struct {
	System string
	Task   string
	Status string
	Error  string
	Time   time.Time
}

// Payload is the wire form of the event.
func (e Event) Payload() map[string]any {
	p := map[string]any{
		"system": e.System,
		"task":   e.Task,
		"status": e.Status,
		"time":   e.Time.UTC().Format(time.RFC3339Nano),
	}
	if e.Error != "" {
		p["error"] = e.Error
	}
	return p
}

// Sink receives events. Implementations must be safe for concurrent use and
// must not block the build for long.
type Sink interface {
	Send(ctx context.Context, ev Event)
}

// Observer adapts a Sink to dag.Observer.
type Observer struct {
	system string
	sink   Sink
	now    func() time.Time
}

var _ dag.Observer = (*Observer)(nil)

// NewObserver creates an observer that tags every event with system.
func NewObserver(system string, sink Sink) *Observer {
	return &Observer{system: system, sink: sink, now: time.Now}
}

// TaskStarted implements dag.Observer.
func (o *Observer) TaskStarted(ctx context.Context, id string) {
	o.send(ctx, id, dag.Running, nil)
}

// TaskFinished implements dag.Observer.
func (o *Observer) TaskFinished(ctx context.Context, id string, status dag.Status, err error) {
	o.send(ctx, id, status, err)
}

func (o *Observer) send(ctx context.Context, id string, status dag.Status, err error) {
	ev := Event{System: o.system, Task: id, Status: status.String(), Time: o.now()}
	if err != nil {
		ev.Error = err.Error()
	}
	ctxlog.FromContext(ctx).Debug("Sending build event.", "task", id, "status", ev.Status)
	o.sink.Send(ctx, ev)
}
