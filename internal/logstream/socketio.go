package logstream

import (
	"context"

	"github.com/vk/forgeci/internal/ctxlog"
	"github.com/zishang520/socket.io/v2/socket"
)

// EventName is the socket.io event name run events are emitted under.
const EventName = "run_event"

// Forward re-emits broker events to all connected socket.io clients until
// the context is canceled or the broker closes. It is intended to run in
// its own goroutine next to the status server.
func Forward(ctx context.Context, broker *Broker, io *socket.Server) {
	logger := ctxlog.FromContext(ctx)
	events, cancel := broker.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := io.Emit(EventName, ev); err != nil {
				logger.Warn("Failed to emit run event to socket.io clients.", "error", err)
			}
		}
	}
}
