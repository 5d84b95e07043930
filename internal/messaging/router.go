package messaging

import (
	"context"
	"log/slog"
)

// ReplyHandler produces the reply for one inbound message. Implemented by the
// coach engine.
type ReplyHandler interface {
	HandleIncoming(ctx context.Context, identity, text string) (string, error)
}

// Router consumes inbound messages from a Service and sends back the replies
// produced by the handler.
type Router struct {
	service Service
	handler ReplyHandler
}

// NewRouter creates a router over the given transport and handler.
func NewRouter(service Service, handler ReplyHandler) *Router {
	return &Router{service: service, handler: handler}
}

// Start launches the routing loop. It returns once the loop goroutine is
// running; the loop exits when the context is cancelled or the responses
// channel closes.
func (r *Router) Start(ctx context.Context) {
	go r.loop(ctx)
	slog.Debug("Router started")
}

func (r *Router) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			slog.Debug("Router stopping due to context cancellation")
			return
		case response, ok := <-r.service.Responses():
			if !ok {
				slog.Debug("Router stopping, responses channel closed")
				return
			}
			r.handle(ctx, response.From, response.Body)
		}
	}
}

// handle runs one message through the reply handler. The handler returns
// fallback reply text even on failure, so a reply is sent either way.
func (r *Router) handle(ctx context.Context, from, body string) {
	reply, err := r.handler.HandleIncoming(ctx, from, body)
	if err != nil {
		slog.Error("Router handler failed", "from", from, "error", err)
	}
	if reply == "" {
		return
	}
	if err := r.service.SendMessage(ctx, from, reply); err != nil {
		slog.Error("Router failed to send reply", "from", from, "error", err)
	}
}
