package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Registry manages bot handlers and dispatches messages/postbacks.
type Registry struct {
	handlers []Handler
}

// NewRegistry creates a new handler registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make([]Handler, 0),
	}
}

// Register adds a handler to the registry.
func (r *Registry) Register(h Handler) {
	r.handlers = append(r.handlers, h)
}

// DispatchMessage dispatches a text message to the first handler whose
// trigger matches it.
func (r *Registry) DispatchMessage(ctx context.Context, text string) []messaging_api.MessageInterface {
	for _, h := range r.handlers {
		if h.CanHandle(text) {
			return h.HandleMessage(ctx, text)
		}
	}
	return nil
}

// DispatchPendingInput offers free text to handlers holding dialogue state.
// Returns nil, false when no handler had a pending dialogue for the user.
func (r *Registry) DispatchPendingInput(ctx context.Context, text string) ([]messaging_api.MessageInterface, bool) {
	for _, h := range r.handlers {
		sh, ok := h.(PendingInputHandler)
		if !ok {
			continue
		}
		if msgs, consumed := sh.HandlePendingInput(ctx, text); consumed {
			return msgs, true
		}
	}
	return nil, false
}

// DispatchPostback dispatches a parsed postback to the handler owning its action.
func (r *Registry) DispatchPostback(ctx context.Context, pb *Postback) []messaging_api.MessageInterface {
	for _, h := range r.handlers {
		if h.CanHandlePostback(pb.Action) {
			return h.HandlePostback(ctx, pb)
		}
	}
	return nil
}

// GetHandler returns a handler by name.
func (r *Registry) GetHandler(name string) Handler {
	for _, h := range r.handlers {
		if h.Name() == name {
			return h
		}
	}
	return nil
}
