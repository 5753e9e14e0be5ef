// Package bot provides the handler interface and event processing for bot modules.
// Each module implements the Handler interface to process user messages and
// postback events; the Processor routes webhook events to the right module.
package bot

import (
	"context"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// Handler defines the interface that all bot modules must implement
// This provides a consistent API for webhook routing and message handling
type Handler interface {
	// Name returns the module name for logging and registry lookup
	Name() string

	// CanHandle checks if this handler can process the given text message
	// Returns true if the handler recognizes the text as one of its triggers
	CanHandle(text string) bool

	// HandleMessage processes a text message and returns LINE message responses
	// The context should be used for cancellation and timeout management
	// Returns a slice of LINE messages (max 5 messages per reply)
	HandleMessage(ctx context.Context, text string) []messaging_api.MessageInterface

	// CanHandlePostback checks if this handler owns the given postback action name
	CanHandlePostback(action string) bool

	// HandlePostback processes a postback event (button clicks, picker results)
	//
	// Postback Format Convention:
	//   - Format: "action=name&key=value..." (query string shape)
	//   - Example: "action=edit_record&index=2"
	//   - Max 300 bytes per LINE API limit
	//   - Datetime picker results arrive in pb.Date, not in the data string
	//
	// Returns a slice of LINE messages (max 5 messages per reply)
	HandlePostback(ctx context.Context, pb *Postback) []messaging_api.MessageInterface
}

// PendingInputHandler is an optional interface for handlers that hold
// per-user dialogue state. When no trigger matches a text message, the
// Processor offers it to pending-input handlers before falling back to the
// help message. The bool return reports whether the handler consumed the
// input (i.e. the user had a pending dialogue with it).
type PendingInputHandler interface {
	HandlePendingInput(ctx context.Context, text string) ([]messaging_api.MessageInterface, bool)
}
