// Package lineutil provides utility functions for building LINE messages and actions.
package lineutil

import (
	"unicode/utf8"

	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"
)

// QuickReplyItem represents an item in a quick reply.
type QuickReplyItem struct {
	ImageURL string
	Action   messaging_api.ActionInterface
}

// Action is an alias for the LINE SDK action interface for convenience.
type Action = messaging_api.ActionInterface

// NewTextMessage creates a simple text message.
// The text parameter is the message content.
// LINE API limits: max 5000 characters per text message
func NewTextMessage(text string) *messaging_api.TextMessage {
	// Validate and truncate if necessary (LINE API limit: 5000 chars).
	// The limit counts characters, not bytes, so CJK text is measured in runes.
	if utf8.RuneCountInString(text) > MaxTextMessageLength {
		text = TruncateRunes(text, MaxTextMessageLength)
	}

	return &messaging_api.TextMessage{
		Text: text,
	}
}

// NewTextMessageWithQuickReply creates a text message with quick reply items.
// This is a convenience function for the common pattern of creating a text message
// and attaching quick replies.
func NewTextMessageWithQuickReply(text string, items ...QuickReplyItem) *messaging_api.TextMessage {
	msg := NewTextMessage(text)
	if len(items) > 0 {
		msg.QuickReply = NewQuickReply(items)
	}
	return msg
}

// NewImageMessage creates an image message with the given URLs.
// The originalContentURL is the full-size image URL, and previewImageURL is the thumbnail.
// LINE API requires both URLs to be HTTPS.
func NewImageMessage(originalContentURL, previewImageURL string) messaging_api.MessageInterface {
	return &messaging_api.ImageMessage{
		OriginalContentUrl: originalContentURL,
		PreviewImageUrl:    previewImageURL,
	}
}

// NewQuickReply creates a quick reply message component.
// The items parameter contains the quick reply buttons to display.
// Returns a QuickReply object that can be attached to text or template messages.
// LINE API limits: max 13 items
func NewQuickReply(items []QuickReplyItem) *messaging_api.QuickReply {
	// Validate item count (LINE API limit: max 13 items)
	if len(items) > MaxQuickReplyItemCount {
		items = items[:MaxQuickReplyItemCount]
	}

	quickReplyItems := make([]messaging_api.QuickReplyItem, len(items))

	for i, item := range items {
		qrItem := messaging_api.QuickReplyItem{
			Action: item.Action,
		}

		if item.ImageURL != "" {
			qrItem.ImageUrl = item.ImageURL
		}

		quickReplyItems[i] = qrItem
	}

	return &messaging_api.QuickReply{
		Items: quickReplyItems,
	}
}

// NewPostbackAction creates a postback action that sends data to the bot when clicked.
// The label is displayed on the button, and data is sent as postback data.
func NewPostbackAction(label, data string) Action {
	return &messaging_api.PostbackAction{
		Label: TruncateRunes(label, MaxQuickReplyLabel),
		Data:  data,
	}
}

// NewDatePickerAction creates a datetime picker action in date mode.
// The label is displayed on the button, data is sent as postback data when a
// date is picked, and initial/minDate/maxDate bound the picker ("YYYY-MM-DD").
func NewDatePickerAction(label, data, initial, minDate, maxDate string) Action {
	return &messaging_api.DatetimePickerAction{
		Label:   TruncateRunes(label, MaxQuickReplyLabel),
		Data:    data,
		Mode:    messaging_api.DatetimePickerActionMODE_DATE,
		Initial: initial,
		Min:     minDate,
		Max:     maxDate,
	}
}

// TruncateRunes truncates a string to at most maxRunes runes, appending "..."
// when truncation happens and there is room for it. Counting runes rather than
// bytes matters for CJK labels.
func TruncateRunes(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}
