package bot

import "github.com/line/line-bot-sdk-go/v8/linebot/webhook"

// GetUserID extracts the user ID from a LINE source.
// Returns the user ID regardless of chat type (personal, group, or room).
// Returns empty string if source type is unknown or user ID is not available.
func GetUserID(source webhook.SourceInterface) string {
	switch s := source.(type) {
	case webhook.UserSource:
		return s.UserId
	case webhook.GroupSource:
		return s.UserId
	case webhook.RoomSource:
		return s.UserId
	}
	return ""
}
