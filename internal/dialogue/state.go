// Package dialogue tracks the per-user conversation state for multi-turn
// flows. State is transient: it lives in memory, expires after a TTL, and is
// lost on restart. Losing it means the user has to tap the menu again, which
// is acceptable degraded behavior for this bot.
package dialogue

// Kind identifies which multi-turn flow, if any, is in progress for a user.
type Kind int

const (
	// Idle means no multi-turn operation is pending. Default and terminal
	// state after every completed unit of work.
	Idle Kind = iota
	// AwaitingNewValue means the next text message is expected to be the
	// numeric value for a new record.
	AwaitingNewValue
	// AwaitingEditValue means the next text message is expected to be the
	// replacement value for the record identified by Date and Index.
	AwaitingEditValue
)

// String returns the kind name for logging.
func (k Kind) String() string {
	switch k {
	case Idle:
		return "idle"
	case AwaitingNewValue:
		return "awaiting_new_value"
	case AwaitingEditValue:
		return "awaiting_edit_value"
	default:
		return "unknown"
	}
}

// State is the per-user conversation state. Date and Index are only
// meaningful for AwaitingEditValue: Index is the position of the target
// record within Date's record list as it was rendered in the edit menu.
type State struct {
	Kind  Kind
	Date  string // YYYY-MM-DD
	Index int
}

// IdleState returns the default state.
func IdleState() State {
	return State{Kind: Idle}
}

// AwaitingNew returns the state expecting a new record value.
func AwaitingNew() State {
	return State{Kind: AwaitingNewValue}
}

// AwaitingEdit returns the state expecting a replacement value for the
// record at index on date.
func AwaitingEdit(date string, index int) State {
	return State{Kind: AwaitingEditValue, Date: date, Index: index}
}
