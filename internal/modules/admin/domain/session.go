package domain

import "time"

// State is the step of the admin conversation.
type State int

const (
	StateIdle State = iota
	StateAwaitSource
	StateAwaitDestination
	StateAwaitChannel
	StateAwaitPhoto
	StateAwaitTime
)

func (s State) String() string {
	switch s {
	case StateAwaitSource:
		return "await_source"
	case StateAwaitDestination:
		return "await_destination"
	case StateAwaitChannel:
		return "await_channel"
	case StateAwaitPhoto:
		return "await_photo"
	case StateAwaitTime:
		return "await_time"
	default:
		return "idle"
	}
}

// Session holds the admin's progress through a multi-step flow.
type Session struct {
	State     State
	Source    string // collected in AwaitSource
	ChannelID int64  // channel picked for a new post
	PhotoID   string
	Caption   string
	UpdatedAt time.Time
}

// Expired reports whether the session has been idle longer than ttl.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return ttl > 0 && now.Sub(s.UpdatedAt) > ttl
}

// Button is one inline keyboard button.
type Button struct {
	Text string
	Data string
}

// Reply is what the bot answers with. Keyboard rows are rendered as an inline keyboard.
type Reply struct {
	Text     string
	Keyboard [][]Button
	// Edit asks the transport to edit the message the callback came from.
	Edit bool
}

// Row builds a keyboard row.
func Row(buttons ...Button) []Button {
	return buttons
}
