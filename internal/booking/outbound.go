package booking

import "context"

// Messenger delivers booking prompts and confirmations back to the user.
type Messenger interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// Button is a labeled action attached to an interactive prompt.
type Button struct {
	ID    string
	Title string
}

// OutboundMessage carries the data required to push a message to the user.
// A message with Buttons renders as an interactive prompt; otherwise plain text.
type OutboundMessage struct {
	To      string
	Body    string
	Buttons []Button
}
