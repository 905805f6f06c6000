package engine

import "errors"

// Notice is an error meant for the player's screen, as opposed to an internal
// failure. Every Notice is dismissible; none of them are fatal to the session.
type Notice struct {
	Message string
}

func (n *Notice) Error() string {
	return n.Message
}

// NewNotice creates a player-visible error with the given message.
func NewNotice(message string) *Notice {
	return &Notice{Message: message}
}

// AsNotice extracts a Notice from err, if there is one.
func AsNotice(err error) (*Notice, bool) {
	var n *Notice
	if errors.As(err, &n) {
		return n, true
	}
	return nil, false
}

// ErrBusy rejects input that arrives while a model request is in flight.
// Input is rejected, not queued; the player just tries again.
var ErrBusy = NewNotice("The storyteller is still thinking. Please wait.")
