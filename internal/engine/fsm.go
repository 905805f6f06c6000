package engine

import "fmt"

// State names one mode of the client session. A single explicit machine
// instead of interdependent boolean flags.
type State string

const (
	// StateWelcome is the character-creation screen before any game exists.
	StateWelcome State = "welcome"

	// StateSinglePlayer is an active solo session.
	StateSinglePlayer State = "single_player_active"

	// StateMultiplayerSetup is the create-or-join screen.
	StateMultiplayerSetup State = "multiplayer_setup"

	// StateMultiplayer is an active shared session.
	StateMultiplayer State = "multiplayer_active"

	// StateGenerating is the busy state: one model or store request is in
	// flight and further input is rejected.
	StateGenerating State = "generating"
)

// transitions lists the legal moves. Generating is entered from any
// interactive state and must return to an interactive state.
var transitions = map[State][]State{
	StateWelcome:          {StateGenerating, StateMultiplayerSetup},
	StateMultiplayerSetup: {StateGenerating, StateWelcome},
	StateSinglePlayer:     {StateGenerating, StateWelcome},
	StateMultiplayer:      {StateGenerating, StateWelcome},
	StateGenerating:       {StateWelcome, StateSinglePlayer, StateMultiplayerSetup, StateMultiplayer},
}

type fsm struct {
	state State

	// resume remembers the state to fall back to when a generating step
	// fails and the session should end up where it started.
	resume State
}

func newFSM() *fsm {
	return &fsm{state: StateWelcome}
}

func (f *fsm) current() State {
	return f.state
}

func (f *fsm) generating() bool {
	return f.state == StateGenerating
}

// to moves the machine to next, failing on any transition the table doesn't
// allow.
func (f *fsm) to(next State) error {
	for _, legal := range transitions[f.state] {
		if legal == next {
			if next == StateGenerating {
				f.resume = f.state
			}
			f.state = next
			return nil
		}
	}
	return fmt.Errorf("illegal state transition %s -> %s", f.state, next)
}

// revert returns from generating to the state the machine left.
func (f *fsm) revert() {
	if f.state == StateGenerating {
		f.state = f.resume
	}
}
