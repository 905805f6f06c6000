package engine

import (
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestFSMTransitions(t *testing.T) {
	tests := map[string]struct {
		path      []State
		expectErr bool
	}{
		"welcome to setup": {
			path: []State{StateMultiplayerSetup},
		},
		"setup back to welcome": {
			path: []State{StateMultiplayerSetup, StateWelcome},
		},
		"start a solo game": {
			path: []State{StateGenerating, StateSinglePlayer},
		},
		"create a shared game": {
			path: []State{StateMultiplayerSetup, StateGenerating, StateMultiplayer},
		},
		"leave a solo game": {
			path: []State{StateGenerating, StateSinglePlayer, StateWelcome},
		},
		"welcome straight to active": {
			path:      []State{StateSinglePlayer},
			expectErr: true,
		},
		"welcome straight to multiplayer": {
			path:      []State{StateMultiplayer},
			expectErr: true,
		},
		"generating while generating": {
			path:      []State{StateGenerating, StateGenerating},
			expectErr: true,
		},
		"solo to multiplayer directly": {
			path:      []State{StateGenerating, StateSinglePlayer, StateMultiplayer},
			expectErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFSM()
			var err error
			for _, next := range tt.path {
				if err = f.to(next); err != nil {
					break
				}
			}
			testutil.AssertEqual(t, "error", err != nil, tt.expectErr)
		})
	}
}

func TestFSMRevert(t *testing.T) {
	t.Run("returns to the state generating left", func(t *testing.T) {
		f := newFSM()
		if err := f.to(StateMultiplayerSetup); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := f.to(StateGenerating); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		testutil.AssertEqual(t, "generating", f.generating(), true)

		f.revert()
		testutil.AssertEqual(t, "state", f.current(), StateMultiplayerSetup)
	})

	t.Run("is a no-op outside generating", func(t *testing.T) {
		f := newFSM()
		f.revert()
		testutil.AssertEqual(t, "state", f.current(), StateWelcome)
	})
}
