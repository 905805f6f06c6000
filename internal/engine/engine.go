// Package engine runs one client's session: it serializes player actions
// through the prompt -> model -> parse -> reconcile -> merge -> persist
// pipeline and keeps local state in step with the shared document store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/generative-ai-go/genai"

	"github.com/dungeonworks/storyteller/internal/display"
	"github.com/dungeonworks/storyteller/internal/game"
	"github.com/dungeonworks/storyteller/internal/narrative"
	"github.com/dungeonworks/storyteller/internal/prompt"
	"github.com/dungeonworks/storyteller/internal/session"
	"github.com/dungeonworks/storyteller/internal/store"
)

// Player-visible failure text. The narrative entries double as history
// records so a failed turn still reads as part of the story.
const (
	actionFailedNarrative = "An error occurred. The AI lost its train of thought. Please try another action."
	startFailedNotice     = "Failed to start the game. Please try again."
	saveFailedNotice      = "Failed to save game state. Your progress might not be saved."
	generateFailedNotice  = "An error occurred while the AI was thinking. Please try again."
	gameNotFoundNotice    = "Game not found. Please check the code."
)

// Generator is the model boundary. The engine treats every response as
// untrusted text; see the narrative package.
type Generator interface {
	Generate(ctx context.Context, turns []*genai.Content) (string, error)
}

// EventAppender records accepted turns on the event log.
type EventAppender interface {
	Append(ctx context.Context, key session.Key, ev session.TurnEvent) error
}

// DiagnosticsReporter surfaces dropped reconciliation operations.
type DiagnosticsReporter interface {
	Report(key session.Key, diags []game.Diagnostic) error
}

// Engine owns one client's session state.
type Engine struct {
	userID string
	store  store.SessionStore
	gen    Generator

	events EventAppender
	diags  DiagnosticsReporter
	now    func() time.Time
	logger *slog.Logger

	onUpdate func(session.Document)

	mu         sync.Mutex
	fsm        *fsm
	key        session.Key
	doc        session.Document
	watchStop  func()
	lastActive time.Time
}

type Opt func(*Engine)

// WithEventLog records every accepted turn on the append-only log.
func WithEventLog(events EventAppender) Opt {
	return func(e *Engine) { e.events = events }
}

// WithDiagnostics reports dropped patch operations to an observer.
func WithDiagnostics(diags DiagnosticsReporter) Opt {
	return func(e *Engine) { e.diags = diags }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Opt {
	return func(e *Engine) { e.now = now }
}

// WithUpdateHandler is called with the refreshed document after every store
// change notification, including the engine's own writes.
func WithUpdateHandler(fn func(session.Document)) Opt {
	return func(e *Engine) { e.onUpdate = fn }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Opt {
	return func(e *Engine) { e.logger = logger }
}

func New(userID string, s store.SessionStore, gen Generator, opts ...Opt) *Engine {
	e := &Engine{
		userID: userID,
		store:  s,
		gen:    gen,
		now:    time.Now,
		logger: slog.Default(),
		fsm:    newFSM(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.lastActive = e.now()
	return e
}

// SetUpdateHandler replaces the document-update callback. A nil handler
// silences updates.
func (e *Engine) SetUpdateHandler(fn func(session.Document)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onUpdate = fn
}

// State returns the current session state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fsm.current()
}

// Document returns a copy of the current session document.
func (e *Engine) Document() session.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc.Clone()
}

// Key returns the session's store key, empty before a game starts.
func (e *Engine) Key() session.Key {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.key
}

// LastActive returns the time of the last accepted call.
func (e *Engine) LastActive() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastActive
}

// OpenMultiplayerSetup moves from the welcome screen to the create-or-join
// screen.
func (e *Engine) OpenMultiplayerSetup() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()
	return e.fsm.to(StateMultiplayerSetup)
}

// StartGame begins a solo session keyed to this player and runs the opening
// turn.
func (e *Engine) StartGame(ctx context.Context, setting game.WorldSetting, sessionID string) error {
	if !setting.Complete() {
		return NewNotice("Please fill in all fields to start your adventure!")
	}

	if err := e.begin(StateWelcome); err != nil {
		return err
	}

	key := session.SingleKey(e.userID, sessionID)
	doc := session.NewSinglePlayer(game.NewCharacterStats(), setting)

	opening := fmt.Sprintf(
		"Start a text-based roleplaying game for a %s named %s in a %s world. Introduce the setting and present the first choice or situation. Provide 2-4 options for the player's first action.",
		setting.CharacterType, setting.PlayerName, setting.WorldType,
	)

	merged, err := e.runTurn(ctx, key, doc, setting, game.UserEntry(e.userID, setting.PlayerName, opening))
	if err != nil {
		e.finish(StateWelcome)
		if _, ok := AsNotice(err); ok {
			return err
		}
		return NewNotice(startFailedNotice)
	}

	e.adopt(ctx, key, merged)
	e.finish(StateSinglePlayer)
	return nil
}

// Act processes one player action in an active session. Input arriving while
// a request is in flight is rejected with ErrBusy.
func (e *Engine) Act(ctx context.Context, input string) error {
	if input == "" {
		return NewNotice("Type an action first.")
	}

	state, err := e.beginActive()
	if err != nil {
		return err
	}

	e.mu.Lock()
	key := e.key
	doc := e.doc.Clone()
	e.mu.Unlock()

	setting := e.settingFor(doc)
	merged, err := e.runTurn(ctx, key, doc, setting, game.UserEntry(e.userID, setting.PlayerName, input))
	if err != nil {
		e.finish(state)
		return err
	}

	e.mu.Lock()
	e.doc = merged
	e.mu.Unlock()
	e.finish(state)
	return nil
}

// CreateGame starts a shared session and returns its join code.
func (e *Engine) CreateGame(ctx context.Context, setting game.WorldSetting) (string, error) {
	if !setting.Complete() {
		return "", NewNotice("Please fill in your character details to create a game!")
	}

	if err := e.begin(StateMultiplayerSetup); err != nil {
		return "", err
	}

	code := session.NewGameCode()
	key := session.GameKey(code)
	doc := session.NewMultiplayer(e.userID, game.NewCharacterStats(), setting)

	opening := fmt.Sprintf(
		"Start a text-based roleplaying game for the following players: %s (%s) in a %s world. Introduce the setting and present the first choice or situation. Provide 2-4 options for the player's first action.",
		setting.PlayerName, setting.CharacterType, setting.WorldType,
	)

	merged, err := e.runTurn(ctx, key, doc, setting, game.UserEntry(e.userID, setting.PlayerName, opening))
	if err != nil {
		e.finish(StateMultiplayerSetup)
		if _, ok := AsNotice(err); ok {
			return "", err
		}
		return "", NewNotice("Failed to create multiplayer game. Please try again.")
	}

	e.adopt(ctx, key, merged)
	e.finish(StateMultiplayer)
	return code, nil
}

// JoinGame attaches this player to an existing shared session by its code. A
// player already in the game re-attaches to their existing character; a new
// player is added to the shared map with a join announcement.
func (e *Engine) JoinGame(ctx context.Context, code string, setting game.WorldSetting) error {
	if session.NormalizeGameCode(code) == "" {
		return NewNotice("Please enter a game code to join.")
	}
	if !setting.Complete() {
		return NewNotice("Please fill in your character details before joining a game!")
	}

	if err := e.begin(StateMultiplayerSetup); err != nil {
		return err
	}

	key := session.GameKey(code)
	doc, err := e.store.Get(ctx, key)
	if err != nil {
		e.finish(StateMultiplayerSetup)
		if errors.Is(err, store.ErrNotFound) {
			return NewNotice(gameNotFoundNotice)
		}
		e.logger.Error("joining game", "key", key, "error", err)
		return NewNotice("Failed to join game. Please try again.")
	}

	if _, ok := doc.PlayerCharacters[e.userID]; !ok {
		players := doc.PlayerCharacters.Clone()
		players[e.userID] = game.PlayerCharacter{
			Stats:   game.NewCharacterStats(),
			Setting: setting,
		}

		announcement := fmt.Sprintf("%s (%s) has joined the game!", setting.PlayerName, setting.CharacterType)
		doc = session.Merge(doc, session.Turn{
			Entries: []game.ChatEntry{game.SystemEntry(announcement)},
			Options: doc.CurrentOptions,
			Players: players,
		}, e.now())

		if err := e.store.Put(ctx, key, doc); err != nil {
			e.finish(StateMultiplayerSetup)
			e.logger.Error("saving joined game", "key", key, "error", err)
			return NewNotice(saveFailedNotice)
		}
	}

	e.adopt(ctx, key, doc)
	e.finish(StateMultiplayer)
	return nil
}

// GenerateWorldElement runs a stateless world-builder request. Session state
// is untouched.
func (e *Engine) GenerateWorldElement(ctx context.Context, request string) (string, error) {
	return e.singleShot(ctx, prompt.ModeWorldBuilder, request,
		"Please describe what kind of world element you want to generate.")
}

// GenerateCreativeStory runs a stateless creative-writer request.
func (e *Engine) GenerateCreativeStory(ctx context.Context, request string) (string, error) {
	return e.singleShot(ctx, prompt.ModeCreativeWriter, request,
		"Please provide some text to continue or start the story.")
}

// LeaveGame ends participation in the current session and returns to the
// welcome screen. The shared document stays behind for the other players.
func (e *Engine) LeaveGame() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fsm.generating() {
		return ErrBusy
	}
	if err := e.fsm.to(StateWelcome); err != nil {
		return err
	}

	if e.watchStop != nil {
		e.watchStop()
		e.watchStop = nil
	}
	e.key = ""
	e.doc = session.Document{}
	e.touch()
	return nil
}

// Close releases the engine's watch.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.watchStop != nil {
		e.watchStop()
		e.watchStop = nil
	}
}

// runTurn executes the full response-application pipeline for one action and
// returns the merged document after persisting it. The caller owns state
// transitions.
func (e *Engine) runTurn(ctx context.Context, key session.Key, doc session.Document, setting game.WorldSetting, userEntry game.ChatEntry) (session.Document, error) {
	history := append(append([]game.ChatEntry{}, doc.ChatHistory...), userEntry)

	req := prompt.Request{
		Mode:    prompt.ModeGame,
		UserID:  e.userID,
		Setting: setting,
		History: history,
		Players: doc.PlayerCharacters,
	}
	if doc.CharacterStats != nil {
		req.Stats = *doc.CharacterStats
	}

	turns, err := prompt.Build(req)
	if err != nil {
		return session.Document{}, fmt.Errorf("building prompt: %w", err)
	}

	raw, err := e.gen.Generate(ctx, turns)
	if err != nil {
		e.logger.Error("model call failed", "key", key, "error", err)
		// Record the failed turn so the player sees their action was
		// received, then surface a notice. Prior stats stay intact.
		failed := session.Merge(doc, session.Turn{
			Entries: []game.ChatEntry{userEntry, game.ModelEntry(actionFailedNarrative)},
		}, e.now())
		if putErr := e.store.Put(ctx, key, failed); putErr != nil {
			e.logger.Error("saving failed turn", "key", key, "error", putErr)
		}
		return session.Document{}, NewNotice(generateFailedNotice)
	}

	reply := narrative.Parse(raw)
	e.logger.Debug("model reply", "key", key, "narrative", display.Preview(reply.Narrative))

	turn := session.Turn{
		Entries: []game.ChatEntry{userEntry, game.ModelEntry(reply.Narrative)},
		Options: reply.Options,
	}

	var diags []game.Diagnostic
	if doc.Multiplayer() {
		turn.Players, diags = game.ApplyUpdate(doc.PlayerCharacters, reply.StatsUpdate)
	} else if doc.CharacterStats != nil {
		stats := *doc.CharacterStats
		for id, patch := range reply.StatsUpdate {
			if id != e.userID {
				diags = append(diags, game.Diagnostic{Kind: game.DiagUnknownPlayer, PlayerID: id})
				continue
			}
			var d []game.Diagnostic
			stats, d = game.ApplyPatch(id, stats, patch)
			diags = append(diags, d...)
		}
		turn.Stats = &stats
	}

	e.reportDiagnostics(key, diags)

	merged := session.Merge(doc, turn, e.now())
	if err := e.store.Put(ctx, key, merged); err != nil {
		e.logger.Error("saving game state", "key", key, "error", err)
		return session.Document{}, NewNotice(saveFailedNotice)
	}

	if e.events != nil {
		ev := session.NewTurnEvent(e.userID, setting.PlayerName, userEntry.Text, reply.Narrative, reply.StatsUpdate, reply.Options, merged.LastUpdated)
		if err := e.events.Append(ctx, key, ev); err != nil {
			e.logger.Warn("appending turn event", "key", key, "error", err)
		}
	}

	return merged, nil
}

func (e *Engine) singleShot(ctx context.Context, mode prompt.Mode, request, emptyNotice string) (string, error) {
	if request == "" {
		return "", NewNotice(emptyNotice)
	}

	e.mu.Lock()
	if e.fsm.generating() {
		e.mu.Unlock()
		return "", ErrBusy
	}
	state := e.fsm.current()
	if err := e.fsm.to(StateGenerating); err != nil {
		e.mu.Unlock()
		return "", NewNotice(err.Error())
	}
	e.touch()
	e.mu.Unlock()

	defer e.finish(state)

	turns, err := prompt.Build(prompt.Request{Mode: mode, FreeText: request})
	if err != nil {
		return "", fmt.Errorf("building prompt: %w", err)
	}

	raw, err := e.gen.Generate(ctx, turns)
	if err != nil {
		e.logger.Error("model call failed", "mode", mode, "error", err)
		return "", NewNotice(generateFailedNotice)
	}

	return narrative.Parse(raw).Narrative, nil
}

// begin moves from the expected interactive state into generating.
func (e *Engine) begin(from State) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fsm.generating() {
		return ErrBusy
	}
	if e.fsm.current() != from {
		return NewNotice(fmt.Sprintf("That isn't available right now (state %s).", e.fsm.current()))
	}
	if err := e.fsm.to(StateGenerating); err != nil {
		return NewNotice(err.Error())
	}
	e.touch()
	return nil
}

// beginActive enters generating from whichever active-game state is current,
// returning it so the caller can restore it.
func (e *Engine) beginActive() (State, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.fsm.generating() {
		return "", ErrBusy
	}
	state := e.fsm.current()
	if state != StateSinglePlayer && state != StateMultiplayer {
		return "", NewNotice("No game is in progress.")
	}
	if err := e.fsm.to(StateGenerating); err != nil {
		return "", NewNotice(err.Error())
	}
	e.touch()
	return state, nil
}

// finish leaves the generating state for next.
func (e *Engine) finish(next State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.fsm.generating() {
		return
	}
	if next == e.fsm.resume {
		e.fsm.revert()
		return
	}
	if err := e.fsm.to(next); err != nil {
		e.fsm.revert()
	}
}

// adopt installs the session locally and starts its watch.
func (e *Engine) adopt(ctx context.Context, key session.Key, doc session.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.watchStop != nil {
		e.watchStop()
		e.watchStop = nil
	}

	e.key = key
	e.doc = doc

	updates, stop, err := e.store.Watch(ctx, key)
	if err != nil {
		e.logger.Error("watching session", "key", key, "error", err)
		return
	}
	e.watchStop = stop

	go func() {
		for refreshed := range updates {
			e.mu.Lock()
			if e.key != key {
				e.mu.Unlock()
				return
			}
			e.doc = refreshed
			handler := e.onUpdate
			e.mu.Unlock()

			if handler != nil {
				handler(refreshed.Clone())
			}
		}
	}()
}

func (e *Engine) settingFor(doc session.Document) game.WorldSetting {
	if doc.Multiplayer() {
		return doc.PlayerCharacters[e.userID].Setting
	}
	if doc.WorldSetting != nil {
		return *doc.WorldSetting
	}
	return game.WorldSetting{}
}

func (e *Engine) reportDiagnostics(key session.Key, diags []game.Diagnostic) {
	for _, d := range diags {
		e.logger.Info("reconciliation dropped an operation", "key", key, "diagnostic", d.String())
	}
	if e.diags != nil && len(diags) > 0 {
		if err := e.diags.Report(key, diags); err != nil {
			e.logger.Warn("reporting diagnostics", "key", key, "error", err)
		}
	}
}

// touch must be called with the lock held.
func (e *Engine) touch() {
	e.lastActive = e.now()
}
