package ws_game

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avbelov/tunehunt/core/internal/catalog"
	"github.com/avbelov/tunehunt/core/internal/game"
	"github.com/avbelov/tunehunt/core/internal/model"
)

type fakeBoard struct {
	recorded []map[string]int
}

func (f *fakeBoard) Record(_ context.Context, scores map[string]int) error {
	f.recorded = append(f.recorded, scores)
	return nil
}

func newTestGateway(board Leaderboard) *Gateway {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewGateway(game.NewRegistry(), catalog.NewStatic(), board, logger)
}

func newTestSession(id string) *session {
	return newSession(model.ConnID(id), nil)
}

func rawPayload(t *testing.T, v any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

// drain empties the session's send buffer without blocking.
func drain(s *session) []Event {
	var out []Event
	for {
		select {
		case ev := <-s.send:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func findEvent(events []Event, typ string) (Event, bool) {
	for _, ev := range events {
		if ev.Type == typ {
			return ev, true
		}
	}
	return Event{}, false
}

func createRoom(t *testing.T, g *Gateway, sess *session, name string) model.RoomID {
	t.Helper()

	g.dispatch(sess, Envelope{Type: MsgCreateRoom, Payload: rawPayload(t, CreateRoomPayload{PlayerName: name})})
	events := drain(sess)

	created, ok := findEvent(events, EventRoomCreated)
	require.True(t, ok, "expected room_created")
	code := created.Payload.(map[string]any)["room_code"].(model.RoomID)

	_, ok = findEvent(events, EventRoomState)
	require.True(t, ok, "expected room_state after create")
	return code
}

func joinRoom(t *testing.T, g *Gateway, sess *session, code model.RoomID, name string) {
	t.Helper()

	g.dispatch(sess, Envelope{Type: MsgJoinRoom, Payload: rawPayload(t, JoinRoomPayload{
		RoomCode:   string(code),
		PlayerName: name,
	})})
	events := drain(sess)

	_, ok := findEvent(events, EventRoomJoined)
	require.True(t, ok, "expected room_joined")
}

func TestGatewayFullGameScenario(t *testing.T) {
	t.Parallel()

	g := newTestGateway(nil)
	alice := newTestSession("alice")
	bob := newTestSession("bob")

	code := createRoom(t, g, alice, "Alice")
	joinRoom(t, g, bob, code, "Bob")
	drain(alice)

	// Host starts the game; everyone hears about it.
	g.dispatch(alice, Envelope{Type: MsgStartGame})
	aliceEvents := drain(alice)
	bobEvents := drain(bob)

	started, ok := findEvent(aliceEvents, EventGameStarted)
	require.True(t, ok)
	track := started.Payload.(map[string]any)["track"].(model.TrackView)
	assert.Equal(t, "The Beatles", track.Artist)
	_, ok = findEvent(bobEvents, EventGameStarted)
	require.True(t, ok)

	// Alice solves track 0.
	g.dispatch(alice, Envelope{Type: MsgGuess, Payload: rawPayload(t, GuessPayload{Guess: "  Hey Jude "})})
	aliceEvents = drain(alice)
	bobEvents = drain(bob)

	guessResult, ok := findEvent(aliceEvents, EventGuessResult)
	require.True(t, ok)
	payload := guessResult.Payload.(map[string]any)
	assert.Equal(t, true, payload["correct"])
	assert.Equal(t, game.GuessPoints, payload["score"])

	announced, ok := findEvent(bobEvents, EventCorrectGuess)
	require.True(t, ok, "correct guess must be announced to the room")
	assert.Equal(t, "Alice", announced.Payload.(map[string]any)["player"])
	solvedTrack := announced.Payload.(map[string]any)["track"].(map[string]any)
	assert.Equal(t, "Hey Jude", solvedTrack["title"])

	_, ok = findEvent(bobEvents, EventGuessResult)
	assert.False(t, ok, "guess_result is caller-only")

	// Alice already solved, so Bob is the only unsolved player and his
	// single skip vote advances the track.
	g.dispatch(bob, Envelope{Type: MsgVoteSkip})
	bobEvents = drain(bob)

	skipped, ok := findEvent(bobEvents, EventTrackSkipped)
	require.True(t, ok)
	assert.Equal(t, 1, skipped.Payload.(map[string]any)["track_index"])

	state, ok := findEvent(bobEvents, EventRoomState)
	require.True(t, ok)
	roomState := state.Payload.(model.RoomState)
	assert.Equal(t, 1, roomState.TrackIndex)
	assert.Equal(t, model.PhasePlaying, roomState.Phase)
	for _, p := range roomState.Players {
		assert.False(t, p.Solved)
	}
}

func TestGatewayUnboundOperationIsRoomNotFound(t *testing.T) {
	t.Parallel()

	g := newTestGateway(nil)
	sess := newTestSession("loner")

	g.dispatch(sess, Envelope{Type: MsgGuess, Payload: rawPayload(t, GuessPayload{Guess: "hey jude"})})

	events := drain(sess)
	ev, ok := findEvent(events, EventError)
	require.True(t, ok)
	assert.Equal(t, CodeRoomNotFound, ev.Payload.(ErrorPayload).Code)
}

func TestGatewayJoinUnknownRoom(t *testing.T) {
	t.Parallel()

	g := newTestGateway(nil)
	sess := newTestSession("bob")

	g.dispatch(sess, Envelope{Type: MsgJoinRoom, Payload: rawPayload(t, JoinRoomPayload{
		RoomCode:   "zzzzzz",
		PlayerName: "Bob",
	})})

	events := drain(sess)
	ev, ok := findEvent(events, EventError)
	require.True(t, ok)
	assert.Equal(t, CodeRoomNotFound, ev.Payload.(ErrorPayload).Code)
}

func TestGatewayNonHostCannotStart(t *testing.T) {
	t.Parallel()

	g := newTestGateway(nil)
	alice := newTestSession("alice")
	bob := newTestSession("bob")

	code := createRoom(t, g, alice, "Alice")
	joinRoom(t, g, bob, code, "Bob")

	g.dispatch(bob, Envelope{Type: MsgStartGame})

	events := drain(bob)
	ev, ok := findEvent(events, EventError)
	require.True(t, ok)
	assert.Equal(t, CodeNotHost, ev.Payload.(ErrorPayload).Code)
}

func TestGatewayRepeatStartGameIsSilent(t *testing.T) {
	t.Parallel()

	g := newTestGateway(nil)
	alice := newTestSession("alice")
	bob := newTestSession("bob")

	code := createRoom(t, g, alice, "Alice")
	joinRoom(t, g, bob, code, "Bob")
	drain(alice)

	g.dispatch(alice, Envelope{Type: MsgStartGame})
	events := drain(alice)
	_, ok := findEvent(events, EventGameStarted)
	require.True(t, ok)
	drain(bob)

	// The repeat is an accepted no-op: nothing changed, so nobody is
	// notified again.
	g.dispatch(alice, Envelope{Type: MsgStartGame})
	assert.Empty(t, drain(alice))
	assert.Empty(t, drain(bob))
}

func TestGatewayRepeatGuessAfterSolve(t *testing.T) {
	t.Parallel()

	g := newTestGateway(nil)
	alice := newTestSession("alice")

	createRoom(t, g, alice, "Alice")
	g.dispatch(alice, Envelope{Type: MsgStartGame})
	g.dispatch(alice, Envelope{Type: MsgGuess, Payload: rawPayload(t, GuessPayload{Guess: "hey jude"})})
	drain(alice)

	g.dispatch(alice, Envelope{Type: MsgGuess, Payload: rawPayload(t, GuessPayload{Guess: "hey jude"})})

	events := drain(alice)
	ev, ok := findEvent(events, EventError)
	require.True(t, ok)
	assert.Equal(t, CodeAlreadySolved, ev.Payload.(ErrorPayload).Code)
}

func TestGatewayMalformedPayload(t *testing.T) {
	t.Parallel()

	g := newTestGateway(nil)
	sess := newTestSession("alice")

	g.dispatch(sess, Envelope{Type: MsgCreateRoom})

	events := drain(sess)
	ev, ok := findEvent(events, EventError)
	require.True(t, ok)
	assert.Equal(t, CodeBadRequest, ev.Payload.(ErrorPayload).Code)
}

func TestGatewayUnknownMessageType(t *testing.T) {
	t.Parallel()

	g := newTestGateway(nil)
	sess := newTestSession("alice")

	g.dispatch(sess, Envelope{Type: "teleport"})

	events := drain(sess)
	ev, ok := findEvent(events, EventError)
	require.True(t, ok)
	assert.Equal(t, CodeBadRequest, ev.Payload.(ErrorPayload).Code)
}

func TestGatewayDisconnectReclaimsRoom(t *testing.T) {
	t.Parallel()

	g := newTestGateway(nil)
	alice := newTestSession("alice")
	bob := newTestSession("bob")

	code := createRoom(t, g, alice, "Alice")
	joinRoom(t, g, bob, code, "Bob")
	drain(alice)

	g.disconnect(bob)
	aliceEvents := drain(alice)
	left, ok := findEvent(aliceEvents, EventPlayerLeft)
	require.True(t, ok)
	assert.Equal(t, "Bob", left.Payload.(map[string]any)["player"])

	room, ok := g.registry.Get(code)
	require.True(t, ok)
	require.Len(t, room.Snapshot().Players, 1)

	g.disconnect(alice)
	_, ok = g.registry.Get(code)
	assert.False(t, ok, "empty room must be reclaimed")
}

func TestGatewayFinishPublishesLeaderboard(t *testing.T) {
	t.Parallel()

	board := &fakeBoard{}
	g := newTestGateway(board)
	alice := newTestSession("alice")
	bob := newTestSession("bob")

	code := createRoom(t, g, alice, "Alice")
	joinRoom(t, g, bob, code, "Bob")
	g.dispatch(alice, Envelope{Type: MsgStartGame})

	// Alice solves the first track, Bob skips it; then both vote
	// through the remaining tracks until the playlist is exhausted.
	g.dispatch(alice, Envelope{Type: MsgGuess, Payload: rawPayload(t, GuessPayload{Guess: "hey jude"})})
	g.dispatch(bob, Envelope{Type: MsgVoteSkip})
	aliceEvents := drain(alice)
	drain(bob)

	room, ok := g.registry.Get(code)
	require.True(t, ok)
	for room.Phase() != model.PhaseFinished {
		g.dispatch(alice, Envelope{Type: MsgVoteSkip})
		g.dispatch(bob, Envelope{Type: MsgVoteSkip})
		aliceEvents = append(aliceEvents, drain(alice)...)
		drain(bob)
	}
	finished, ok := findEvent(aliceEvents, EventGameFinished)
	require.True(t, ok)
	scores := finished.Payload.(map[string]any)["scores"].(map[string]int)
	assert.Equal(t, game.GuessPoints, scores["Alice"])
	assert.Zero(t, scores["Bob"])

	require.Len(t, board.recorded, 1)
	assert.Equal(t, game.GuessPoints, board.recorded[0]["Alice"])
}
