package ws_game

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/avbelov/tunehunt/core/internal/catalog"
	"github.com/avbelov/tunehunt/core/internal/game"
	"github.com/avbelov/tunehunt/core/internal/model"
)

// Leaderboard receives final scores when a room's playlist is exhausted.
type Leaderboard interface {
	Record(ctx context.Context, scores map[string]int) error
}

// Gateway maps inbound messages to room operations and fans room
// snapshots back out to every member connection.
//
// The conn-to-room binding lives here, in an explicit map consulted on
// every inbound operation; a connection never carries its room as
// mutable state. Room mutations happen inside game.Room under its own
// lock; the gateway broadcasts the already-computed snapshot value after
// the operation returns, so fan-out never holds a room lock.
type Gateway struct {
	registry *game.Registry
	catalog  catalog.Provider
	board    Leaderboard // nil when no leaderboard backend is configured
	logger   *slog.Logger

	mu      sync.RWMutex
	bound   map[model.ConnID]model.RoomID
	members map[model.RoomID]map[*session]struct{}
}

func NewGateway(registry *game.Registry, provider catalog.Provider, board Leaderboard, logger *slog.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		catalog:  provider,
		board:    board,
		logger:   logger,
		bound:    make(map[model.ConnID]model.RoomID),
		members:  make(map[model.RoomID]map[*session]struct{}),
	}
}

// HandleConn owns one WebSocket for its whole lifetime: mints the
// connection handle, starts the write pump and runs the read loop until
// the peer goes away, then tears the session down.
func (g *Gateway) HandleConn(conn *websocket.Conn) {
	sess := newSession(model.ConnID(uuid.New().String()), conn)
	g.logger.Info("client connected", "conn_id", sess.id)

	go sess.writePump()
	defer g.disconnect(sess)

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			g.sendTo(sess, errorEvent(CodeBadRequest, "malformed message"))
			continue
		}
		g.dispatch(sess, env)
	}
}

// dispatch validates the envelope and routes it to the matching room
// operation. Validation always precedes mutation.
func (g *Gateway) dispatch(sess *session, env Envelope) {
	switch env.Type {
	case MsgCreateRoom:
		var p CreateRoomPayload
		if !g.decode(sess, env.Payload, &p) {
			return
		}
		g.handleCreateRoom(sess, p)

	case MsgJoinRoom:
		var p JoinRoomPayload
		if !g.decode(sess, env.Payload, &p) {
			return
		}
		g.handleJoinRoom(sess, p)

	case MsgGuess:
		var p GuessPayload
		if !g.decode(sess, env.Payload, &p) {
			return
		}
		g.handleGuess(sess, p)

	case MsgVoteSkip:
		g.handleVoteSkip(sess)

	case MsgStartGame:
		g.handleStartGame(sess)

	default:
		g.sendTo(sess, errorEvent(CodeBadRequest, "unknown message type"))
	}
}

func (g *Gateway) handleCreateRoom(sess *session, p CreateRoomPayload) {
	name := strings.TrimSpace(p.PlayerName)
	if name == "" {
		g.sendTo(sess, errorEvent(CodeBadRequest, "player_name is required"))
		return
	}
	if g.boundRoom(sess) != model.EmptyRoomID {
		g.sendTo(sess, errorEvent(CodeBadRequest, "already in a room"))
		return
	}

	playlist, err := g.catalog.Playlist(context.Background())
	if err != nil {
		g.logger.Error("failed to load playlist", "error", err)
		g.sendTo(sess, errorEvent(CodeInternal, "catalog unavailable"))
		return
	}

	room, err := g.registry.Create(sess.id, name, playlist)
	if err != nil {
		g.logger.Error("failed to create room", "error", err)
		g.sendTo(sess, errorEvent(CodeInternal, "could not create room"))
		return
	}

	sess.name = name
	g.bind(sess, room.ID())
	g.logger.Info("room created", "room", room.ID(), "host", name)

	g.sendTo(sess, Event{
		Type:    EventRoomCreated,
		Payload: map[string]any{"room_code": room.ID()},
	})
	g.broadcastState(room)
}

func (g *Gateway) handleJoinRoom(sess *session, p JoinRoomPayload) {
	name := strings.TrimSpace(p.PlayerName)
	if name == "" {
		g.sendTo(sess, errorEvent(CodeBadRequest, "player_name is required"))
		return
	}
	if g.boundRoom(sess) != model.EmptyRoomID {
		g.sendTo(sess, errorEvent(CodeBadRequest, "already in a room"))
		return
	}

	code := model.RoomID(strings.ToLower(strings.TrimSpace(p.RoomCode)))
	room, ok := g.registry.Get(code)
	if !ok {
		g.sendTo(sess, errorEvent(CodeRoomNotFound, "no such room"))
		return
	}

	if _, err := room.AddPlayer(sess.id, name); err != nil {
		g.sendTo(sess, g.mapError(err))
		return
	}

	sess.name = name
	g.bind(sess, room.ID())
	g.logger.Info("player joined", "room", room.ID(), "player", name)

	g.sendTo(sess, Event{
		Type:    EventRoomJoined,
		Payload: map[string]any{"room_code": room.ID()},
	})
	g.broadcastState(room)
}

func (g *Gateway) handleGuess(sess *session, p GuessPayload) {
	room, ok := g.resolveRoom(sess)
	if !ok {
		return
	}

	result, err := room.SubmitGuess(sess.id, p.Guess)
	if err != nil {
		g.sendTo(sess, g.mapError(err))
		return
	}

	g.sendTo(sess, Event{
		Type: EventGuessResult,
		Payload: map[string]any{
			"guess":   p.Guess,
			"correct": result.Correct,
			"score":   result.Score,
		},
	})
	if !result.Correct {
		return
	}

	// The solved track comes out of the guess itself; it is safe to
	// reveal now, and never confusable with whatever is current by the
	// time this broadcast goes out.
	g.broadcast(room.ID(), Event{
		Type: EventCorrectGuess,
		Payload: map[string]any{
			"player": sess.name,
			"guess":  p.Guess,
			"track": map[string]any{
				"artist": result.Track.Artist,
				"title":  result.Track.DisplayTitle,
			},
		},
	})
	g.broadcastState(room)
}

func (g *Gateway) handleVoteSkip(sess *session) {
	room, ok := g.resolveRoom(sess)
	if !ok {
		return
	}

	result, err := room.VoteSkip(sess.id)
	if err != nil {
		g.sendTo(sess, g.mapError(err))
		return
	}

	if result.Skipped {
		g.logger.Info("track skipped", "room", room.ID(), "track_index", result.TrackIndex)
		g.broadcast(room.ID(), Event{
			Type:    EventTrackSkipped,
			Payload: map[string]any{"track_index": result.TrackIndex},
		})
		g.finishIfDone(room)
	}
	g.broadcastState(room)
}

func (g *Gateway) handleStartGame(sess *session) {
	room, ok := g.resolveRoom(sess)
	if !ok {
		return
	}

	started, err := room.StartGame(sess.id)
	if err != nil {
		g.sendTo(sess, g.mapError(err))
		return
	}
	if !started {
		// Repeat start_game is a no-op; nothing changed, nobody is told.
		return
	}

	g.logger.Info("game started", "room", room.ID())

	payload := map[string]any{}
	if track, ok := room.CurrentTrack(); ok {
		payload["track"] = model.TrackView{Artist: track.Artist}
	}
	g.broadcast(room.ID(), Event{Type: EventGameStarted, Payload: payload})
	g.broadcastState(room)
}

// disconnect removes the session from its room (if any), reclaims the
// room when it became empty and closes the outbound channel.
func (g *Gateway) disconnect(sess *session) {
	roomID := g.unbind(sess)
	close(sess.send)

	if roomID == model.EmptyRoomID {
		g.logger.Info("client disconnected", "conn_id", sess.id)
		return
	}

	room, ok := g.registry.Get(roomID)
	if ok {
		room.RemovePlayer(sess.id)
		if g.registry.DeleteIfEmpty(roomID) {
			g.logger.Info("room reclaimed", "room", roomID)
			return
		}
		g.broadcast(roomID, Event{
			Type:    EventPlayerLeft,
			Payload: map[string]any{"player": sess.name},
		})
		g.broadcastState(room)
	}
	g.logger.Info("client disconnected", "conn_id", sess.id, "room", roomID)
}

// finishIfDone publishes final scores once the playlist is exhausted.
func (g *Gateway) finishIfDone(room *game.Room) {
	if room.Phase() != model.PhaseFinished {
		return
	}

	scores := room.FinalScores()
	g.broadcast(room.ID(), Event{
		Type:    EventGameFinished,
		Payload: map[string]any{"scores": scores},
	})

	if g.board == nil {
		return
	}
	if err := g.board.Record(context.Background(), scores); err != nil {
		g.logger.Error("failed to record leaderboard scores", "error", err, "room", room.ID())
	}
}

// resolveRoom looks up the caller's binding; an unbound connection is
// reported as room_not_found.
func (g *Gateway) resolveRoom(sess *session) (*game.Room, bool) {
	roomID := g.boundRoom(sess)
	if roomID == model.EmptyRoomID {
		g.sendTo(sess, errorEvent(CodeRoomNotFound, "not bound to a room"))
		return nil, false
	}
	room, ok := g.registry.Get(roomID)
	if !ok {
		g.sendTo(sess, errorEvent(CodeRoomNotFound, "no such room"))
		return nil, false
	}
	return room, true
}

func (g *Gateway) bind(sess *session, roomID model.RoomID) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.bound[sess.id] = roomID
	if _, ok := g.members[roomID]; !ok {
		g.members[roomID] = make(map[*session]struct{})
	}
	g.members[roomID][sess] = struct{}{}
}

func (g *Gateway) unbind(sess *session) model.RoomID {
	g.mu.Lock()
	defer g.mu.Unlock()

	roomID, ok := g.bound[sess.id]
	if !ok {
		return model.EmptyRoomID
	}
	delete(g.bound, sess.id)
	if members, ok := g.members[roomID]; ok {
		delete(members, sess)
		if len(members) == 0 {
			delete(g.members, roomID)
		}
	}
	return roomID
}

func (g *Gateway) boundRoom(sess *session) model.RoomID {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.bound[sess.id]
}

func (g *Gateway) broadcastState(room *game.Room) {
	g.broadcast(room.ID(), Event{
		Type:    EventRoomState,
		Payload: room.Snapshot(),
	})
}

// broadcast fans an event out to every session bound to the room. A full
// send buffer drops the event for that client rather than stalling the
// rest of the room; the next room_state resynchronizes it.
func (g *Gateway) broadcast(roomID model.RoomID, event Event) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for sess := range g.members[roomID] {
		select {
		case sess.send <- event:
		default:
			g.logger.Warn("send buffer full, dropping event",
				"conn_id", sess.id, "room", roomID, "event", event.Type)
		}
	}
}

func (g *Gateway) sendTo(sess *session, event Event) {
	select {
	case sess.send <- event:
	default:
		g.logger.Warn("send buffer full, dropping event",
			"conn_id", sess.id, "event", event.Type)
	}
}

func (g *Gateway) decode(sess *session, raw json.RawMessage, out any) bool {
	if len(raw) == 0 {
		g.sendTo(sess, errorEvent(CodeBadRequest, "missing payload"))
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		g.sendTo(sess, errorEvent(CodeBadRequest, "malformed payload"))
		return false
	}
	return true
}

func (g *Gateway) mapError(err error) Event {
	switch {
	case errors.Is(err, game.ErrRoomNotFound):
		return errorEvent(CodeRoomNotFound, "no such room")
	case errors.Is(err, game.ErrRoomClosed):
		// A closed room is indistinguishable from a missing one.
		return errorEvent(CodeRoomNotFound, "no such room")
	case errors.Is(err, game.ErrNotAMember):
		return errorEvent(CodeNotAMember, "not a room member")
	case errors.Is(err, game.ErrAlreadySolved):
		return errorEvent(CodeAlreadySolved, "track already solved")
	case errors.Is(err, game.ErrNotHost):
		return errorEvent(CodeNotHost, "only the host can do that")
	case errors.Is(err, game.ErrAlreadyMember):
		return errorEvent(CodeBadRequest, "already a room member")
	default:
		return errorEvent(CodeInternal, "internal error")
	}
}
