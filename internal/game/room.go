package game

import (
	"sort"
	"sync"
	"time"

	"github.com/avbelov/tunehunt/core/internal/model"
)

// GuessPoints is awarded once per track per player for a correct guess.
const GuessPoints = 100

// Room owns the full state of one game: membership, track pointer,
// per-player solve status, skip votes and lifecycle phase.
//
// Every mutating operation takes the write lock, so mutations on the same
// room serialize while different rooms run fully in parallel. No method
// performs I/O under the lock; the delivery layer broadcasts a Snapshot
// value after the operation returns.
type Room struct {
	mu sync.RWMutex

	id        model.RoomID
	players   map[model.ConnID]*model.Player
	playlist  []model.Track
	current   int
	skipVotes map[model.ConnID]struct{}
	phase     model.Phase
	closed    bool
	createdAt time.Time
}

// GuessResult reports the outcome of a single guess. Track is the
// solved track, captured under the same critical section as the solve:
// by the time the caller announces it, a concurrent skip vote may
// already have advanced the room, so re-reading the current track
// could leak a still-hidden title.
type GuessResult struct {
	Correct bool
	Score   int
	Track   model.Track
}

// SkipResult reports the skip-vote tally after one vote.
type SkipResult struct {
	Skipped    bool
	Votes      int
	TrackIndex int
}

// NewRoom creates a room in the waiting phase with the host as its first
// player. The playlist is the room's private snapshot of the catalog.
func NewRoom(id model.RoomID, playlist []model.Track, hostConn model.ConnID, hostName string) *Room {
	r := &Room{
		id:        id,
		players:   make(map[model.ConnID]*model.Player),
		playlist:  playlist,
		skipVotes: make(map[model.ConnID]struct{}),
		phase:     model.PhaseWaiting,
		createdAt: time.Now(),
	}
	r.players[hostConn] = &model.Player{
		ConnID:   hostConn,
		Name:     hostName,
		IsHost:   true,
		JoinedAt: time.Now(),
	}
	return r
}

func (r *Room) ID() model.RoomID {
	return r.id
}

// AddPlayer inserts a non-host player. Joins are accepted in any phase;
// a late joiner starts with zero points and an unsolved current track.
//
// A room that has ever reached zero players is closed for good: the
// registry reclaims it concurrently, so admitting a joiner through a
// stale handle would strand them in an unresolvable room.
func (r *Room) AddPlayer(conn model.ConnID, name string) (model.PlayerView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return model.PlayerView{}, ErrRoomClosed
	}
	if _, exists := r.players[conn]; exists {
		return model.PlayerView{}, ErrAlreadyMember
	}

	p := &model.Player{
		ConnID:   conn,
		Name:     name,
		JoinedAt: time.Now(),
	}
	r.players[conn] = p

	return viewOf(p), nil
}

// RemovePlayer deletes the player and discards any skip vote they held.
// No-op when the connection is not a member. Host status is not
// reassigned: a room whose host leaves stays hostless.
//
// A departing unsolved voter can push the tally to consensus; that is
// resolved by the next VoteSkip, not here, so removal alone never
// advances the track.
func (r *Room) RemovePlayer(conn model.ConnID) (removed, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.players[conn]; !exists {
		return false, len(r.players) == 0
	}
	delete(r.players, conn)
	delete(r.skipVotes, conn)
	if len(r.players) == 0 {
		// Terminal: the registry is about to reclaim this room, so no
		// join racing the last leave may slip in through a stale handle.
		r.closed = true
	}
	return true, len(r.players) == 0
}

// CurrentTrack returns the active track, or false past the playlist end.
func (r *Room) CurrentTrack() (model.Track, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentTrackLocked()
}

func (r *Room) currentTrackLocked() (model.Track, bool) {
	if r.current >= len(r.playlist) {
		return model.Track{}, false
	}
	return r.playlist[r.current], true
}

// SubmitGuess normalizes the raw guess and compares it against the active
// track's answer. A correct guess marks the player solved and awards
// GuessPoints exactly once per track; a repeat attempt after solving is
// rejected with ErrAlreadySolved and changes nothing. Guessing is not
// phase-restricted: with no active track every guess is simply wrong.
func (r *Room) SubmitGuess(conn model.ConnID, raw string) (GuessResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[conn]
	if !exists {
		return GuessResult{}, ErrNotAMember
	}
	if p.Solved {
		return GuessResult{Score: p.Score}, ErrAlreadySolved
	}

	track, ok := r.currentTrackLocked()
	if !ok || model.NormalizeAnswer(raw) != track.NormalizedAnswer {
		return GuessResult{Correct: false, Score: p.Score}, nil
	}

	p.Solved = true
	p.Score += GuessPoints
	delete(r.skipVotes, conn)
	return GuessResult{Correct: true, Score: p.Score, Track: track}, nil
}

// VoteSkip records the caller's skip vote and advances the track once
// every unsolved player has voted. A solved player's vote is silently
// ignored: the tally is returned unchanged and no error is raised. An
// empty room, or one where everyone solved, never auto-skips here.
func (r *Room) VoteSkip(conn model.ConnID) (SkipResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[conn]
	if !exists {
		return SkipResult{}, ErrNotAMember
	}
	if r.phase == model.PhaseFinished {
		// Terminal: the track pointer never moves again.
		return SkipResult{TrackIndex: r.current}, nil
	}
	if !p.Solved {
		r.skipVotes[conn] = struct{}{}
	}

	unsolved := 0
	for _, pl := range r.players {
		if !pl.Solved {
			unsolved++
		}
	}

	if unsolved > 0 && len(r.skipVotes) >= unsolved {
		r.advanceTrackLocked()
		return SkipResult{Skipped: true, TrackIndex: r.current}, nil
	}
	return SkipResult{Votes: len(r.skipVotes), TrackIndex: r.current}, nil
}

// advanceTrackLocked moves the room to the next track: pointer forward,
// votes cleared, solve flags reset, scores preserved. Exhausting the
// playlist flips the phase to finished, which is terminal.
func (r *Room) advanceTrackLocked() {
	r.current++
	r.skipVotes = make(map[model.ConnID]struct{})
	for _, p := range r.players {
		p.Solved = false
	}
	if r.current >= len(r.playlist) {
		r.phase = model.PhaseFinished
	}
}

// StartGame transitions waiting -> playing and reports whether the
// transition happened. Host only; re-invocation while already playing
// (or finished) is an accepted no-op, so callers can skip notifying
// anyone when nothing changed.
func (r *Room) StartGame(conn model.ConnID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.players[conn]
	if !exists {
		return false, ErrNotAMember
	}
	if !p.IsHost {
		return false, ErrNotHost
	}
	if r.phase != model.PhaseWaiting {
		return false, nil
	}
	r.phase = model.PhasePlaying
	return true, nil
}

func (r *Room) Phase() model.Phase {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.phase
}

func (r *Room) Empty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players) == 0
}

// Snapshot produces the externally visible room state as a value copy.
// It only ever observes completed mutations and never exposes the active
// track's title or answer, only the artist.
func (r *Room) Snapshot() model.RoomState {
	r.mu.RLock()
	defer r.mu.RUnlock()

	players := make([]model.PlayerView, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, viewOf(p))
	}
	sort.Slice(players, func(i, j int) bool {
		pi, pj := r.players[players[i].ConnID], r.players[players[j].ConnID]
		if !pi.JoinedAt.Equal(pj.JoinedAt) {
			return pi.JoinedAt.Before(pj.JoinedAt)
		}
		return players[i].ConnID < players[j].ConnID
	})

	state := model.RoomState{
		RoomCode:    r.id,
		Players:     players,
		TrackIndex:  r.current,
		TotalTracks: len(r.playlist),
		Phase:       r.phase,
		SkipVotes:   len(r.skipVotes),
	}
	if track, ok := r.currentTrackLocked(); ok {
		state.CurrentTrack = &model.TrackView{Artist: track.Artist}
	}
	return state
}

// FinalScores is read by the gateway when the playlist is exhausted to
// publish results to the leaderboard.
func (r *Room) FinalScores() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scores := make(map[string]int, len(r.players))
	for _, p := range r.players {
		scores[p.Name] += p.Score
	}
	return scores
}

func viewOf(p *model.Player) model.PlayerView {
	return model.PlayerView{
		ConnID: p.ConnID,
		Name:   p.Name,
		Score:  p.Score,
		Solved: p.Solved,
		IsHost: p.IsHost,
	}
}
