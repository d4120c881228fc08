package model

// Phase is the room lifecycle state.
//
//	waiting --start_game--> playing --(playlist exhausted)--> finished
//
// finished is terminal.
type Phase string

const (
	PhaseWaiting  Phase = "waiting"
	PhasePlaying  Phase = "playing"
	PhaseFinished Phase = "finished"
)

// PlayerView is the externally visible slice of a Player.
type PlayerView struct {
	ConnID ConnID `json:"conn_id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Solved bool   `json:"solved"`
	IsHost bool   `json:"is_host"`
}

// TrackView exposes only the public attribute of the active track.
// The title stays hidden until the track is solved or skipped.
type TrackView struct {
	Artist string `json:"artist"`
}

// RoomState is the full snapshot broadcast to every member after each
// mutation. It is a value copy; holding one never aliases live room state.
type RoomState struct {
	RoomCode     RoomID       `json:"room_code"`
	Players      []PlayerView `json:"players"`
	TrackIndex   int          `json:"track_index"`
	TotalTracks  int          `json:"total_tracks"`
	CurrentTrack *TrackView   `json:"current_track,omitempty"`
	Phase        Phase        `json:"phase"`
	SkipVotes    int          `json:"skip_votes"`
}
