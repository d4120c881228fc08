package catalog

import (
	"context"

	"github.com/avbelov/tunehunt/core/internal/model"
)

// Provider is the narrow content-source boundary. A real deployment
// serves playlists out of Postgres; without a database the built-in
// static playlist keeps the game playable.
type Provider interface {
	Playlist(ctx context.Context) ([]model.Track, error)
}

// Static is the fallback provider with a fixed, ordered playlist.
type Static struct {
	tracks []model.Track
}

func NewStatic() *Static {
	titles := []struct {
		artist string
		title  string
	}{
		{"The Beatles", "Hey Jude"},
		{"Queen", "Bohemian Rhapsody"},
		{"Daft Punk", "Get Lucky"},
		{"Nirvana", "Smells Like Teen Spirit"},
		{"ABBA", "Dancing Queen"},
	}

	tracks := make([]model.Track, 0, len(titles))
	for i, t := range titles {
		tracks = append(tracks, model.Track{
			SeqIndex:         i,
			Artist:           t.artist,
			DisplayTitle:     t.title,
			NormalizedAnswer: model.NormalizeAnswer(t.title),
		})
	}
	return &Static{tracks: tracks}
}

func (s *Static) Playlist(_ context.Context) ([]model.Track, error) {
	out := make([]model.Track, len(s.tracks))
	copy(out, s.tracks)
	return out, nil
}
