package infra_postgres_playlist

import (
	"context"
	"fmt"

	"github.com/avbelov/tunehunt/core/internal/model"
	"github.com/jmoiron/sqlx"
)

// Repository serves ordered playlists out of the playlist_tracks table.
// Answers are normalized once, on load.
type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type trackDB struct {
	Position int    `db:"position"`
	Artist   string `db:"artist"`
	Title    string `db:"title"`
}

func (r *Repository) Playlist(ctx context.Context) ([]model.Track, error) {
	query := `
		SELECT position, artist, title
		FROM playlist_tracks
		ORDER BY position
	`

	var tracksDB []trackDB
	if err := r.db.SelectContext(ctx, &tracksDB, query); err != nil {
		return nil, fmt.Errorf("failed to query playlist: %w", err)
	}

	tracks := make([]model.Track, 0, len(tracksDB))
	for i, t := range tracksDB {
		tracks = append(tracks, model.Track{
			SeqIndex:         i,
			Artist:           t.Artist,
			DisplayTitle:     t.Title,
			NormalizedAnswer: model.NormalizeAnswer(t.Title),
		})
	}
	return tracks, nil
}
