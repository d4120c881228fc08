package model

import "strings"

// Track is one guessable item of a playlist. Immutable once loaded.
// NormalizedAnswer must never be serialized to clients while the track
// is still active.
type Track struct {
	SeqIndex         int
	Artist           string
	DisplayTitle     string
	NormalizedAnswer string
}

// NormalizeAnswer folds a raw title or guess into its comparable form:
// surrounding whitespace stripped, lower-cased. Both the catalog loaders
// and the guess evaluation go through this, so equality stays exact.
func NormalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
