package storage

import "time"

// PlaybackMemory is the single resume record per file. Writes are
// upserts keyed by FileIdentity; the latest write wins.
type PlaybackMemory struct {
	FileIdentity   string    `json:"file_identity"`
	PositionMs     int64     `json:"position_ms"`
	DurationMs     int64     `json:"duration_ms"`
	FolderIdentity string    `json:"folder_identity"`
	DisplayName    string    `json:"display_name"`
	SavedAt        time.Time `json:"saved_at"`
}

// Progress returns the played fraction, 0 when duration is unknown.
func (m *PlaybackMemory) Progress() float64 {
	if m.DurationMs <= 0 {
		return 0
	}
	return float64(m.PositionMs) / float64(m.DurationMs)
}

// Bookmark is a user-named marker. Many may coexist per file; its
// lifecycle is independent of PlaybackMemory.
type Bookmark struct {
	ID             string    `json:"id"`
	FileIdentity   string    `json:"file_identity"`
	PositionMs     int64     `json:"position_ms"`
	DurationMs     int64     `json:"duration_ms"`
	Label          string    `json:"label"`
	FolderIdentity string    `json:"folder_identity"`
	DisplayName    string    `json:"display_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// SavedPlaylist is an external grouping reference; only its
// last-played timestamp is maintained by the player core.
type SavedPlaylist struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	LastPlayedAt time.Time `json:"last_played_at"`
}
