package media

import (
	"resona/internal/engine"
)

// Builder turns discovered refs into a typed playlist and the
// engine-facing item list. Pure data transformation, no engine calls.
type Builder struct{}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build wraps an ordered ref list into a playlist. The mode is taken
// from the first ref; an explicit empty list yields an empty path-mode
// playlist.
func (b *Builder) Build(folderIdentity string, refs []MediaRef) (*Playlist, error) {
	mode := KindPath
	if len(refs) > 0 {
		mode = refs[0].Kind
	}
	return NewPlaylist(mode, folderIdentity, refs)
}

// EngineItems maps every playlist entry to an engine item. The item ID
// is the ref identity, so transition events can be matched back to the
// exact entry.
func (b *Builder) EngineItems(pl *Playlist) []engine.Item {
	items := make([]engine.Item, 0, pl.Len())
	for _, ref := range pl.Refs {
		items = append(items, engine.Item{
			ID:       ref.Identity,
			URI:      ref.Identity,
			MimeType: ResolveMime(ref.Ext),
		})
	}
	return items
}
