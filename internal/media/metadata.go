package media

import (
	"errors"
	"io"
	"os"

	"github.com/dhowden/tag"
	"github.com/rs/zerolog"
	"github.com/tcolgate/mp3"
	"resona/internal/provider"
)

// TrackInfo is the metadata published to observers after a track
// transition. Fields are best-effort; a file without tags still gets
// its display name as the title.
type TrackInfo struct {
	Title      string `json:"title"`
	Artist     string `json:"artist,omitempty"`
	Album      string `json:"album,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
	Picture    []byte `json:"-"`
}

// MetadataLoader extracts tags from media files. Load is blocking and
// is meant to be dispatched off the player loop by the caller.
type MetadataLoader struct {
	provider provider.Provider
	logger   zerolog.Logger
}

func NewMetadataLoader(p provider.Provider, logger zerolog.Logger) *MetadataLoader {
	return &MetadataLoader{provider: p, logger: logger}
}

func (l *MetadataLoader) open(ref MediaRef) (io.ReadCloser, error) {
	if ref.Kind == KindProviderURI {
		if l.provider == nil {
			return nil, errors.New("no provider configured")
		}
		return l.provider.Open(ref.Identity)
	}
	return os.Open(ref.Identity)
}

// Load reads tags for one ref. Failures degrade to a TrackInfo holding
// just the display name; this is never an error the player acts on.
func (l *MetadataLoader) Load(ref MediaRef) *TrackInfo {
	info := &TrackInfo{Title: ref.DisplayName}

	rc, err := l.open(ref)
	if err != nil {
		l.logger.Warn().Err(err).Str("id", ref.Identity).Msg("failed to open file for metadata")
		return info
	}
	defer rc.Close()

	rs, ok := rc.(io.ReadSeeker)
	if !ok {
		return info
	}

	if ref.Ext == ".mp3" {
		info.DurationMs = mp3DurationMs(rs)
		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return info
		}
	}

	meta, err := tag.ReadFrom(rs)
	if err != nil {
		l.logger.Debug().Err(err).Str("id", ref.Identity).Msg("no readable tags")
		return info
	}

	if meta.Title() != "" {
		info.Title = meta.Title()
	}
	info.Artist = meta.Artist()
	info.Album = meta.Album()
	if p := meta.Picture(); p != nil {
		info.Picture = p.Data
	}

	return info
}

// mp3DurationMs sums frame durations across the whole stream. Decode
// errors end the walk; whatever accumulated so far is returned.
func mp3DurationMs(r io.Reader) int64 {
	d := mp3.NewDecoder(r)
	var f mp3.Frame
	var skipped int
	var total float64
	for {
		if err := d.Decode(&f, &skipped); err != nil {
			break
		}
		total += f.Duration().Seconds()
	}
	return int64(total * 1000)
}
