package media

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// RefKind distinguishes the two file-identity models: plain filesystem
// paths and opaque document-provider URIs. A playlist never mixes them.
type RefKind int

const (
	KindPath RefKind = iota
	KindProviderURI
)

func (k RefKind) String() string {
	if k == KindProviderURI {
		return "uri"
	}
	return "path"
}

// MediaRef identifies one playable item. Identity is globally unique
// within a playlist (absolute path or provider URI). Immutable.
type MediaRef struct {
	Kind        RefKind `json:"kind"`
	Identity    string  `json:"identity"`
	DisplayName string  `json:"display_name"`
	Ext         string  `json:"ext"`
}

// NewPathRef builds a path-mode ref from an absolute file path.
func NewPathRef(p string) MediaRef {
	base := filepath.Base(p)
	ext := strings.ToLower(filepath.Ext(base))
	return MediaRef{
		Kind:        KindPath,
		Identity:    p,
		DisplayName: strings.TrimSuffix(base, filepath.Ext(base)),
		Ext:         ext,
	}
}

// NewProviderRef builds a URI-mode ref. The display name comes from the
// provider, not from the URI, which may be opaque.
func NewProviderRef(uri, name string) MediaRef {
	ext := strings.ToLower(path.Ext(name))
	return MediaRef{
		Kind:        KindProviderURI,
		Identity:    uri,
		DisplayName: strings.TrimSuffix(name, path.Ext(name)),
		Ext:         ext,
	}
}

// FolderRef identifies a scan root: a directory path or a tree URI.
type FolderRef struct {
	Kind     RefKind `json:"kind"`
	Identity string  `json:"identity"`
}

func PathFolder(p string) FolderRef {
	return FolderRef{Kind: KindPath, Identity: p}
}

func ProviderFolder(uri string) FolderRef {
	return FolderRef{Kind: KindProviderURI, Identity: uri}
}

// Playlist is an ordered queue of refs that all share one kind.
// Exclusivity is enforced by NewPlaylist rather than by convention.
type Playlist struct {
	Mode           RefKind    `json:"mode"`
	Refs           []MediaRef `json:"refs"`
	FolderIdentity string     `json:"folder_identity"`
	PlaylistID     string     `json:"playlist_id,omitempty"`
}

func NewPlaylist(mode RefKind, folderIdentity string, refs []MediaRef) (*Playlist, error) {
	for _, r := range refs {
		if r.Kind != mode {
			return nil, fmt.Errorf("mixed playlist: %q is %s, want %s", r.Identity, r.Kind, mode)
		}
	}
	return &Playlist{
		Mode:           mode,
		Refs:           refs,
		FolderIdentity: folderIdentity,
	}, nil
}

func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Refs)
}

// IndexOf returns the position of the ref with the given identity, or -1.
func (p *Playlist) IndexOf(identity string) int {
	if p == nil {
		return -1
	}
	for i, r := range p.Refs {
		if r.Identity == identity {
			return i
		}
	}
	return -1
}
