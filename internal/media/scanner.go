package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"resona/internal/provider"
)

type ScanStatus string

const (
	StatusDone ScanStatus = "done"
	StatusPass ScanStatus = "pass"
	StatusErr  ScanStatus = "err"
)

type ScanResultItem struct {
	Name   string     `json:"name"`
	Status ScanStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// ScanResult is the diagnostic output of one scan invocation. Counts
// are derived from the items, so done+pass+err always equals total.
type ScanResult struct {
	Items []ScanResultItem `json:"items"`
}

func (r *ScanResult) Total() int { return len(r.Items) }

func (r *ScanResult) Count(status ScanStatus) int {
	n := 0
	for _, item := range r.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

func (r *ScanResult) add(name string, status ScanStatus, reason string) {
	r.Items = append(r.Items, ScanResultItem{Name: name, Status: status, Reason: reason})
}

// BrowseEntry is one row of a folder-browsing view.
type BrowseEntry struct {
	Folder *FolderRef `json:"folder,omitempty"`
	File   *MediaRef  `json:"file,omitempty"`
	Name   string     `json:"name"`
}

// Scanner discovers playable files under a folder. Path-mode folders
// are walked directly; URI-mode folders go through the provider.
type Scanner struct {
	provider provider.Provider
	logger   zerolog.Logger
}

func NewScanner(p provider.Provider, logger zerolog.Logger) *Scanner {
	return &Scanner{provider: p, logger: logger}
}

// Scan collects every playable file under the folder, recursively, and
// returns them in one flat queue sorted globally by display name. This
// is the "build playable queue" ordering; folder-browsing views use
// Browse, which keeps the hierarchy.
func (s *Scanner) Scan(folder FolderRef) ([]MediaRef, error) {
	var refs []MediaRef
	var err error

	switch folder.Kind {
	case KindProviderURI:
		if s.provider == nil {
			return nil, fmt.Errorf("no provider configured for %q", folder.Identity)
		}
		err = s.walkProvider(folder.Identity, &refs)
	default:
		err = s.walkPath(folder.Identity, &refs)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(refs, func(i, j int) bool {
		return strings.ToLower(refs[i].DisplayName) < strings.ToLower(refs[j].DisplayName)
	})

	s.logger.Info().
		Str("folder", folder.Identity).
		Str("mode", folder.Kind.String()).
		Int("files", len(refs)).
		Msg("scan completed")

	return refs, nil
}

func (s *Scanner) walkPath(dir string, refs *[]MediaRef) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		fullPath := filepath.Join(dir, name)
		if entry.IsDir() {
			if err := s.walkPath(fullPath, refs); err != nil {
				s.logger.Warn().Err(err).Str("path", fullPath).Msg("skipping unreadable directory")
			}
			continue
		}
		if IsSupportedMedia(name) {
			*refs = append(*refs, NewPathRef(fullPath))
		}
	}
	return nil
}

func (s *Scanner) walkProvider(uri string, refs *[]MediaRef) error {
	nodes, err := s.provider.ListChildren(uri)
	if err != nil {
		return err
	}

	for _, node := range nodes {
		if node.IsDir {
			if err := s.walkProvider(node.Identity, refs); err != nil {
				s.logger.Warn().Err(err).Str("uri", node.Identity).Msg("skipping unreadable node")
			}
			continue
		}
		if IsSupportedMedia(node.Name) {
			*refs = append(*refs, NewProviderRef(node.Identity, node.Name))
		}
	}
	return nil
}

// Browse lists one level of the folder for browsing views: subfolders
// sorted by name first, then files sorted by name. The two groups are
// not merged.
func (s *Scanner) Browse(folder FolderRef) ([]BrowseEntry, error) {
	var dirs, files []BrowseEntry

	switch folder.Kind {
	case KindProviderURI:
		if s.provider == nil {
			return nil, fmt.Errorf("no provider configured for %q", folder.Identity)
		}
		nodes, err := s.provider.ListChildren(folder.Identity)
		if err != nil {
			return nil, err
		}
		for _, node := range nodes {
			if node.IsDir {
				sub := ProviderFolder(node.Identity)
				dirs = append(dirs, BrowseEntry{Folder: &sub, Name: node.Name})
			} else if IsSupportedMedia(node.Name) {
				ref := NewProviderRef(node.Identity, node.Name)
				files = append(files, BrowseEntry{File: &ref, Name: node.Name})
			}
		}
	default:
		entries, err := os.ReadDir(folder.Identity)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", folder.Identity, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			fullPath := filepath.Join(folder.Identity, name)
			if entry.IsDir() {
				sub := PathFolder(fullPath)
				dirs = append(dirs, BrowseEntry{Folder: &sub, Name: name})
			} else if IsSupportedMedia(name) {
				ref := NewPathRef(fullPath)
				files = append(files, BrowseEntry{File: &ref, Name: name})
			}
		}
	}

	byName := func(entries []BrowseEntry) {
		sort.SliceStable(entries, func(i, j int) bool {
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
	}
	byName(dirs)
	byName(files)

	return append(dirs, files...), nil
}

// ScanDiagnostic walks the folder and reports a per-entry verdict
// instead of a queue. It never returns an error: a missing or
// unreadable directory becomes a single err item with the reason.
func (s *Scanner) ScanDiagnostic(folder FolderRef) *ScanResult {
	result := &ScanResult{}

	switch folder.Kind {
	case KindProviderURI:
		if s.provider == nil {
			result.add(folder.Identity, StatusErr, "no provider configured")
			return result
		}
		s.diagnoseProvider(folder.Identity, folder.Identity, result)
	default:
		s.diagnosePath(folder.Identity, result)
	}

	s.logger.Info().
		Str("folder", folder.Identity).
		Int("total", result.Total()).
		Int("done", result.Count(StatusDone)).
		Int("pass", result.Count(StatusPass)).
		Int("err", result.Count(StatusErr)).
		Msg("diagnostic scan completed")

	return result
}

func (s *Scanner) diagnosePath(dir string, result *ScanResult) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		result.add(filepath.Base(dir), StatusErr, "unreadable")
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if entry.IsDir() {
			s.diagnosePath(filepath.Join(dir, name), result)
			continue
		}
		if IsSupportedMedia(name) {
			result.add(name, StatusDone, "")
		} else {
			result.add(name, StatusPass, fmt.Sprintf("unsupported format (%s)", strings.ToLower(filepath.Ext(name))))
		}
	}
}

func (s *Scanner) diagnoseProvider(uri, name string, result *ScanResult) {
	nodes, err := s.provider.ListChildren(uri)
	if err != nil {
		result.add(name, StatusErr, "no listing")
		return
	}

	for _, node := range nodes {
		if node.IsDir {
			s.diagnoseProvider(node.Identity, node.Name, result)
			continue
		}
		if IsSupportedMedia(node.Name) {
			result.add(node.Name, StatusDone, "")
		} else {
			result.add(node.Name, StatusPass, fmt.Sprintf("unsupported format (%s)", strings.ToLower(extOf(node.Name))))
		}
	}
}
