package song

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
)

const timestampLayout = "2006-01-02_15-04-05"

// SaveInfo represents a saved song snapshot (for listing)
type SaveInfo struct {
	Filename  string
	Name      string // parsed from filename (empty if unnamed)
	Timestamp time.Time
}

// Library keeps timestamped snapshots of every version of a song that was
// installed, one folder per song.
type Library struct {
	Dir string
	now func() time.Time
}

// DefaultLibraryDir is ~/.config/go-jamtyper/songs
func DefaultLibraryDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-jamtyper", "songs"), nil
}

// NewLibrary opens a library rooted at dir (~ is expanded)
func NewLibrary(dir string) (*Library, error) {
	if dir == "" {
		d, err := DefaultLibraryDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	expanded, err := homedir.Expand(dir)
	if err != nil {
		return nil, fmt.Errorf("songs dir: %w", err)
	}
	return &Library{Dir: expanded, now: time.Now}, nil
}

// SongDir returns the folder holding the snapshots of name
func (l *Library) SongDir(name string) string {
	return filepath.Join(l.Dir, SanitizeName(name))
}

// ListSongs returns all song folder names
func (l *Library) ListSongs() ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, err
	}

	var songs []string
	for _, entry := range entries {
		if entry.IsDir() {
			songs = append(songs, entry.Name())
		}
	}
	sort.Strings(songs)
	return songs, nil
}

// ListSaves returns snapshots of a song, newest first
func (l *Library) ListSaves(name string) ([]SaveInfo, error) {
	entries, err := os.ReadDir(l.SongDir(name))
	if err != nil {
		if os.IsNotExist(err) {
			return []SaveInfo{}, nil
		}
		return nil, err
	}

	var saves []SaveInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		// 2024-01-15_14-30-00.json or 2024-01-15_14-30-00_label.json
		base := strings.TrimSuffix(entry.Name(), ".json")
		if len(base) < len(timestampLayout) {
			continue
		}
		ts, err := time.Parse(timestampLayout, base[:len(timestampLayout)])
		if err != nil {
			continue
		}
		label := ""
		if len(base) > len(timestampLayout)+1 && base[len(timestampLayout)] == '_' {
			label = base[len(timestampLayout)+1:]
		}
		saves = append(saves, SaveInfo{
			Filename:  entry.Name(),
			Name:      label,
			Timestamp: ts,
		})
	}

	sort.Slice(saves, func(i, j int) bool {
		if saves[i].Timestamp.Equal(saves[j].Timestamp) {
			return saves[i].Filename > saves[j].Filename
		}
		return saves[i].Timestamp.After(saves[j].Timestamp)
	})
	return saves, nil
}

// Snapshot writes s into the song's folder under the current timestamp.
// label is optional. It returns the file name written.
func (l *Library) Snapshot(name, label string, s *Song) (string, error) {
	if name == "" {
		name = "untitled"
	}
	dir := l.SongDir(name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}

	data, err := s.Marshal()
	if err != nil {
		return "", fmt.Errorf("snapshot %s: %w", name, err)
	}

	filename := l.now().Format(timestampLayout)
	if label != "" {
		filename += "_" + SanitizeName(label)
	}
	filename += ".json"
	if err := os.WriteFile(filepath.Join(dir, filename), data, 0644); err != nil {
		return "", err
	}
	return filename, nil
}

// Load parses a snapshot (the most recent one if filename is empty)
func (l *Library) Load(name, filename string) (*Song, error) {
	if filename == "" {
		saves, err := l.ListSaves(name)
		if err != nil {
			return nil, err
		}
		if len(saves) == 0 {
			return nil, fmt.Errorf("no saves found for song %s", name)
		}
		filename = saves[0].Filename
	}

	data, err := os.ReadFile(filepath.Join(l.SongDir(name), filename))
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", name, filename, err)
	}
	return s, nil
}

// DeleteSave removes one snapshot
func (l *Library) DeleteSave(name, filename string) error {
	return os.Remove(filepath.Join(l.SongDir(name), filename))
}

// SanitizeName replaces characters that are problematic in file names
func SanitizeName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer(
		" ", "-",
		"/", "-",
		"\\", "-",
		":", "-",
		"*", "",
		"?", "",
		"\"", "",
		"<", "",
		">", "",
		"|", "",
	).Replace(name)
	if name == "" || name == "." || name == ".." {
		return "untitled"
	}
	return name
}
