package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileStore keeps the leaderboard in a JSON file
type FileStore struct {
	path string
}

// NewFileStore returns a store backed by path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Load reads the file. A missing file is an empty leaderboard.
func (s *FileStore) Load() ([]HighScoreEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	var entries []HighScoreEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return entries, nil
}

// Insert rewrites the whole file with the current top list
func (s *FileStore) Insert(_ HighScoreEntry, top []HighScoreEntry) ([]HighScoreEntry, error) {
	data, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".highscores-*")
	if err != nil {
		return nil, fmt.Errorf("write %s: %w", s.path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write %s: %w", s.path, err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return nil, fmt.Errorf("write %s: %w", s.path, err)
	}
	// the file holds exactly what the cache had
	return nil, nil
}
