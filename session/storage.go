package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"termdeck/config"
	"termdeck/render"
)

// InstanceData is the serializable form of an Instance.
type InstanceData struct {
	Title     string    `json:"title"`
	Path      string    `json:"path"`
	Program   string    `json:"program"`
	Branch    string    `json:"branch,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// State is everything the host persists: the session roster plus the latest
// render-pool diagnostics snapshot. The MCP server reads this file; it never
// talks to the live pool (one pool per process, no cross-process coordination).
type State struct {
	Sessions  []InstanceData `json:"sessions"`
	Render    render.Stats   `json:"render"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Storage persists State as JSON under a directory.
type Storage struct {
	path string
}

// NewStorage creates a Storage rooted at dir.
func NewStorage(dir string) *Storage {
	return &Storage{path: filepath.Join(dir, config.StateFileName)}
}

// DefaultStorage creates a Storage under the application config directory.
func DefaultStorage() (*Storage, error) {
	dir, err := config.GetConfigDir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	return NewStorage(dir), nil
}

// Path returns the state file location.
func (s *Storage) Path() string {
	return s.path
}

// Save writes the state, stamping UpdatedAt.
func (s *Storage) Save(state State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return os.WriteFile(s.path, data, 0644)
}

// Load reads the state. A missing file is an empty state, not an error.
func (s *Storage) Load() (State, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return State{}, nil
		}
		return State{}, fmt.Errorf("failed to read state: %w", err)
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return State{}, fmt.Errorf("failed to parse state: %w", err)
	}
	return state, nil
}
