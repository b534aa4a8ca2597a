package mcp

import (
	"termdeck/session"
)

// StateReader reads the persisted host state. A fresh read per tool call so
// clients always see the latest snapshot the TUI wrote.
type StateReader struct {
	storage *session.Storage
}

func NewStateReader(storage *session.Storage) *StateReader {
	return &StateReader{storage: storage}
}

// ReadState loads the current state. A missing file yields an empty state.
func (r *StateReader) ReadState() (session.State, error) {
	return r.storage.Load()
}
