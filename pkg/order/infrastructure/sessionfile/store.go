package sessionfile

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"foodorder/pkg/order/domain/model"
)

var _ model.SessionStore = &Store{}

type sessionsJSON struct {
	Sessions map[string]model.SessionState `json:"sessions"`
}

// Store keeps every session in one JSON file. It is the fallback when no
// database is configured.
type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load(_ context.Context, sessionID string) (*model.SessionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	if err != nil {
		return nil, err
	}
	state, ok := sessions[sessionID]
	if !ok {
		return &model.SessionState{ID: sessionID}, nil
	}
	state.ID = sessionID
	return &state, nil
}

func (s *Store) Save(_ context.Context, state model.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read()
	if err != nil {
		return err
	}
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	sessions[state.ID] = state

	jsonData, err := json.MarshalIndent(sessionsJSON{Sessions: sessions}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode sessions")
	}
	return errors.Wrapf(os.WriteFile(s.path, jsonData, 0600), "write %s", s.path)
}

func (s *Store) read() (map[string]model.SessionState, error) {
	file, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return make(map[string]model.SessionState), nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", s.path)
	}

	var data sessionsJSON
	if err = json.Unmarshal(file, &data); err != nil {
		return nil, errors.Wrapf(err, "parse %s", s.path)
	}
	if data.Sessions == nil {
		return make(map[string]model.SessionState), nil
	}
	return data.Sessions, nil
}
