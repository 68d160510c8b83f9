package syncstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Store loads and saves the sync state through a backend.
type Store struct {
	backend Backend
	logger  *zap.Logger
}

// NewStore creates a store over backend.
func NewStore(backend Backend, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{backend: backend, logger: logger}
}

// Key identifies the persisted document; runs sharing a key share state.
func (s *Store) Key() string {
	return s.backend.Location()
}

// Load returns the persisted state. A missing or corrupt document yields an
// empty state. Entries without a remote event id are dropped.
func (s *Store) Load(ctx context.Context) State {
	data, err := s.backend.Read(ctx)
	if err != nil {
		if errors.Is(err, ErrNotExist) {
			s.logger.Info("No previous sync state, starting fresh", zap.String("location", s.Key()))
		} else {
			s.logger.Warn("Failed to read sync state, starting fresh", zap.String("location", s.Key()), zap.Error(err))
		}
		return State{}
	}

	if len(data) == 0 {
		return State{}
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn("Corrupt sync state, starting fresh", zap.String("location", s.Key()), zap.Error(err))
		return State{}
	}
	if state == nil {
		return State{}
	}

	dropped := 0
	for id, e := range state {
		if e.EventID == "" {
			delete(state, id)
			dropped++
		}
	}
	if dropped > 0 {
		s.logger.Warn("Dropped sync state entries without event id", zap.Int("count", dropped))
	}

	s.logger.Debug("Sync state loaded", zap.String("location", s.Key()), zap.Int("entries", len(state)))
	return state
}

// Save replaces the persisted document with state.
func (s *Store) Save(ctx context.Context, state State) error {
	if state == nil {
		state = State{}
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode sync state: %w", err)
	}
	if err := s.backend.Write(ctx, data); err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}
	s.logger.Debug("Sync state saved", zap.String("location", s.Key()), zap.Int("entries", len(state)))
	return nil
}
