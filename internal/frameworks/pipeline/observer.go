package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/JaimeStill/go-agents-orchestration/pkg/observability"
	"github.com/JaimeStill/go-agents-orchestration/pkg/state"
)

// logObserver implements observability.Observer by logging graph events.
type logObserver struct {
	logger *slog.Logger
}

func newLogObserver(logger *slog.Logger) *logObserver {
	return &logObserver{logger: logger}
}

func (o *logObserver) OnEvent(ctx context.Context, event observability.Event) {
	switch event.Type {
	case observability.EventNodeStart:
		o.logger.Debug("stage started", "source", event.Source)
	case observability.EventNodeComplete:
		o.logger.Debug("stage completed", "source", event.Source)
	case observability.EventEdgeTransition:
		o.logger.Debug("stage transition", "source", event.Source)
	}
}

// memoryCheckpointStore implements state.CheckpointStore in memory.
// Pipeline runs are synchronous and short-lived, so checkpoints only
// need to survive for the duration of a single execution.
type memoryCheckpointStore struct {
	mu     sync.Mutex
	states map[string]state.State
}

func newMemoryCheckpointStore() *memoryCheckpointStore {
	return &memoryCheckpointStore{
		states: make(map[string]state.State),
	}
}

func (s *memoryCheckpointStore) Save(st state.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[st.RunID] = st
	return nil
}

func (s *memoryCheckpointStore) Load(runID string) (state.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[runID]
	if !ok {
		return state.State{}, fmt.Errorf("checkpoint not found: %s", runID)
	}
	return st, nil
}

func (s *memoryCheckpointStore) Delete(runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, runID)
	return nil
}

func (s *memoryCheckpointStore) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.states))
	for id := range s.states {
		ids = append(ids, id)
	}
	return ids, nil
}
