package httpapi

import (
	"sync"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

const (
	// maxSessionTurns bounds the history kept per session.
	maxSessionTurns = 12

	// maxSessions bounds how many conversations are remembered.
	maxSessions = 256
)

// sessions keeps recent chat history per session id in memory.
type sessions struct {
	mu    sync.Mutex
	turns map[string][]domain.Turn
	order []string
}

func newSessions() *sessions {
	return &sessions{turns: make(map[string][]domain.Turn)}
}

// history returns a copy of the session's turns, creating the session when
// id is empty or unknown.
func (s *sessions) history(id string) (string, []domain.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turns, ok := s.turns[id]; ok {
		return id, append([]domain.Turn(nil), turns...)
	}
	if id == "" {
		id = uuid.NewString()
	}
	s.turns[id] = nil
	s.order = append(s.order, id)
	if len(s.order) > maxSessions {
		delete(s.turns, s.order[0])
		s.order = s.order[1:]
	}
	return id, nil
}

// record appends one question and answer to a session.
func (s *sessions) record(id, question, answer string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns, ok := s.turns[id]
	if !ok {
		return
	}
	turns = append(turns,
		domain.Turn{Role: domain.TurnUser, Content: question},
		domain.Turn{Role: domain.TurnAssistant, Content: answer},
	)
	if len(turns) > maxSessionTurns {
		turns = turns[len(turns)-maxSessionTurns:]
	}
	s.turns[id] = turns
}
