package content

import (
	"context"
	"sync"

	"github.com/arjunpat/mathrise/internal/apperr"
)

// StaticStore is an in-memory Store for tests and seeding.
type StaticStore struct {
	mu           sync.RWMutex
	students     map[string]Student
	topics       map[string]Topic
	problems     map[string]Problem
	achievements []Achievement
}

// NewStaticStore creates an empty StaticStore.
func NewStaticStore() *StaticStore {
	return &StaticStore{
		students: make(map[string]Student),
		topics:   make(map[string]Topic),
		problems: make(map[string]Problem),
	}
}

// AddStudent registers a student.
func (s *StaticStore) AddStudent(st Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.students[st.ID] = st
}

// AddTopic registers a topic.
func (s *StaticStore) AddTopic(t Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[t.ID] = t
}

// AddProblem registers a problem.
func (s *StaticStore) AddProblem(p Problem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.problems[p.ID] = p
}

// AddAchievement appends an achievement definition. Insertion order is
// the evaluation tie-break order.
func (s *StaticStore) AddAchievement(a Achievement) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.achievements = append(s.achievements, a)
}

func (s *StaticStore) Student(_ context.Context, id string) (*Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.students[id]
	if !ok {
		return nil, apperr.NotFound("student", id)
	}
	return &st, nil
}

func (s *StaticStore) Topic(_ context.Context, id string) (*Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.topics[id]
	if !ok {
		return nil, apperr.NotFound("topic", id)
	}
	return &t, nil
}

func (s *StaticStore) Problem(_ context.Context, id string) (*Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.problems[id]
	if !ok {
		return nil, apperr.NotFound("problem", id)
	}
	return &p, nil
}

func (s *StaticStore) Achievements(_ context.Context) ([]Achievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Achievement, 0, len(s.achievements))
	for _, a := range s.achievements {
		if a.Active {
			out = append(out, a)
		}
	}
	return out, nil
}
