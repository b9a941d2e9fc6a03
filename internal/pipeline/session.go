package pipeline

import (
	"sync"

	"github.com/san-kum/fepipe/internal/mesh"
)

// Session is the state shared between actions of one application run:
// the selected input, the last mesh and the last deck. Every action
// overwrites it.
type Session struct {
	mu       sync.RWMutex
	path     string
	mesh     *mesh.Mesh
	deckPath string
	report   *Report
}

func NewSession() *Session {
	return &Session{}
}

func (s *Session) Select(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path = path
	s.mesh = nil
	s.deckPath = ""
	s.report = nil
}

func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

func (s *Session) Mesh() *mesh.Mesh {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mesh
}

func (s *Session) DeckPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.deckPath
}

// Last returns the report of the last completed run, or nil.
func (s *Session) Last() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report
}

func (s *Session) setMesh(m *mesh.Mesh) {
	s.mu.Lock()
	s.mesh = m
	s.mu.Unlock()
}

func (s *Session) setDeck(path string) {
	s.mu.Lock()
	s.deckPath = path
	s.mu.Unlock()
}

func (s *Session) setReport(r *Report) {
	s.mu.Lock()
	s.report = r
	s.mu.Unlock()
}
