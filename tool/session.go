// Package tool exposes query and update operations on document files
// inside a sandboxed project root.
package tool

import "sync"

// Session tracks which files have been read so far. Write operations
// on existing files require a prior read in the same session, which
// keeps blind overwrites from clobbering content the caller has never
// seen.
type Session struct {
	mu      sync.Mutex
	read    map[string]struct{}
	written map[string]struct{}
}

func NewSession() *Session {
	return &Session{
		read:    make(map[string]struct{}),
		written: make(map[string]struct{}),
	}
}

func (s *Session) MarkRead(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.read[path] = struct{}{}
}

func (s *Session) WasRead(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.read[path]
	return ok
}

func (s *Session) MarkWritten(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written[path] = struct{}{}
	s.read[path] = struct{}{}
}

func (s *Session) WasWritten(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.written[path]
	return ok
}
