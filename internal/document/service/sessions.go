package service

import (
	"sync"

	"ruangkerja/internal/ai"
	"ruangkerja/internal/document/repository"
	"ruangkerja/pkg/logger"
)

// Sessions owns one Workspace per user id. Workspaces are created on first
// use and live for the lifetime of the process.
type Sessions struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace
	processor  ai.Processor
	repoOpts   []repository.Option
	listeners  []func(userID string, c Change)
}

func NewSessions(processor ai.Processor, opts ...repository.Option) *Sessions {
	return &Sessions{
		workspaces: make(map[string]*Workspace),
		processor:  processor,
		repoOpts:   opts,
	}
}

// Workspace returns the user's workspace, creating it if needed.
func (s *Sessions) Workspace(userID string) *Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if w, ok := s.workspaces[userID]; ok {
		return w
	}
	w := NewWorkspace(s.processor, s.repoOpts...)
	w.Dispatcher.OnChange(func(c Change) { s.notify(userID, c) })
	s.workspaces[userID] = w
	logger.Sugar.Infof("Opened workspace for user %s", userID)
	return w
}

// OnChange registers fn for committed changes in every workspace, including
// ones created later.
func (s *Sessions) OnChange(fn func(userID string, c Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Sessions) notify(userID string, c Change) {
	s.mu.Lock()
	listeners := s.listeners
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(userID, c)
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}
