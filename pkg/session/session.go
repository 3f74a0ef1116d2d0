// Package session holds the compiled program of the live debugging session.
//
// A debugging session starts when the pipeline runtime announces the document
// it is running. The document is compiled once and the resulting
// [compiler.Program] is kept by a [Manager] until the next document replaces
// it. Telemetry frames arriving in between are split against that program.
//
// # Usage
//
//	m := session.NewManager()
//
//	// On the runtime's "initialized" event
//	res, err := runner.Check(ctx, pipeline.CheckOptions{Data: doc, Source: target})
//	if err != nil {
//	    return err // the previous session stays live
//	}
//	m.Start(target, target, res.Program)
//
//	// On every QPS response
//	frame, err := m.Apply(ctx, batch)
//
// Replacing the program is a single pointer swap. Readers holding the old
// *Session keep a consistent view until they drop it.
package session

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/flowscope/pkg/compiler"
	"github.com/matzehuels/flowscope/pkg/errors"
	"github.com/matzehuels/flowscope/pkg/graph"
	"github.com/matzehuels/flowscope/pkg/telemetry"
)

// ErrNoProgram is returned when no document has been compiled yet.
var ErrNoProgram = errors.New(errors.ErrCodeNoProgram, "no program is loaded")

// Session is one compiled document together with the last blocking set
// reported for it.
type Session struct {
	ID        string    `json:"id"`
	Source    string    `json:"source"`           // file path or "runtime"
	Target    string    `json:"target,omitempty"` // debugger address, if attached
	StartedAt time.Time `json:"started_at"`

	// Program is the compiled document. It is never mutated.
	Program *compiler.Program `json:"-"`

	blocked atomic.Pointer[[]int]
}

// New creates a session for a compiled program.
func New(source, target string, prog *compiler.Program) *Session {
	return &Session{
		ID:        uuid.New().String(),
		Source:    source,
		Target:    target,
		StartedAt: time.Now(),
		Program:   prog,
	}
}

// Blocked returns the ids flagged by the most recent frame.
func (s *Session) Blocked() []int {
	if p := s.blocked.Load(); p != nil {
		return append([]int(nil), (*p)...)
	}
	return nil
}

func (s *Session) setBlocked(ids []int) {
	ids = append([]int(nil), ids...)
	s.blocked.Store(&ids)
}

// Graph returns a copy of the visualization graph with the current blocking
// set highlighted.
func (s *Session) Graph() graph.Graph {
	g := s.Program.Graph.Clone()
	g.SetBlocked(s.Blocked())
	return g
}

// Manager owns the live session. It is safe for concurrent use.
type Manager struct {
	current atomic.Pointer[Session]
}

// NewManager creates a manager with no live session.
func NewManager() *Manager {
	return &Manager{}
}

// Start replaces the live session with one for prog and returns it.
func (m *Manager) Start(source, target string, prog *compiler.Program) *Session {
	s := New(source, target, prog)
	m.current.Store(s)
	return s
}

// Current returns the live session, or ErrNoProgram.
func (m *Manager) Current() (*Session, error) {
	s := m.current.Load()
	if s == nil {
		return nil, ErrNoProgram
	}
	return s, nil
}

// Reset drops the live session.
func (m *Manager) Reset() {
	m.current.Store(nil)
}

// Apply splits a telemetry batch against the live program and records the
// frame's blocking set on the session.
func (m *Manager) Apply(ctx context.Context, b telemetry.Batch) (telemetry.Frame, error) {
	s, err := m.Current()
	if err != nil {
		return telemetry.Frame{}, err
	}
	f := telemetry.SplitBatch(ctx, s.Program, b)
	s.setBlocked(f.Blocked)
	return f, nil
}
