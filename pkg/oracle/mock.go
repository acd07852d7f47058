package oracle

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/cexll/cassdoctor/pkg/session"
)

// Scripted replays a fixed sequence of decisions and records every request it
// saw. It backs the engine tests and the integration harness.
type Scripted struct {
	mu       sync.Mutex
	steps    []Decision
	next     int
	requests []DecisionRequest
}

var _ Oracle = (*Scripted)(nil)

func NewScripted(steps ...Decision) *Scripted {
	return &Scripted{steps: steps}
}

func (s *Scripted) Decide(ctx context.Context, req DecisionRequest) (*Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if s.next >= len(s.steps) {
		return nil, &Error{Err: fmt.Errorf("scripted oracle exhausted after %d decisions", len(s.steps))}
	}
	step := s.steps[s.next]
	s.next++
	return &step, nil
}

// Requests returns a copy of every DecisionRequest observed so far.
func (s *Scripted) Requests() []DecisionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]DecisionRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

// Calls reports how many decisions were requested.
func (s *Scripted) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Mock is a keyless demo backend: if the latest user message names an
// advertised tool and the turn has not executed it yet, it requests that tool
// with no arguments; otherwise it summarizes whatever tool output is in the
// transcript. Good enough to drive the full loop without an API key.
type Mock struct {
	mu  sync.Mutex
	seq int
}

var _ Oracle = (*Mock)(nil)

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Decide(ctx context.Context, req DecisionRequest) (*Decision, error) {
	lastUser := lastUserContent(req.History)

	if name, ok := m.wantedTool(req, lastUser); ok {
		m.mu.Lock()
		m.seq++
		id := fmt.Sprintf("mock-call-%d", m.seq)
		m.mu.Unlock()
		return &Decision{ToolCalls: []ToolCallRequest{{ID: id, Name: name, Arguments: map[string]any{}}}}, nil
	}

	if output := lastToolOutput(req.History); output != "" {
		return &Decision{Content: "Tool output: " + output}, nil
	}
	return &Decision{Content: "Mock oracle reply to: " + lastUser}, nil
}

func (m *Mock) wantedTool(req DecisionRequest, lastUser string) (string, bool) {
	if lastUser == "" {
		return "", false
	}
	lowered := strings.ToLower(lastUser)
	for _, tool := range req.Tools {
		if !strings.Contains(lowered, strings.ToLower(tool.Name)) {
			continue
		}
		if toolAlreadyCalled(req.History, tool.Name) {
			continue
		}
		return tool.Name, true
	}
	return "", false
}

func lastUserContent(history []session.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == session.RoleUser {
			return history[i].Content
		}
	}
	return ""
}

func lastToolOutput(history []session.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == session.RoleTool {
			return history[i].Content
		}
	}
	return ""
}

func toolAlreadyCalled(history []session.Message, name string) bool {
	for _, msg := range history {
		for _, call := range msg.ToolCalls {
			if call.Name == name {
				return true
			}
		}
	}
	return false
}
