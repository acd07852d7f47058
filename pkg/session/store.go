package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sentinel errors surfaced by the store.
var (
	ErrInvalidSessionID = errors.New("session: invalid session id")
	ErrInvalidMessage   = errors.New("session: invalid message")
	ErrSessionNotFound  = errors.New("session: not found")
	// ErrSessionBusy reports that a turn is already in flight for the
	// session. Transcripts have a single writer: the in-flight turn.
	ErrSessionBusy = errors.New("session: turn already in flight")
)

// Store keeps every session transcript in process memory. Sessions are
// created on first use and retained for the lifetime of the process; no
// eviction policy is applied.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*state
	now      func() time.Time
}

type state struct {
	mu       sync.Mutex
	messages []Message
	inFlight bool
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*state),
		now:      time.Now,
	}
}

// GetOrCreate ensures a session exists for id and reports whether it was
// just created.
func (s *Store) GetOrCreate(id string) (created bool, err error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return false, ErrInvalidSessionID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[trimmed]; ok {
		return false, nil
	}
	s.sessions[trimmed] = &state{messages: make([]Message, 0, 16)}
	return true, nil
}

// BeginTurn marks the session as having a turn in flight. A second turn for
// the same session fails with ErrSessionBusy until EndTurn runs; turns on
// other sessions are unaffected.
func (s *Store) BeginTurn(id string) error {
	st, err := s.lookup(id)
	if err != nil {
		return err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.inFlight {
		return fmt.Errorf("%w: %s", ErrSessionBusy, id)
	}
	st.inFlight = true
	return nil
}

// EndTurn releases the in-flight flag set by BeginTurn.
func (s *Store) EndTurn(id string) {
	st, err := s.lookup(id)
	if err != nil {
		return
	}
	st.mu.Lock()
	st.inFlight = false
	st.mu.Unlock()
}

// Append commits a message to the session transcript and returns it with its
// assigned id and timestamp. The stored copy is cloned so callers cannot
// mutate committed history.
func (s *Store) Append(id string, msg Message) (Message, error) {
	if strings.TrimSpace(msg.Role) == "" {
		return Message{}, fmt.Errorf("%w: role is required", ErrInvalidMessage)
	}
	st, err := s.lookup(id)
	if err != nil {
		return Message{}, err
	}
	if msg.ID == "" {
		msg.ID = ulid.Make().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	} else {
		msg.Timestamp = msg.Timestamp.UTC()
	}
	msg.ToolCalls = cloneToolCalls(msg.ToolCalls)

	st.mu.Lock()
	st.messages = append(st.messages, msg)
	st.mu.Unlock()
	return cloneMessage(msg), nil
}

// History enumerates the committed transcript filtered by the provided
// predicate. Results are clones; order is append order.
func (s *Store) History(id string, filter Filter) ([]Message, error) {
	st, err := s.lookup(id)
	if err != nil {
		return nil, err
	}

	role := strings.TrimSpace(filter.Role)
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	limit := filter.Limit
	if limit < 0 {
		limit = 0
	}

	var start, end time.Time
	hasStart := filter.StartTime != nil
	if hasStart {
		start = filter.StartTime.UTC()
	}
	hasEnd := filter.EndTime != nil
	if hasEnd {
		end = filter.EndTime.UTC()
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	var result []Message
	skipped := 0
	for _, msg := range st.messages {
		if role != "" && msg.Role != role {
			continue
		}
		if hasStart && msg.Timestamp.Before(start) {
			continue
		}
		if hasEnd && msg.Timestamp.After(end) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		result = append(result, cloneMessage(msg))
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

// Len reports the number of committed messages in the session.
func (s *Store) Len(id string) (int, error) {
	st, err := s.lookup(id)
	if err != nil {
		return 0, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.messages), nil
}

func (s *Store) lookup(id string) (*state, error) {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return nil, ErrInvalidSessionID
	}
	s.mu.RLock()
	st, ok := s.sessions[trimmed]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, trimmed)
	}
	return st, nil
}

func cloneMessage(msg Message) Message {
	cloned := msg
	cloned.ToolCalls = cloneToolCalls(msg.ToolCalls)
	return cloned
}

func cloneToolCalls(calls []ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	dst := make([]ToolCall, len(calls))
	for i, call := range calls {
		dst[i] = call
		if call.Arguments != nil {
			dst[i].Arguments = cloneMap(call.Arguments)
		}
	}
	return dst
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
