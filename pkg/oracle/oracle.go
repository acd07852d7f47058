// Package oracle decides, for each round of a chat turn, whether to answer
// the user directly or to request tool invocations first.
package oracle

import (
	"context"
	"fmt"

	"github.com/cexll/cassdoctor/pkg/catalog"
	"github.com/cexll/cassdoctor/pkg/session"
)

// ToolCallRequest is one tool invocation the oracle asked for.
type ToolCallRequest struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Decision is the oracle's output for a single round. When ToolCalls is
// empty, Content is the final reply for the turn.
type Decision struct {
	Content   string
	ToolCalls []ToolCallRequest
}

// DecisionRequest carries everything the oracle may consider: the system
// prompt, the conversation so far, and the advertised tool descriptors.
type DecisionRequest struct {
	System  string
	History []session.Message
	Tools   []catalog.ToolDescriptor
}

// Oracle produces one decision per round.
type Oracle interface {
	Decide(ctx context.Context, req DecisionRequest) (*Decision, error)
}

// Error marks a failure of the decision backend itself. The turn that hit it
// is aborted, but the transcript accumulated so far is kept.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return "oracle error"
	}
	return fmt.Sprintf("oracle error: %v", e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
