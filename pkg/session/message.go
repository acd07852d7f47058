package session

import "time"

// Conversation roles. Tool messages carry the outcome of one tool invocation
// back to the decision oracle.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall captures an assistant-requested tool invocation and, once
// executed, its outcome.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
	Output    string         `json:"output,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Message is a single conversational turn persisted in a session. The
// transcript is append-only: messages are never reordered or mutated once
// committed.
type Message struct {
	ID        string     `json:"id"`
	Role      string     `json:"role"`
	Content   string     `json:"content,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	// ToolCallID links a tool-result message back to the assistant
	// request that triggered it.
	ToolCallID string    `json:"tool_call_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Filter constrains the message subset returned by Store.History.
type Filter struct {
	StartTime *time.Time
	EndTime   *time.Time
	Role      string
	Limit     int
	Offset    int
}
