// Package chat runs the tool-calling orchestration loop: it asks the
// decision oracle what to do, executes the tool calls it requests, feeds the
// results back, and repeats until the oracle answers or the round budget is
// spent.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cexll/cassdoctor/pkg/catalog"
	"github.com/cexll/cassdoctor/pkg/observability"
	"github.com/cexll/cassdoctor/pkg/oracle"
	"github.com/cexll/cassdoctor/pkg/session"
)

// DefaultMaxRounds bounds how many oracle rounds one turn may take.
const DefaultMaxRounds = 5

// Stop reasons reported in TurnResult.
const (
	StopComplete = "complete"
	StopRoundCap = "round_cap"
)

// ErrEmptyMessage rejects turns whose user text is blank.
var ErrEmptyMessage = errors.New("chat: message is empty")

// TurnResult summarizes one completed turn.
type TurnResult struct {
	Reply      string
	Tools      []string
	Rounds     int
	StopReason string
}

// Config wires an Engine. Store, Catalog, Source, Provider and Oracle are
// required; MaxRounds defaults to DefaultMaxRounds.
type Config struct {
	Store       *session.Store
	Catalog     *catalog.Catalog
	Source      catalog.Source
	Provider    Provider
	Oracle      oracle.Oracle
	MaxRounds   int
	CallTimeout time.Duration
	Hooks       []Hook
}

func (c Config) validate() error {
	switch {
	case c.Store == nil:
		return errors.New("chat: session store is required")
	case c.Catalog == nil:
		return errors.New("chat: catalog is required")
	case c.Source == nil:
		return errors.New("chat: discovery source is required")
	case c.Provider == nil:
		return errors.New("chat: tool provider is required")
	case c.Oracle == nil:
		return errors.New("chat: oracle is required")
	case c.MaxRounds < 0:
		return errors.New("chat: max rounds must not be negative")
	}
	return nil
}

// Engine orchestrates turns. One Engine serves all sessions; per-session
// serialization is enforced by the store's turn flag.
type Engine struct {
	store     *session.Store
	catalog   *catalog.Catalog
	source    catalog.Source
	invoker   *Invoker
	oracle    oracle.Oracle
	maxRounds int
	hooks     []Hook
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	maxRounds := cfg.MaxRounds
	if maxRounds == 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Engine{
		store:     cfg.Store,
		catalog:   cfg.Catalog,
		source:    cfg.Source,
		invoker:   NewInvoker(cfg.Provider, cfg.CallTimeout),
		oracle:    cfg.Oracle,
		maxRounds: maxRounds,
		hooks:     append([]Hook(nil), cfg.Hooks...),
	}, nil
}

// RunTurn executes one user turn against the session. Tool faults are
// recorded in the transcript and fed back to the oracle; discovery and
// oracle faults abort the turn, keeping whatever history was already
// committed.
func (e *Engine) RunTurn(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if strings.TrimSpace(userText) == "" {
		return nil, ErrEmptyMessage
	}

	if _, err := e.store.GetOrCreate(sessionID); err != nil {
		return nil, err
	}
	if err := e.store.BeginTurn(sessionID); err != nil {
		return nil, err
	}
	defer e.store.EndTurn(sessionID)

	snap, err := e.ensureCatalog(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := e.store.Append(sessionID, session.Message{
		Role:    session.RoleUser,
		Content: userText,
	}); err != nil {
		return nil, err
	}

	logger := observability.LoggerFromContext(ctx)
	system := BuildSystemPrompt(snap)
	tools := oracleToolset(snap)

	var executed []string
	var lastContent string
	for round := 1; round <= e.maxRounds; round++ {
		if err := runHooks(e.hooks, false, func(h Hook) error {
			return h.PreRound(ctx, round)
		}); err != nil {
			return nil, err
		}

		history, err := e.store.History(sessionID, session.Filter{})
		if err != nil {
			return nil, err
		}
		decision, err := e.oracle.Decide(ctx, oracle.DecisionRequest{
			System:  system,
			History: history,
			Tools:   tools,
		})
		if err != nil {
			return nil, err
		}
		if hookErr := runHooks(e.hooks, true, func(h Hook) error {
			return h.PostDecision(ctx, round, decision)
		}); hookErr != nil {
			return nil, hookErr
		}

		lastContent = decision.Content

		if len(decision.ToolCalls) == 0 {
			if _, err := e.store.Append(sessionID, session.Message{
				Role:    session.RoleAssistant,
				Content: decision.Content,
			}); err != nil {
				return nil, err
			}
			return &TurnResult{
				Reply:      decision.Content,
				Tools:      executed,
				Rounds:     round,
				StopReason: StopComplete,
			}, nil
		}

		outcomes := make([]Outcome, 0, len(decision.ToolCalls))
		for _, call := range decision.ToolCalls {
			if err := runHooks(e.hooks, false, func(h Hook) error {
				return h.PreToolCall(ctx, call.Name, call.Arguments)
			}); err != nil {
				return nil, err
			}
			outcome := e.invoker.Invoke(ctx, snap, call)
			logger.Info("tool invoked",
				"session_id", sessionID,
				"round", round,
				"tool", call.Name,
				"duration_ms", outcome.Duration.Milliseconds(),
				"failed", outcome.Err != "")
			if hookErr := runHooks(e.hooks, true, func(h Hook) error {
				return h.PostToolCall(ctx, outcome)
			}); hookErr != nil {
				return nil, hookErr
			}
			outcomes = append(outcomes, outcome)
			executed = appendUnique(executed, call.Name)
		}

		if err := e.commitRound(sessionID, decision, outcomes); err != nil {
			return nil, err
		}
	}

	// The caller gets whatever partial content the oracle last supplied,
	// possibly empty; the transcript records why the turn stopped.
	note := fmt.Sprintf("Stopped after %d tool rounds without a final answer.", e.maxRounds)
	if _, err := e.store.Append(sessionID, session.Message{
		Role:    session.RoleAssistant,
		Content: note,
	}); err != nil {
		return nil, err
	}
	return &TurnResult{
		Reply:      lastContent,
		Tools:      executed,
		Rounds:     e.maxRounds,
		StopReason: StopRoundCap,
	}, nil
}

// ensureCatalog refreshes the catalog on the first turn and reuses the
// snapshot afterwards.
func (e *Engine) ensureCatalog(ctx context.Context) (*catalog.Snapshot, error) {
	if !e.catalog.Initialized() {
		if err := e.catalog.Refresh(ctx, e.source); err != nil {
			return nil, err
		}
	}
	return e.catalog.Snapshot()
}

// commitRound appends the assistant's tool-call request and one tool message
// per outcome, in request order.
func (e *Engine) commitRound(sessionID string, decision *oracle.Decision, outcomes []Outcome) error {
	calls := make([]session.ToolCall, len(decision.ToolCalls))
	for i, req := range decision.ToolCalls {
		calls[i] = session.ToolCall{
			ID:        req.ID,
			Name:      req.Name,
			Arguments: req.Arguments,
			Output:    outcomes[i].Output,
			Error:     outcomes[i].Err,
		}
	}
	if _, err := e.store.Append(sessionID, session.Message{
		Role:      session.RoleAssistant,
		Content:   decision.Content,
		ToolCalls: calls,
	}); err != nil {
		return err
	}
	for i, outcome := range outcomes {
		content := outcome.Output
		if outcome.Err != "" {
			content = "ERROR: " + outcome.Err
		}
		if _, err := e.store.Append(sessionID, session.Message{
			Role:       session.RoleTool,
			Content:    content,
			ToolCallID: decision.ToolCalls[i].ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// oracleToolset is the snapshot's tools plus the synthetic read_resource
// descriptor when the provider advertises resources.
func oracleToolset(snap *catalog.Snapshot) []catalog.ToolDescriptor {
	if snap == nil {
		return nil
	}
	tools := append([]catalog.ToolDescriptor(nil), snap.Tools...)
	if len(snap.Resources) > 0 {
		tools = append(tools, readResourceDescriptor())
	}
	return tools
}

func readResourceDescriptor() catalog.ToolDescriptor {
	return catalog.ToolDescriptor{
		Name:        ReadResourceToolName,
		Description: "Read one of the advertised resources by uri and return its text.",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"uri": {"type": "string", "description": "Resource uri from the AVAILABLE RESOURCES list"}
			},
			"required": ["uri"]
		}`),
	}
}

func appendUnique(list []string, value string) []string {
	for _, existing := range list {
		if existing == value {
			return list
		}
	}
	return append(list, value)
}
