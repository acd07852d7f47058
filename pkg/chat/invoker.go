package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cexll/cassdoctor/pkg/catalog"
	"github.com/cexll/cassdoctor/pkg/mcpclient"
	"github.com/cexll/cassdoctor/pkg/oracle"
)

// ReadResourceToolName is the synthetic tool that exposes resource reads to
// the oracle alongside the provider's real tools.
const ReadResourceToolName = "read_resource"

// Provider executes remote tool calls and resource reads. *mcpclient.Client
// satisfies it.
type Provider interface {
	InvokeTool(ctx context.Context, name string, args map[string]any) (*mcpclient.ToolCallResult, error)
	ReadResource(ctx context.Context, uri string) (string, error)
}

// Outcome is the result of one tool invocation. Err is a recoverable fault
// description fed back to the oracle; it never aborts the turn.
type Outcome struct {
	Name     string
	Output   string
	Err      string
	Duration time.Duration
}

// Invoker dispatches oracle-requested tool calls against the provider. Every
// fault becomes an error Outcome: unknown tools fail fast without touching
// the provider, remote calls get exactly one attempt bounded by the per-call
// timeout.
type Invoker struct {
	provider Provider
	timeout  time.Duration
}

func NewInvoker(provider Provider, timeout time.Duration) *Invoker {
	return &Invoker{provider: provider, timeout: timeout}
}

func (inv *Invoker) Invoke(ctx context.Context, snap *catalog.Snapshot, req oracle.ToolCallRequest) Outcome {
	started := time.Now()
	outcome := Outcome{Name: req.Name}

	if strings.TrimSpace(req.Name) == "" {
		outcome.Err = "tool call has no name"
		outcome.Duration = time.Since(started)
		return outcome
	}

	if req.Name == ReadResourceToolName {
		outcome = inv.readResource(ctx, req)
		outcome.Duration = time.Since(started)
		return outcome
	}

	desc, ok := snapshotTool(snap, req.Name)
	if !ok {
		outcome.Err = fmt.Sprintf("unknown tool: %s", req.Name)
		outcome.Duration = time.Since(started)
		return outcome
	}
	if err := catalog.ValidateArguments(desc, req.Arguments); err != nil {
		outcome.Err = fmt.Sprintf("invalid arguments for %s: %v", req.Name, err)
		outcome.Duration = time.Since(started)
		return outcome
	}

	callCtx, cancel := inv.callContext(ctx)
	defer cancel()

	result, err := inv.provider.InvokeTool(callCtx, req.Name, req.Arguments)
	outcome.Duration = time.Since(started)
	if err != nil {
		outcome.Err = fmt.Sprintf("tool %s failed: %v", req.Name, err)
		return outcome
	}
	outcome.Output = result.Text
	if result.IsError {
		outcome.Err = result.Text
		if outcome.Err == "" {
			outcome.Err = fmt.Sprintf("tool %s reported an error", req.Name)
		}
	}
	return outcome
}

func (inv *Invoker) readResource(ctx context.Context, req oracle.ToolCallRequest) Outcome {
	outcome := Outcome{Name: ReadResourceToolName}
	uri, _ := req.Arguments["uri"].(string)
	if strings.TrimSpace(uri) == "" {
		outcome.Err = "read_resource requires a non-empty uri argument"
		return outcome
	}

	callCtx, cancel := inv.callContext(ctx)
	defer cancel()

	text, err := inv.provider.ReadResource(callCtx, uri)
	if err != nil {
		outcome.Err = fmt.Sprintf("resource %s failed: %v", uri, err)
		return outcome
	}
	outcome.Output = text
	return outcome
}

func (inv *Invoker) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if inv.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, inv.timeout)
}

func snapshotTool(snap *catalog.Snapshot, name string) (catalog.ToolDescriptor, bool) {
	if snap == nil {
		return catalog.ToolDescriptor{}, false
	}
	return snap.Tool(name)
}
