package chat

import (
	"context"
	"errors"

	"github.com/cexll/cassdoctor/pkg/oracle"
)

// Hook allows callers to observe the important moments of a turn: each
// oracle round and each tool invocation. Pre hooks may veto by returning an
// error; post hooks run unconditionally and their errors are collected.
type Hook interface {
	PreRound(ctx context.Context, round int) error
	PostDecision(ctx context.Context, round int, decision *oracle.Decision) error
	PreToolCall(ctx context.Context, name string, args map[string]any) error
	PostToolCall(ctx context.Context, outcome Outcome) error
}

// NopHook offers a convenient zero-cost implementation for optional methods.
type NopHook struct{}

func (NopHook) PreRound(context.Context, int) error                       { return nil }
func (NopHook) PostDecision(context.Context, int, *oracle.Decision) error { return nil }
func (NopHook) PreToolCall(context.Context, string, map[string]any) error { return nil }
func (NopHook) PostToolCall(context.Context, Outcome) error               { return nil }

func runHooks(hooks []Hook, collect bool, fn func(Hook) error) error {
	var combined error
	for _, h := range hooks {
		if h == nil {
			continue
		}
		if err := fn(h); err != nil {
			if !collect {
				return err
			}
			combined = errors.Join(combined, err)
		}
	}
	return combined
}
