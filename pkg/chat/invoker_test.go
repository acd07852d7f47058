package chat

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cexll/cassdoctor/pkg/catalog"
	"github.com/cexll/cassdoctor/pkg/mcpclient"
	"github.com/cexll/cassdoctor/pkg/oracle"
)

func testSnapshot() *catalog.Snapshot {
	return &catalog.Snapshot{
		Tools: []catalog.ToolDescriptor{{
			Name: "fetch_logs",
			Schema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"customer": {"type": "string"},
					"limit":    {"type": "integer"}
				},
				"required": ["customer"]
			}`),
		}},
	}
}

func TestInvokeValidationFailureSkipsProvider(t *testing.T) {
	provider := &fakeProvider{}
	inv := NewInvoker(provider, 0)

	outcome := inv.Invoke(context.Background(), testSnapshot(), oracle.ToolCallRequest{
		Name:      "fetch_logs",
		Arguments: map[string]any{"limit": 5},
	})
	require.Contains(t, outcome.Err, "missing required field: customer")
	require.Equal(t, 0, provider.invokeCalls)

	outcome = inv.Invoke(context.Background(), testSnapshot(), oracle.ToolCallRequest{
		Name:      "fetch_logs",
		Arguments: map[string]any{"customer": "Contoso", "limit": "ten"},
	})
	require.Contains(t, outcome.Err, "field limit")
	require.Equal(t, 0, provider.invokeCalls)
}

func TestInvokeToolErrorResult(t *testing.T) {
	provider := &fakeProvider{
		invoke: func(name string, args map[string]any) (*mcpclient.ToolCallResult, error) {
			return &mcpclient.ToolCallResult{Text: "keyspace not found", IsError: true}, nil
		},
	}
	inv := NewInvoker(provider, 0)

	outcome := inv.Invoke(context.Background(), testSnapshot(), oracle.ToolCallRequest{
		Name:      "fetch_logs",
		Arguments: map[string]any{"customer": "Contoso"},
	})
	require.Equal(t, "keyspace not found", outcome.Err)
	require.Equal(t, "keyspace not found", outcome.Output)
	require.Equal(t, 1, provider.invokeCalls)
}

func TestInvokeTimeout(t *testing.T) {
	slow := &slowProvider{delay: 200 * time.Millisecond}
	inv := NewInvoker(slow, 10*time.Millisecond)

	outcome := inv.Invoke(context.Background(), testSnapshot(), oracle.ToolCallRequest{
		Name:      "fetch_logs",
		Arguments: map[string]any{"customer": "Contoso"},
	})
	require.Contains(t, outcome.Err, "fetch_logs failed")
	require.Contains(t, outcome.Err, "deadline")
}

type slowProvider struct {
	delay time.Duration
}

func (p *slowProvider) InvokeTool(ctx context.Context, name string, args map[string]any) (*mcpclient.ToolCallResult, error) {
	select {
	case <-time.After(p.delay):
		return &mcpclient.ToolCallResult{Text: "slow"}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *slowProvider) ReadResource(ctx context.Context, uri string) (string, error) {
	return "", ctx.Err()
}

func TestInvokeReadResourceMissingURI(t *testing.T) {
	provider := &fakeProvider{}
	inv := NewInvoker(provider, 0)

	outcome := inv.Invoke(context.Background(), testSnapshot(), oracle.ToolCallRequest{
		Name:      ReadResourceToolName,
		Arguments: map[string]any{},
	})
	require.Contains(t, outcome.Err, "uri")
	require.Equal(t, 0, provider.readCalls)
}

func TestInvokeEmptyName(t *testing.T) {
	inv := NewInvoker(&fakeProvider{}, 0)
	outcome := inv.Invoke(context.Background(), testSnapshot(), oracle.ToolCallRequest{})
	require.Contains(t, outcome.Err, "no name")
}
