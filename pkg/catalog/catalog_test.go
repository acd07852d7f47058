package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	tools     []ToolDescriptor
	resources []ResourceDescriptor
	toolsErr  error
	resErr    error
	calls     int
}

func (f *fakeSource) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	f.calls++
	return f.tools, f.toolsErr
}

func (f *fakeSource) ListResources(ctx context.Context) ([]ResourceDescriptor, error) {
	return f.resources, f.resErr
}

func objectSchema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{}}`)
}

func TestSnapshotBeforeRefresh(t *testing.T) {
	c := New()
	_, err := c.Snapshot()
	require.ErrorIs(t, err, ErrNotInitialized)
	require.False(t, c.Initialized())
}

func TestRefreshAndSnapshot(t *testing.T) {
	c := New()
	src := &fakeSource{
		tools: []ToolDescriptor{
			{Name: "list_clusters", Description: "List clusters", Schema: objectSchema()},
			{Name: "node_health", Schema: objectSchema()},
		},
		resources: []ResourceDescriptor{
			{URI: "cassandra://inventory/customers", MIMEType: "application/json"},
		},
	}

	require.NoError(t, c.Refresh(context.Background(), src))
	require.True(t, c.Initialized())

	snap, err := c.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Tools, 2)
	require.Len(t, snap.Resources, 1)
	require.False(t, snap.FetchedAt.IsZero())

	desc, ok := snap.Tool("node_health")
	require.True(t, ok)
	require.Equal(t, "node_health", desc.Name)

	_, ok = snap.Tool("restart_node")
	require.False(t, ok)
}

func TestRefreshFailures(t *testing.T) {
	testCases := []struct {
		name string
		src  *fakeSource
	}{
		{name: "TransportError", src: &fakeSource{toolsErr: errors.New("connection refused")}},
		{name: "ResourceError", src: &fakeSource{resErr: errors.New("connection reset")}},
		{name: "MissingName", src: &fakeSource{tools: []ToolDescriptor{{Schema: objectSchema()}}}},
		{name: "MissingSchema", src: &fakeSource{tools: []ToolDescriptor{{Name: "x"}}}},
		{name: "InvalidSchemaJSON", src: &fakeSource{tools: []ToolDescriptor{{Name: "x", Schema: json.RawMessage("{")}}}},
		{name: "DuplicateName", src: &fakeSource{tools: []ToolDescriptor{
			{Name: "x", Schema: objectSchema()},
			{Name: "x", Schema: objectSchema()},
		}}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := New()
			err := c.Refresh(context.Background(), tc.src)
			var discErr *DiscoveryError
			require.ErrorAs(t, err, &discErr)
			require.False(t, c.Initialized())
		})
	}
}

func TestRefreshFailureKeepsPreviousSnapshot(t *testing.T) {
	c := New()
	good := &fakeSource{tools: []ToolDescriptor{{Name: "list_clusters", Schema: objectSchema()}}}
	require.NoError(t, c.Refresh(context.Background(), good))

	bad := &fakeSource{toolsErr: errors.New("boom")}
	require.Error(t, c.Refresh(context.Background(), bad))

	snap, err := c.Snapshot()
	require.NoError(t, err)
	require.Len(t, snap.Tools, 1)
}

func TestValidateArguments(t *testing.T) {
	desc := ToolDescriptor{
		Name: "fetch_logs",
		Schema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"customer": {"type": "string"},
				"cluster":  {"type": "string"},
				"limit":    {"type": "integer"},
				"verbose":  {"type": "boolean"}
			},
			"required": ["customer", "cluster"]
		}`),
	}

	require.NoError(t, ValidateArguments(desc, map[string]any{
		"customer": "Contoso",
		"cluster":  "nova-prod",
		"limit":    float64(10), // JSON numbers decode as float64
	}))

	err := ValidateArguments(desc, map[string]any{"customer": "Contoso"})
	require.ErrorContains(t, err, "missing required field: cluster")

	err = ValidateArguments(desc, map[string]any{
		"customer": "Contoso",
		"cluster":  "nova-prod",
		"limit":    "ten",
	})
	require.ErrorContains(t, err, "field limit")

	// Unknown properties pass through.
	require.NoError(t, ValidateArguments(desc, map[string]any{
		"customer": "Contoso",
		"cluster":  "nova-prod",
		"extra":    42,
	}))

	// Descriptors without schemas accept anything.
	require.NoError(t, ValidateArguments(ToolDescriptor{Name: "bare"}, nil))
}
