// Package mcpserver exposes the mock Cassandra administration surface as an
// MCP server: seven tools plus a handful of read-only resources. It is the
// provider the chat service talks to in the demo deployment.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/cexll/cassdoctor/pkg/cassandra"
)

const (
	serverName    = "cassdoctor-mcp"
	serverVersion = "0.1.0"
)

// Providers bundles the backends the tools delegate to.
type Providers struct {
	Inventory cassandra.Inventory
	Metrics   cassandra.Metrics
	Logs      cassandra.Logs
	Nodes     cassandra.NodeController
}

// MockProviders wires the fixture-backed mock implementations.
func MockProviders() Providers {
	inventory := cassandra.NewMockInventory()
	return Providers{
		Inventory: inventory,
		Metrics:   cassandra.NewMockMetrics(),
		Logs:      cassandra.NewMockLogs(),
		Nodes:     cassandra.NewMockNodeCtl(inventory),
	}
}

// New builds the MCP server with every tool and resource registered.
func New(p Providers) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: serverVersion}, nil)
	registerTools(server, p)
	registerResources(server, p)
	return server
}

// RunStdio serves one client over stdin/stdout until it disconnects.
func RunStdio(ctx context.Context, p Providers) error {
	return New(p).Run(ctx, &mcpsdk.StdioTransport{})
}

// Handler serves the MCP server over streamable HTTP.
func Handler(server *mcpsdk.Server) http.Handler {
	return mcpsdk.NewStreamableHTTPHandler(func(*http.Request) *mcpsdk.Server {
		return server
	}, nil)
}

func registerTools(server *mcpsdk.Server, p Providers) {
	server.AddTool(&mcpsdk.Tool{
		Name:        "list_clusters",
		Description: "List managed Cassandra clusters, optionally for one customer.",
		InputSchema: objectSchema(map[string]any{
			"customer": map[string]any{"type": "string", "description": "Customer name; omit for the whole fleet"},
		}),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args struct {
			Customer string `json:"customer"`
		}
		if res := decodeArgs(req, &args); res != nil {
			return res, nil
		}
		return jsonResult(p.Inventory.ListClusters(args.Customer))
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "cluster_overview",
		Description: "Topology overview (datacenters, racks, nodes) for one cluster.",
		InputSchema: objectSchema(map[string]any{
			"customer": map[string]any{"type": "string"},
			"cluster":  map[string]any{"type": "string"},
		}, "customer", "cluster"),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args struct {
			Customer string `json:"customer"`
			Cluster  string `json:"cluster"`
		}
		if res := decodeArgs(req, &args); res != nil {
			return res, nil
		}
		topo, ok := p.Inventory.Topology(args.Customer, args.Cluster)
		if !ok {
			return errorResult("unknown cluster %s/%s", args.Customer, args.Cluster), nil
		}
		return jsonResult(topo)
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "node_health",
		Description: "Point-in-time health snapshot for one node.",
		InputSchema: objectSchema(map[string]any{
			"customer": map[string]any{"type": "string"},
			"cluster":  map[string]any{"type": "string"},
			"node":     map[string]any{"type": "string"},
		}, "customer", "cluster", "node"),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args struct {
			Customer string `json:"customer"`
			Cluster  string `json:"cluster"`
			Node     string `json:"node"`
		}
		if res := decodeArgs(req, &args); res != nil {
			return res, nil
		}
		return jsonResult(p.Metrics.NodeHealth(args.Customer, args.Cluster, args.Node))
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "query_metrics",
		Description: "Query a metric time series for one cluster.",
		InputSchema: objectSchema(map[string]any{
			"customer": map[string]any{"type": "string"},
			"cluster":  map[string]any{"type": "string"},
			"metric":   map[string]any{"type": "string", "description": "e.g. p99_read_latency_ms, pending_compactions"},
			"window":   map[string]any{"type": "string", "description": "Lookback window, default 15m"},
		}, "customer", "cluster", "metric"),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args struct {
			Customer string `json:"customer"`
			Cluster  string `json:"cluster"`
			Metric   string `json:"metric"`
			Window   string `json:"window"`
		}
		if res := decodeArgs(req, &args); res != nil {
			return res, nil
		}
		return jsonResult(p.Metrics.Query(args.Customer, args.Cluster, args.Metric, args.Window))
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "fetch_logs",
		Description: "Fetch recent log lines for a cluster, optionally filtered by node and pattern.",
		InputSchema: objectSchema(map[string]any{
			"customer": map[string]any{"type": "string"},
			"cluster":  map[string]any{"type": "string"},
			"node":     map[string]any{"type": "string"},
			"pattern":  map[string]any{"type": "string"},
			"since":    map[string]any{"type": "string", "description": "Lookback window, default 15m"},
			"limit":    map[string]any{"type": "integer", "description": "Max lines, capped at 10"},
		}, "customer", "cluster"),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args struct {
			Customer string `json:"customer"`
			Cluster  string `json:"cluster"`
			Node     string `json:"node"`
			Pattern  string `json:"pattern"`
			Since    string `json:"since"`
			Limit    int    `json:"limit"`
		}
		if res := decodeArgs(req, &args); res != nil {
			return res, nil
		}
		return jsonResult(p.Logs.Fetch(args.Customer, args.Cluster, args.Node, args.Pattern, args.Since, args.Limit))
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "restart_node",
		Description: "Restart one node. Simulated: no real action is taken.",
		InputSchema: objectSchema(map[string]any{
			"customer": map[string]any{"type": "string"},
			"cluster":  map[string]any{"type": "string"},
			"node":     map[string]any{"type": "string"},
		}, "customer", "cluster", "node"),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args struct {
			Customer string `json:"customer"`
			Cluster  string `json:"cluster"`
			Node     string `json:"node"`
		}
		if res := decodeArgs(req, &args); res != nil {
			return res, nil
		}
		return jsonResult(p.Nodes.RestartNode(args.Customer, args.Cluster, args.Node))
	})

	server.AddTool(&mcpsdk.Tool{
		Name:        "advise_capacity",
		Description: "Recommend a node count for one cluster based on recent load.",
		InputSchema: objectSchema(map[string]any{
			"customer": map[string]any{"type": "string"},
			"cluster":  map[string]any{"type": "string"},
		}, "customer", "cluster"),
	}, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		var args struct {
			Customer string `json:"customer"`
			Cluster  string `json:"cluster"`
		}
		if res := decodeArgs(req, &args); res != nil {
			return res, nil
		}
		return jsonResult(p.Nodes.AdviseCapacity(args.Customer, args.Cluster))
	})
}

// decodeArgs unmarshals the call arguments; a decode failure is reported to
// the caller as a tool error, not a protocol error.
func decodeArgs(req *mcpsdk.CallToolRequest, dst any) *mcpsdk.CallToolResult {
	if len(req.Params.Arguments) == 0 {
		return nil
	}
	if err := json.Unmarshal(req.Params.Arguments, dst); err != nil {
		return errorResult("invalid arguments: %v", err)
	}
	return nil
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func jsonResult(v any) (*mcpsdk.CallToolResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(raw)}},
	}, nil
}

func errorResult(format string, args ...any) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}
