package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

const customersURI = "cassandra://inventory/customers"

const twcsRunbookURI = "cassandra://runbooks/twcs.md"

const twcsRunbook = `# Runbook: switching a table to TWCS

TimeWindowCompactionStrategy suits append-only, TTL'd time series tables.

1. Confirm the workload: no updates or deletes to old rows, uniform TTL.
2. Pick a window so the table ends up with 20-30 windows total, e.g.
   'compaction = {'class': 'TimeWindowCompactionStrategy',
   'compaction_window_unit': 'DAYS', 'compaction_window_size': 1}'.
3. ALTER TABLE during low traffic; compactions will rewrite data gradually.
4. Watch pending_compactions and sstables-per-read for the next 24h.
5. Roll back to the previous strategy if read latency regresses.
`

func registerResources(server *mcpsdk.Server, p Providers) {
	server.AddResource(&mcpsdk.Resource{
		URI:         customersURI,
		Name:        "customers",
		Description: "Customer names with managed Cassandra fleets.",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		return jsonResource(customersURI, p.Inventory.ListCustomers())
	})

	for _, customer := range p.Inventory.ListCustomers() {
		clustersURI := fmt.Sprintf("cassandra://inventory/%s/clusters", customer)
		server.AddResource(&mcpsdk.Resource{
			URI:         clustersURI,
			Name:        fmt.Sprintf("clusters-%s", customer),
			Description: fmt.Sprintf("Clusters managed for %s.", customer),
			MIMEType:    "application/json",
		}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
			return jsonResource(clustersURI, p.Inventory.ListClusters(customer))
		})

		for _, cluster := range p.Inventory.ListClusters(customer) {
			topo, ok := p.Inventory.Topology(customer, cluster.Name)
			if !ok {
				continue
			}
			uri := fmt.Sprintf("cassandra://cluster/%s/%s/topology", customer, cluster.Name)
			topoCopy := topo
			server.AddResource(&mcpsdk.Resource{
				URI:         uri,
				Name:        fmt.Sprintf("topology-%s-%s", customer, cluster.Name),
				Description: fmt.Sprintf("DC/rack/node topology of %s/%s.", customer, cluster.Name),
				MIMEType:    "application/json",
			}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
				return jsonResource(uri, topoCopy)
			})
		}
	}

	server.AddResource(&mcpsdk.Resource{
		URI:         twcsRunbookURI,
		Name:        "twcs-runbook",
		Description: "Runbook for moving a table to TimeWindowCompactionStrategy.",
		MIMEType:    "text/markdown",
	}, func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		return &mcpsdk.ReadResourceResult{
			Contents: []*mcpsdk.ResourceContents{{
				URI:      twcsRunbookURI,
				MIMEType: "text/markdown",
				Text:     twcsRunbook,
			}},
		}, nil
	})
}

func jsonResource(uri string, v any) (*mcpsdk.ReadResourceResult, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcpsdk.ReadResourceResult{
		Contents: []*mcpsdk.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(raw),
		}},
	}, nil
}
