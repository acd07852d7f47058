package cassandra

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

// Fixture data mirrors a small two-customer fleet. Real providers would be
// backed by a CMDB, a metrics store, and a log pipeline; these generators
// exist so the tool surface has believable data to serve.

var mockCustomers = []string{"Contoso", "Fabrikam"}

var mockClusters = map[string][]Cluster{
	"Contoso": {
		{Name: "nova-preprod", Version: "4.1.3", DCs: []string{"WEU", "WUS"}},
		{Name: "nova-prod", Version: "4.1.3", DCs: []string{"WEU", "EUS2"}},
	},
	"Fabrikam": {
		{Name: "fab-analytics", Version: "3.11.16", DCs: []string{"IND", "WEU"}},
	},
}

var mockTopologies = map[string]Topology{
	"Contoso/nova-preprod": {
		Cluster: "nova-preprod", Version: "4.1.3",
		DCs: []Datacenter{
			{Name: "WEU", Racks: []Rack{{Name: "rack1", Nodes: []string{"10.0.0.10", "10.0.0.11"}}}},
			{Name: "WUS", Racks: []Rack{{Name: "rack1", Nodes: []string{"10.1.0.20", "10.1.0.21"}}}},
		},
	},
	"Contoso/nova-prod": {
		Cluster: "nova-prod", Version: "4.1.3",
		DCs: []Datacenter{
			{Name: "WEU", Racks: []Rack{{Name: "rack1", Nodes: []string{"10.0.1.10", "10.0.1.11", "10.0.1.12"}}}},
		},
	},
	"Fabrikam/fab-analytics": {
		Cluster: "fab-analytics", Version: "3.11.16",
		DCs: []Datacenter{
			{Name: "IND", Racks: []Rack{{Name: "rack1", Nodes: []string{"10.9.0.5", "10.9.0.6"}}}},
		},
	},
}

func topologyKey(customer, cluster string) string {
	return customer + "/" + cluster
}

// MockInventory serves the fixture fleet.
type MockInventory struct{}

// NewMockInventory constructs a MockInventory.
func NewMockInventory() *MockInventory { return &MockInventory{} }

// ListCustomers returns every known customer.
func (*MockInventory) ListCustomers() []string {
	out := make([]string, len(mockCustomers))
	copy(out, mockCustomers)
	return out
}

// ListClusters returns the clusters of one customer, or the whole fleet with
// the customer filled in when customer is empty.
func (*MockInventory) ListClusters(customer string) []Cluster {
	if customer != "" {
		src := mockClusters[customer]
		out := make([]Cluster, len(src))
		copy(out, src)
		return out
	}
	var out []Cluster
	for _, c := range mockCustomers {
		for _, cl := range mockClusters[c] {
			cl.Customer = c
			out = append(out, cl)
		}
	}
	return out
}

// Topology returns the DC/rack/node layout for one cluster.
func (*MockInventory) Topology(customer, cluster string) (Topology, bool) {
	topo, ok := mockTopologies[topologyKey(customer, cluster)]
	return topo, ok
}

// MockMetrics generates randomized but plausible series and snapshots.
type MockMetrics struct {
	rng *rand.Rand
	now func() time.Time
}

// NewMockMetrics constructs a MockMetrics with its own RNG.
func NewMockMetrics() *MockMetrics {
	return &MockMetrics{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

// Query produces a 15-point, one-minute-resolution series for the metric.
func (m *MockMetrics) Query(customer, cluster, metric, window string) MetricSeries {
	if window == "" {
		window = "15m"
	}
	now := m.now().Unix()
	series := make([]MetricPoint, 0, 15)
	for i := 14; i >= 0; i-- {
		series = append(series, MetricPoint{
			T: now - int64(i)*60,
			V: roundTo(1+m.rng.Float64()*19, 2),
		})
	}
	return MetricSeries{Customer: customer, Cluster: cluster, Metric: metric, Window: window, Series: series}
}

// NodeHealth produces a randomized health snapshot; status is always UN.
func (m *MockMetrics) NodeHealth(customer, cluster, node string) NodeHealth {
	return NodeHealth{
		Customer:           customer,
		Cluster:            cluster,
		Node:               node,
		Status:             "UN",
		LoadGB:             roundTo(50+m.rng.Float64()*250, 1),
		PendingCompactions: m.rng.Intn(31),
		LatencyMSP99:       roundTo(2+m.rng.Float64()*38, 1),
		ReadTimeoutRate:    roundTo(m.rng.Float64()*0.5, 3),
		DiskPct:            35 + m.rng.Intn(51),
	}
}

// MockLogs emits synthetic compaction log lines.
type MockLogs struct {
	now func() time.Time
}

// NewMockLogs constructs a MockLogs.
func NewMockLogs() *MockLogs {
	return &MockLogs{now: time.Now}
}

// Fetch returns up to limit synthetic lines, filtered by pattern when set.
func (l *MockLogs) Fetch(customer, cluster, node, pattern, since string, limit int) LogBatch {
	if since == "" {
		since = "15m"
	}
	if limit <= 0 || limit > 10 {
		limit = 10
	}
	host := node
	if host == "" {
		host = "10.0.0.10"
	}
	stamp := l.now().Format("2006-01-02T15:04:05")
	lines := make([]string, 0, limit)
	for i := 0; i < limit; i++ {
		lines = append(lines, fmt.Sprintf("%s [%s] INFO CompactionTask - Completed SSTable compaction.", stamp, host))
	}
	if pattern != "" {
		filtered := lines[:0]
		needle := strings.ToLower(pattern)
		for _, ln := range lines {
			if strings.Contains(strings.ToLower(ln), needle) {
				filtered = append(filtered, ln)
			}
		}
		lines = filtered
	}
	return LogBatch{Customer: customer, Cluster: cluster, Node: node, Since: since, Count: len(lines), Lines: lines}
}

// MockNodeCtl simulates control actions without side effects.
type MockNodeCtl struct {
	inventory Inventory
}

// NewMockNodeCtl constructs a MockNodeCtl using inv for topology lookups.
func NewMockNodeCtl(inv Inventory) *MockNodeCtl {
	return &MockNodeCtl{inventory: inv}
}

// RestartNode pretends to restart a node and reports SIMULATED_OK.
func (*MockNodeCtl) RestartNode(customer, cluster, node string) ControlResult {
	return ControlResult{
		Customer: customer,
		Cluster:  cluster,
		Node:     node,
		Action:   "restart",
		Status:   "SIMULATED_OK",
	}
}

// AdviseCapacity suggests adding two nodes to whatever the cluster has now.
func (c *MockNodeCtl) AdviseCapacity(customer, cluster string) CapacityAdvice {
	nodeCount := 3
	if topo, ok := c.inventory.Topology(customer, cluster); ok {
		nodeCount = 0
		for _, dc := range topo.DCs {
			for _, rack := range dc.Racks {
				nodeCount += len(rack.Nodes)
			}
		}
	}
	advice := CapacityAdvice{Customer: customer, Cluster: cluster}
	advice.Advice.CurrentNodes = nodeCount
	advice.Advice.SuggestedNodes = nodeCount + 2
	advice.Advice.Rationale = "High tail latency and/or disk > 80% in last 1h (mock)."
	return advice
}

func roundTo(v float64, places int) float64 {
	shift := 1.0
	for i := 0; i < places; i++ {
		shift *= 10
	}
	return float64(int64(v*shift+0.5)) / shift
}

var (
	_ Inventory      = (*MockInventory)(nil)
	_ Metrics        = (*MockMetrics)(nil)
	_ Logs           = (*MockLogs)(nil)
	_ NodeController = (*MockNodeCtl)(nil)
)
