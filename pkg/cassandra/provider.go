package cassandra

// Cluster describes one managed Cassandra cluster.
type Cluster struct {
	Customer string   `json:"customer,omitempty"`
	Name     string   `json:"name"`
	Version  string   `json:"version"`
	DCs      []string `json:"dcs"`
}

// Rack groups the nodes sharing a failure domain inside a datacenter.
type Rack struct {
	Name  string   `json:"name"`
	Nodes []string `json:"nodes"`
}

// Datacenter is one DC of a cluster topology.
type Datacenter struct {
	Name  string `json:"name"`
	Racks []Rack `json:"racks"`
}

// Topology is the full DC/rack/node layout of a cluster.
type Topology struct {
	Cluster string       `json:"cluster"`
	Version string       `json:"version"`
	DCs     []Datacenter `json:"dcs"`
}

// MetricPoint is one sample of a metric time series.
type MetricPoint struct {
	T int64   `json:"t"`
	V float64 `json:"v"`
}

// MetricSeries is the result of a metric query.
type MetricSeries struct {
	Customer string        `json:"customer"`
	Cluster  string        `json:"cluster"`
	Metric   string        `json:"metric"`
	Window   string        `json:"window"`
	Series   []MetricPoint `json:"series"`
}

// NodeHealth is a point-in-time health snapshot for one node.
type NodeHealth struct {
	Customer           string  `json:"customer"`
	Cluster            string  `json:"cluster"`
	Node               string  `json:"node"`
	Status             string  `json:"status"`
	LoadGB             float64 `json:"load_gb"`
	PendingCompactions int     `json:"pending_compactions"`
	LatencyMSP99       float64 `json:"latency_ms_p99"`
	ReadTimeoutRate    float64 `json:"read_timeout_rate"`
	DiskPct            int     `json:"disk_pct"`
}

// LogBatch carries the log lines matched by a fetch.
type LogBatch struct {
	Customer string   `json:"customer"`
	Cluster  string   `json:"cluster"`
	Node     string   `json:"node,omitempty"`
	Since    string   `json:"since"`
	Count    int      `json:"count"`
	Lines    []string `json:"lines"`
}

// ControlResult reports the outcome of a control action such as a restart.
type ControlResult struct {
	Customer string `json:"customer"`
	Cluster  string `json:"cluster"`
	Node     string `json:"node"`
	Action   string `json:"action"`
	Status   string `json:"status"`
}

// CapacityAdvice is a node-count recommendation for a cluster.
type CapacityAdvice struct {
	Customer string `json:"customer"`
	Cluster  string `json:"cluster"`
	Advice   struct {
		CurrentNodes   int    `json:"current_nodes"`
		SuggestedNodes int    `json:"suggested_nodes"`
		Rationale      string `json:"rationale"`
	} `json:"advice"`
}

// Inventory answers who the customers are and how their clusters are laid out.
type Inventory interface {
	ListCustomers() []string
	ListClusters(customer string) []Cluster
	Topology(customer, cluster string) (Topology, bool)
}

// Metrics serves metric time series and node health snapshots.
type Metrics interface {
	Query(customer, cluster, metric, window string) MetricSeries
	NodeHealth(customer, cluster, node string) NodeHealth
}

// Logs fetches recent log lines, optionally filtered by node and pattern.
type Logs interface {
	Fetch(customer, cluster, node, pattern, since string, limit int) LogBatch
}

// NodeController performs (simulated) control actions against nodes.
type NodeController interface {
	RestartNode(customer, cluster, node string) ControlResult
	AdviseCapacity(customer, cluster string) CapacityAdvice
}
