package cassandra

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMockInventory(t *testing.T) {
	inv := NewMockInventory()

	require.Equal(t, []string{"Contoso", "Fabrikam"}, inv.ListCustomers())

	all := inv.ListClusters("")
	require.Len(t, all, 3)
	for _, cl := range all {
		require.NotEmpty(t, cl.Customer)
		require.NotEmpty(t, cl.Name)
	}

	contoso := inv.ListClusters("Contoso")
	require.Len(t, contoso, 2)
	require.Equal(t, "nova-preprod", contoso[0].Name)

	require.Empty(t, inv.ListClusters("Unknown"))

	topo, ok := inv.Topology("Contoso", "nova-prod")
	require.True(t, ok)
	require.Equal(t, "nova-prod", topo.Cluster)
	require.Len(t, topo.DCs, 1)
	require.Len(t, topo.DCs[0].Racks[0].Nodes, 3)

	_, ok = inv.Topology("Contoso", "missing")
	require.False(t, ok)
}

func TestMockMetrics(t *testing.T) {
	m := NewMockMetrics()

	series := m.Query("Contoso", "nova-prod", "read_p99_ms", "")
	require.Equal(t, "15m", series.Window)
	require.Len(t, series.Series, 15)
	for i := 1; i < len(series.Series); i++ {
		require.Greater(t, series.Series[i].T, series.Series[i-1].T, "series must be time-ascending")
	}
	for _, p := range series.Series {
		require.GreaterOrEqual(t, p.V, 1.0)
		require.LessOrEqual(t, p.V, 20.0)
	}

	health := m.NodeHealth("Contoso", "nova-prod", "10.0.1.10")
	require.Equal(t, "UN", health.Status)
	require.GreaterOrEqual(t, health.DiskPct, 35)
	require.LessOrEqual(t, health.DiskPct, 85)
	require.LessOrEqual(t, health.ReadTimeoutRate, 0.5)
}

func TestMockLogs(t *testing.T) {
	logs := NewMockLogs()

	batch := logs.Fetch("Contoso", "nova-prod", "", "", "", 200)
	require.Equal(t, 10, batch.Count, "limit is capped at 10 synthetic lines")
	require.Len(t, batch.Lines, 10)
	require.Contains(t, batch.Lines[0], "10.0.0.10")

	filtered := logs.Fetch("Contoso", "nova-prod", "10.0.1.11", "compaction", "5m", 3)
	require.Equal(t, 3, filtered.Count)
	for _, ln := range filtered.Lines {
		require.Contains(t, ln, "10.0.1.11")
		require.Contains(t, ln, "CompactionTask")
	}

	none := logs.Fetch("Contoso", "nova-prod", "", "no-such-pattern", "5m", 5)
	require.Zero(t, none.Count)
}

func TestMockNodeCtl(t *testing.T) {
	ctl := NewMockNodeCtl(NewMockInventory())

	res := ctl.RestartNode("Contoso", "nova-prod", "10.0.1.10")
	require.Equal(t, "restart", res.Action)
	require.Equal(t, "SIMULATED_OK", res.Status)

	advice := ctl.AdviseCapacity("Contoso", "nova-prod")
	require.Equal(t, 3, advice.Advice.CurrentNodes)
	require.Equal(t, 5, advice.Advice.SuggestedNodes)

	fallback := ctl.AdviseCapacity("Unknown", "missing")
	require.Equal(t, 3, fallback.Advice.CurrentNodes)
	require.Equal(t, 5, fallback.Advice.SuggestedNodes)
}
