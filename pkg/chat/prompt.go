package chat

import (
	"fmt"
	"strings"

	"github.com/cexll/cassdoctor/pkg/catalog"
)

const basePrompt = `You are Cassandra Doctor, an SRE assistant that manages Apache Cassandra fleets for multiple customers.

Use the available tools to answer operational questions: inventory, topology, node health, metrics, logs, restarts and capacity planning. Prefer tool data over guesses. When a question needs data you do not have, call a tool first. Keep final answers short and concrete, and mention the customer and cluster you looked at.`

// BuildSystemPrompt renders the base prompt plus a listing of everything the
// provider currently advertises, so the oracle knows what it can ask for.
func BuildSystemPrompt(snap *catalog.Snapshot) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	if snap == nil {
		return b.String()
	}

	if len(snap.Tools) > 0 {
		b.WriteString("\n\nAVAILABLE TOOLS:\n")
		for _, tool := range snap.Tools {
			fmt.Fprintf(&b, "- %s: %s\n", tool.Name, tool.Description)
		}
	}

	if len(snap.Resources) > 0 {
		b.WriteString("\nAVAILABLE RESOURCES:\n")
		for _, res := range snap.Resources {
			desc := res.Description
			if desc == "" {
				desc = res.Name
			}
			fmt.Fprintf(&b, "- %s (%s): %s\n", res.URI, res.MIMEType, desc)
		}
		b.WriteString("\nCall the read_resource tool with a uri from the list above to read a resource.")
	}

	return b.String()
}
