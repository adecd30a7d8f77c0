package cmd

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"haven.io/server/internal/ha"
	"haven.io/server/internal/registry"
)

// ExecuteNodes lists the HA registry as reported by the running daemon.
func ExecuteNodes(args []string) error {
	fs := flag.NewFlagSet("nodes", flag.ExitOnError)
	socket := fs.String("socket", defaultSocketPath(), "Path to the HA manager socket")
	rawOut := fs.Bool("json", false, "Print the raw JSON node list")

	if err := fs.Parse(args); err != nil {
		return err
	}

	client := ha.NewAdminClient(*socket)
	raw, err := client.GetNodes()
	if err != nil {
		return fmt.Errorf("failed to get nodes: %w", err)
	}

	if *rawOut {
		fmt.Println(raw)
		return nil
	}

	var nodes []struct {
		NodeID        string `json:"nodeid"`
		Name          string `json:"name"`
		Status        int    `json:"status"`
		Address       string `json:"address"`
		LastAccessAge int64  `json:"lastaccess_age"`
	}
	if err := json.Unmarshal([]byte(raw), &nodes); err != nil {
		return fmt.Errorf("failed to parse node list: %w", err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tNAME\tSTATUS\tADDRESS\tLAST ACCESS")
	for i, n := range nodes {
		name := n.Name
		if name == "" {
			name = "<standalone>"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%ds ago\n",
			i+1, n.NodeID, name, registry.NodeStatus(n.Status), n.Address, n.LastAccessAge)
	}
	return w.Flush()
}
