package cmd

import (
	"flag"
	"fmt"

	"haven.io/server/internal/ha"
)

// ExecuteRemoveNode removes a node from the HA registry by its index
// in the node list. Active and standby nodes are refused.
func ExecuteRemoveNode(args []string) error {
	fs := flag.NewFlagSet("remove-node", flag.ExitOnError)
	socket := fs.String("socket", defaultSocketPath(), "Path to the HA manager socket")
	index := fs.Int("index", 0, "1-based node index as shown by the nodes subcommand")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if *index < 1 {
		return fmt.Errorf("a positive -index is required")
	}

	client := ha.NewAdminClient(*socket)
	if err := client.RemoveNode(*index); err != nil {
		return fmt.Errorf("failed to remove node: %w", err)
	}

	fmt.Printf("removed node %d\n", *index)
	return nil
}
