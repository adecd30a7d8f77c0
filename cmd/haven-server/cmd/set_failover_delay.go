package cmd

import (
	"flag"
	"fmt"

	"haven.io/server/internal/ha"
)

// ExecuteSetFailoverDelay changes the cluster-wide failover delay.
func ExecuteSetFailoverDelay(args []string) error {
	fs := flag.NewFlagSet("set-failover-delay", flag.ExitOnError)
	socket := fs.String("socket", defaultSocketPath(), "Path to the HA manager socket")
	seconds := fs.Int("seconds", 0, "New failover delay in seconds")

	if err := fs.Parse(args); err != nil {
		return err
	}

	client := ha.NewAdminClient(*socket)
	if err := client.SetFailoverDelay(*seconds); err != nil {
		return fmt.Errorf("failed to set failover delay: %w", err)
	}

	fmt.Printf("failover delay set to %ds\n", *seconds)
	return nil
}
