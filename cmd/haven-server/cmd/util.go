// Package cmd provides CLI utility commands for haven-server.
//
// The commands talk to a running daemon over its message service
// socket, each on its own ephemeral connection.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
)

// ExecuteUtil runs a utility command with the given arguments.
func ExecuteUtil(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("util command requires a subcommand\n\nAvailable subcommands:\n" +
			"  nodes               List HA registry nodes\n" +
			"  remove-node         Remove a node from the HA registry\n" +
			"  set-failover-delay  Change the cluster failover delay")
	}

	subcommand := args[0]
	subArgs := args[1:]

	switch subcommand {
	case "nodes":
		return ExecuteNodes(subArgs)
	case "remove-node":
		return ExecuteRemoveNode(subArgs)
	case "set-failover-delay":
		return ExecuteSetFailoverDelay(subArgs)
	default:
		return fmt.Errorf("unknown util subcommand: %s", subcommand)
	}
}

// getEnv retrieves an environment variable with a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// defaultSocketPath mirrors the daemon's runtime directory default.
func defaultSocketPath() string {
	return filepath.Join(getEnv("HAVEN_RUNTIME_DIR", "/tmp"), "haven-ha.sock")
}
