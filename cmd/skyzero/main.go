/*
main.go - Application entry point

PURPOSE:
  Runs the skyzero CLI. Every subcommand shares the same configuration,
  logger and SQLite database; serve additionally runs the HTTP API.

COMMANDS:
  serve                          HTTP API, snapshot refresher, graceful shutdown
  summary [--remote] [--json]    Print the offset summary
  export [--out file]            Write the offset report PDF
  strategy list|add|remove|set   Edit the strategy list

CONFIGURATION:
  defaults < YAML file (--config or SKYZERO_CONFIG) < SKYZERO_* env < flags

EXAMPLES:
  # Serve the dashboard API on the default port (5000)
  skyzero serve

  # Throwaway database
  skyzero serve --db=":memory:"

  # Plan against the live feed of a running server
  skyzero summary --remote

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Configuration sections
*/
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
