package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	encountercmd "github.com/louisbranch/initiative-engine/internal/cmd/encounter"
)

// main starts the encounter MCP server on stdio or HTTP.
func main() {
	cfg, err := encountercmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[ENCOUNTER] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := encountercmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve encounters: %v", err)
	}
}
