package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	questcmd "github.com/louisbranch/chronoquest/internal/cmd/quest"
)

func main() {
	cfg, err := questcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[QUEST] ")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := questcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
