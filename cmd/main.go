package main

import (
	"errors"
	"log/slog"
	"os"

	"github.com/ErikPelli/MinecraftWorldServer"
)

func main() {
	cfg, err := MinecraftWorldServer.LoadConfig("server.yaml")
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Error("invalid server.yaml", "error", err)
		os.Exit(1)
	}

	server := MinecraftWorldServer.NewServer(cfg)
	if err := server.Start(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
