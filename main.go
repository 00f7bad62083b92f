package main

import (
	"flag"
	"log"

	panelsApp "panels/internal/app"
	"panels/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to a TOML config file (default $PANELS_CONFIG or ~/.config/panels/config.toml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := panelsApp.ServeMCP(cfg); err != nil {
		log.Fatalf("MCP server error: %v", err)
	}
}
