package main

import (
	"flag"
	"fmt"
	"log"

	"techhourse/internal/config"
)

func main() {
	path := flag.String("config", "config.json", "config file to check")
	flag.Parse()

	cfg, err := config.Load(*path)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	key := "(not set)"
	if cfg.Gateway.APIKey != "" {
		key = "(set)"
	}

	fmt.Println("Configuration loaded successfully!")
	fmt.Printf("Gateway: %s model=%s\n", cfg.Gateway.BaseURL, cfg.Gateway.Model)
	fmt.Printf("API Key: %s\n", key)
	fmt.Printf("Deadline: %v (transport %v)\n", cfg.Gateway.Deadline(), cfg.Gateway.TransportTimeout())
	fmt.Printf("Database: %s\n", cfg.Store.Path)
	fmt.Printf("Catalog: %s (watch=%v)\n", cfg.Catalog.ImportPath, cfg.Catalog.Watch)
	fmt.Printf("History: keep %d, show %d\n", cfg.History.MaxEntries, cfg.History.DisplayLimit)
	fmt.Printf("Server: %s\n", cfg.Server.Addr())
	fmt.Printf("Log Level: %s\n", cfg.Logging.Level)
}
