// Command migrate runs schema operations for the blog database.
package main

import (
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"sensive/internal/config"
	"sensive/internal/database"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func usage() error {
	return fmt.Errorf("usage: go run ./cmd/migrate <up|status>")
}

func run() error {
	flag.Parse()
	if flag.NArg() < 1 {
		return usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(flag.Arg(0))) {
	case "up":
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Println("automigrations applied")
	case "status":
		status, err := database.TableStatus(db)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		tables := make([]string, 0, len(status))
		for table := range status {
			tables = append(tables, table)
		}
		sort.Strings(tables)
		missing := 0
		for _, table := range tables {
			state := "ok"
			if !status[table] {
				state = "missing"
				missing++
			}
			log.Printf("%-12s %s", table, state)
		}
		if missing > 0 {
			return fmt.Errorf("%d tables missing, run: go run ./cmd/migrate up", missing)
		}
	default:
		return usage()
	}
	return nil
}
