// Command seedcodes inserts activation codes into the configured store.
// Codes are created out-of-band of the API, so this is the admin path for
// minting them:
//
//	seedcodes CODE1 CODE2 ...
//
// With no arguments it seeds the default test code ABC123.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"

	"referral-api/internal/config"
	"referral-api/internal/database"
	"referral-api/internal/store"
)

const defaultTestCode = "ABC123"

func main() {
	if err := run(); err != nil {
		log.Fatalf("seedcodes: %v", err)
	}
}

func run() error {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	accountStore, cleanup, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	codes := flag.Args()
	if len(codes) == 0 {
		codes = []string{defaultTestCode}
	}

	ctx := context.Background()
	for _, code := range codes {
		err := accountStore.InsertActivationCode(ctx, code)
		switch {
		case err == nil:
			fmt.Printf("inserted activation code %s\n", code)
		case errors.Is(err, store.ErrDuplicateCode):
			fmt.Printf("activation code %s already exists, skipping\n", code)
		default:
			return fmt.Errorf("failed to insert %s: %w", code, err)
		}
	}

	return nil
}

func openStore(cfg *config.Config) (store.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		sqlDB, err := sql.Open("postgres", cfg.Database.ConnectionString())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open database: %w", err)
		}
		if err := sqlDB.Ping(); err != nil {
			sqlDB.Close()
			return nil, nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := database.RunMigrations(sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		db := database.NewBunDB(sqlDB)
		return store.NewPostgresStore(db), func() { db.Close() }, nil

	case config.BackendFile:
		fileStore, err := store.NewFileStore(cfg.Store.UsersFile, cfg.Store.CodesFile)
		if err != nil {
			return nil, nil, err
		}
		return fileStore, func() {}, nil

	case config.BackendMemory:
		// Nothing to seed in a process-local store.
		fmt.Fprintln(os.Stderr, "seedcodes: STORE_BACKEND=memory holds data only for the owning process")
		return nil, nil, fmt.Errorf("cannot seed the memory backend")

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
