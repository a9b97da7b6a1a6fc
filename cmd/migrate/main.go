// Command migrate manages the records table schema.
//
// Usage:
//
//	migrate [-path db/migrations] up
//	migrate down
//	migrate steps -- -1
//	migrate force 3
//	migrate version
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"flatfeed/internal/config"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("migrate: %v", err)
	}
}

func run() error {
	var (
		path     = flag.String("path", "db/migrations", "directory holding the migration files")
		database = flag.String("database", "", "database URL (default from FLATFEED_DB_* config)")
	)
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		return fmt.Errorf("a command is required: up, down, steps N, force V, version")
	}

	dsn := *database
	if dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		dsn = cfg.DB.DSN()
	}

	m, err := migrate.New(sourceURL(*path), dsn)
	if err != nil {
		return fmt.Errorf("opening migrations at %s: %w", *path, err)
	}
	defer func() {
		if serr, derr := m.Close(); serr != nil || derr != nil {
			log.Printf("migrate: close: source=%v database=%v", serr, derr)
		}
	}()

	switch cmd := flag.Arg(0); cmd {
	case "up":
		return report(m.Up(), "all pending migrations applied")
	case "down":
		return report(m.Down(), "all migrations reverted")
	case "steps":
		n, err := intArg(1, "steps")
		if err != nil {
			return err
		}
		return report(m.Steps(n), fmt.Sprintf("moved %d migration steps", n))
	case "force":
		v, err := intArg(1, "force")
		if err != nil {
			return err
		}
		return report(m.Force(v), fmt.Sprintf("version forced to %d", v))
	case "version":
		version, dirty, err := m.Version()
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied yet")
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading version: %w", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", version, dirty)
		return nil
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// sourceURL turns a plain directory path into a file:// source URL,
// leaving explicit URLs alone.
func sourceURL(path string) string {
	if strings.Contains(path, "://") {
		return path
	}
	return "file://" + path
}

func intArg(i int, cmd string) (int, error) {
	if flag.NArg() <= i {
		return 0, fmt.Errorf("%s requires a number argument", cmd)
	}
	n, err := strconv.Atoi(flag.Arg(i))
	if err != nil {
		return 0, fmt.Errorf("%s argument %q: %w", cmd, flag.Arg(i), err)
	}
	return n, nil
}

// report treats ErrNoChange as success; the schema already being current
// is not a failure.
func report(err error, ok string) error {
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Println("no schema changes to apply")
		return nil
	}
	log.Println(ok)
	return nil
}
