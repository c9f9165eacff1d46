// Command migrate manages the payments schema. Usage:
//
//	migrate [-db URL] [-source DIR] [-steps N] [up|down|version]
//
// With no command it applies all pending migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultSource = "internal/repository/postgres/migrations"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbURL := fs.String("db", os.Getenv("DATABASE_URL"), "database URL (defaults to DATABASE_URL)")
	source := fs.String("source", defaultSource, "directory holding the migration files")
	steps := fs.Int("steps", 0, "limit up/down to this many migrations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *dbURL == "" {
		return errors.New("no database URL: pass -db or set DATABASE_URL")
	}

	command := fs.Arg(0)
	if command == "" {
		command = "up"
	}
	switch command {
	case "up", "down", "version":
	default:
		return fmt.Errorf("unknown command %q (want up, down, or version)", command)
	}

	m, err := migrate.New("file://"+*source, *dbURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	switch command {
	case "version":
		v, dirty, verr := m.Version()
		if errors.Is(verr, migrate.ErrNilVersion) {
			fmt.Println("no migrations applied")
			return nil
		}
		if verr != nil {
			return fmt.Errorf("read version: %w", verr)
		}
		fmt.Printf("version %d dirty=%v\n", v, dirty)
		return nil
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("database already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", command, err)
	}
	fmt.Printf("%s complete\n", command)
	return nil
}
