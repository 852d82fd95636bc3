package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/agency/backend/internal/infrastructure/config"
	"github.com/agency/backend/internal/infrastructure/logger"
	"github.com/agency/backend/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// session carries what every command needs. The migrator is opened on first
// use so create and list work without a database.
type session struct {
	log  *zap.Logger
	cfg  *config.Config
	path string
	mig  *migration.Migrator
}

func (s *session) migrator() (*migration.Migrator, error) {
	if s.mig != nil {
		return s.mig, nil
	}
	path, err := migration.ResolvePath(s.path)
	if err != nil {
		return nil, fmt.Errorf("locate migrations: %w", err)
	}
	db, err := sql.Open("postgres", s.cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	m, err := migration.New(db, path, s.log)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.mig = m
	return m, nil
}

func (s *session) close() {
	if s.mig != nil {
		if err := s.mig.Close(); err != nil {
			s.log.Warn("Failed to close migrator", zap.Error(err))
		}
	}
}

type command struct {
	args    string
	summary string
	run     func(s *session, args []string) error
}

var commands = map[string]command{
	"up": {"", "Apply all pending migrations", func(s *session, _ []string) error {
		return withMigrator(s, (*migration.Migrator).Up)
	}},
	"down": {"", "Roll back all migrations", func(s *session, _ []string) error {
		return withMigrator(s, (*migration.Migrator).Down)
	}},
	"step": {"<n>", "Apply n migrations (negative rolls back)", func(s *session, args []string) error {
		n, err := intArg(args, "step count")
		if err != nil {
			return err
		}
		return withMigrator(s, func(m *migration.Migrator) error { return m.Steps(n) })
	}},
	"goto": {"<version>", "Migrate up or down to a version", func(s *session, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		if v < 0 {
			return errors.New("version must not be negative")
		}
		return withMigrator(s, func(m *migration.Migrator) error { return m.GoTo(uint(v)) })
	}},
	"force": {"<version>", "Record a version without running it (clears a dirty state)", func(s *session, args []string) error {
		v, err := intArg(args, "version")
		if err != nil {
			return err
		}
		return withMigrator(s, func(m *migration.Migrator) error { return m.Force(v) })
	}},
	"version": {"", "Show the applied version", func(s *session, _ []string) error {
		return withMigrator(s, func(m *migration.Migrator) error {
			st, err := m.Status()
			if err != nil {
				return err
			}
			if !st.Applied {
				s.log.Info("No migrations applied")
				return nil
			}
			s.log.Info("Current migration version", zap.Uint("version", st.Version), zap.Bool("dirty", st.Dirty))
			return nil
		})
	}},
	"create": {"<name> [description]", "Write a new up/down migration pair", func(s *session, args []string) error {
		if len(args) == 0 {
			return errors.New("migration name required")
		}
		description := strings.Join(args[1:], " ")
		mf, err := migration.CreateMigration(s.path, args[0], description)
		if err != nil {
			return err
		}
		s.log.Info("Migration created",
			zap.String("version", mf.Version),
			zap.String("up_file", mf.UpPath),
			zap.String("down_file", mf.DownPath),
		)
		return nil
	}},
	"list": {"", "List migrations on disk", func(s *session, _ []string) error {
		path, err := migration.ResolvePath(s.path)
		if err != nil {
			return err
		}
		names, err := migration.ListMigrations(path)
		if err != nil {
			return err
		}
		s.log.Info("Available migrations", zap.String("path", path), zap.Int("count", len(names)))
		for _, name := range names {
			fmt.Println("  -", name)
		}
		return nil
	}},
}

func withMigrator(s *session, fn func(*migration.Migrator) error) error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	return fn(m)
}

func main() {
	path := flag.String("path", "", "migrations directory (default: database.migrations_path)")
	level := flag.String("log-level", "info", "debug, info, warn or error")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}

	log, err := logger.New(config.LogConfig{Level: *level, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if *path == "" {
		*path = cfg.Database.MigrationsPath
	}

	s := &session{log: log, cfg: cfg, path: *path}
	err = cmd.run(s, args[1:])
	s.close()
	if err != nil {
		log.Fatal("Migration command failed", zap.String("command", args[0]), zap.Error(err))
	}
}

func intArg(args []string, name string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%s required", name)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, args[0])
	}
	return n, nil
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintln(out, "Agency database migrations\n\nUsage:\n  migrate [flags] <command> [arguments]\n\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(out, "  %-28s %s\n", strings.TrimSpace(name+" "+c.args), c.summary)
	}
	fmt.Fprintln(out, "\nFlags:")
	flag.PrintDefaults()
	fmt.Fprintln(out, "\nConnection settings come from config.toml and AGENCY_DATABASE_* variables.")
}
