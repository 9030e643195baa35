package main

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/trackshare/internal/server/auth"
	"github.com/dmitrijs2005/trackshare/internal/server/config"
	"github.com/dmitrijs2005/trackshare/internal/server/repositories/repomanager"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// Runner holds the dependencies of every trackctl command.
type Runner struct {
	output       io.Writer
	openDB       func(dsn string) (*sql.DB, error)
	newManager   func(db *sql.DB) (repomanager.RepositoryManager, error)
	readPassword func() ([]byte, error)
	now          func() time.Time
}

// RunnerOpts overrides Runner dependencies; zero fields get production values.
type RunnerOpts struct {
	Output       io.Writer
	OpenDB       func(dsn string) (*sql.DB, error)
	NewManager   func(db *sql.DB) (repomanager.RepositoryManager, error)
	ReadPassword func() ([]byte, error)
	Now          func() time.Time
}

func NewRunner(opts RunnerOpts) *Runner {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenDB == nil {
		opts.OpenDB = func(dsn string) (*sql.DB, error) { return sql.Open("pgx", dsn) }
	}
	if opts.NewManager == nil {
		opts.NewManager = repomanager.NewPostgresRepositoryManager
	}
	if opts.ReadPassword == nil {
		opts.ReadPassword = readStdinPassword
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Runner{
		output:       opts.Output,
		openDB:       opts.OpenDB,
		newManager:   opts.NewManager,
		readPassword: opts.ReadPassword,
		now:          opts.Now,
	}
}

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		migrateCommand(r),
		hashPasswordCommand(r),
		issueTokenCommand(r),
	}
}

// readStdinPassword reads without echo from a terminal, or one line from a pipe.
func readStdinPassword() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		return term.ReadPassword(fd)
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to the server configuration file (JSON, YAML or TOML)",
	}
}

// loadConfig reads the same layers the server does: defaults, the optional
// file and TRACKSHARE_* environment variables.
func loadConfig(cmd *cli.Command) (*config.Config, error) {
	var args []string
	if path := cmd.String("config"); path != "" {
		args = []string{"-c", path}
	}
	return config.LoadConfig(args)
}

func (r *Runner) writeln(format string, a ...any) {
	fmt.Fprintf(r.output, format+"\n", a...)
}

func migrateCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending database migrations",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "dsn",
				Aliases: []string{"d"},
				Usage:   "PostgreSQL DSN, overrides the configured one",
			},
		},
		Action: r.Migrate,
	}
}

// Migrate applies all pending migrations and prints the resulting version.
func (r *Runner) Migrate(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	dsn := cfg.DatabaseDSN
	if v := cmd.String("dsn"); v != "" {
		dsn = v
	}

	db, err := r.openDB(dsn)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	m, err := r.newManager(db)
	if err != nil {
		return err
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	version, err := m.MigrationVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	r.writeln("schema at version %d", version)
	return nil
}

func hashPasswordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "hash-password",
		Usage:  "Read a password and print its bcrypt hash",
		Flags:  []cli.Flag{configFlag()},
		Action: r.HashPassword,
	}
}

// HashPassword prompts for a password and prints its hash at the configured
// bcrypt cost.
func (r *Runner) HashPassword(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := newAuthService(cfg, r.now)
	if err != nil {
		return err
	}

	fmt.Fprint(r.output, "Password: ")
	plain, err := r.readPassword()
	fmt.Fprintln(r.output)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	if len(plain) == 0 {
		return errors.New("password is empty")
	}

	hash, err := svc.HashPassword(string(plain))
	if err != nil {
		return err
	}

	r.writeln("%s", hash)
	return nil
}

func issueTokenCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "issue-token",
		Usage: "Mint a session token for local testing",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{Name: "user-id", Usage: "subject user ID", Required: true},
			&cli.StringFlag{Name: "username", Usage: "subject username", Required: true},
		},
		Action: r.IssueToken,
	}
}

// IssueToken prints a session token signed with the configured secret.
func (r *Runner) IssueToken(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, err := newAuthService(cfg, r.now)
	if err != nil {
		return err
	}

	token, err := svc.IssueSessionToken(cmd.String("user-id"), cmd.String("username"))
	if err != nil {
		return err
	}

	r.writeln("%s", token)
	return nil
}

func newAuthService(cfg *config.Config, now func() time.Time) (*auth.Service, error) {
	return auth.NewService(auth.Options{
		SecretKey:                []byte(cfg.SecretKey),
		BcryptCost:               cfg.BcryptCost,
		SessionValidity:          cfg.SessionTokenValidityDuration,
		VerificationCodeValidity: cfg.VerificationCodeValidityDuration,
	}, auth.WithClock(now))
}
