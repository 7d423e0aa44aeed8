package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/cautelas/internal/api"
	"github.com/erazemk/cautelas/internal/auth"
	"github.com/erazemk/cautelas/internal/config"
	"github.com/erazemk/cautelas/internal/db"
	"github.com/erazemk/cautelas/internal/document"
	"github.com/erazemk/cautelas/internal/model"
	"github.com/erazemk/cautelas/internal/store"
)

// levelRouter is a slog.Handler that routes INFO/WARN to stdout and ERROR+ to stderr.
type levelRouter struct {
	min    slog.Level
	stdout slog.Handler
	stderr slog.Handler
}

func (lr *levelRouter) Enabled(_ context.Context, level slog.Level) bool {
	return level >= lr.min
}

func (lr *levelRouter) Handle(ctx context.Context, r slog.Record) error {
	if r.Level >= slog.LevelError {
		return lr.stderr.Handle(ctx, r)
	}
	return lr.stdout.Handle(ctx, r)
}

func (lr *levelRouter) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithAttrs(attrs),
		stderr: lr.stderr.WithAttrs(attrs),
	}
}

func (lr *levelRouter) WithGroup(name string) slog.Handler {
	return &levelRouter{
		min:    lr.min,
		stdout: lr.stdout.WithGroup(name),
		stderr: lr.stderr.WithGroup(name),
	}
}

// setupLogger configures structured logging. INFO/WARN go to stdout, ERROR goes
// to stderr. If logPath is non-empty, all levels are also written to that file.
// Returns a cleanup function that closes the log file (if opened).
func setupLogger(level slog.Level, logPath string) (func(), error) {
	opts := &slog.HandlerOptions{Level: level}

	var cleanup func()

	stdoutW := io.Writer(os.Stdout)
	stderrW := io.Writer(os.Stderr)

	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening log file: %w", err)
		}
		cleanup = func() { f.Close() }
		stdoutW = io.MultiWriter(os.Stdout, f)
		stderrW = io.MultiWriter(os.Stderr, f)
	}

	handler := &levelRouter{
		min:    level,
		stdout: slog.NewTextHandler(stdoutW, opts),
		stderr: slog.NewTextHandler(stderrW, opts),
	}
	slog.SetDefault(slog.New(handler))
	return cleanup, nil
}

// flags holds command-line values. Only flags given explicitly override the
// loaded configuration.
type flags struct {
	configPath string
	dbPath     string
	addr       string
	adminEmail string
	logPath    string
	templates  string
	set        map[string]bool
}

func parseFlags(args []string) (*flags, error) {
	fs := flag.NewFlagSet("cautelas", flag.ContinueOnError)
	f := &flags{set: map[string]bool{}}

	fs.StringVar(&f.configPath, "config", "", "")
	fs.StringVar(&f.configPath, "c", "", "")
	fs.StringVar(&f.dbPath, "db", "", "")
	fs.StringVar(&f.dbPath, "d", "", "")
	fs.StringVar(&f.addr, "addr", "", "")
	fs.StringVar(&f.addr, "a", "", "")
	fs.StringVar(&f.adminEmail, "user", "", "")
	fs.StringVar(&f.adminEmail, "u", "", "")
	fs.StringVar(&f.logPath, "log", "", "")
	fs.StringVar(&f.logPath, "l", "", "")
	fs.StringVar(&f.templates, "templates", "", "")
	fs.StringVar(&f.templates, "t", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: cautelas [flags]

Flags:
  -c, -config <path>      config file (default: ./cautelas.{yaml,toml,json} if present)
  -d, -db <path>          SQLite database path (default: cautelas.db)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <email>       admin email on first run (default: admin@cautelas.local)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -t, -templates <dir>    document template directory (default: templates)
  -h, -help               show this help and exit

Every setting can also be given as CAUTELAS_<SECTION>_<KEY>, e.g. CAUTELAS_DB_PATH.
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", fs.Arg(0))
	}

	aliases := map[string]string{"c": "config", "d": "db", "a": "addr", "u": "user", "l": "log", "t": "templates"}
	fs.Visit(func(fl *flag.Flag) {
		name := fl.Name
		if long, ok := aliases[name]; ok {
			name = long
		}
		f.set[name] = true
	})
	return f, nil
}

// apply overrides cfg with the flags given on the command line.
func (f *flags) apply(cfg *config.Config) {
	if f.set["db"] {
		cfg.DB.Path = f.dbPath
	}
	if f.set["addr"] {
		cfg.HTTP.Addr = f.addr
	}
	if f.set["user"] {
		cfg.Admin.Email = f.adminEmail
	}
	if f.set["log"] {
		cfg.Log.File = f.logPath
	}
	if f.set["templates"] {
		cfg.Templates.Dir = f.templates
	}
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	f.apply(&cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	closeLog, err := setupLogger(level, cfg.Log.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if closeLog != nil {
		defer closeLog()
	}

	if err := run(cfg); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx := context.Background()

	database, err := db.Open(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		return err
	}
	version, _ := db.Version(ctx, database)
	slog.Info("database ready", "path", cfg.DB.Path, "schema_version", version)

	if err := ensureAdmin(ctx, database, cfg.Admin.Email); err != nil {
		return err
	}

	written, err := document.EnsureTemplates(cfg.Templates.Dir)
	if err != nil {
		return err
	}
	for _, name := range written {
		slog.Info("default template written", "template", name, "dir", cfg.Templates.Dir)
	}

	if n, err := store.PurgeRevokedTokens(ctx, database, time.Now()); err != nil {
		slog.Warn("purging revoked tokens", "error", err)
	} else if n > 0 {
		slog.Info("expired revocations purged", "count", n)
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := store.GetJWTSecret(ctx, database)
	if err != nil {
		return err
	}

	handler := api.NewRouter(database, api.Options{
		Issuer:            auth.Issuer{Secret: jwtSecret, TTL: cfg.Auth.TokenTTL},
		Renderer:          &document.DocxRenderer{Dir: cfg.Templates.Dir},
		Metrics:           api.NewMetrics(),
		ExposeMetrics:     cfg.Metrics.Enabled,
		AllowRegistration: cfg.Auth.AllowRegistration,
	})

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.HTTP.Addr, "metrics", cfg.Metrics.Enabled,
		"registration", cfg.Auth.AllowRegistration)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// ensureAdmin creates the first SUPER_ADMIN account when the database has no
// users yet and prints its generated password once.
func ensureAdmin(ctx context.Context, database *sql.DB, email string) error {
	n, err := store.CountUsers(ctx, database)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	password, err := auth.GeneratePassword(16)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	_, err = store.CreateUser(ctx, database, model.UserProfile{
		Email: email,
		Name:  "Administrador",
		Role:  model.RoleSuperAdmin,
	}, string(hash))
	if err != nil {
		return fmt.Errorf("creating admin user: %w", err)
	}

	printInitResult(email, password)
	return nil
}

// printInitResult prints the first-run admin credentials to stdout.
func printInitResult(email, password string) {
	fmt.Println("Admin account created:")
	fmt.Printf("  Email:    %s\n", email)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
	fmt.Println()
}
