package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samuflix/backend/internal/config"
	"github.com/samuflix/backend/internal/db"
	"github.com/samuflix/backend/internal/handlers"
	"github.com/samuflix/backend/internal/httpserver"
	"github.com/samuflix/backend/internal/logging"
	"github.com/samuflix/backend/internal/middleware"
)

const usage = "expected command: serve, migrate, seed, record, gallery, favorite, unfavorite, favorites, send, or messages"

// Run bootstraps the SamuFlix backend or runs one of the client commands.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New(usage)
	}

	switch args[0] {
	case "serve":
		return serve(ctx)
	case "migrate", "seed":
		return runSchema(ctx, args[0], args[1:], os.Stdout)
	default:
		if _, ok := clientCommands[args[0]]; ok {
			return runClient(ctx, args[0], args[1:], os.Stdout)
		}
		return fmt.Errorf("unknown command %q: %s", args[0], usage)
	}
}

func serve(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, err := buildDependencies(ctx, pool, cfg)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux, deps)
	srv := httpserver.New(cfg.AppPort, middleware.RequestLogger(logger)(middleware.CORS(mux)))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("starting http server", "addr", srv.Addr(), "uploadDir", deps.UploadDir, "objectStore", cfg.ObjectStore.Bucket != "")
		if err := srv.Start(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down http server", "cause", context.Cause(groupCtx))
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(groupCtx), httpserver.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return group.Wait()
}

// runSchema handles "migrate [up|status]" and "seed [name]".
func runSchema(ctx context.Context, command string, args []string, out io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if command == "seed" && len(args) == 0 {
		names, err := db.SeedNames(os.DirFS(cfg.SeedDir))
		if err != nil {
			return err
		}
		return fmt.Errorf("expected seed name (available: %s)", strings.Join(names, ", "))
	}

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()
	migrator := db.NewMigrator(pool)

	if command == "seed" {
		sql, err := db.LoadSeed(os.DirFS(cfg.SeedDir), args[0])
		if err != nil {
			return err
		}
		if err := migrator.Seed(ctx, args[0], sql); err != nil {
			return err
		}
		fmt.Fprintf(out, "applied seed %s\n", args[0])
		return nil
	}

	action := "up"
	if len(args) > 0 {
		action = args[0]
	}
	if action != "up" && action != "status" {
		return fmt.Errorf("unknown migrate command %q (expected up or status)", action)
	}

	migrations, err := db.LoadMigrations(os.DirFS(cfg.MigrationDir))
	if err != nil {
		return err
	}
	applied, err := migrator.Applied(ctx)
	if err != nil {
		return err
	}

	if action == "status" {
		return printMigrationStatus(out, migrations, applied)
	}

	pending := 0
	for _, migration := range migrations {
		if _, ok := applied[migration.Version]; ok {
			continue
		}
		pending++
		if err := migrator.Apply(ctx, migration); err != nil {
			return err
		}
		fmt.Fprintf(out, "applied %s: %s\n", migration.Version, strings.Join(migration.Objects, ", "))
	}
	if pending == 0 {
		fmt.Fprintln(out, "schema is up to date")
	}
	return nil
}

func printMigrationStatus(out io.Writer, migrations []db.Migration, applied map[string]time.Time) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, migration := range migrations {
		state := "pending"
		if at, ok := applied[migration.Version]; ok {
			state = at.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", migration.Version, state, strings.Join(migration.Objects, ", "))
	}
	return tw.Flush()
}
