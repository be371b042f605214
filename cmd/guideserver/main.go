// Command guideserver serves step-by-step programming guides, the admin
// authoring API, and per-guide view statistics.
//
// @title                      Guide Server API
// @version                    1.0
// @description                Serves, authors and counts views of step-by-step programming guides.
// @BasePath                   /
// @securityDefinitions.apikey BearerAuth
// @in                         header
// @name                       Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/sockheadrps/pycourse/internal/config"
	"github.com/sockheadrps/pycourse/internal/guides"
	httpapi "github.com/sockheadrps/pycourse/internal/http"
	"github.com/sockheadrps/pycourse/internal/observability"
	"github.com/sockheadrps/pycourse/internal/render"
	"github.com/sockheadrps/pycourse/internal/repo"
	"github.com/sockheadrps/pycourse/internal/services"
	"github.com/sockheadrps/pycourse/internal/session"
	"github.com/sockheadrps/pycourse/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownTimeout = 10 * time.Second

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var envFile string

var rootCmd = &cobra.Command{
	Use:          "guideserver",
	Short:        "Programming guide server",
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE:  runServe,
}

var regenerateCmd = &cobra.Command{
	Use:   "regenerate",
	Short: "Re-render every published guide and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.guides.RegenerateAll(a.ctx)
		if err != nil {
			return fmt.Errorf("regenerating guides: %w", err)
		}
		fmt.Printf("Regenerated %d guide(s)\n", len(rep.Generated))
		for slug, reason := range rep.Failed {
			fmt.Printf("  failed %s: %s\n", slug, reason)
		}
		if len(rep.Failed) > 0 {
			return fmt.Errorf("%d guide(s) failed to render", len(rep.Failed))
		}
		return nil
	},
}

var importViewsCmd = &cobra.Command{
	Use:   "import-views [file]",
	Short: "Import view records from the legacy JSON file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		path := a.cfg.LegacyViewsPath
		if len(args) == 1 {
			path = args[0]
		}
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("opening legacy views: %w", err)
		}
		defer f.Close()

		n, err := a.views.ImportLegacy(a.ctx, f)
		if err != nil {
			return err
		}
		fmt.Printf("Imported %d view(s) from %s\n", n, path)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(serveCmd, regenerateCmd, importViewsCmd)
}

// app holds the long-lived components shared by every command.
type app struct {
	ctx      context.Context
	cfg      config.Config
	log      zerolog.Logger
	db       *gorm.DB
	store    *guides.Store
	guides   *services.GuideService
	views    *services.ViewLedger
	sessions *session.Store
	auth     *services.AuthService
	otelStop observability.ShutdownFunc
}

// newApp loads configuration and builds every component. The caller must
// call Close.
func newApp(parent context.Context) (*app, error) {
	if parent == nil {
		parent = context.Background()
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	lg := sysutil.ConfigureLogging(os.Stdout, cfg.LogLevel, cfg.LogPretty)
	ctx := lg.WithContext(parent)

	otelStop, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}

	db, err := repo.OpenSQLite(cfg.DBPath, observability.GormPlugins(cfg.OTEL)...)
	if err != nil {
		_ = otelStop(ctx)
		return nil, fmt.Errorf("opening view database: %w", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		_ = repo.Close(db)
		_ = otelStop(ctx)
		return nil, fmt.Errorf("migrating view database: %w", err)
	}

	a := &app{ctx: ctx, cfg: cfg, log: lg, db: db, otelStop: otelStop}
	if err := a.wire(); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire() error {
	store, err := guides.NewStore(a.cfg.GuidesDir)
	if err != nil {
		return fmt.Errorf("opening guides dir: %w", err)
	}
	rnd, err := render.New(a.cfg.TemplatePath, a.cfg.DevMode)
	if err != nil {
		return fmt.Errorf("loading templates: %w", err)
	}
	a.store = store
	a.guides = services.NewGuideService(store, rnd, a.cfg.DevMode)
	a.views = services.NewViewLedger(a.db, a.cfg.ExcludedIPs)

	if a.cfg.Auth.PasswordDefaulted {
		a.log.Warn().Msg("ADMIN_PASSWORD is not set; using the development default password")
	}
	a.sessions = session.NewStore(a.cfg.Auth.SessionTTL)
	if n := a.sessions.SweepExpired(); n > 0 {
		a.log.Debug().Int("expired", n).Msg("sessions swept")
	}
	a.auth, err = services.NewAuthService(a.cfg.Auth.Password, a.sessions)
	if err != nil {
		return err
	}
	return nil
}

// Close releases the database and flushes pending spans.
func (a *app) Close() {
	if err := repo.Close(a.db); err != nil {
		a.log.Warn().Err(err).Msg("close view database")
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.otelStop(ctx); err != nil {
		a.log.Warn().Err(err).Msg("flush traces")
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(a.ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep, err := a.guides.RegenerateAll(ctx)
	if err != nil {
		a.log.Error().Err(err).Msg("initial regeneration")
	} else {
		a.log.Info().Int("generated", len(rep.Generated)).Int("failed", len(rep.Failed)).Msg("guides regenerated")
	}

	gin.SetMode(a.cfg.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{Guides: a.guides, Views: a.views, Auth: a.auth}, a.cfg)

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           r,
		ReadTimeout:       a.cfg.ReadTimeout,
		ReadHeaderTimeout: a.cfg.ReadHeaderTimeout,
		WriteTimeout:      a.cfg.WriteTimeout,
		IdleTimeout:       a.cfg.IdleTimeout,
		MaxHeaderBytes:    a.cfg.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info().Msg("shutting down")
		return srv.Shutdown(sctx)
	})
	if a.cfg.DevMode {
		w := guides.NewWatcher(a.store, 0, func(ctx context.Context, slug string) {
			if err := a.guides.Regenerate(ctx, slug); err != nil {
				zerolog.Ctx(ctx).Warn().Err(err).Str("slug", slug).Msg("regenerate changed guide")
			}
		})
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}
