package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/certdesk/certdesk/internal/aggregate"
	"github.com/certdesk/certdesk/internal/config"
	"github.com/certdesk/certdesk/internal/domain/certificate"
	"github.com/certdesk/certdesk/internal/domain/ledger"
	"github.com/certdesk/certdesk/internal/domain/patient"
	"github.com/certdesk/certdesk/internal/domain/worklist"
	"github.com/certdesk/certdesk/internal/platform/db"
	"github.com/certdesk/certdesk/internal/platform/middleware"
	"github.com/certdesk/certdesk/pkg/apiclient"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "certdesk-server",
		Short: "Certificate tracking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(worklistCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the certificate API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-30s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-30s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	})

	return cmd
}

func worklistCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "worklist",
		Short: "Print the renewal worklist from a running server",
		RunE: func(cmd *cobra.Command, args []string) error {
			year, _ := cmd.Flags().GetInt("year")
			months, _ := cmd.Flags().GetIntSlice("months")

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)

			client := apiclient.New(cfg.APIBaseURL, cfg.APITimeoutDuration(), logger)
			store := aggregate.NewStore(client, cfg.Municipality, logger)

			ctx := context.Background()
			if err := store.LoadAggregate(ctx); err != nil {
				return fmt.Errorf("load aggregate: %w", err)
			}

			if year != 0 {
				return printDeadlines(store.Active(), year, months)
			}
			return printWorklist(store.Active())
		},
	}
	cmd.Flags().Int("year", 0, "Show deadlines for this year instead of the worklist")
	cmd.Flags().IntSlice("months", nil, "Restrict deadlines to these months (1-12)")
	return cmd
}

func printWorklist(patients []*patient.Patient) error {
	now := time.Now()
	fmt.Printf("%-30s %-12s %-22s %-6s %s\n", "患者", "種別", "期限", "診断書", "次の対応")
	for _, p := range patients {
		for _, row := range worklist.Rows(p, now) {
			deadline := "-"
			if row.Deadline != nil {
				deadline = *row.Deadline
			}
			needs := ""
			if row.NeedsCertificate {
				needs = certificate.NeedsCertificateToken
			}
			name := row.PatientName
			if row.NewApplication {
				name += " (新規)"
			}
			fmt.Printf("%-30s %-12s %-22s %-6s %s\n", name, row.Type, deadline, needs, row.NextAction)
		}
	}
	return nil
}

func printDeadlines(patients []*patient.Patient, year int, months []int) error {
	entries := worklist.Deadlines(patients, year, months)
	fmt.Printf("%-22s %-30s %-12s %s\n", "期限", "患者", "種別", "次の対応")
	for _, e := range entries {
		fmt.Printf("%-22s %-30s %-12s %s\n",
			e.Deadline.Format("2006-01-02"), e.PatientName, e.Type, e.NextAction)
	}
	return nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger := newLogger(cfg)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.RequestTimeout(cfg.APITimeoutDuration()))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool))

	// Domain routes
	api := e.Group("")

	patientSvc := patient.NewService(patient.NewRepo(pool))
	patient.NewHandler(patientSvc, logger).RegisterRoutes(api)

	certSvc := certificate.NewService(certificate.NewRepo(pool))
	certificate.NewHandler(certSvc, logger).RegisterRoutes(api)

	ledgerSvc := ledger.NewService(
		ledger.NewLifeInsuranceRepo(pool),
		ledger.NewPendingClaimRepo(pool),
		ledger.NewInsuranceChangeRepo(pool),
		ledger.NewMessageRepo(pool),
	)
	ledger.NewHandler(ledgerSvc, cfg.DefaultAuthor, logger).RegisterRoutes(api)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
