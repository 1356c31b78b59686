package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hfsim/hfsim/internal/config"
	"github.com/hfsim/hfsim/internal/domain/simulation"
	"github.com/hfsim/hfsim/internal/domain/titration"
	"github.com/hfsim/hfsim/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "hfsim",
		Short: "HFrEF cohort simulator and titration advisor",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(calibrateCmd())
	rootCmd.AddCommand(titrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(dev bool) zerolog.Logger {
	if dev {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// simulatorConfig applies the runtime overrides on top of the calibrated
// defaults.
func simulatorConfig(cfg *config.Config) simulation.SimulatorConfig {
	sim := simulation.DefaultSimulatorConfig()
	sim.Seed = cfg.SimSeed
	return sim
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the simulation API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg.IsDev())
	simCfg := simulatorConfig(cfg)
	if err := simCfg.Validate(); err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.SecurityHeaders())
	e.Use(middleware.RequestTimeout(60 * time.Second))
	e.Use(middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	simHandler := simulation.NewHandler(simCfg, cfg.SimPatients, logger)
	simHandler.RegisterRoutes(e.Group("/api/v1/simulation"))

	advisor := titration.NewAdvisor(simCfg)
	titrHandler := titration.NewHandler(advisor, logger)
	titrHandler.RegisterRoutes(e.Group("/api/v1/titration"))

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(ctx)
}

func simulateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Generate a visit-1 cohort and write CSV snapshots",
		RunE: func(cmd *cobra.Command, args []string) error {
			patients, _ := cmd.Flags().GetInt("patients")
			seed, _ := cmd.Flags().GetInt64("seed")
			out, _ := cmd.Flags().GetString("out")
			withTitration, _ := cmd.Flags().GetBool("titrate")

			logger := newLogger(true)

			simCfg := simulation.DefaultSimulatorConfig()
			simCfg.Seed = seed
			svc, err := simulation.NewService(simCfg, logger)
			if err != nil {
				return err
			}

			cohort, err := svc.SimulateVisit1(patients)
			if err != nil {
				return err
			}
			if err := simulation.ExportSnapshot(out, cohort); err != nil {
				return err
			}
			logger.Info().Str("dir", out).Msg("snapshot written")

			if withTitration {
				advisor := titration.NewAdvisor(simCfg)
				rows := titration.AddTitrationColumns(advisor, cohort.Visits)
				path := filepath.Join(out, "visit_table_titrated.csv")
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("creating %s: %w", path, err)
				}
				defer f.Close()
				if err := titration.WriteTitratedCSV(f, rows); err != nil {
					return err
				}
				logger.Info().Str("path", path).Msg("titrated table written")
			}
			return nil
		},
	}
	cmd.Flags().Int("patients", 10, "Number of patients to simulate")
	cmd.Flags().Int64("seed", 42, "RNG seed")
	cmd.Flags().String("out", "./out", "Output directory for CSV snapshots")
	cmd.Flags().Bool("titrate", false, "Also write the visit table with titration columns")
	return cmd
}

func calibrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Run a large population and print the calibration report",
		RunE: func(cmd *cobra.Command, args []string) error {
			patients, _ := cmd.Flags().GetInt("patients")
			seed, _ := cmd.Flags().GetInt64("seed")

			simCfg := simulation.DefaultSimulatorConfig()
			simCfg.Seed = seed
			svc, err := simulation.NewService(simCfg, newLogger(true))
			if err != nil {
				return err
			}

			report, err := svc.Calibrate(patients)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().Int("patients", 500, "Population size for the calibration run")
	cmd.Flags().Int64("seed", 42, "RNG seed")
	return cmd
}

func titrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "titrate",
		Short: "Apply the titration advisor to an existing visit table",
		RunE: func(cmd *cobra.Command, args []string) error {
			input, _ := cmd.Flags().GetString("input")
			out, _ := cmd.Flags().GetString("out")

			f, err := os.Open(input)
			if err != nil {
				return fmt.Errorf("opening %s: %w", input, err)
			}
			defer f.Close()

			visits, err := simulation.ReadVisitCSV(f)
			if err != nil {
				return err
			}

			advisor := titration.NewAdvisor(simulation.DefaultSimulatorConfig())
			rows := titration.AddTitrationColumns(advisor, visits)

			w := os.Stdout
			if out != "" {
				w, err = os.Create(out)
				if err != nil {
					return fmt.Errorf("creating %s: %w", out, err)
				}
				defer w.Close()
			}
			return titration.WriteTitratedCSV(w, rows)
		},
	}
	cmd.Flags().String("input", "visit_table.csv", "Visit table CSV to read")
	cmd.Flags().String("out", "", "Output CSV path (stdout if empty)")
	return cmd
}
