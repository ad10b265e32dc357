package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexiusacademia/gosxcu/internal/config"
	"github.com/alexiusacademia/gosxcu/internal/engine"
	"github.com/alexiusacademia/gosxcu/internal/logging"
	"github.com/alexiusacademia/gosxcu/internal/metrics"
	"github.com/alexiusacademia/gosxcu/internal/telemetry"
	"github.com/alexiusacademia/gosxcu/internal/version"
)

var (
	// Persistent flags
	cfgFile     string
	metricsFile string
	traceStdout bool
	jsonOutput  bool

	// Set up in PersistentPreRunE
	vcfg      = config.New()
	cfg       *config.Config
	logger    = zap.NewNop()
	registry  = prometheus.NewRegistry()
	collector = metrics.New(registry)
	stopTrace = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "gosxcu",
	Short: "Copper Solvent Extraction Circuit Solver",
	Long: `gosxcu - Go Copper Solvent Extraction Circuit Solver

A CLI tool for steady-state modelling of copper solvent-extraction
(SX) circuits using the Lix984N extractant.

This tool helps process engineers and plant metallurgists:
  - Find the extractant strength (v/v%) that closes the circuit balance
  - Back-calculate v/v%, saturation and mixer efficiencies from plant data
  - Simulate the circuit at fixed settings
  - Plot loading curves against extractant strength
  - Solve batches of cases concurrently

Plant configuration A (Series 2Ex1S) is implemented; configurations
B to R are recognised and reported as not yet available.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println()
		fmt.Println("  ╔═══════════════════════════════════════════════════════════╗")
		fmt.Println("  ║                                                           ║")
		fmt.Printf("  ║   gosxcu v%-48s║\n", version.Version)
		fmt.Println("  ║   Go Copper Solvent Extraction Circuit Solver             ║")
		fmt.Printf("  ║   %-57s║\n", version.Author+" ©  "+version.Year) // © is two bytes
		fmt.Println("  ║                                                           ║")
		fmt.Println("  ╚═══════════════════════════════════════════════════════════╝")
		fmt.Println()
		fmt.Println("  Features:")
		fmt.Println("    • Designer mode: extractant strength for mass-balance closure")
		fmt.Println("    • Metallurgist mode: plant back-calculation")
		fmt.Println("    • Forward simulation sheet and loading curves")
		fmt.Println("    • Concurrent batch solves from YAML or JSON case files")
		fmt.Println()
		fmt.Println("  Use 'gosxcu --help' to see available commands.")
		fmt.Println()
		fmt.Println("  ─────────────────────────────────────────────────────────────")
		fmt.Printf("  Copyright © %s %s. All rights reserved.\n", version.Year, version.Author)
		fmt.Println()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (yaml or json)")
	pf.String("log-level", "info", "Log level: debug, info, warn, error")
	pf.String("log-format", "console", "Log format: console or json")
	pf.StringP("topology", "t", "A", "Plant configuration identifier (A-R)")
	pf.String("infeasible", "penalize", "Failed evaluation policy: penalize or abort")
	pf.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")
	pf.BoolVar(&traceStdout, "trace", false, "Print OpenTelemetry spans to stderr")
	pf.BoolVar(&jsonOutput, "json", false, "Print results as JSON")

	for key, flag := range map[string]string{
		"log.level":         "log-level",
		"log.format":        "log-format",
		"topology":          "topology",
		"solver.infeasible": "infeasible",
	} {
		if err := vcfg.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func setup(cmd *cobra.Command, args []string) error {
	if cfgFile != "" {
		if err := config.ReadFile(vcfg, cfgFile); err != nil {
			return err
		}
	}
	c, err := config.Load(vcfg)
	if err != nil {
		return err
	}
	cfg = c

	l, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}
	logger = l

	exporter := telemetry.ExporterNone
	if traceStdout {
		exporter = telemetry.ExporterStdout
	}
	stop, err := telemetry.Init(cmd.Context(), telemetry.Config{
		ServiceName:    "gosxcu",
		ServiceVersion: version.Version,
		Exporter:       exporter,
	})
	if err != nil {
		return err
	}
	stopTrace = stop

	logger.Debug("configuration loaded",
		zap.String("config", vcfg.ConfigFileUsed()),
		zap.String("topology", cfg.Topology),
		zap.String("infeasible", cfg.Solver.Infeasible))
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	var errs []error
	if metricsFile != "" {
		if err := metrics.WriteFile(metricsFile, registry); err != nil {
			errs = append(errs, err)
		} else {
			logger.Debug("metrics written", zap.String("path", metricsFile))
		}
	}
	if err := stopTrace(context.Background()); err != nil {
		errs = append(errs, err)
	}
	_ = logger.Sync()
	return errors.Join(errs...)
}

// newEngine builds an engine from the loaded configuration.
func newEngine() (*engine.Engine, error) {
	settings, err := cfg.SolverSettings()
	if err != nil {
		return nil, err
	}
	return engine.New(
		engine.WithTopology(cfg.Topology),
		engine.WithSettings(settings),
		engine.WithWeights(cfg.CircuitWeights()),
		engine.WithLogger(logger),
		engine.WithRecorder(collector),
	)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
