package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/luxfi/vmtally/internal/logging"
	"github.com/luxfi/vmtally/internal/obsmetrics"
	"github.com/luxfi/vmtally/internal/pipeline"
)

// engineVersion is stamped into every Result/RunRecord this binary
// produces; it is not part of the Formula ID (spec.md SS4.14 - the FID
// tracks the normative manifest, never the engine build).
const engineVersion = "vmtally/0.1.0"

func runCmd() *cobra.Command {
	var (
		registryPath string
		tallyPath    string
		paramsPath   string
		outDir       string
		seed         uint64
		maxWorkers   int
		logLevel     string
		logJSON      bool
		quiet        bool
		metricsAddr  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full S1-S9 tabulation pipeline against one election's inputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := loadInputs(registryPath, tallyPath, paramsPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "input error: %v\n", err)
				os.Exit(pipelineExitIOError)
			}

			logger := logging.NewDiscardLogger()
			if !quiet {
				l, err := logging.New(logging.Config{Level: logLevel, JSON: logJSON})
				if err != nil {
					return fmt.Errorf("build logger: %w", err)
				}
				logger = l
			}

			var metrics *obsmetrics.RunMetrics
			if metricsAddr != "" {
				promReg := prometheus.NewRegistry()
				reg := obsmetrics.NewRegistry(promReg)
				metrics, err = obsmetrics.NewRunMetrics(reg)
				if err != nil {
					return fmt.Errorf("register metrics: %w", err)
				}
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
				go func() {
					_ = http.ListenAndServe(metricsAddr, mux)
				}()
				logger.Info("metrics listening", "addr", metricsAddr)
			}

			opts := pipeline.Options{
				EngineVersion: engineVersion,
				Bands:         frontierBands(in.Params),
				MaxWorkers:    maxWorkers,
				Logger:        logger,
				Metrics:       metrics,
			}
			if cmd.Flags().Changed("seed") {
				opts.SeedOverride = &seed
			}

			outcome, err := pipeline.Run(in.Registry, in.Tally, in.Params, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "pipeline error: %v\n", err)
				os.Exit(pipelineExitIOError)
			}

			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create out dir: %w", err)
			}
			if err := writeArtifact(filepath.Join(outDir, "result.json"), outcome.Result); err != nil {
				return err
			}
			if err := writeArtifact(filepath.Join(outDir, "run_record.json"), outcome.RunRecord); err != nil {
				return err
			}
			if outcome.FrontierMap != nil {
				if err := writeArtifact(filepath.Join(outDir, "frontier_map.json"), outcome.FrontierMap); err != nil {
					return err
				}
			}

			fmt.Printf("label=%s formula_id=%s result=%s\n", outcome.Result.Label, shortDigest(outcome.Result.FormulaID), shortDigest(outcome.Result.ResultID))
			os.Exit(int(outcome.ExitCode))
			return nil
		},
	}

	cmd.Flags().StringVar(&registryPath, "registry", "", "path to the division registry JSON file")
	cmd.Flags().StringVar(&tallyPath, "tally", "", "path to the ballot tally JSON file")
	cmd.Flags().StringVar(&paramsPath, "params", "", "path to the parameter set JSON file")
	cmd.Flags().StringVar(&outDir, "out", ".", "directory to write result.json/run_record.json/frontier_map.json into")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "override VM-VAR-052 at runtime (never changes the Formula ID)")
	cmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "bound the per-unit tabulation worker pool (0 = GOMAXPROCS)")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "debug, info, warn or error")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "emit structured JSON logs instead of console")
	cmd.Flags().BoolVar(&quiet, "quiet", false, "suppress all logging")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "expose Prometheus metrics on this address (e.g. :9090), disabled when empty")
	_ = cmd.MarkFlagRequired("registry")
	_ = cmd.MarkFlagRequired("tally")
	_ = cmd.MarkFlagRequired("params")

	return cmd
}
