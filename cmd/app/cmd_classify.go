package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"ExoVista/internal/domain/models"
	"ExoVista/internal/services/disposition"
	"ExoVista/internal/usecase"
)

var classifyFlags struct {
	obs     models.Observation
	mode    string
	seed    uint64
	asJSON  bool
	noColor bool
	explain []float64
}

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify a single transit observation",
	Long: `Classify runs the rule engine on one observation and prints the report.

  exovista classify --period 3.52 --duration 2.9 --depth 1.2 --radius 11.4 --stellar-radius 1.1
  exovista classify --period 365 --depth 0.008 --radius 1 --mode file --seed 42 --json
  exovista classify --period 3.52 --depth 1.2 --radius 11.4 --mode file --model-output 0.93`,
	Args: cobra.NoArgs,
	RunE: runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.Float64Var(&classifyFlags.obs.Period, "period", 0, "orbital period in days")
	f.Float64Var(&classifyFlags.obs.Duration, "duration", 0, "transit duration in hours")
	f.Float64Var(&classifyFlags.obs.TransitDepth, "depth", 0, "transit depth in percent")
	f.Float64Var(&classifyFlags.obs.PlanetRadius, "radius", 0, "planet radius in Earth radii")
	f.Float64Var(&classifyFlags.obs.StellarRadius, "stellar-radius", 0, "stellar radius in solar radii")
	f.StringVar(&classifyFlags.mode, "mode", string(models.ModeManual), "input mode: manual or file")
	f.Uint64Var(&classifyFlags.seed, "seed", 0, "seed for reproducible scores (default: random)")
	f.BoolVar(&classifyFlags.asJSON, "json", false, "print the report as JSON")
	f.BoolVar(&classifyFlags.noColor, "no-color", false, "disable colored output")
	f.Float64SliceVar(&classifyFlags.explain, "model-output", nil, "explain an external model's output instead of scoring")
	_ = classifyCmd.MarkFlagRequired("period")
	_ = classifyCmd.MarkFlagRequired("depth")
	_ = classifyCmd.MarkFlagRequired("radius")
}

func runClassify(cmd *cobra.Command, _ []string) error {
	uc := usecase.NewDispositionUseCase(disposition.NewClassifier())
	mode := models.InputMode(classifyFlags.mode)

	var (
		report *models.DispositionReport
		err    error
	)
	if len(classifyFlags.explain) > 0 {
		report, err = uc.Explain(cmd.Context(), classifyFlags.obs, mode, classifyFlags.explain, usecase.SourceCLI)
	} else {
		var seed *uint64
		if cmd.Flags().Changed("seed") {
			seed = &classifyFlags.seed
		}
		report, err = uc.Analyze(cmd.Context(), classifyFlags.obs, mode, seed, usecase.SourceCLI)
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if classifyFlags.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	_, err = fmt.Fprint(out, renderReport(report, !classifyFlags.noColor))
	return err
}
