package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/monitoring"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/pricing"
	"github.com/ZanzyTHEbar/insurance-cost-estimator/internal/types"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// attributeFlags maps each input flag to the attribute it fills
var attributeFlags = []struct {
	flag      string
	attribute string
}{
	{"age", pricing.AttrAge},
	{"dependants", pricing.AttrNumberOfDependants},
	{"income", pricing.AttrIncomeLakhs},
	{"genetical-risk", pricing.AttrGeneticalRisk},
	{"plan", pricing.AttrInsurancePlan},
	{"employment", pricing.AttrEmploymentStatus},
	{"gender", pricing.AttrGender},
	{"marital", pricing.AttrMaritalStatus},
	{"bmi", pricing.AttrBMICategory},
	{"smoking", pricing.AttrSmokingStatus},
	{"region", pricing.AttrRegion},
	{"medical-history", pricing.AttrMedicalHistory},
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "predict",
		Usage: "estimate a health insurance premium from the command line",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "age", Value: 18, Usage: "age in years (18-100)"},
			&cli.IntFlag{Name: "dependants", Usage: "number of dependants (0-20)"},
			&cli.Float64Flag{Name: "income", Usage: "income in lakhs (0-200)"},
			&cli.IntFlag{Name: "income-level", Usage: "income level column, only used when set"},
			&cli.IntFlag{Name: "genetical-risk", Usage: "genetical risk (0-5)"},
			&cli.StringFlag{Name: "plan", Value: "Bronze", Usage: "insurance plan: Bronze, Silver or Gold"},
			&cli.StringFlag{Name: "employment", Value: "Salaried", Usage: "employment status"},
			&cli.StringFlag{Name: "gender", Value: "Male", Usage: "gender"},
			&cli.StringFlag{Name: "marital", Value: "Unmarried", Usage: "marital status"},
			&cli.StringFlag{Name: "bmi", Value: "Normal", Usage: "BMI category"},
			&cli.StringFlag{Name: "smoking", Value: "No Smoking", Usage: "smoking status"},
			&cli.StringFlag{Name: "region", Value: "Northwest", Usage: "region"},
			&cli.StringFlag{Name: "medical-history", Value: "No Disease", Usage: "medical history, diseases joined by \" & \""},
			&cli.StringFlag{Name: "artifacts", Value: "./artifacts", Usage: "directory holding the fitted models and scalers", EnvVars: []string{"ARTIFACT_DIR"}},
			&cli.BoolFlag{Name: "strict", Value: true, Usage: "reject values outside the form's ranges and choices", EnvVars: []string{"STRICT_VALIDATION"}},
			&cli.BoolFlag{Name: "json", Usage: "print the estimate as JSON"},
			&cli.StringFlag{Name: "log-level", Value: "warn", Usage: "log level", EnvVars: []string{"LOG_LEVEL"}},
		},
		Action: runPredict,
	}
}

func runPredict(c *cli.Context) error {
	monitoring.NewLogger(monitoring.LogConfig{Level: c.String("log-level"), Format: "text"})

	input := inputFromFlags(c)
	if c.Bool("strict") {
		if err := input.Validate(); err != nil {
			return err
		}
	}

	artifacts, err := pricing.NewArtifactStore(c.String("artifacts")).LoadAll()
	if err != nil {
		return fmt.Errorf("load artifacts: %w", err)
	}

	est, err := pricing.NewPredictor(artifacts).Estimate(input)
	if err != nil {
		return err
	}
	slog.Debug("Prediction completed", "age_band", est.Band, "predicted_cost", est.Cost)

	if c.Bool("json") {
		encoder := json.NewEncoder(c.App.Writer)
		encoder.SetIndent("", "  ")
		encoder.SetEscapeHTML(false)
		return encoder.Encode(types.NewPredictResponse(est))
	}

	_, err = fmt.Fprintf(c.App.Writer, "Predicted Health Insurance Cost: %s\n", est.Formatted())
	return err
}

func inputFromFlags(c *cli.Context) pricing.RawInput {
	input := pricing.RawInput{}
	for _, f := range attributeFlags {
		input[f.attribute] = c.Value(f.flag)
	}
	if c.IsSet("income-level") {
		input[pricing.AttrIncomeLevel] = c.Int("income-level")
	}
	return input
}
