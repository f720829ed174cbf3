package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crowagent/crowagent/internal/catalog"
	"github.com/crowagent/crowagent/internal/physics"
	"github.com/crowagent/crowagent/internal/shared/cmdutils"
	"github.com/crowagent/crowagent/internal/tools"
)

var (
	simSegment  string
	simBuilding string
	simScenario string
	simRankBy   string
	simTemp     float64
	simTariff   float64
	simBudget   float64
	simJSON     bool
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Evaluate retrofit scenarios without the model",
	Long: "Runs the physics engine directly.\n\n" +
		"  --building and --scenario   one evaluation\n" +
		"  --building                  every scenario ranked by --rank-by\n" +
		"  --building and --budget     the best scenario within budget\n" +
		"  --scenario                  every building under one scenario",
	RunE: runSimulate,
}

func init() {
	simulateCmd.Flags().StringVarP(&simSegment, "segment", "s", catalog.SegmentUniversityHE, "Customer segment")
	simulateCmd.Flags().StringVarP(&simBuilding, "building", "b", "", "Building name")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Scenario id")
	simulateCmd.Flags().StringVar(&simRankBy, "rank-by", "", "carbon_saving, cost_saving, payback or cost_per_tonne")
	simulateCmd.Flags().Float64Var(&simTemp, "temp", 0, "Outdoor temperature in °C (default from config)")
	simulateCmd.Flags().Float64Var(&simTariff, "tariff", 0, "Electricity tariff per kWh (default from config)")
	simulateCmd.Flags().Float64Var(&simBudget, "budget", 0, "Budget in GBP")
	simulateCmd.Flags().BoolVar(&simJSON, "json", false, "Print JSON")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	setupLogging(slog.LevelWarn)

	container, err := loadContainer(nil)
	if err != nil {
		return err
	}
	cfg := container.Config()
	seg, err := container.Catalog().Segment(simSegment)
	if err != nil {
		return err
	}

	w := physics.Weather{TemperatureC: cfg.Simulation.DefaultTemperatureC}
	if cmd.Flags().Changed("temp") {
		w.TemperatureC = simTemp
	}
	tariff := cfg.Simulation.DefaultTariff
	if cmd.Flags().Changed("tariff") {
		tariff = simTariff
	}

	env := tools.NewEnv(seg.Buildings, seg.Scenarios, container.Cache())
	ctx := context.Background()

	var (
		rows []tools.ScenarioResult
		out  any
	)
	switch {
	case simBuilding != "" && simScenario != "":
		r, err := tools.RunScenario(ctx, env, simBuilding, simScenario, w, tariff)
		if err != nil {
			return err
		}
		rows, out = []tools.ScenarioResult{r}, r
	case simBuilding != "" && cmd.Flags().Changed("budget"):
		outcome, err := tools.FindBestForBudget(ctx, env, simBuilding, w, tariff, simBudget)
		if err != nil {
			return err
		}
		if simJSON {
			return printJSON(os.Stdout, outcome)
		}
		return printBudget(os.Stdout, outcome)
	case simBuilding != "":
		rankBy, ok := tools.ParseRankBy(simRankBy)
		if !ok {
			return fmt.Errorf("unknown --rank-by %q", simRankBy)
		}
		rows, err = tools.RankAllScenarios(ctx, env, simBuilding, w, tariff, rankBy)
		if err != nil {
			return err
		}
		out = rows
	case simScenario != "":
		rows, err = tools.CompareAllBuildings(ctx, env, simScenario, w, tariff)
		if err != nil {
			return err
		}
		out = rows
	default:
		return errors.New("--building or --scenario is required")
	}

	if simJSON {
		return printJSON(os.Stdout, out)
	}
	fmt.Printf("%s %s at %.1f °C, £%.2f/kWh\n\n", logo, seg.Label, w.TemperatureC, tariff)
	return printResults(os.Stdout, rows)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printResults(w io.Writer, rows []tools.ScenarioResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "BUILDING\tSCENARIO\tENERGY MWh\tSAVING MWh\tCARBON tCO2e\tSAVING £/yr\tPAYBACK yrs\tINSTALL £\t£/tCO2e\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%.1f\t%.1f\t%.1f\t%.0f\t%s\t%.0f\t%.1f\t\n",
			r.Building, r.Scenario, r.AnnualEnergyMWh, r.EnergySavingMWh, r.CarbonSavingTCO2,
			r.CostSaving, cmdutils.FormatPayback(r.SimplePaybackYrs), r.InstallCost, r.CostPerTonne)
	}
	return tw.Flush()
}

func printBudget(w io.Writer, o tools.BudgetOutcome) error {
	if !o.Feasible {
		fmt.Fprintf(w, "No feasible option for %s within £%.0f: %s\n", o.Building, o.Budget, o.NoFeasibleOption.Reason)
		return nil
	}
	fmt.Fprintf(w, "Best for %s within £%.0f: %s\n\n", o.Building, o.Budget, o.Best.Scenario)
	return printResults(w, append([]tools.ScenarioResult{*o.Best}, o.Alternatives...))
}
