package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/crowagent/crowagent/internal/agent"
)

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "List customer segments with their buildings and scenarios",
	RunE:  runSegments,
}

func runSegments(_ *cobra.Command, _ []string) error {
	setupLogging(slog.LevelWarn)

	container, err := loadContainer(nil)
	if err != nil {
		return err
	}
	cat := container.Catalog()
	for _, id := range cat.SegmentIDs() {
		seg, err := cat.Segment(id)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s (%s)\n", logo, seg.Label, seg.ID)

		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "  BUILDING\tAREA m²\tBASELINE MWh\tTYPE")
		for _, name := range seg.Buildings.Names() {
			b := seg.Buildings[name]
			fmt.Fprintf(tw, "  %s\t%.0f\t%.0f\t%s\n", name, b.FloorAreaM2, b.BaselineEnergyMWh, b.BuildingType)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Printf("  Scenarios: %v\n", seg.Scenarios.Names())
		fmt.Printf("  Defaults:  %v\n", seg.Defaults)
		fmt.Println("  Try asking:")
		for _, q := range agent.StarterQuestionsFor(seg.ID) {
			fmt.Printf("    • %s\n", q)
		}
		fmt.Println()
	}
	return nil
}
