package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"karolbroda.com/kinetic/internal/easing"
	"karolbroda.com/kinetic/internal/ui"
)

var (
	// flags for easings
	sparkWidth  int
	curveWidth  int
	curveHeight int
)

var easingsCmd = &cobra.Command{
	Use:   "easings",
	Short: "list the available easing curves",
	Long:  `list every builtin easing and each registered script with a sparkline of its shape.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, scripts, err := newRegistry(loadConfig(cmd))
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCURVE")

		for _, m := range easing.Builtins() {
			line := ui.Sparkline(ui.SampleCurve(reg.Easing, m, sparkWidth))
			fmt.Fprintf(w, "%d\t%s\t%s\n", uint32(m), m, line)
		}
		for _, path := range slices.Sorted(maps.Keys(scripts)) {
			e := scripts[path]
			m, err := reg.Easing.Parse(e.Name())
			if err != nil {
				continue
			}
			line := ui.Sparkline(ui.SampleCurve(reg.Easing, m, sparkWidth))
			fmt.Fprintf(w, "%d\t%s (script)\t%s\n", uint32(m), e.Name(), line)
		}

		return w.Flush()
	},
}

var curveCmd = &cobra.Command{
	Use:   "curve <name>",
	Short: "plot one easing curve",
	Long:  `draw an easing curve over [0,1]. curves that overshoot widen the plot to fit.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, _, err := newRegistry(loadConfig(cmd))
		if err != nil {
			return err
		}

		m, err := reg.Easing.Parse(args[0])
		if err != nil {
			return err
		}

		samples := ui.SampleCurve(reg.Easing, m, curveWidth)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
		frame := lipgloss.NewStyle().Foreground(lipgloss.Color("#6272A4"))

		fmt.Println(lipgloss.NewStyle().Bold(true).Render(args[0]))
		for _, row := range ui.Plot(samples, curveHeight) {
			fmt.Println(frame.Render("│") + style.Render(row))
		}
		fmt.Println(frame.Render("└" + strings.Repeat("─", len(samples))))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(easingsCmd)
	rootCmd.AddCommand(curveCmd)

	easingsCmd.Flags().IntVar(&sparkWidth, "width", 24, "samples per sparkline")

	curveCmd.Flags().IntVar(&curveWidth, "width", 60, "plot width in columns")
	curveCmd.Flags().IntVar(&curveHeight, "height", 16, "plot height in rows")
}
