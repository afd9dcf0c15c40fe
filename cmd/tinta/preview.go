package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"tinta/palette"
)

var previewCmd = &cobra.Command{
	Use:   "preview [flavor]",
	Short: "Print palette swatches",
	Long: `Print every palette token of a flavor as a colored swatch. With no
argument all four flavors are shown.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"latte", "frappe", "macchiato", "mocha"},
	RunE:      runPreview,
}

func init() {
	rootCmd.AddCommand(previewCmd)
}

func runPreview(cmd *cobra.Command, args []string) error {
	flavors := palette.Flavors()
	if len(args) == 1 {
		f, ok := palette.ParseFlavor(args[0])
		if !ok {
			return fmt.Errorf("unknown flavor %q", args[0])
		}
		flavors = []palette.Flavor{f}
	}
	for i, f := range flavors {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(renderFlavor(f))
	}
	return nil
}

func renderFlavor(f palette.Flavor) string {
	title := lipgloss.NewStyle().Bold(true).Render(string(f))
	lines := []string{title}
	inAccents := false
	for _, t := range palette.Tokens() {
		// Blank line between the neutral tiers and the accent wheel.
		if t.IsAccent() && !inAccents {
			lines = append(lines, "")
			inAccents = true
		}
		hex, _ := palette.Hex(f, t)
		swatch := lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("      ")
		lines = append(lines, fmt.Sprintf("%s %-10s %s", swatch, t, hex))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
