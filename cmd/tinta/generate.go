package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tinta"
	"tinta/internal/config"
	"tinta/mapping"
	"tinta/palette"
	"tinta/theme"
)

var (
	genFlavor  string
	genAccent  string
	genVariant string
	genVerbose bool
	genOut     string
	genPrompts string
)

var generateCmd = &cobra.Command{
	Use:   "generate <url>",
	Short: "Generate a theme for one page",
	Long: `Fetch a page, map its colors onto the palette and print the resulting
stylesheet to stdout. Logs go to stderr, so the output can be piped.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&genFlavor, "flavor", "", "palette flavor: latte, frappe, macchiato or mocha")
	generateCmd.Flags().StringVar(&genAccent, "accent", "", "main accent token")
	generateCmd.Flags().StringVar(&genVariant, "variant", "", "output variant: baked, dynamic or refined")
	generateCmd.Flags().BoolVar(&genVerbose, "verbose", false, "annotate mappings in the output")
	generateCmd.Flags().StringVarP(&genOut, "out", "o", "", "write the stylesheet to a file instead of stdout")
	generateCmd.Flags().StringVar(&genPrompts, "prompts", "", "classifier prompt override file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level)

	// Config validation covers the configured values, so a parse failure
	// here means a bad flag.
	flavor, ok := palette.ParseFlavor(pick(genFlavor, cfg.Theme.Flavor))
	if !ok {
		return fmt.Errorf("unknown flavor %q", genFlavor)
	}
	accent, ok := palette.ParseAccent(pick(genAccent, cfg.Theme.Accent))
	if !ok {
		return fmt.Errorf("unknown accent %q", genAccent)
	}
	variant, ok := theme.ParseVariant(pick(genVariant, cfg.Theme.Variant))
	if !ok {
		return fmt.Errorf("unknown variant %q", genVariant)
	}

	client, cleanup := newFetchClient(cfg, logger)
	defer cleanup()

	ctx := cmd.Context()
	page, err := client.Load(ctx, args[0])
	if err != nil {
		return err
	}

	res, err := tinta.Run(ctx, tinta.Request{
		URL:            page.URL,
		HTML:           page.HTML,
		CSS:            page.CSS,
		BrandingColors: page.BrandingColors,
		Flavor:         flavor,
		Accent:         accent,
		Variant:        variant,
		Verbose:        genVerbose,
		Version:        buildVersion,
		Classifier:     newClassifier(cfg, logger),
		Prompts:        loadPrompts(pick(genPrompts, cfg.Classifier.Prompts), logger),
	})
	if err != nil {
		for _, issue := range res.MappingReport.Issues {
			if issue.Level == mapping.LevelError {
				logger.Error("mapping issue", "kind", issue.Kind, "fact", issue.Fact, "msg", issue.Message)
			}
		}
		for _, issue := range res.Output.Issues {
			if issue.Level == theme.LevelError {
				logger.Error("output issue", "line", issue.Line, "msg", issue.Message)
			}
		}
		return err
	}

	st := res.Mapping.Stats
	logger.Info("theme generated",
		"host", res.Theme.Host,
		"flavor", res.Theme.Flavor,
		"accent", res.Theme.Accent,
		"variant", res.Theme.Variant,
		"variables", fmt.Sprintf("%d/%d", st.Variables.Mapped, st.Variables.Total),
		"svgs", fmt.Sprintf("%d/%d", st.SVGs.Mapped, st.SVGs.Total),
		"selectors", fmt.Sprintf("%d/%d", st.Selectors.Mapped, st.Selectors.Total),
	)
	for _, issue := range res.MappingReport.Issues {
		logger.Warn("mapping issue", "kind", issue.Kind, "fact", issue.Fact, "msg", issue.Message)
	}

	if genOut != "" {
		if err := os.WriteFile(genOut, []byte(res.Theme.Text), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", genOut, err)
		}
		logger.Info("stylesheet written", "path", genOut, "bytes", len(res.Theme.Text))
		return nil
	}
	fmt.Print(res.Theme.Text)
	return nil
}

// pick returns the explicit flag value, falling back to the configured one.
func pick(flag, configured string) string {
	if flag != "" {
		return flag
	}
	return configured
}
