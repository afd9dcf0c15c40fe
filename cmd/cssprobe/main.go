// cssprobe fetches one page and dumps the color facts the analyzer
// finds in it: custom properties, inline SVG colors and categorized
// selector groups. Useful for checking what a theme run will see.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"tinta/analyze"
	"tinta/internal/fetch"
)

func main() {
	styles := flag.Bool("styles", false, "list every captured style property per selector")
	render := flag.Bool("render", false, "render the page in a headless browser first")
	flag.Parse()

	target := "https://example.com/"
	if flag.NArg() > 0 {
		target = flag.Arg(0)
	}

	logger := log.Default()
	fcfg := fetch.Config{Logger: logger}
	if *render {
		r := fetch.NewRenderer(logger)
		defer r.Close()
		fcfg.Renderer = r
	}
	client := fetch.New(fcfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	page, err := client.Load(ctx, target)
	if err != nil {
		logger.Fatal("load page", "url", target, "err", err)
	}
	logger.Info("page loaded", "url", page.URL, "via", page.Via, "sheets", page.Sheets, "css", len(page.CSS))

	snap := analyze.Analyze(page.HTML, page.CSS, analyze.Options{
		URL:            page.URL,
		BrandingColors: page.BrandingColors,
	})

	fmt.Printf("scheme=%s", snap.Scheme)
	if snap.Design.Framework != "" {
		fmt.Printf(" framework=%s(%.2f)", snap.Design.Framework, snap.Design.Confidence)
	}
	fmt.Println()
	if len(snap.Dominant) > 0 {
		fmt.Printf("dominant=%v\n", snap.Dominant)
	}
	if len(snap.Accents) > 0 {
		fmt.Printf("accents=%v\n", snap.Accents)
	}

	fmt.Printf("\nvariables (%d):\n", snap.Counts.Variables)
	for _, v := range snap.Variables {
		fmt.Printf("  %s = %s", v.Name, v.Value)
		if v.ComputedValue != "" && v.ComputedValue != v.Value {
			fmt.Printf(" -> %s", v.ComputedValue)
		}
		fmt.Printf(" (scope=%s freq=%d used-by=%d)\n", v.Scope, v.Frequency, len(v.Usage))
	}

	fmt.Printf("\nsvgs (%d):\n", snap.Counts.SVGs)
	for _, s := range snap.SVGs {
		for _, c := range s.Colors {
			fmt.Printf("  %s=%s purpose=%s location=%s selector=%q\n",
				c.Attr, c.Value, s.Purpose, s.Location, s.Selector)
		}
	}

	fmt.Printf("\nselectors (%d):\n", snap.Counts.Selectors)
	for _, g := range snap.Selectors {
		fmt.Printf("  [%s]\n", g.Category)
		for _, sel := range g.Selectors {
			fmt.Printf("    %s freq=%d spec=%d", sel.Selector, sel.Frequency, sel.Specificity)
			if sel.Interactive {
				fmt.Print(" interactive")
			}
			if sel.Important {
				fmt.Print(" !important")
			}
			fmt.Println()
			if *styles {
				sel.Styles.Each(func(prop, val string) {
					fmt.Printf("      %s: %s\n", prop, val)
				})
			}
		}
	}
}
