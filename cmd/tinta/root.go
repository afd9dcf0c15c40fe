package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "tinta",
	Short: "Catppuccin theme generator for web pages",
	Long: `Tinta analyzes a page's markup and stylesheets and generates a
Catppuccin userstyle recoloring it. CSS custom properties, inline SVG
artwork and high-impact selectors are mapped onto the palette, with an
external classifier assisting the heuristics when one is configured.`,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tinta.toml)")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config file in standard locations
		viper.SetConfigName("tinta")
		viper.SetConfigType("toml")
		viper.AddConfigPath(".")
		if userConfigDir, err := os.UserConfigDir(); err == nil {
			viper.AddConfigPath(userConfigDir + "/tinta")
		}
		viper.AddConfigPath("/etc/tinta")
	}

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile != "" {
		fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		os.Exit(1)
	}
	// Running without a file is fine: every key has a default and
	// TINTA_* environment variables still apply.
}
