// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the rs-harvester CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/rs-harvester/internal/secrets"
	"github.com/pdiddy/rs-harvester/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// logger is the process-wide structured logger, configured in the root
// command before any subcommand runs.
var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
	Prefix:          "rs-harvester",
})

// loadedSecrets holds credentials loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the rs-harvester CLI.
var rootCmd = &cobra.Command{
	Use:   "rs-harvester",
	Short: "Harvest research-software repositories and their publications",
	Long: `rs-harvester gathers metadata about research-software repositories and the
publications that reference them. The harvest subcommand pages through
rate-limited repository searches over date-bounded windows and persists
deduplicated records into a document store; arxiv collects publication
metadata; annotate and reconcile maintain the stored records.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logger.SetLevel(log.DebugLevel)
		}

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./rs-harvester.yaml or ~/.config/rs-harvester/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("rs-harvester")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "rs-harvester"))
		}
	}

	viper.SetEnvPrefix("RS_HARVESTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// loadConfig unmarshals the merged configuration sources. The config
// structs carry yaml tags, so the decoder reads those instead of the
// default mapstructure names.
func loadConfig() (types.HarvesterConfig, error) {
	var cfg types.HarvesterConfig
	err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "yaml"
	})
	if err != nil {
		return cfg, fmt.Errorf("parsing configuration: %w", err)
	}
	cfg.Database.Defaults()
	return cfg, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
