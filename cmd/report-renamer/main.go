// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the report-renamer CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/report-renamer/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// secretDefault returns fallback if non-empty, else the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the report-renamer CLI.
var rootCmd = &cobra.Command{
	Use:   "report-renamer",
	Short: "Rename research-report PDFs from AI-extracted cover metadata",
	Long: `report-renamer scans a directory of research-report PDFs, reads each
cover page, asks a generative AI model for the report's industry, region,
title, institution, and date, and renames the file to
industry-region-title-institution-date.pdf in the output directory.

The default mode is a dry run that prints the planned renames; pass
--execute to perform the moves. Executed renames are recorded in a local
ledger so later runs never silently overwrite earlier output.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./report-renamer.yaml or ~/.config/report-renamer/config.yaml)")
}

func initConfig() {
	// A .env file, if present, supplements the environment.
	_ = godotenv.Load()

	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("report-renamer")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "report-renamer"))
		}
	}

	viper.SetEnvPrefix("REPORT_RENAMER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
