// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the notegraph CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the notegraph CLI.
var rootCmd = &cobra.Command{
	Use:   "notegraph",
	Short: "Turn free-form notes into a knowledge graph",
	Long: `notegraph sends free-form notes to a language model and returns the
concepts and relationships in them as a knowledge graph of labeled nodes and
edges.

Run "notegraph serve" for the web form and HTTP endpoint, or
"notegraph extract" to build a graph from a file or stdin.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./notegraph.yaml or ~/.config/notegraph/notegraph.yaml)")
	rootCmd.PersistentFlags().String("model", "", "model identifier for graph extraction")
	rootCmd.PersistentFlags().String("base-url", "", "base URL of the OpenAI-compatible completion API")
	rootCmd.PersistentFlags().Bool("repair-json", false, "attempt to repair malformed model output before giving up")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	_ = viper.BindPFlag("ai.model", rootCmd.PersistentFlags().Lookup("model"))
	_ = viper.BindPFlag("ai.base_url", rootCmd.PersistentFlags().Lookup("base-url"))
	_ = viper.BindPFlag("ai.repair_json", rootCmd.PersistentFlags().Lookup("repair-json"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	setDefaults(viper.GetViper())
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("notegraph")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "notegraph"))
		}
	}

	bindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
