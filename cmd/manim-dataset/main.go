// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the manim-dataset CLI.
// Stages: analyze, frames, label, dataset, plus render and serve for
// producing videos.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/manim-dataset/internal/logging"
	"github.com/pdiddy/manim-dataset/internal/secrets"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds the render credentials loaded from .secrets/ at startup.
var loadedSecrets secrets.Set

// closeLog releases the log file opened by the root command.
var closeLog = func() error { return nil }

// bindFlags binds the named flags of cmd to config keys under section, so
// section.flag_name in the config file or MANIM_DATASET_SECTION_FLAG_NAME
// in the environment supplies the default.
func bindFlags(cmd *cobra.Command, section string, names ...string) {
	for _, name := range names {
		key := section + "." + strings.ReplaceAll(name, "-", "_")
		if err := viper.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			panic(fmt.Sprintf("binding flag %s: %v", name, err))
		}
	}
}

// rootCmd is the base command for the manim-dataset CLI.
var rootCmd = &cobra.Command{
	Use:   "manim-dataset",
	Short: "Build machine-learning datasets from animation scripts and their videos",
	Long: `manim-dataset turns a corpus of animation scripts and rendered videos into
a machine-learning dataset. Each stage is a subcommand that reads and writes
JSON documents on disk:

  analyze   scripts  -> manim_dataset.json
  frames    videos   -> frames_* directories (+ manim_merged_dataset.json)
  label     document -> manim_math_dataset.json
  dataset   document -> manim_ml_dataset/

render submits scenes to a remote render endpoint and serve runs one.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Arguments are valid by now; later errors are not usage errors.
		cmd.SilenceUsage = true
		verbose, _ := cmd.Flags().GetBool("verbose")
		logFile, _ := cmd.Flags().GetString("log-file")
		closeFn, err := logging.Init(logging.Options{Verbose: verbose, File: logFile})
		if err != nil {
			return err
		}
		closeLog = closeFn

		s, err := secrets.Load(secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", s.Names())
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeLog()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./manim-dataset.yaml or ~/.config/manim-dataset/manim-dataset.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
	rootCmd.PersistentFlags().String("log-file", "", "also write logs to this file")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("manim-dataset")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "manim-dataset"))
		}
	}

	viper.SetEnvPrefix("MANIM_DATASET")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

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
