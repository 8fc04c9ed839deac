package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/manim-dataset/internal/dataset"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset <labeled-document> [output-dir]",
	Short: "Assemble the ML dataset from labeled scenes and their frames",
	Long: `Dataset reads a labeled scene document, finds the frames_* directories that
belong to each scene, and writes metadata.json, a SQLite store of 224x224
RGB key frames (image_data.db), and shuffled train/validation/test index
splits (data_splits.json) to the output directory, given as the second
argument or with --output-dir.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runDataset,
}

func init() {
	datasetCmd.Flags().String("output-dir", dataset.DefaultOutputDir, "directory receiving the dataset")
	datasetCmd.Flags().StringSlice("search-dir", nil, "directory searched for frames_* directories (repeatable; default: media/videos and videos near the input)")
	datasetCmd.Flags().Int("min-score", 0, "minimum scene-to-frame-directory match score (default 10)")
	datasetCmd.Flags().Int64("seed", 0, "split shuffle seed (0 = time based)")
	bindFlags(datasetCmd, "dataset", "output-dir", "min-score", "seed")
	_ = viper.BindPFlag("dataset.search_dirs", datasetCmd.Flags().Lookup("search-dir"))

	rootCmd.AddCommand(datasetCmd)
}

func runDataset(cmd *cobra.Command, args []string) error {
	cfg := types.DatasetConfig{
		OutputDir:  viper.GetString("dataset.output_dir"),
		SearchDirs: viper.GetStringSlice("dataset.search_dirs"),
		MinScore:   viper.GetInt("dataset.min_score"),
		Seed:       viper.GetInt64("dataset.seed"),
	}
	if len(args) == 2 {
		cfg.OutputDir = args[1]
	}
	_, err := dataset.Build(args[0], cfg, cmd.OutOrStdout())
	return err
}
