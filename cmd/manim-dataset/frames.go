package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/manim-dataset/internal/analyze"
	"github.com/pdiddy/manim-dataset/internal/frames"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

var framesCmd = &cobra.Command{
	Use:   "frames <video-or-directory>",
	Short: "Sample frames from rendered videos and merge them with scenes",
	Long: `Frames finds every video under the target, samples frames at the configured
rate into a frames_<name> directory beside each video, and, when the analyze
document exists, matches each scene to its best video and spreads that
video's frames across the scene's steps.`,
	Args: cobra.ExactArgs(1),
	RunE: runFrames,
}

func init() {
	framesCmd.Flags().Float64("fraction", 1, "frames sampled per second of video")
	framesCmd.Flags().Int("workers", 1, "videos extracted at once (0 = one per physical CPU)")
	framesCmd.Flags().Int("min-score", 0, "minimum scene-to-video match score (default 10)")
	framesCmd.Flags().Int("jpeg-quality", 0, "JPEG quality for written frames (default 95)")
	framesCmd.Flags().String("dataset", analyze.DatasetFile, "analyze document to merge frames into")
	framesCmd.Flags().StringP("output", "o", frames.MergedDatasetFile, "merged output document")
	bindFlags(framesCmd, "frames", "fraction", "workers", "min-score", "jpeg-quality", "dataset", "output")

	rootCmd.AddCommand(framesCmd)
}

func runFrames(cmd *cobra.Command, args []string) error {
	cfg := types.FramesConfig{
		Fraction:    viper.GetFloat64("frames.fraction"),
		Workers:     viper.GetInt("frames.workers"),
		MinScore:    viper.GetInt("frames.min_score"),
		JPEGQuality: viper.GetInt("frames.jpeg_quality"),
	}
	datasetPath := viper.GetString("frames.dataset")
	output := viper.GetString("frames.output")

	dec, err := frames.NewFFmpegDecoder()
	if err != nil {
		return err
	}
	videos, err := frames.Discover(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("Found %d videos\n", len(videos))

	extracted, result := frames.ExtractAll(cmd.Context(), dec, videos, cfg, os.Stdout)

	if _, err := os.Stat(datasetPath); errors.Is(err, os.ErrNotExist) {
		fmt.Printf("No scene document at %s, skipping merge\n", datasetPath)
	} else {
		scenes, err := analyze.ReadDataset(datasetPath)
		if err != nil {
			return err
		}
		merged := frames.Merge(scenes, extracted, cfg.MinScore, os.Stdout)
		if err := frames.WriteMerged(output, merged); err != nil {
			return err
		}
		fmt.Printf("Saved %d merged scenes to %s\n", len(merged), output)
	}

	if result.HasFailures() {
		return fmt.Errorf("%d video(s) failed frame extraction", result.Failed)
	}
	return nil
}
