package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/manim-dataset/internal/analyze"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file-or-directory>",
	Short: "Extract scenes, objects, and animation steps from scripts",
	Long: `Analyze parses every .py file under the target (or the single file given)
and records each scene class: the objects its construct method creates, the
play and wait calls in order, and the class source. Files with syntax errors
are skipped. The result is written as a JSON array.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringP("output", "o", analyze.DatasetFile, "output JSON document")
	analyzeCmd.Flags().String("scene-marker", "Scene", "substring of a base class name that marks a scene")
	analyzeCmd.Flags().String("construct-method", "construct", "scene method that is analyzed")
	analyzeCmd.Flags().String("play-method", "play", "self method recorded as an animation step")
	analyzeCmd.Flags().String("wait-method", "wait", "self method recorded as a wait step")
	bindFlags(analyzeCmd, "analyze", "output", "scene-marker", "construct-method", "play-method", "wait-method")

	rootCmd.AddCommand(analyzeCmd)
}

// analyzeConfig reads the analyze section of the configuration.
func analyzeConfig() types.AnalyzeConfig {
	return types.AnalyzeConfig{
		SceneMarker:     viper.GetString("analyze.scene_marker"),
		ConstructMethod: viper.GetString("analyze.construct_method"),
		PlayMethod:      viper.GetString("analyze.play_method"),
		WaitMethod:      viper.GetString("analyze.wait_method"),
	}.WithDefaults()
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	output := viper.GetString("analyze.output")

	scenes, result, err := analyze.AnalyzePath(args[0], analyzeConfig(), os.Stdout)
	if err != nil {
		return err
	}
	if err := analyze.WriteDataset(output, scenes); err != nil {
		return err
	}
	fmt.Printf("Saved %d scenes to %s\n", len(scenes), output)

	if result.HasFailures() {
		return fmt.Errorf("%d file(s) failed analysis", result.Failed)
	}
	return nil
}
