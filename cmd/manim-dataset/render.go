package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/manim-dataset/internal/analyze"
	"github.com/pdiddy/manim-dataset/internal/render"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

var renderCmd = &cobra.Command{
	Use:   "render <project-dir>",
	Short: "Render scenes on a remote render endpoint",
	Long: `Render zips the project directory (Python sources plus images and data
files), submits it to the render endpoint for one scene or for every scene
detected in the project, and saves each returned video as
<scene>_<YYYYMMDD-HHMMSS>.mp4 in the output directory.

The endpoint URL and API key come from --space-url and --api-key, the
render section of the config file, or the hf-space-url and hf-api-key
secrets.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().String("scene", "", "scene to render (default: every detected scene)")
	renderCmd.Flags().String("quality", string(types.QualityMedium), "low_quality, medium_quality, or high_quality")
	renderCmd.Flags().String("output-dir", render.DefaultOutputDir, "directory receiving rendered videos")
	renderCmd.Flags().String("main-file", "", "project-relative script to run (default: first .py file)")
	renderCmd.Flags().String("space-url", "", "render endpoint URL (…/api/predict)")
	renderCmd.Flags().String("api-key", "", "bearer token for the render endpoint")
	renderCmd.Flags().Duration("timeout", 0, "timeout per render request (default 10m)")
	renderCmd.Flags().Int("retries", 0, "retries when the endpoint answers 429 or 503")
	bindFlags(renderCmd, "render", "quality", "output-dir", "space-url", "api-key", "timeout", "retries")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	projectDir := args[0]
	scene, _ := cmd.Flags().GetString("scene")
	mainFile, _ := cmd.Flags().GetString("main-file")

	quality := types.RenderQuality(viper.GetString("render.quality"))
	if !quality.Valid() {
		return fmt.Errorf("unknown quality %q: use low_quality, medium_quality, or high_quality", quality)
	}

	cfg := types.RenderConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   viper.GetDuration("render.timeout"),
			UserAgent: "manim-dataset/" + version,
		},
		SpaceURL:  viper.GetString("render.space_url"),
		APIKey:    viper.GetString("render.api_key"),
		Quality:   quality,
		OutputDir: viper.GetString("render.output_dir"),
		Retries:   viper.GetInt("render.retries"),
	}
	loadedSecrets.ApplyRender(&cfg)
	if cfg.Timeout == 0 {
		cfg.Timeout = render.DefaultTimeout
	}

	client := render.NewClient(cfg)
	job := render.Job{ProjectDir: projectDir, MainFile: mainFile}

	if scene != "" {
		job.Scene = scene
		start := time.Now()
		path, err := client.Render(cmd.Context(), job)
		if err != nil {
			return err
		}
		fmt.Printf("Rendered video saved to: %s (%s)\n", path, time.Since(start).Round(time.Second))
		return nil
	}

	scenes, err := analyze.DetectScenes(projectDir, analyzeConfig())
	if err != nil {
		return err
	}
	if len(scenes) == 0 {
		fmt.Println("No scenes detected")
		return nil
	}
	fmt.Printf("Detected %d scenes: %v\n", len(scenes), scenes)

	paths, result, err := client.RenderBatch(cmd.Context(), job, scenes, os.Stdout)
	if err != nil {
		return err
	}
	fmt.Printf("Rendered %d videos:\n", len(paths))
	for _, p := range paths {
		fmt.Printf("- %s\n", p)
	}
	if result.HasFailures() {
		return fmt.Errorf("%d scene(s) failed to render", result.Failed)
	}
	return nil
}
