package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/manim-dataset/internal/analyze"
)

var scenesCmd = &cobra.Command{
	Use:   "scenes <project-dir>",
	Short: "List the scene classes found in a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		scenes, err := analyze.DetectScenes(args[0], analyzeConfig())
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			if scenes == nil {
				scenes = []string{}
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(scenes)
		}
		for _, s := range scenes {
			fmt.Println(s)
		}
		return nil
	},
}

func init() {
	scenesCmd.Flags().Bool("json", false, "output scene names as a JSON array")

	rootCmd.AddCommand(scenesCmd)
}
