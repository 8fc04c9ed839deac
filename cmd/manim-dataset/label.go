package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/manim-dataset/internal/label"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

var labelCmd = &cobra.Command{
	Use:   "label <document> [output]",
	Short: "Add math expression and domain labels to a scene document",
	Long: `Label reads a scene document (from analyze or frames), extracts the
MathTex and Tex expressions and concept comments from each scene's source,
classifies the expressions into mathematical domains, and writes the
document back out with a math_labels field on every scene. The output path
may be given as the second argument or with --output.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runLabel,
}

func init() {
	labelCmd.Flags().StringP("output", "o", label.MathDatasetFile, "labeled output document")
	labelCmd.Flags().String("categories-file", "", "YAML file replacing the built-in category table")
	bindFlags(labelCmd, "label", "output", "categories-file")

	rootCmd.AddCommand(labelCmd)
}

func runLabel(cmd *cobra.Command, args []string) error {
	output := viper.GetString("label.output")
	if len(args) == 2 {
		output = args[1]
	}

	table, err := label.TableFor(types.LabelConfig{CategoriesFile: viper.GetString("label.categories_file")})
	if err != nil {
		return err
	}
	_, err = label.Enhance(args[0], output, table, cmd.OutOrStdout())
	return err
}
