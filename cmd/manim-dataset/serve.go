package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/manim-dataset/internal/render"
	"github.com/pdiddy/manim-dataset/pkg/types"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the render endpoint",
	Long: `Serve runs the render endpoint that the render command talks to. POST
/api/predict accepts {"data": [project_zip_base64, main_file, scene, quality]},
renders the scene with a local renderer install or inside a container, and
answers {"data": ["success", video_base64]} or {"data": ["error", message]}.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", render.DefaultAddr, "listen address")
	serveCmd.Flags().String("backend", string(types.BackendLocal), "renderer backend: local or container")
	serveCmd.Flags().String("binary", render.DefaultBinary, "renderer executable")
	serveCmd.Flags().String("image", render.DefaultImage, "container image for the container backend")
	serveCmd.Flags().Duration("render-timeout", 15*time.Minute, "maximum duration of one render")
	bindFlags(serveCmd, "serve", "addr", "backend", "binary", "image", "render-timeout")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := types.ServeConfig{
		Addr:          viper.GetString("serve.addr"),
		Backend:       types.RenderBackend(viper.GetString("serve.backend")),
		Binary:        viper.GetString("serve.binary"),
		Image:         viper.GetString("serve.image"),
		RenderTimeout: viper.GetDuration("serve.render_timeout"),
	}

	var renderer render.Renderer
	switch cfg.Backend {
	case types.BackendLocal:
		renderer = &render.LocalRenderer{Binary: cfg.Binary}
	case types.BackendContainer:
		cr, err := render.NewContainerRenderer(cfg.Image, cfg.Binary)
		if err != nil {
			return err
		}
		fmt.Printf("Rendering in %s with image %s\n", cr.Runtime.Name(), cr.Image)
		renderer = cr
	default:
		return fmt.Errorf("unknown backend %q: use local or container", cfg.Backend)
	}

	srv := render.NewServer(cfg, renderer)
	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	select {
	case err := <-errc:
		return err
	case <-cmd.Context().Done():
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
