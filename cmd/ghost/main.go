// Command ghost opens a window and renders the configured mesh with a free-fly camera.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/GhostlyActive/Ghost-Engine-3D/common"
	"github.com/GhostlyActive/Ghost-Engine-3D/config"
	"github.com/GhostlyActive/Ghost-Engine-3D/engine"
)

func init() {
	// GLFW and the native surface must stay on the main OS thread.
	runtime.LockOSThread()
}

type flags struct {
	configPath string
	verbose    bool
	hotReload  bool
	drivers    []string
	mesh       string
	texture    string
}

func newRootCommand() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:           "ghost",
		Short:         "Render a textured OBJ mesh with a free-fly camera",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "TOML or YAML config file")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "log at debug level")
	cmd.Flags().BoolVar(&f.hotReload, "hot-reload", false, "recompile shaders when their files change")
	cmd.Flags().StringSliceVar(&f.drivers, "driver", nil, "driver preference order (hardware, software, reference)")
	cmd.Flags().StringVar(&f.mesh, "mesh", "", "OBJ file to render")
	cmd.Flags().StringVar(&f.texture, "texture", "", "image bound to the mesh")
	return cmd
}

// loadConfig merges the config file and the command line flags.
func loadConfig(cmd *cobra.Command, f flags) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("hot-reload") {
		cfg.Debug.HotReload = f.hotReload
	}
	if len(f.drivers) > 0 {
		cfg.Graphics.Drivers = f.drivers
	}
	if f.mesh != "" {
		cfg.Assets.Mesh = f.mesh
	}
	if f.texture != "" {
		cfg.Assets.Texture = f.texture
	}
	return cfg, cfg.Validate()
}

func run(cmd *cobra.Command, f flags) error {
	level := slog.LevelInfo
	if f.verbose {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return err
	}

	e := engine.NewEngine(opts...)
	return e.Run()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "ghost:", err)
		os.Exit(1)
	}
}
