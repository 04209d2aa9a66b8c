package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayush-bhavsar/rm-bg/internal/config"
	"github.com/ayush-bhavsar/rm-bg/internal/rembg"
)

var (
	rootConfigPath string
	rootEndpoint   string
	rootEngine     string
	rootModel      string
	rootVerbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "rmbg",
	Short: "rmbg ✂️ - remove image backgrounds from the command line",
	Long:  "rmbg ✂️ cuts the background out of photos, one image or a whole folder at a time, and keeps JSON records of every run.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "path to a config file (default rmbg.toml if present)")
	rootCmd.PersistentFlags().StringVar(&rootEndpoint, "endpoint", "", "rembg server URL")
	rootCmd.PersistentFlags().StringVar(&rootEngine, "engine", "", "segmentation engine: http or local")
	rootCmd.PersistentFlags().StringVar(&rootModel, "model", "", "segmentation model name")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "log engine traffic and per-file details")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(rootConfigPath)
	if err != nil {
		return nil, err
	}
	if rootEndpoint != "" {
		cfg.Engine.Endpoint = rootEndpoint
	}
	if rootEngine != "" {
		cfg.Engine.Kind = rootEngine
	}
	if rootModel != "" {
		cfg.Engine.Model = rootModel
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if rootVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func buildRemover(cfg *config.Config, logger *slog.Logger) (rembg.Remover, func(), error) {
	switch cfg.Engine.Kind {
	case "http":
		remover := rembg.NewHTTPRemover(cfg.Engine.Endpoint, rembg.HTTPOptions{
			Model:   cfg.Engine.Model,
			APIKey:  cfg.Engine.APIKey,
			Timeout: cfg.Timeout(),
			Logger:  logger,
		})
		return remover, func() {}, nil
	case "local":
		remover, err := rembg.NewLocalRemover(cfg.Engine.ModelPath, logger)
		if err != nil {
			return nil, nil, err
		}
		return remover, remover.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown engine kind %q", cfg.Engine.Kind)
	}
}

func engineLabel(cfg *config.Config) string {
	if cfg.Engine.Kind == "http" && cfg.Engine.Model != "" {
		return cfg.Engine.Kind + ":" + cfg.Engine.Model
	}
	return cfg.Engine.Kind
}
