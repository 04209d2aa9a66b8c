package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ayush-bhavsar/rm-bg/internal/processor"
	"github.com/ayush-bhavsar/rm-bg/internal/tui"
)

var (
	removeOutputName     string
	removeQuality        int
	removePreserveFormat bool
	removeShared         bool
	removeOutDir         string
	removeMaxEdge        int
)

var removeCmd = &cobra.Command{
	Use:   "remove [flags] <image>",
	Short: "Remove the background from a single image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("quality") {
			cfg.Output.Quality = removeQuality
		}
		if cmd.Flags().Changed("preserve-format") {
			cfg.Output.PreserveFormat = removePreserveFormat
		}
		if cmd.Flags().Changed("max-edge") {
			cfg.Processing.MaxEdge = removeMaxEdge
		}
		if cmd.Flags().Changed("shared") {
			if removeShared {
				cfg.Output.Placement = "shared"
			} else {
				cfg.Output.Placement = "timestamped"
			}
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		placement, err := processor.ParsePlacement(cfg.Output.Placement)
		if err != nil {
			return err
		}

		logger := newLogger()
		remover, closeRemover, err := buildRemover(cfg, logger)
		if err != nil {
			return err
		}
		defer closeRemover()

		opts := processor.Options{
			Placement:      placement,
			OutputName:     removeOutputName,
			Quality:        cfg.Output.Quality,
			PreserveFormat: cfg.Output.PreserveFormat,
			MaxEdge:        cfg.Processing.MaxEdge,
			EngineName:     engineLabel(cfg),
		}
		if placement == processor.PlacementShared {
			opts.BaseDir = cfg.Output.Dir
		}
		if removeOutDir != "" {
			opts.BaseDir = removeOutDir
		}

		cmd.SilenceUsage = true

		rec := processor.New(remover, opts, logger).RemoveOne(context.Background(), args[0])
		if !rec.Success {
			return errors.New(rec.Error)
		}

		rows := []tui.SummaryRow{
			{Label: "Input", Value: rec.InputFile},
			{Label: "Output", Value: rec.OutputFile},
		}
		if rec.ImageSize != nil {
			rows = append(rows, tui.SummaryRow{Label: "Size", Value: fmt.Sprintf("%dx%d", rec.ImageSize.Width, rec.ImageSize.Height)})
		}
		rows = append(rows,
			tui.SummaryRow{Label: "Engine", Value: rec.Engine},
			tui.SummaryRow{Label: "Duration", Value: fmt.Sprintf("%dms", rec.DurationMS)},
		)
		fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))
		fmt.Fprintln(os.Stdout, tui.RenderStatus(true, "Background removed."))

		if placement == processor.PlacementShared {
			fmt.Fprintf(os.Stdout, "Run logged in: %s\n", filepath.Join(rec.RunFolder, processor.LogFileName))
		} else {
			fmt.Fprintf(os.Stdout, "Run metadata: %s\n", filepath.Join(rec.RunFolder, processor.MetadataFileName))
		}

		return nil
	},
}

func init() {
	removeCmd.Flags().StringVarP(&removeOutputName, "output", "o", "", "output file name inside the run folder")
	removeCmd.Flags().IntVarP(&removeQuality, "quality", "q", 95, "JPEG quality, 1-100")
	removeCmd.Flags().BoolVar(&removePreserveFormat, "preserve-format", false, "keep JPEG output for JPEG input, flattened on white")
	removeCmd.Flags().BoolVar(&removeShared, "shared", false, "write into the shared output folder instead of a run folder")
	removeCmd.Flags().StringVar(&removeOutDir, "outdir", "", "parent folder for run output")
	removeCmd.Flags().IntVar(&removeMaxEdge, "max-edge", 0, "downscale images whose longest edge exceeds this many pixels")

	rootCmd.AddCommand(removeCmd)
}
