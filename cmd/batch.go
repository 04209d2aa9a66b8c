package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/ayush-bhavsar/rm-bg/internal/processor"
	"github.com/ayush-bhavsar/rm-bg/internal/tui"
)

var (
	batchOutputDir      string
	batchQuality        int
	batchPreserveFormat bool
	batchShared         bool
	batchOutDir         string
	batchMaxEdge        int
)

var batchCmd = &cobra.Command{
	Use:   "batch [flags] <folder>",
	Short: "Remove backgrounds from every image in a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("quality") {
			cfg.Output.Quality = batchQuality
		}
		if cmd.Flags().Changed("preserve-format") {
			cfg.Output.PreserveFormat = batchPreserveFormat
		}
		if cmd.Flags().Changed("max-edge") {
			cfg.Processing.MaxEdge = batchMaxEdge
		}
		if cmd.Flags().Changed("shared") {
			if batchShared {
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
		if batchOutputDir != "" && placement == processor.PlacementShared {
			return fmt.Errorf("--output cannot be used with shared placement")
		}

		logger := newLogger()
		remover, closeRemover, err := buildRemover(cfg, logger)
		if err != nil {
			return err
		}
		defer closeRemover()

		opts := processor.Options{
			Placement:      placement,
			DirOverride:    batchOutputDir,
			Quality:        cfg.Output.Quality,
			PreserveFormat: cfg.Output.PreserveFormat,
			MaxEdge:        cfg.Processing.MaxEdge,
			EngineName:     engineLabel(cfg),
		}
		if placement == processor.PlacementShared {
			opts.BaseDir = cfg.Output.Dir
		}
		if batchOutDir != "" {
			opts.BaseDir = batchOutDir
		}

		cmd.SilenceUsage = true

		updates := make(chan processor.ProgressUpdate, 64)
		model := tui.NewModel(updates)
		program := tea.NewProgram(model)

		uiDone := make(chan struct{})
		go func() {
			_, _ = program.Run()
			close(uiDone)
		}()

		rec := processor.New(remover, opts, logger).RemoveBatch(context.Background(), args[0], updates)
		close(updates)
		<-uiDone

		if rec.ErrorKind != "" {
			return errors.New(rec.Error)
		}

		rows := []tui.SummaryRow{
			{Label: "Input folder", Value: rec.InputFolder},
			{Label: "Output folder", Value: rec.RunFolder},
			{Label: "Images found", Value: fmt.Sprintf("%d", rec.TotalImages)},
			{Label: "Processed", Value: fmt.Sprintf("%d", rec.TotalProcessed)},
			{Label: "Failed", Value: fmt.Sprintf("%d", rec.TotalFailed)},
			{Label: "Duration", Value: fmt.Sprintf("%dms", rec.DurationMS)},
		}
		fmt.Fprintln(os.Stdout, tui.RenderSummary(rows))

		if len(rec.FailedFiles) > 0 {
			fmt.Fprintf(os.Stdout, "%s\n", batchHeadStyle.Render("Failed files:"))
			for _, failure := range rec.FailedFiles {
				fmt.Fprintf(os.Stdout, "  %s %s %s\n",
					batchBulletStyle.Render("-"),
					batchFileStyle.Render(failure.File),
					batchDimStyle.Render(failure.Error),
				)
			}
		}

		if rec.Success {
			fmt.Fprintln(os.Stdout, tui.RenderStatus(true, "All backgrounds removed."))
		} else {
			fmt.Fprintln(os.Stdout, tui.RenderStatus(false, fmt.Sprintf("%d of %d images failed.", rec.TotalFailed, rec.TotalImages)))
		}

		if placement == processor.PlacementShared {
			fmt.Fprintf(os.Stdout, "Run logged in: %s\n", filepath.Join(rec.RunFolder, processor.LogFileName))
		} else {
			fmt.Fprintf(os.Stdout, "Batch metadata: %s\n", filepath.Join(rec.RunFolder, processor.BatchMetadataFileName))
		}

		if !rec.Success {
			return fmt.Errorf("%d of %d images failed", rec.TotalFailed, rec.TotalImages)
		}
		return nil
	},
}

var (
	batchHeadStyle   = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	batchFileStyle   = lipgloss.NewStyle().Foreground(tui.ColorInk)
	batchDimStyle    = lipgloss.NewStyle().Foreground(tui.ColorDim)
	batchBulletStyle = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	batchCmd.Flags().StringVarP(&batchOutputDir, "output", "o", "", "exact output folder, replaces the timestamped name")
	batchCmd.Flags().IntVarP(&batchQuality, "quality", "q", 95, "JPEG quality, 1-100")
	batchCmd.Flags().BoolVar(&batchPreserveFormat, "preserve-format", false, "keep JPEG output for JPEG inputs, flattened on white")
	batchCmd.Flags().BoolVar(&batchShared, "shared", false, "write into the shared output folder instead of a run folder")
	batchCmd.Flags().StringVar(&batchOutDir, "outdir", "", "parent folder for run output")
	batchCmd.Flags().IntVar(&batchMaxEdge, "max-edge", 0, "downscale images whose longest edge exceeds this many pixels")

	rootCmd.AddCommand(batchCmd)
}
