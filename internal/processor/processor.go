package processor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/ayush-bhavsar/rm-bg/internal/imgio"
	"github.com/ayush-bhavsar/rm-bg/internal/rembg"
	"github.com/ayush-bhavsar/rm-bg/pkg/imgutil"
)

type Processor struct {
	remover rembg.Remover
	opts    Options
	log     *slog.Logger
	now     func() time.Time
}

func New(remover rembg.Remover, opts Options, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{remover: remover, opts: opts, log: logger, now: time.Now}
}

func (p *Processor) RemoveOne(ctx context.Context, inputPath string) *RunRecord {
	started := p.now()
	ts := started.Format(timestampLayout)

	rec := &RunRecord{
		Kind:           "single",
		RunID:          ksuid.New().String(),
		Timestamp:      ts,
		InputFile:      inputPath,
		OutputQuality:  p.opts.Quality,
		PreserveFormat: p.opts.PreserveFormat,
		Engine:         p.opts.EngineName,
	}

	fail := func(kind FailureKind, err error) *RunRecord {
		rec.Success = false
		rec.ErrorKind = kind
		rec.Error = err.Error()
		rec.DurationMS = p.now().Sub(started).Milliseconds()
		p.log.Error("run failed", "input", inputPath, "kind", string(kind), "error", err)
		return rec
	}

	if fi, err := os.Stat(inputPath); err != nil || fi.IsDir() {
		return fail(FailMissingInput, errors.New("input file not found"))
	}

	runDir := p.runFolderSingle(inputPath, ts)
	rec.RunFolder = runDir

	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fail(FailProcessing, fmt.Errorf("create run folder: %w", err))
	}

	shared := p.opts.Placement == PlacementShared
	if shared {
		// Refuse to touch a shared folder whose history is unreadable.
		if _, err := loadRunLog(runDir); err != nil {
			return fail(kindForLogError(err), err)
		}
	}

	name := p.opts.OutputName
	if name == "" {
		name = p.outputFileName(inputPath, false)
	} else {
		name = filepath.Base(name)
	}
	outPath := filepath.Join(runDir, name)

	if err := p.processImage(ctx, inputPath, outPath, rec); err != nil {
		fail(FailProcessing, err)
		if shared {
			if logErr := appendRunLog(runDir, ts, rec); logErr != nil {
				p.log.Error("append run log", "folder", runDir, "error", logErr)
			}
		}
		return rec
	}

	rec.OutputFile = outPath
	rec.Success = true
	rec.DurationMS = p.now().Sub(started).Milliseconds()

	if shared {
		if err := appendRunLog(runDir, ts, rec); err != nil {
			return fail(kindForLogError(err), err)
		}
	} else {
		if err := writeJSONAtomic(runDir, MetadataFileName, rec); err != nil {
			return fail(FailProcessing, fmt.Errorf("write metadata: %w", err))
		}
	}

	p.log.Info("background removed", "input", inputPath, "output", outPath, "ms", rec.DurationMS)
	return rec
}

func (p *Processor) RemoveBatch(ctx context.Context, inputDir string, updates chan<- ProgressUpdate) *BatchRecord {
	started := p.now()
	ts := started.Format(timestampLayout)

	rec := &BatchRecord{
		Kind:           "batch",
		RunID:          ksuid.New().String(),
		Timestamp:      ts,
		InputFolder:    inputDir,
		PreserveFormat: p.opts.PreserveFormat,
		OutputQuality:  p.opts.Quality,
		Engine:         p.opts.EngineName,
		ProcessedFiles: []ProcessedFile{},
		FailedFiles:    []FailedFile{},
	}

	fail := func(kind FailureKind, err error) *BatchRecord {
		rec.Success = false
		rec.ErrorKind = kind
		rec.Error = err.Error()
		rec.DurationMS = p.now().Sub(started).Milliseconds()
		p.log.Error("batch failed", "folder", inputDir, "kind", string(kind), "error", err)
		return rec
	}

	if fi, err := os.Stat(inputDir); err != nil || !fi.IsDir() {
		return fail(FailMissingInput, errors.New("input folder not found"))
	}

	runDir := p.runFolderBatch(ts)
	rec.RunFolder = runDir

	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return fail(FailProcessing, fmt.Errorf("create output folder: %w", err))
	}

	shared := p.opts.Placement == PlacementShared
	if shared {
		if _, err := loadRunLog(runDir); err != nil {
			return fail(kindForLogError(err), err)
		}
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return fail(FailProcessing, fmt.Errorf("list input folder: %w", err))
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() && imgutil.IsSupportedFile(entry.Name()) {
			files = append(files, entry.Name())
		}
	}
	rec.TotalImages = len(files)

	if len(files) == 0 {
		fail(FailNoMatches, errors.New("no image files found"))
		if shared {
			if logErr := appendRunLog(runDir, ts, rec); logErr != nil {
				p.log.Error("append run log", "folder", runDir, "error", logErr)
			}
		}
		return rec
	}

	p.log.Info("starting batch", "folder", inputDir, "images", len(files), "output", runDir)
	if updates != nil {
		updates <- ProgressUpdate{TotalDelta: len(files)}
	}

	for _, name := range files {
		if updates != nil {
			updates <- ProgressUpdate{File: name}
		}

		inputPath := filepath.Join(inputDir, name)
		outName := p.outputFileName(name, true)
		outPath := filepath.Join(runDir, outName)

		if err := p.processImage(ctx, inputPath, outPath, nil); err != nil {
			rec.FailedFiles = append(rec.FailedFiles, FailedFile{File: name, Error: err.Error()})
			rec.TotalFailed++
			p.log.Warn("file failed", "file", inputPath, "error", err)
			if updates != nil {
				updates <- ProgressUpdate{FailedDelta: 1}
			}
			continue
		}

		rec.ProcessedFiles = append(rec.ProcessedFiles, ProcessedFile{Input: name, Output: outName})
		rec.TotalProcessed++
		p.log.Debug("file processed", "file", inputPath, "output", outPath)
		if updates != nil {
			updates <- ProgressUpdate{ProcessedDelta: 1}
		}
	}

	rec.Success = rec.TotalFailed == 0
	rec.DurationMS = p.now().Sub(started).Milliseconds()

	if shared {
		if err := appendRunLog(runDir, ts, rec); err != nil {
			return fail(kindForLogError(err), err)
		}
	} else {
		if err := writeJSONAtomic(runDir, BatchMetadataFileName, rec); err != nil {
			return fail(FailProcessing, fmt.Errorf("write batch metadata: %w", err))
		}
	}

	return rec
}

func (p *Processor) processImage(ctx context.Context, inputPath, outPath string, rec *RunRecord) error {
	img, info, err := imgio.Load(inputPath)
	if err != nil {
		return err
	}

	if extKind := imgutil.KindFromExtension(inputPath); extKind != imgutil.KindUnknown && extKind != info.Kind {
		p.log.Warn("extension does not match content", "path", inputPath, "extension", extKind.String(), "content", info.Kind.String())
	}

	if rec != nil {
		rec.ImageSize = &Dimensions{Width: info.Width, Height: info.Height}
		if meta, ok := imgio.ReadSourceMeta(inputPath); ok {
			rec.Source = &meta
		}
	}

	working := imgio.DownscaleMaxEdge(img, p.opts.MaxEdge)

	cutout, err := p.remover.Remove(ctx, working)
	if err != nil {
		return fmt.Errorf("remove background: %w", err)
	}

	out := image.Image(cutout)
	if p.opts.PreserveFormat && imgutil.KindFromExtension(inputPath) == imgutil.KindJPEG {
		out = imgio.FlattenOnWhite(cutout)
	}

	if err := imgio.Save(out, outPath, p.opts.Quality); err != nil {
		return err
	}

	if rec != nil && strings.EqualFold(filepath.Ext(outPath), ".png") {
		if hasAlpha, err := imgutil.PNGFileHasAlpha(outPath); err == nil {
			rec.OutputAlpha = &hasAlpha
		}
	}

	return nil
}
