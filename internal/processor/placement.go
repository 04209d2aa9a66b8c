package processor

import (
	"path/filepath"
	"strings"

	"github.com/ayush-bhavsar/rm-bg/pkg/imgutil"
)

const timestampLayout = "20060102_150405"

func (p *Processor) runFolderSingle(inputPath, ts string) string {
	if p.opts.Placement == PlacementShared {
		return p.sharedDir()
	}
	return filepath.Join(p.opts.BaseDir, stemOf(inputPath)+"_"+ts)
}

func (p *Processor) runFolderBatch(ts string) string {
	if p.opts.Placement == PlacementShared {
		return p.sharedDir()
	}
	if p.opts.DirOverride != "" {
		return p.opts.DirOverride
	}
	return filepath.Join(p.opts.BaseDir, "batch_"+ts)
}

func (p *Processor) sharedDir() string {
	if p.opts.BaseDir != "" {
		return p.opts.BaseDir
	}
	return "processed"
}

// Timestamped batch outputs keep the source stem; everything else gets
// the _no_bg suffix.
func (p *Processor) outputFileName(inputPath string, batch bool) string {
	ext := ".png"
	if p.opts.PreserveFormat && imgutil.KindFromExtension(inputPath) == imgutil.KindJPEG {
		ext = ".jpg"
	}

	stem := stemOf(inputPath)
	if batch && p.opts.Placement == PlacementTimestamped {
		return stem + ext
	}
	return stem + "_no_bg" + ext
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
