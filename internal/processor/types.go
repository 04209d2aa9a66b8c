package processor

import (
	"fmt"

	"github.com/ayush-bhavsar/rm-bg/internal/imgio"
)

type Placement int

const (
	PlacementTimestamped Placement = iota
	PlacementShared
)

func (p Placement) String() string {
	switch p {
	case PlacementShared:
		return "shared"
	default:
		return "timestamped"
	}
}

func ParsePlacement(s string) (Placement, error) {
	switch s {
	case "", "timestamped":
		return PlacementTimestamped, nil
	case "shared":
		return PlacementShared, nil
	default:
		return PlacementTimestamped, fmt.Errorf("unknown placement %q", s)
	}
}

type FailureKind string

const (
	FailMissingInput FailureKind = "missing_input"
	FailNoMatches    FailureKind = "no_matching_files"
	FailProcessing   FailureKind = "processing"
	FailCorruptLog   FailureKind = "corrupt_log"
)

type Options struct {
	Placement      Placement
	BaseDir        string // parent of timestamped run folders, or the shared folder itself
	DirOverride    string // batch only: exact output folder, skipping run naming
	OutputName     string // single only: explicit output file name (base name is used)
	Quality        int
	PreserveFormat bool
	MaxEdge        int
	EngineName     string
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type RunRecord struct {
	Kind           string            `json:"kind"`
	RunID          string            `json:"run_id"`
	Timestamp      string            `json:"timestamp"`
	InputFile      string            `json:"input_file"`
	OutputFile     string            `json:"output_file,omitempty"`
	RunFolder      string            `json:"run_folder,omitempty"`
	ImageSize      *Dimensions       `json:"image_size,omitempty"`
	OutputQuality  int               `json:"output_quality"`
	PreserveFormat bool              `json:"preserve_format"`
	Engine         string            `json:"engine,omitempty"`
	Source         *imgio.SourceMeta `json:"source,omitempty"`
	OutputAlpha    *bool             `json:"output_alpha,omitempty"`
	DurationMS     int64             `json:"duration_ms"`
	Success        bool              `json:"success"`
	Error          string            `json:"error,omitempty"`
	ErrorKind      FailureKind       `json:"error_kind,omitempty"`
}

type ProcessedFile struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

type FailedFile struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

type BatchRecord struct {
	Kind           string          `json:"kind"`
	RunID          string          `json:"run_id"`
	Timestamp      string          `json:"timestamp"`
	RunFolder      string          `json:"run_folder,omitempty"`
	InputFolder    string          `json:"input_folder"`
	TotalProcessed int             `json:"total_processed"`
	TotalFailed    int             `json:"total_failed"`
	TotalImages    int             `json:"total_images"`
	PreserveFormat bool            `json:"preserve_format"`
	OutputQuality  int             `json:"output_quality"`
	Engine         string          `json:"engine,omitempty"`
	ProcessedFiles []ProcessedFile `json:"processed_files"`
	FailedFiles    []FailedFile    `json:"failed_files"`
	DurationMS     int64           `json:"duration_ms"`
	Success        bool            `json:"success"`
	Error          string          `json:"error,omitempty"`
	ErrorKind      FailureKind     `json:"error_kind,omitempty"`
}

type ProgressUpdate struct {
	TotalDelta     int
	ProcessedDelta int
	FailedDelta    int
	File           string
}
