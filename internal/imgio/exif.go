package imgio

import (
	"io"
	"os"
	"strings"

	exif "github.com/dsoprea/go-exif/v3"
)

// SourceMeta is the EXIF snapshot carried into run metadata.
type SourceMeta struct {
	Make       string `json:"make,omitempty"`
	Model      string `json:"model,omitempty"`
	CapturedAt string `json:"captured_at,omitempty"`
	HasGPS     bool   `json:"has_gps,omitempty"`
}

// ReadSourceMeta is best effort: unreadable EXIF yields ok=false, never
// an error.
func ReadSourceMeta(path string) (SourceMeta, bool) {
	f, err := os.Open(path)
	if err != nil {
		return SourceMeta{}, false
	}
	defer f.Close()

	return readSourceMeta(f)
}

func readSourceMeta(rs io.ReadSeeker) (SourceMeta, bool) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return SourceMeta{}, false
	}

	tags, _, err := exif.GetFlatExifDataUniversalSearchWithReadSeeker(rs, nil, true)
	if err != nil {
		return SourceMeta{}, false
	}

	meta := SourceMeta{}
	var dateTime, dateTimeOriginal, dateTimeDigitized string

	for _, tag := range tags {
		if strings.HasPrefix(tag.TagName, "GPS") || strings.Contains(tag.IfdPath, "GPS") {
			meta.HasGPS = true
		}

		switch tag.TagName {
		case "Make":
			meta.Make = strings.TrimSpace(tag.Formatted)
		case "Model", "CameraModelName":
			if meta.Model == "" {
				meta.Model = strings.TrimSpace(tag.Formatted)
			}
		case "DateTimeOriginal":
			dateTimeOriginal = tag.Formatted
		case "DateTimeDigitized":
			dateTimeDigitized = tag.Formatted
		case "DateTime":
			dateTime = tag.Formatted
		}
	}

	ts := dateTimeOriginal
	if ts == "" {
		ts = dateTimeDigitized
	}
	if ts == "" {
		ts = dateTime
	}
	if ts != "" {
		// EXIF dates use colons in the date part: 2024:01:02 03:04:05.
		meta.CapturedAt = replaceFirstN(strings.TrimSpace(ts), ":", "-", 2)
	}

	ok := meta.Make != "" || meta.Model != "" || meta.CapturedAt != "" || meta.HasGPS
	return meta, ok
}

func replaceFirstN(s, old, new string, n int) string {
	if n <= 0 || old == "" {
		return s
	}
	out := s
	for i := 0; i < n; i++ {
		if idx := strings.Index(out, old); idx >= 0 {
			out = out[:idx] + new + out[idx+len(old):]
		} else {
			break
		}
	}
	return out
}
