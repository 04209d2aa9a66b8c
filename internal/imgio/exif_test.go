package imgio

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func TestReadSourceMeta(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "sample.jpg")

	if err := buildJPEGWithExif(src); err != nil {
		t.Fatalf("build JPEG: %v", err)
	}

	meta, ok := ReadSourceMeta(src)
	if !ok {
		t.Fatal("expected EXIF snapshot")
	}
	if meta.Model != "TestCam" {
		t.Fatalf("got model %q, want %q", meta.Model, "TestCam")
	}
	if meta.CapturedAt != "2024-01-02 03:04:05" {
		t.Fatalf("got captured_at %q", meta.CapturedAt)
	}
	if meta.HasGPS {
		t.Fatal("unexpected GPS flag")
	}
}

func TestReadSourceMetaWithoutExif(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "plain.png")
	writePNG(t, path, 2, 2)

	if _, ok := ReadSourceMeta(path); ok {
		t.Fatal("expected no snapshot for plain PNG")
	}
}

func TestReadSourceMetaMissingFile(t *testing.T) {
	if _, ok := ReadSourceMeta(filepath.Join(t.TempDir(), "absent.jpg")); ok {
		t.Fatal("expected no snapshot for missing file")
	}
}

func buildJPEGWithExif(path string) error {
	exifData := buildExifTIFF()
	exif := append([]byte("Exif\x00\x00"), exifData...)

	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	buf.Write([]byte{0xff, 0xe1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(exif)+2))
	buf.Write(exif)
	buf.Write([]byte{0xff, 0xd9})

	return os.WriteFile(path, buf.Bytes(), 0o644)
}

func buildExifTIFF() []byte {
	var tiff bytes.Buffer
	tiff.Write([]byte{0x49, 0x49, 0x2a, 0x00})
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0110))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(8))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(38))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(0x0132))
	_ = binary.Write(&tiff, binary.LittleEndian, uint16(2))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(20))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(46))
	_ = binary.Write(&tiff, binary.LittleEndian, uint32(0))
	tiff.Write([]byte("TestCam\x00"))
	tiff.Write([]byte("2024:01:02 03:04:05\x00"))
	return tiff.Bytes()
}
