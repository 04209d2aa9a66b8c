package imgutil

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"os"
)

// PNG color types that carry an alpha channel.
const (
	pngColorGrayAlpha = 4
	pngColorTrueAlpha = 6
)

// PNGHasAlpha reports whether an encoded PNG can carry transparency, from
// its IHDR color type or a tRNS chunk ahead of the pixel data.
func PNGHasAlpha(r io.Reader) (bool, error) {
	br := bufio.NewReader(r)

	sig := make([]byte, len(pngSig))
	if _, err := io.ReadFull(br, sig); err != nil {
		return false, err
	}
	if !hasPrefix(sig, pngSig) {
		return false, errors.New("invalid PNG signature")
	}

	for {
		lenBuf := make([]byte, 4)
		if _, err := io.ReadFull(br, lenBuf); err != nil {
			if err == io.EOF {
				return false, nil
			}
			return false, err
		}
		length := binary.BigEndian.Uint32(lenBuf)

		chunkType := make([]byte, 4)
		if _, err := io.ReadFull(br, chunkType); err != nil {
			return false, err
		}

		chunkName := string(chunkType)

		switch chunkName {
		case "IHDR":
			if length < 13 {
				return false, errors.New("IHDR chunk truncated")
			}
			data := make([]byte, length)
			if _, err := io.ReadFull(br, data); err != nil {
				return false, err
			}
			if _, err := io.CopyN(io.Discard, br, 4); err != nil {
				return false, err
			}
			if data[9] == pngColorGrayAlpha || data[9] == pngColorTrueAlpha {
				return true, nil
			}
		case "tRNS":
			return true, nil
		case "IDAT", "IEND":
			return false, nil
		default:
			if _, err := io.CopyN(io.Discard, br, int64(length)+4); err != nil {
				return false, err
			}
		}
	}
}

// PNGFileHasAlpha opens path and applies PNGHasAlpha.
func PNGFileHasAlpha(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	return PNGHasAlpha(f)
}
