// Package avatar inspects and resizes user avatar images. Animated images
// are passed through untouched; static ones are cropped square and scaled.
package avatar

import (
	"bytes"
	"encoding/binary"
)

// Format is an image container detected from magic bytes.
type Format string

const (
	FormatUnknown Format = "unknown"
	FormatGIF     Format = "gif"
	FormatPNG     Format = "png"
	FormatWebP    Format = "webp"
	FormatJPEG    Format = "jpeg"
)

var (
	pngSignature = []byte("\x89PNG\r\n\x1a\n")
	gif87        = []byte("GIF87a")
	gif89        = []byte("GIF89a")
)

// Sniff identifies the container format of data.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, gif87), bytes.HasPrefix(data, gif89):
		return FormatGIF
	case bytes.HasPrefix(data, pngSignature):
		return FormatPNG
	case len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WEBP":
		return FormatWebP
	case len(data) >= 3 && data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF:
		return FormatJPEG
	}
	return FormatUnknown
}

// IsAnimated reports whether data holds more than one frame. Truncated or
// malformed input is reported as not animated.
func IsAnimated(data []byte) bool {
	switch Sniff(data) {
	case FormatGIF:
		return gifFrames(data, 2) > 1
	case FormatPNG:
		return pngHasACTL(data)
	case FormatWebP:
		return webpAnimated(data)
	}
	return false
}

// gifFrames counts image descriptors, stopping once limit is reached.
func gifFrames(data []byte, limit int) int {
	const headerLen = 6 + 7 // signature + logical screen descriptor
	if len(data) < headerLen {
		return 0
	}
	pos := headerLen
	if packed := data[10]; packed&0x80 != 0 {
		pos += 3 << (int(packed&0x07) + 1)
	}

	frames := 0
	for pos < len(data) && frames < limit {
		switch data[pos] {
		case 0x21: // extension: introducer, label, sub-blocks
			pos += 2
			next, ok := skipSubBlocks(data, pos)
			if !ok {
				return frames
			}
			pos = next

		case 0x2C: // image descriptor
			if pos+10 > len(data) {
				return frames
			}
			frames++
			packed := data[pos+9]
			pos += 10
			if packed&0x80 != 0 {
				pos += 3 << (int(packed&0x07) + 1)
			}
			pos++ // LZW minimum code size
			next, ok := skipSubBlocks(data, pos)
			if !ok {
				return frames
			}
			pos = next

		default: // 0x3B trailer or garbage
			return frames
		}
	}
	return frames
}

// skipSubBlocks returns the offset after a terminated sub-block chain.
func skipSubBlocks(data []byte, pos int) (int, bool) {
	for pos < len(data) {
		n := int(data[pos])
		pos++
		if n == 0 {
			return pos, true
		}
		pos += n
	}
	return pos, false
}

// pngHasACTL reports whether an acTL chunk appears before the first IDAT.
func pngHasACTL(data []byte) bool {
	pos := len(pngSignature)
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		typ := string(data[pos+4 : pos+8])
		switch typ {
		case "acTL":
			return true
		case "IDAT", "IEND":
			return false
		}
		if length < 0 || length > len(data) {
			return false
		}
		pos += 12 + length // length + type + data + crc
	}
	return false
}

// webpAnimated walks RIFF chunks looking for the VP8X animation flag or an
// ANIM chunk.
func webpAnimated(data []byte) bool {
	const animationFlag = 0x02
	pos := 12
	for pos+8 <= len(data) {
		fourcc := string(data[pos : pos+4])
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		switch fourcc {
		case "VP8X":
			if body < len(data) && data[body]&animationFlag != 0 {
				return true
			}
		case "ANIM", "ANMF":
			return true
		case "VP8 ", "VP8L":
			return false
		}
		if size < 0 || size > len(data) {
			return false
		}
		pos = body + size + size&1 // chunks are padded to even length
	}
	return false
}
