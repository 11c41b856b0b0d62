package engine

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

var (
	ErrNotPNG  = errors.New("not a PNG file")
	ErrCorrupt = errors.New("corrupt PNG")
)

var pngSignature = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}

type chunk struct {
	name string
	data []byte
}

// critical chunks have an uppercase first letter.
func (c chunk) critical() bool {
	return len(c.name) == 4 && c.name[0]&0x20 == 0
}

// readChunks splits a PNG file into chunks up to and including IEND.
// Ancillary chunks with a bad CRC are dropped; a bad CRC on a critical chunk
// is an error.
func readChunks(data []byte) ([]chunk, error) {
	if len(data) < len(pngSignature) || !bytes.Equal(data[:len(pngSignature)], pngSignature) {
		return nil, ErrNotPNG
	}

	var chunks []chunk
	pos := len(pngSignature)
	for {
		if len(data)-pos < 12 {
			return nil, fmt.Errorf("%w: truncated chunk at offset %d", ErrCorrupt, pos)
		}
		length := binary.BigEndian.Uint32(data[pos : pos+4])
		if uint64(length) > uint64(len(data)-pos-12) {
			return nil, fmt.Errorf("%w: chunk length %d exceeds file", ErrCorrupt, length)
		}
		typeAndData := data[pos+4 : pos+8+int(length)]
		crc := binary.BigEndian.Uint32(data[pos+8+int(length) : pos+12+int(length)])
		c := chunk{name: string(typeAndData[:4]), data: typeAndData[4:]}
		pos += 12 + int(length)

		if crc32.ChecksumIEEE(typeAndData) != crc {
			if c.critical() {
				return nil, fmt.Errorf("%w: bad CRC in %s chunk", ErrCorrupt, c.name)
			}
			continue
		}

		if len(chunks) == 0 && c.name != "IHDR" {
			return nil, fmt.Errorf("%w: first chunk is %s, want IHDR", ErrCorrupt, c.name)
		}
		chunks = append(chunks, c)
		if c.name == "IEND" {
			return chunks, nil
		}
	}
}

func writeChunk(w io.Writer, name string, data []byte) error {
	var header [8]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(data)))
	copy(header[4:], name)

	h := crc32.NewIEEE()
	h.Write(header[4:])
	h.Write(data)
	var crc [4]byte
	binary.BigEndian.PutUint32(crc[:], h.Sum32())

	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err := w.Write(crc[:])
	return err
}

// maxIDATSize bounds a single IDAT chunk; larger streams are split.
const maxIDATSize = 1 << 30

func writeIDAT(w io.Writer, stream []byte) error {
	for len(stream) > maxIDATSize {
		if err := writeChunk(w, "IDAT", stream[:maxIDATSize]); err != nil {
			return err
		}
		stream = stream[maxIDATSize:]
	}
	return writeChunk(w, "IDAT", stream)
}

// header is the decoded IHDR chunk.
type header struct {
	width     uint32
	height    uint32
	bitDepth  uint8
	colorType uint8
	interlace uint8
}

func parseHeader(c chunk) (header, error) {
	if c.name != "IHDR" || len(c.data) != 13 {
		return header{}, fmt.Errorf("%w: malformed IHDR", ErrCorrupt)
	}
	h := header{
		width:     binary.BigEndian.Uint32(c.data[0:4]),
		height:    binary.BigEndian.Uint32(c.data[4:8]),
		bitDepth:  c.data[8],
		colorType: c.data[9],
		interlace: c.data[12],
	}
	if h.width == 0 || h.height == 0 {
		return header{}, fmt.Errorf("%w: zero image dimension", ErrCorrupt)
	}
	if c.data[10] != 0 || c.data[11] != 0 || h.interlace > 1 {
		return header{}, fmt.Errorf("%w: unsupported compression, filter or interlace method", ErrCorrupt)
	}
	if !validDepth(h.colorType, h.bitDepth) {
		return header{}, fmt.Errorf("%w: bit depth %d invalid for color type %d", ErrCorrupt, h.bitDepth, h.colorType)
	}
	return h, nil
}

func validDepth(colorType, depth uint8) bool {
	switch colorType {
	case 0:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8 || depth == 16
	case 3:
		return depth == 1 || depth == 2 || depth == 4 || depth == 8
	case 2, 4, 6:
		return depth == 8 || depth == 16
	default:
		return false
	}
}

func (h header) channels() int {
	switch h.colorType {
	case 2:
		return 3
	case 4:
		return 2
	case 6:
		return 4
	default:
		return 1
	}
}

// bpp is the filter byte distance: bytes per complete pixel, at least 1.
func (h header) bpp() int {
	n := h.channels() * int(h.bitDepth) / 8
	if n < 1 {
		return 1
	}
	return n
}

func (h header) rowBytes() int {
	return (int(h.width)*h.channels()*int(h.bitDepth) + 7) / 8
}

// maxRawSize caps the inflated image data we are willing to hold.
const maxRawSize = 1 << 31

func (h header) rawSize() (int, error) {
	rowBits := uint64(h.width) * uint64(h.channels()) * uint64(h.bitDepth)
	size := uint64(h.height) * ((rowBits+7)/8 + 1)
	if size > maxRawSize {
		return 0, fmt.Errorf("image too large: %dx%d", h.width, h.height)
	}
	return int(size), nil
}
