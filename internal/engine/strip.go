package engine

import (
	exif "github.com/dsoprea/go-exif/v3"
)

// renderingChunks change how a decoder displays the image and survive
// StripSafe.
var renderingChunks = map[string]bool{
	"tRNS": true,
	"gAMA": true,
	"cHRM": true,
	"sRGB": true,
	"iCCP": true,
	"cICP": true,
	"mDCv": true,
	"cLLi": true,
	"sBIT": true,
	"pHYs": true,
	"acTL": true,
	"fcTL": true,
	"fdAT": true,
}

func keepChunk(c chunk, mode StripMode) bool {
	if mode == StripNone || c.critical() {
		return true
	}
	if c.name == "eXIf" {
		return exifOrientation(c.data) > 1
	}
	return renderingChunks[c.name]
}

const orientationTag = 0x0112

// exifOrientation reports the EXIF Orientation value, or 1 (the identity)
// when the tag is missing or the payload cannot be parsed.
func exifOrientation(data []byte) int {
	tags, _, err := exif.GetFlatExifData(data, nil)
	if err != nil {
		return 1
	}

	for _, tag := range tags {
		if tag.TagId != orientationTag {
			continue
		}
		if v, ok := tag.Value.([]uint16); ok && len(v) > 0 {
			return int(v[0])
		}
	}
	return 1
}
