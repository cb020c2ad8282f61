package publish

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"
	"strings"

	// Include gif image decoder
	_ "image/gif"
	// Include png image decoder
	_ "image/png"

	"golang.org/x/image/draw"
)

const shrinkQuality = 85

// Shrink makes sure an image fits in maxBytes.
//
// Images that already fit are returned unchanged. Larger images are
// downsampled in steps of 10% of the original width and re-encoded as jpeg,
// the largest result under maxBytes wins. The returned name has a .jpg
// extension in that case.
func Shrink(name string, data []byte, maxBytes int) (string, []byte, error) {
	if maxBytes <= 0 || len(data) <= maxBytes {
		return name, data, nil
	}

	m, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", nil, fmt.Errorf("decode %s: %w", name, err)
	}

	jpgName := strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"

	// Re-encoding alone is often enough for large PNGs
	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, m, &jpeg.Options{Quality: shrinkQuality}); err != nil {
		return "", nil, err
	}
	if buf.Len() <= maxBytes {
		return jpgName, buf.Bytes(), nil
	}

	bounds := m.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	for tenths := 9; tenths > 0; tenths-- {
		w := width * tenths / 10
		h := height * tenths / 10
		if w < 1 || h < 1 {
			break
		}

		resized := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.BiLinear.Scale(resized, resized.Bounds(), m, bounds, draw.Over, nil)

		buf.Reset()
		if err := jpeg.Encode(buf, resized, &jpeg.Options{Quality: shrinkQuality}); err != nil {
			return "", nil, err
		}
		if buf.Len() <= maxBytes {
			return jpgName, buf.Bytes(), nil
		}
	}

	return "", nil, fmt.Errorf("could not shrink %s below %d bytes", name, maxBytes)
}
