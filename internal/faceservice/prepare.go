package faceservice

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"golang.org/x/image/draw"
)

const uploadJPEGQuality = 90

// prepareUpload encodes img as JPEG, downscaling it first when its longest side
// exceeds maxSize. It returns the encoded bytes and the factor that maps
// coordinates in img to coordinates in the uploaded image.
func prepareUpload(img image.Image, maxSize int) ([]byte, float64, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, 0, fmt.Errorf("cannot upload empty image")
	}

	scale := 1.0
	src := img
	if maxSize > 0 && (width > maxSize || height > maxSize) {
		newWidth, newHeight := maxSize, maxSize
		if width > height {
			newHeight = height * maxSize / width
		} else {
			newWidth = width * maxSize / height
		}
		newWidth = max(newWidth, 1)
		newHeight = max(newHeight, 1)

		dst := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		src = dst
		scale = float64(newWidth) / float64(width)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, src, &jpeg.Options{Quality: uploadJPEGQuality}); err != nil {
		return nil, 0, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), scale, nil
}
