package facematch

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// DecodeRGB decodes an encoded raster image into an RGBA pixel grid.
// Decoding failures are reported as ErrInvalidImage.
func DecodeRGB(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}

	if rgba, ok := img.(*image.RGBA); ok {
		return rgba, nil
	}

	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
	return rgba, nil
}

// DecodeBase64Image decodes base64 image text. A data URL prefix
// (data:image/jpeg;base64,...) and surrounding whitespace are tolerated.
func DecodeBase64Image(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "data:") {
		if idx := strings.Index(text, ","); idx >= 0 {
			text = text[idx+1:]
		}
	}
	if text == "" {
		return nil, fmt.Errorf("%w: empty base64 payload", ErrInvalidImage)
	}

	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		// Some clients strip the padding.
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(text, "="))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
	}
	return data, nil
}
