package facematch

import "image"

// Region is a face bounding box in pixel coordinates, ordered the way face
// detectors commonly report it: top, right, bottom, left.
type Region struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// RegionFromCSS builds a Region from a [top, right, bottom, left] array.
// Returns false if the array does not have exactly four values.
func RegionFromCSS(box []float64) (Region, bool) {
	if len(box) != 4 {
		return Region{}, false
	}
	return Region{
		Top:    int(box[0]),
		Right:  int(box[1]),
		Bottom: int(box[2]),
		Left:   int(box[3]),
	}, true
}

// CSS returns the region as a [top, right, bottom, left] array.
func (r Region) CSS() []int {
	return []int{r.Top, r.Right, r.Bottom, r.Left}
}

// Rect converts the region to an image.Rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Right, r.Bottom)
}

// Empty reports whether the region has no area.
func (r Region) Empty() bool {
	return r.Rect().Empty()
}

// Clamp restricts the region to the given bounds.
func (r Region) Clamp(bounds image.Rectangle) Region {
	rect := r.Rect().Intersect(bounds)
	return Region{Top: rect.Min.Y, Right: rect.Max.X, Bottom: rect.Max.Y, Left: rect.Min.X}
}

// Scale multiplies every coordinate by factor, rounding to the nearest pixel.
// Used to map regions between an original image and a resized copy of it.
func (r Region) Scale(factor float64) Region {
	if factor == 1 || factor <= 0 {
		return r
	}
	scale := func(v int) int {
		return int(float64(v)*factor + 0.5)
	}
	return Region{
		Top:    scale(r.Top),
		Right:  scale(r.Right),
		Bottom: scale(r.Bottom),
		Left:   scale(r.Left),
	}
}
