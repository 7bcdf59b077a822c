//go:build !opencv

package vision

import (
	"image"
	"math"
)

// edgeDensity is the mean gradient magnitude sqrt(gx² + gy²) of the 3x3
// Sobel operator, with reflect-101 borders.
func edgeDensity(gray *image.Gray) float64 {
	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	at := func(x, y int) float64 {
		return float64(gray.Pix[reflect101(y, h)*gray.Stride+reflect101(x, w)])
	}

	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx := (at(x+1, y-1) + 2*at(x+1, y) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x-1, y) + at(x-1, y+1))
			gy := (at(x-1, y+1) + 2*at(x, y+1) + at(x+1, y+1)) -
				(at(x-1, y-1) + 2*at(x, y-1) + at(x+1, y-1))
			sum += math.Sqrt(gx*gx + gy*gy)
		}
	}

	return sum / float64(w*h)
}

// reflect101 mirrors an out-of-range index without repeating the edge
// pixel: -1 -> 1, n -> n-2.
func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*n - 2 - i
		}
	}
	return i
}
