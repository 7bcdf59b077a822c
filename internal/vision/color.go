package vision

import (
	"image"
	"math"
)

// Grayscale converts an RGBA buffer to 8-bit luma using BT.601 weights
func Grayscale(img *image.RGBA) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := image.NewGray(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		row := img.PixOffset(b.Min.X, b.Min.Y+y)
		out := y * gray.Stride
		for x := 0; x < w; x++ {
			i := row + x*4
			r := float64(img.Pix[i])
			g := float64(img.Pix[i+1])
			bl := float64(img.Pix[i+2])
			lum := math.Round(0.299*r + 0.587*g + 0.114*bl)
			if lum > 255 {
				lum = 255
			}
			gray.Pix[out+x] = uint8(lum)
		}
	}

	return gray
}

// meanStdDev returns the mean and population standard deviation of luma
func meanStdDev(gray *image.Gray) (float64, float64) {
	b := gray.Bounds()
	n := float64(b.Dx() * b.Dy())
	if n == 0 {
		return 0, 0
	}

	var sum float64
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for _, p := range row {
			sum += float64(p)
		}
	}
	mean := sum / n

	var sq float64
	for y := 0; y < b.Dy(); y++ {
		row := gray.Pix[y*gray.Stride : y*gray.Stride+b.Dx()]
		for _, p := range row {
			d := float64(p) - mean
			sq += d * d
		}
	}

	return mean, math.Sqrt(sq / n)
}

// meanSaturation is the mean of the 8-bit HSV saturation channel,
// S = 255 * (max - min) / max, with S = 0 for black pixels.
func meanSaturation(img *image.RGBA) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	var sum float64
	for y := 0; y < h; y++ {
		row := img.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			i := row + x*4
			r, g, bl := img.Pix[i], img.Pix[i+1], img.Pix[i+2]
			hi := max(r, g, bl)
			if hi == 0 {
				continue
			}
			lo := min(r, g, bl)
			sum += math.Round(255 * float64(hi-lo) / float64(hi))
		}
	}

	return sum / float64(w*h)
}
