//go:build opencv

package vision

import (
	"image"
	"runtime"

	"gocv.io/x/gocv"
)

// Farneback parameters: pyramid scale and depth, averaging window,
// iterations per level, polynomial neighbourhood and its Gaussian sigma.
const (
	farnebackPyrScale   = 0.5
	farnebackLevels     = 3
	farnebackWindow     = 15
	farnebackIterations = 3
	farnebackPolyN      = 5
	farnebackPolySigma  = 1.2
)

// grayMat copies g into a single-channel 8-bit Mat. The returned slice backs
// the Mat and must stay reachable until the Mat is closed.
func grayMat(g *image.Gray) (gocv.Mat, []byte, error) {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := make([]byte, w*h)
	for y := 0; y < h; y++ {
		copy(buf[y*w:(y+1)*w], g.Pix[y*g.Stride:y*g.Stride+w])
	}
	m, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8U, buf)
	return m, buf, err
}

// edgeDensity is the mean gradient magnitude of the 3x3 Sobel operator
func edgeDensity(gray *image.Gray) float64 {
	if gray.Bounds().Empty() {
		return 0
	}

	src, buf, err := grayMat(gray)
	if err != nil {
		return 0
	}
	defer src.Close()

	gx, gy, mag := gocv.NewMat(), gocv.NewMat(), gocv.NewMat()
	defer gx.Close()
	defer gy.Close()
	defer mag.Close()

	gocv.Sobel(src, &gx, gocv.MatTypeCV64F, 1, 0, 3, 1, 0, gocv.BorderReflect101)
	gocv.Sobel(src, &gy, gocv.MatTypeCV64F, 0, 1, 3, 1, 0, gocv.BorderReflect101)
	gocv.Magnitude(gx, gy, &mag)

	mean := mag.Mean().Val1
	runtime.KeepAlive(buf)
	return mean
}

// meanFlowMagnitude runs Farneback dense optical flow from prev to next and
// returns the mean flow magnitude in pixels.
func meanFlowMagnitude(prev, next *image.Gray) float64 {
	p, pbuf, err := grayMat(prev)
	if err != nil {
		return 0
	}
	defer p.Close()
	n, nbuf, err := grayMat(next)
	if err != nil {
		return 0
	}
	defer n.Close()

	flow := gocv.NewMat()
	defer flow.Close()
	gocv.CalcOpticalFlowFarneback(p, n, &flow,
		farnebackPyrScale, farnebackLevels, farnebackWindow,
		farnebackIterations, farnebackPolyN, farnebackPolySigma, 0)

	channels := gocv.Split(flow)
	defer func() {
		for _, c := range channels {
			c.Close()
		}
	}()

	mag, angle := gocv.NewMat(), gocv.NewMat()
	defer mag.Close()
	defer angle.Close()
	gocv.CartToPolar(channels[0], channels[1], &mag, &angle, false)

	mean := mag.Mean().Val1
	runtime.KeepAlive(pbuf)
	runtime.KeepAlive(nbuf)
	return mean
}
