//go:build !opencv

package vision

import (
	"image"
	"math"
)

// Dense optical flow parameters: pyramid depth, integration window and
// refinement iterations per pyramid level.
const (
	flowLevels     = 3
	flowWindow     = 15
	flowIterations = 3
	flowMinSize    = 2 * flowWindow

	// Smallest structure-tensor eigenvalue, per window pixel, below which a
	// pixel is treated as untextured and keeps its current estimate.
	flowMinEigen = 1e-2
)

// plane is a float luma buffer
type plane struct {
	w, h int
	px   []float64
}

func newPlane(w, h int) plane {
	return plane{w: w, h: h, px: make([]float64, w*h)}
}

func planeFromGray(g *image.Gray) plane {
	b := g.Bounds()
	p := newPlane(b.Dx(), b.Dy())
	for y := 0; y < p.h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+p.w]
		for x, v := range row {
			p.px[y*p.w+x] = float64(v)
		}
	}
	return p
}

func (p plane) at(x, y int) float64 {
	x = clampInt(x, 0, p.w-1)
	y = clampInt(y, 0, p.h-1)
	return p.px[y*p.w+x]
}

// sample reads p at a sub-pixel position with bilinear interpolation
func (p plane) sample(x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	top := p.at(x0, y0)*(1-fx) + p.at(x0+1, y0)*fx
	bottom := p.at(x0, y0+1)*(1-fx) + p.at(x0+1, y0+1)*fx
	return top*(1-fy) + bottom*fy
}

// downsample halves both dimensions by 2x2 averaging
func (p plane) downsample() plane {
	out := newPlane(max(p.w/2, 1), max(p.h/2, 1))
	for y := 0; y < out.h; y++ {
		for x := 0; x < out.w; x++ {
			sx, sy := 2*x, 2*y
			out.px[y*out.w+x] = (p.at(sx, sy) + p.at(sx+1, sy) + p.at(sx, sy+1) + p.at(sx+1, sy+1)) / 4
		}
	}
	return out
}

func buildPyramid(base plane) []plane {
	pyr := []plane{base}
	for len(pyr) < flowLevels {
		last := pyr[len(pyr)-1]
		if last.w/2 < flowMinSize || last.h/2 < flowMinSize {
			break
		}
		pyr = append(pyr, last.downsample())
	}
	return pyr
}

// boxSums holds an integral image for windowed sums
type boxSums struct {
	w, h int
	sum  []float64
}

func newBoxSums(src []float64, w, h int) boxSums {
	bs := boxSums{w: w, h: h, sum: make([]float64, (w+1)*(h+1))}
	stride := w + 1
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += src[y*w+x]
			bs.sum[(y+1)*stride+x+1] = bs.sum[y*stride+x+1] + row
		}
	}
	return bs
}

// window returns the sum over the clipped square of radius r centred at
// (x, y) together with the number of pixels it covers.
func (bs boxSums) window(x, y, r int) (float64, int) {
	x0 := clampInt(x-r, 0, bs.w)
	y0 := clampInt(y-r, 0, bs.h)
	x1 := clampInt(x+r+1, 0, bs.w)
	y1 := clampInt(y+r+1, 0, bs.h)
	stride := bs.w + 1
	s := bs.sum[y1*stride+x1] - bs.sum[y0*stride+x1] - bs.sum[y1*stride+x0] + bs.sum[y0*stride+x0]
	return s, (x1 - x0) * (y1 - y0)
}

// meanFlowMagnitude estimates a dense flow field from prev to next with
// coarse-to-fine Lucas-Kanade and returns its mean magnitude in pixels.
func meanFlowMagnitude(prev, next *image.Gray) float64 {
	p0 := buildPyramid(planeFromGray(prev))
	p1 := buildPyramid(planeFromGray(next))

	var u, v plane
	for level := len(p0) - 1; level >= 0; level-- {
		I0, I1 := p0[level], p1[level]
		if level == len(p0)-1 {
			u, v = newPlane(I0.w, I0.h), newPlane(I0.w, I0.h)
		} else {
			u, v = upsampleFlow(u, I0.w, I0.h), upsampleFlow(v, I0.w, I0.h)
		}
		refineFlow(I0, I1, u, v)
	}

	var sum float64
	for i := range u.px {
		sum += math.Hypot(u.px[i], v.px[i])
	}
	return sum / float64(len(u.px))
}

// upsampleFlow doubles a flow component onto a finer grid of size w x h
func upsampleFlow(f plane, w, h int) plane {
	out := newPlane(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.px[y*w+x] = 2 * f.at(x/2, y/2)
		}
	}
	return out
}

// refineFlow runs the iterative Lucas-Kanade update on one pyramid level,
// modifying u and v in place.
func refineFlow(I0, I1, u, v plane) {
	w, h := I0.w, I0.h
	n := w * h
	r := flowWindow / 2

	gx := make([]float64, n)
	gy := make([]float64, n)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gx[y*w+x] = (I0.at(x+1, y) - I0.at(x-1, y)) / 2
			gy[y*w+x] = (I0.at(x, y+1) - I0.at(x, y-1)) / 2
		}
	}

	xx := make([]float64, n)
	yy := make([]float64, n)
	xy := make([]float64, n)
	for i := 0; i < n; i++ {
		xx[i] = gx[i] * gx[i]
		yy[i] = gy[i] * gy[i]
		xy[i] = gx[i] * gy[i]
	}
	sxx := newBoxSums(xx, w, h)
	syy := newBoxSums(yy, w, h)
	sxy := newBoxSums(xy, w, h)

	xt := make([]float64, n)
	yt := make([]float64, n)
	for iter := 0; iter < flowIterations; iter++ {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				it := I1.sample(float64(x)+u.px[i], float64(y)+v.px[i]) - I0.px[i]
				xt[i] = gx[i] * it
				yt[i] = gy[i] * it
			}
		}
		sxt := newBoxSums(xt, w, h)
		syt := newBoxSums(yt, w, h)

		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				a, area := sxx.window(x, y, r)
				c, _ := syy.window(x, y, r)
				b, _ := sxy.window(x, y, r)
				bx, _ := sxt.window(x, y, r)
				by, _ := syt.window(x, y, r)

				half := (a + c) / 2
				minEig := half - math.Sqrt((a-c)*(a-c)/4+b*b)
				if minEig/float64(area) < flowMinEigen {
					continue
				}

				det := a*c - b*b
				i := y*w + x
				u.px[i] += (-c*bx + b*by) / det
				v.px[i] += (b*bx - a*by) / det
			}
		}
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
