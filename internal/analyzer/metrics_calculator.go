package analyzer

import (
	"image"
	"math"
	"runtime"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// metricsCalculator computes face crop statistics over horizontal strips in parallel.
type metricsCalculator struct {
	workers   int
	slicePool sync.Pool
}

// NewMetricsCalculator creates a calculator using up to workers goroutines per call.
// Non-positive workers means runtime.NumCPU.
func NewMetricsCalculator(workers int) MetricsCalculator {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &metricsCalculator{
		workers: workers,
		slicePool: sync.Pool{
			New: func() interface{} {
				return make([]float64, 0, 1024)
			},
		},
	}
}

// strips splits bounds into at most n row bands and runs fn on each concurrently.
// fn receives the band index and its [startY, endY) rows.
func strips(bounds image.Rectangle, n int, fn func(i, startY, endY int)) int {
	height := bounds.Dy()
	if n > height {
		n = height
	}
	if n <= 0 {
		n = 1
	}
	rows := (height + n - 1) / n

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		startY := bounds.Min.Y + i*rows
		endY := min(startY+rows, bounds.Max.Y)
		if startY >= endY {
			continue
		}
		wg.Add(1)
		go func(i, startY, endY int) {
			defer wg.Done()
			fn(i, startY, endY)
		}(i, startY, endY)
	}
	wg.Wait()
	return n
}

// CalculateBasicMetrics returns mean HSV value, saturation and per-channel means in [0,1].
func (mc *metricsCalculator) CalculateBasicMetrics(img image.Image) metrics {
	bounds := img.Bounds()
	if bounds.Empty() {
		return metrics{}
	}

	type band struct {
		lum, sat, r, g, b float64
		n                 int
	}
	bands := make([]band, min(mc.workers, bounds.Dy()))

	strips(bounds, len(bands), func(i, startY, endY int) {
		var acc band
		for y := startY; y < endY; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				rVal, gVal, bVal, _ := img.At(x, y).RGBA()
				rf := float64(rVal) / 65535.0
				gf := float64(gVal) / 65535.0
				bf := float64(bVal) / 65535.0

				_, s, v := rgbToHSV(rf, gf, bf)
				acc.sat += s
				acc.lum += v
				acc.r += rf
				acc.g += gf
				acc.b += bf
				acc.n++
			}
		}
		bands[i] = acc
	})

	var total band
	for _, b := range bands {
		total.lum += b.lum
		total.sat += b.sat
		total.r += b.r
		total.g += b.g
		total.b += b.b
		total.n += b.n
	}
	if total.n == 0 {
		return metrics{}
	}

	n := float64(total.n)
	return metrics{
		avgLuminance:  total.lum / n,
		avgSaturation: total.sat / n,
		avgR:          total.r / n,
		avgG:          total.g / n,
		avgB:          total.b / n,
	}
}

// CalculateLaplacianVariance returns the variance of the 4-neighbour Laplacian response.
func (mc *metricsCalculator) CalculateLaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	data := mc.slicePool.Get().([]float64)
	defer mc.slicePool.Put(data[:0])

	need := (width - 2) * (height - 2)
	if cap(data) < need {
		data = make([]float64, 0, need)
	}

	// Kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	return stat.Variance(data, nil)
}

// CalculateBrightness returns the mean gray level in [0,255].
func (mc *metricsCalculator) CalculateBrightness(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	if bounds.Empty() {
		return 0
	}

	sums := make([]float64, min(mc.workers, bounds.Dy()))
	strips(bounds, len(sums), func(i, startY, endY int) {
		var total float64
		for y := startY; y < endY; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				total += float64(gray.GrayAt(x, y).Y)
			}
		}
		sums[i] = total
	})

	return floats.Sum(sums) / float64(bounds.Dx()*bounds.Dy())
}

func rgbToHSV(r, g, b float64) (h, s, v float64) {
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	delta := maxC - minC

	v = maxC
	if maxC > 0 {
		s = delta / maxC
	}
	if delta == 0 {
		return 0, s, v
	}

	switch maxC {
	case r:
		h = math.Mod((g-b)/delta, 6)
	case g:
		h = (b-r)/delta + 2
	default:
		h = (r-g)/delta + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h, s, v
}
