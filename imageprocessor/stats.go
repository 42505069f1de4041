package imageprocessor

import (
	"fmt"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/stat"

	"gdiloader/logging"
)

// ChannelStats holds per-channel pixel statistics in BGR order. The means
// are the values a data-layer config subtracts per channel.
type ChannelStats struct {
	Mean    [3]float64
	StdDev  [3]float64
	Samples int
}

// ComputeChannelStats measures per-channel mean and standard deviation
// over a set of images. Each image contributes its own channel mean, so
// images of different sizes weigh equally.
func ComputeChannelStats(paths []string) (*ChannelStats, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images to measure")
	}

	var perImage [3][]float64
	for _, path := range paths {
		means, err := imageChannelMeans(path)
		if err != nil {
			return nil, err
		}
		for c := 0; c < 3; c++ {
			perImage[c] = append(perImage[c], means[c])
		}
	}

	out := &ChannelStats{Samples: len(paths)}
	for c := 0; c < 3; c++ {
		out.Mean[c] = stat.Mean(perImage[c], nil)
		out.StdDev[c] = stat.StdDev(perImage[c], nil)
	}
	logging.DebugLog("channel stats over %d images: mean=%v stddev=%v", out.Samples, out.Mean, out.StdDev)
	return out, nil
}

// imageChannelMeans returns the BGR channel means of a single image.
func imageChannelMeans(path string) ([3]float64, error) {
	var means [3]float64

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return means, newImageLoadError("failed to decode image", path)
	}
	defer mat.Close()

	pixels := mat.ToBytes()
	n := mat.Rows() * mat.Cols()
	for i := 0; i < n; i++ {
		for c := 0; c < 3; c++ {
			means[c] += float64(pixels[i*3+c])
		}
	}
	for c := 0; c < 3; c++ {
		means[c] /= float64(n)
	}
	return means, nil
}
