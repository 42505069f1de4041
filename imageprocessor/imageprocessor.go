// Package imageprocessor decodes GDI sample images and importance maps
// into the float32 channel-first tensors the data layer hands out.
package imageprocessor

import (
	"fmt"
	"os"

	"gocv.io/x/gocv"

	"gdiloader/logging"
	"gdiloader/types"
)

// binarizeThreshold separates important from unimportant pixels when
// importance maps are thresholded instead of rescaled.
const binarizeThreshold = 255.0 * 2.0 / 3.0

// LoadImageTensor loads a sample image and preprocesses it for the net:
// decode to 8-bit pixels, subtract the per-channel mean, reorder to
// channel x height x width. OpenCV decodes to interleaved BGR, which is
// the channel order the net expects, so the swap from the on-disk RGB
// layout happens in the decoder.
func LoadImageTensor(path string, mean [3]float32) (*types.Tensor, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, newImageLoadError("image file is not accessible", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadUnchanged)
	if mat.Empty() {
		return nil, newImageLoadError("failed to decode image", path)
	}
	defer mat.Close()

	if mat.Channels() != 3 {
		return nil, newImageLoadError(fmt.Sprintf("expected 3 channels, got %d", mat.Channels()), path)
	}
	if mat.Type() != gocv.MatTypeCV8UC3 {
		return nil, newImageLoadError("expected 8-bit pixels", path)
	}

	logging.DebugLog("loaded image %s (%dx%d)", path, mat.Cols(), mat.Rows())
	return bgrToCHW(mat.ToBytes(), mat.Rows(), mat.Cols(), mean), nil
}

// LoadLabelTensor loads an importance map as a 1 x height x width tensor.
// The leading singleton dimension is required by the loss. Values are
// thresholded to {0,1} when binarize is set, rescaled to [0,1] otherwise.
func LoadLabelTensor(path string, binarize bool) (*types.Tensor, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, newLabelLoadError("label file is not accessible", path)
	}

	mat := gocv.IMRead(path, gocv.IMReadGrayScale)
	if mat.Empty() {
		return nil, newLabelLoadError("failed to decode label map", path)
	}
	defer mat.Close()

	logging.DebugLog("loaded label %s (%dx%d)", path, mat.Cols(), mat.Rows())
	return grayToLabel(mat.ToBytes(), mat.Rows(), mat.Cols(), binarize), nil
}

// bgrToCHW converts interleaved 8-bit BGR rows into a float32 (3,H,W)
// tensor with the per-channel mean subtracted.
func bgrToCHW(pixels []byte, height, width int, mean [3]float32) *types.Tensor {
	plane := height * width
	out := make([]float32, 3*plane)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			base := (y*width + x) * 3
			for c := 0; c < 3; c++ {
				out[c*plane+y*width+x] = float32(pixels[base+c]) - mean[c]
			}
		}
	}
	return &types.Tensor{Shape: []int{3, height, width}, Data: out}
}

// grayToLabel converts 8-bit grayscale rows into a float32 (1,H,W) tensor.
func grayToLabel(pixels []byte, height, width int, binarize bool) *types.Tensor {
	out := make([]float32, height*width)
	if binarize {
		for i, v := range pixels {
			if float64(v) > binarizeThreshold {
				out[i] = 1
			}
		}
	} else {
		for i, v := range pixels {
			out[i] = float32(v) / 255.0
		}
	}
	return &types.Tensor{Shape: []int{1, height, width}, Data: out}
}
