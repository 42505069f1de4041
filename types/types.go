package types

// Tensor is a dense float32 array with explicit dimensions, laid out
// row-major with the channel axis first.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Len returns the number of elements the shape describes.
func (t *Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// SampleRecord holds the verification state of one manifest entry
type SampleRecord struct {
	ID         int64  `json:"id"`
	Split      string `json:"split"`
	Stem       string `json:"stem"`
	ImagePath  string `json:"image_path"`
	LabelPath  string `json:"label_path"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	ImageSize  int64  `json:"image_size"`
	LabelSize  int64  `json:"label_size"`
	Verified   bool   `json:"verified"`
	Error      string `json:"error"`
	VerifiedAt string `json:"verified_at"`
}

// SplitStats summarizes the verification results for one split
type SplitStats struct {
	TotalSamples  int
	VerifiedCount int
	ErrorCount    int
}
