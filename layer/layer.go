// Package layer implements the data-layer side of a training framework's
// layer lifecycle: setup, reshape, forward, backward. A data layer owns no
// bottom blobs; it fills the top blobs the framework hands it, one sample
// per step.
package layer

import "fmt"

// Layer is the lifecycle contract a training loop drives. Data layers
// implement Backward as a no-op since there is nothing to propagate into.
type Layer interface {
	Setup(bottom, top []*Blob) error
	Reshape(bottom, top []*Blob) error
	Forward(bottom, top []*Blob) error
	Backward(top, bottom []*Blob) error
}

// Blob is a framework-owned output buffer: a shape plus flat float32
// storage. Reshape must be called before data is written into it.
type Blob struct {
	shape []int
	data  []float32
}

// NewBlob creates an empty blob. The layer sizes it during Reshape.
func NewBlob() *Blob {
	return &Blob{}
}

// Reshape resizes the blob to the given dimensions, reusing the backing
// array when it is already large enough.
func (b *Blob) Reshape(dims ...int) {
	n := 1
	for _, d := range dims {
		n *= d
	}
	b.shape = append(b.shape[:0], dims...)
	if cap(b.data) < n {
		b.data = make([]float32, n)
	} else {
		b.data = b.data[:n]
	}
}

// Shape returns the blob dimensions.
func (b *Blob) Shape() []int {
	return b.shape
}

// Len returns the number of elements the blob currently holds.
func (b *Blob) Len() int {
	return len(b.data)
}

// Data exposes the flat storage.
func (b *Blob) Data() []float32 {
	return b.data
}

// SetData copies src into the blob storage. The blob must already be
// reshaped to the matching element count.
func (b *Blob) SetData(src []float32) error {
	if len(src) != len(b.data) {
		return fmt.Errorf("blob size mismatch: have %d elements, writing %d", len(b.data), len(src))
	}
	copy(b.data, src)
	return nil
}
