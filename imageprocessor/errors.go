package imageprocessor

import "fmt"

// ImageLoadError reports a sample image that is missing, undecodable or
// has the wrong channel count.
type ImageLoadError struct {
	Message string
	Path    string
}

func (e *ImageLoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Path)
}

// LabelLoadError reports an importance map that is missing or undecodable.
type LabelLoadError struct {
	Message string
	Path    string
}

func (e *LabelLoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Path)
}

// newImageLoadError creates a standardized error for image loading failures
func newImageLoadError(message, path string) error {
	return &ImageLoadError{Message: message, Path: path}
}

// newLabelLoadError creates a standardized error for label loading failures
func newLabelLoadError(message, path string) error {
	return &LabelLoadError{Message: message, Path: path}
}
