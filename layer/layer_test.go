package layer

import (
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func boolPtr(b bool) *bool    { return &b }
func int64Ptr(v int64) *int64 { return &v }

// writeManifest creates <root>/GDI/<split>.txt listing the given stems.
func writeManifest(t *testing.T, root, split string, stems []string) {
	t.Helper()

	gdiDir := filepath.Join(root, "GDI")
	if err := os.MkdirAll(gdiDir, 0755); err != nil {
		t.Fatalf("Failed to create GDI dir: %v", err)
	}

	content := ""
	for _, stem := range stems {
		content += stem + "\n"
	}
	// trailing blank lines must not become samples
	content += "\n\n"

	if err := os.WriteFile(filepath.Join(gdiDir, split+".txt"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}
}

// writeSamplePair creates a JPEG image and a grayscale PNG label for a stem.
func writeSamplePair(t *testing.T, root string, role Role, stem string, width, height int) {
	t.Helper()

	imgPath := role.ImagePath(root, stem)
	lblPath := role.LabelPath(root, stem)
	for _, dir := range []string{filepath.Dir(imgPath), filepath.Dir(lblPath)} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create sample dir: %v", err)
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(40 * x), G: uint8(40 * y), B: 128, A: 255})
		}
	}
	imgFile, err := os.Create(imgPath)
	if err != nil {
		t.Fatalf("Failed to create image file: %v", err)
	}
	if err := jpeg.Encode(imgFile, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatalf("Failed to encode image: %v", err)
	}
	imgFile.Close()

	lbl := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			lbl.SetGray(x, y, color.Gray{Y: uint8(60 * (x + y))})
		}
	}
	lblFile, err := os.Create(lblPath)
	if err != nil {
		t.Fatalf("Failed to create label file: %v", err)
	}
	if err := png.Encode(lblFile, lbl); err != nil {
		t.Fatalf("Failed to encode label: %v", err)
	}
	lblFile.Close()
}

func testConfig(root, split string) Config {
	return Config{
		RootDir:  root,
		Split:    split,
		Mean:     []float32{104.0, 116.7, 122.7},
		Binarize: boolPtr(true),
	}
}

func TestBlobReshape(t *testing.T) {
	b := NewBlob()
	b.Reshape(3, 4, 5)

	if b.Len() != 60 {
		t.Errorf("Expected 60 elements, got %d", b.Len())
	}
	if len(b.Shape()) != 3 || b.Shape()[0] != 3 || b.Shape()[1] != 4 || b.Shape()[2] != 5 {
		t.Errorf("Unexpected shape %v", b.Shape())
	}

	// shrinking must keep the backing array
	b.Data()[0] = 7
	b.Reshape(1, 2, 2)
	if b.Len() != 4 {
		t.Errorf("Expected 4 elements after reshape, got %d", b.Len())
	}
}

func TestBlobSetDataSizeMismatch(t *testing.T) {
	b := NewBlob()
	b.Reshape(2, 2)

	if err := b.SetData([]float32{1, 2, 3}); err == nil {
		t.Errorf("Expected error writing 3 elements into a 4-element blob")
	}
	if err := b.SetData([]float32{1, 2, 3, 4}); err != nil {
		t.Errorf("Unexpected error on matching write: %v", err)
	}
}

func TestSetupRejectsWrongSlotCounts(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "train", []string{"a"})

	var confErr *ConfigurationError

	l := NewDataLayer(testConfig(root, "train"), RoleTrain)
	err := l.Setup(nil, []*Blob{NewBlob()})
	if !errors.As(err, &confErr) {
		t.Errorf("Expected ConfigurationError for one top, got %v", err)
	}

	l = NewDataLayer(testConfig(root, "train"), RoleTrain)
	err = l.Setup([]*Blob{NewBlob()}, []*Blob{NewBlob(), NewBlob()})
	if !errors.As(err, &confErr) {
		t.Errorf("Expected ConfigurationError for a bottom, got %v", err)
	}

	l = NewDataLayer(testConfig(root, "train"), RoleTrain)
	if err := l.Setup(nil, []*Blob{NewBlob(), NewBlob()}); err != nil {
		t.Errorf("Expected valid setup to pass, got %v", err)
	}
}

func TestSetupMissingManifest(t *testing.T) {
	l := NewDataLayer(testConfig(t.TempDir(), "train"), RoleTrain)

	err := l.Setup(nil, []*Blob{NewBlob(), NewBlob()})
	var manifestErr *MissingManifestError
	if !errors.As(err, &manifestErr) {
		t.Errorf("Expected MissingManifestError, got %v", err)
	}
}

func TestReadManifestKeepsOrderAndSkipsBlanks(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "train", []string{"img_003", "img_001", "img_002"})

	stems, err := ReadManifest(root, "train")
	if err != nil {
		t.Fatalf("ReadManifest failed: %v", err)
	}
	expected := []string{"img_003", "img_001", "img_002"}
	if len(stems) != len(expected) {
		t.Fatalf("Expected %d stems, got %d", len(expected), len(stems))
	}
	for i, stem := range expected {
		if stems[i] != stem {
			t.Errorf("Expected stems[%d]=%s, got %s", i, stem, stems[i])
		}
	}
}

func TestSequentialCursorVisitsAllInOrder(t *testing.T) {
	l := &DataLayer{indices: []string{"a", "b", "c"}}

	expected := []int{0, 1, 2, 0, 1, 2, 0}
	for i, want := range expected {
		if l.idx != want {
			t.Errorf("Step %d: expected cursor %d, got %d", i, want, l.idx)
		}
		l.advance()
	}
}

func TestRandomDrawsDeterministicWithSeed(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "train", []string{"a", "b", "c", "d", "e"})

	cfg := testConfig(root, "train")
	cfg.Seed = int64Ptr(42)

	draw := func() []int {
		l := NewDataLayer(cfg, RoleTrain)
		if err := l.Setup(nil, []*Blob{NewBlob(), NewBlob()}); err != nil {
			t.Fatalf("Setup failed: %v", err)
		}
		if !l.random {
			t.Fatalf("Expected randomization on a train split")
		}
		seq := make([]int, 0, 20)
		for i := 0; i < 20; i++ {
			seq = append(seq, l.idx)
			l.advance()
		}
		return seq
	}

	first := draw()
	second := draw()
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Draw %d differs between seeded runs: %d vs %d", i, first[i], second[i])
		}
		if first[i] < 0 || first[i] >= 5 {
			t.Errorf("Draw %d out of range [0,5): %d", i, first[i])
		}
	}
}

func TestRandomDisabledOutsideTrainSplits(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "valid", []string{"a", "b"})

	cfg := testConfig(root, "valid")
	cfg.Randomize = boolPtr(true)

	l := NewDataLayer(cfg, RoleVal)
	if err := l.Setup(nil, []*Blob{NewBlob(), NewBlob()}); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if l.random {
		t.Errorf("Randomization must be off for non-train splits")
	}
	if l.idx != 0 {
		t.Errorf("Expected cursor at 0, got %d", l.idx)
	}
}

func TestRolePaths(t *testing.T) {
	cases := []struct {
		role  Role
		image string
		label string
	}{
		{RoleTrain, filepath.Join("root", "GDI", "gd_train", "s.jpg"), filepath.Join("root", "GDI", "gd_imp_train", "s.png")},
		{RoleVal, filepath.Join("root", "GDI", "gd_val", "s.jpg"), filepath.Join("root", "GDI", "gd_imp_val", "s.png")},
	}
	for _, tc := range cases {
		if got := tc.role.ImagePath("root", "s"); got != tc.image {
			t.Errorf("Role %s: expected image path %s, got %s", tc.role, tc.image, got)
		}
		if got := tc.role.LabelPath("root", "s"); got != tc.label {
			t.Errorf("Role %s: expected label path %s, got %s", tc.role, tc.label, got)
		}
	}
}

func TestRoleForSplit(t *testing.T) {
	if RoleForSplit("train") != RoleTrain {
		t.Errorf("Expected train role for split 'train'")
	}
	if RoleForSplit("my_train_set") != RoleTrain {
		t.Errorf("Expected train role for split containing 'train'")
	}
	if RoleForSplit("valid") != RoleVal {
		t.Errorf("Expected val role for split 'valid'")
	}
}

func TestForwardSequentialShapes(t *testing.T) {
	root := t.TempDir()
	stems := []string{"s0", "s1"}
	writeManifest(t, root, "valid", stems)
	for _, stem := range stems {
		writeSamplePair(t, root, RoleVal, stem, 4, 4)
	}

	l := NewDataLayer(testConfig(root, "valid"), RoleVal)
	data := NewBlob()
	label := NewBlob()
	tops := []*Blob{data, label}

	if err := l.Setup(nil, tops); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if l.NumSamples() != 2 {
		t.Fatalf("Expected 2 samples, got %d", l.NumSamples())
	}

	for step := 0; step < 3; step++ {
		if err := l.Reshape(nil, tops); err != nil {
			t.Fatalf("Step %d: reshape failed: %v", step, err)
		}
		if err := l.Forward(nil, tops); err != nil {
			t.Fatalf("Step %d: forward failed: %v", step, err)
		}

		dataShape := data.Shape()
		if len(dataShape) != 3 || dataShape[0] != 3 || dataShape[1] != 4 || dataShape[2] != 4 {
			t.Errorf("Step %d: expected data shape (3,4,4), got %v", step, dataShape)
		}
		labelShape := label.Shape()
		if len(labelShape) != 3 || labelShape[0] != 1 || labelShape[1] != 4 || labelShape[2] != 4 {
			t.Errorf("Step %d: expected label shape (1,4,4), got %v", step, labelShape)
		}
	}

	// after an odd number of steps over two samples the cursor is back past s0
	if l.idx != 1 {
		t.Errorf("Expected cursor at 1 after three steps over two samples, got %d", l.idx)
	}
}

func TestReshapeMissingImage(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "valid", []string{"absent"})

	l := NewDataLayer(testConfig(root, "valid"), RoleVal)
	tops := []*Blob{NewBlob(), NewBlob()}
	if err := l.Setup(nil, tops); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if err := l.Reshape(nil, tops); err == nil {
		t.Errorf("Expected reshape to fail for a missing image")
	}
}

func TestBackwardIsNoOp(t *testing.T) {
	l := &DataLayer{}
	if err := l.Backward(nil, nil); err != nil {
		t.Errorf("Backward must be a no-op, got %v", err)
	}
}
