package scanner

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"gdiloader/database"
	"gdiloader/layer"
)

// writeFixtureSplit builds a small on-disk dataset: a manifest plus
// image/label pairs for the named stems. Stems listed in broken get a
// manifest entry but no files.
func writeFixtureSplit(t *testing.T, root, split string, role layer.Role, good, broken []string) {
	t.Helper()

	gdiDir := filepath.Join(root, "GDI")
	if err := os.MkdirAll(gdiDir, 0755); err != nil {
		t.Fatalf("Failed to create GDI dir: %v", err)
	}

	content := ""
	for _, stem := range append(append([]string{}, good...), broken...) {
		content += stem + "\n"
	}
	if err := os.WriteFile(filepath.Join(gdiDir, split+".txt"), []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write manifest: %v", err)
	}

	for _, stem := range good {
		imgPath := role.ImagePath(root, stem)
		lblPath := role.LabelPath(root, stem)
		for _, dir := range []string{filepath.Dir(imgPath), filepath.Dir(lblPath)} {
			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatalf("Failed to create dir: %v", err)
			}
		}

		img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
		for y := 0; y < 8; y++ {
			for x := 0; x < 8; x++ {
				img.Set(x, y, color.NRGBA{R: uint8(x * 30), G: uint8(y * 30), B: 99, A: 255})
			}
		}
		f, err := os.Create(imgPath)
		if err != nil {
			t.Fatalf("Failed to create image: %v", err)
		}
		if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 95}); err != nil {
			t.Fatalf("Failed to encode image: %v", err)
		}
		f.Close()

		lbl := image.NewGray(image.Rect(0, 0, 8, 8))
		f, err = os.Create(lblPath)
		if err != nil {
			t.Fatalf("Failed to create label: %v", err)
		}
		if err := png.Encode(f, lbl); err != nil {
			t.Fatalf("Failed to encode label: %v", err)
		}
		f.Close()
	}
}

func TestVerifySplit(t *testing.T) {
	root := t.TempDir()
	writeFixtureSplit(t, root, "valid", layer.RoleVal, []string{"good0", "good1"}, []string{"gone"})

	dbPath := filepath.Join(t.TempDir(), "index.db")
	db, err := database.InitDatabase(dbPath)
	if err != nil {
		t.Fatalf("InitDatabase failed: %v", err)
	}
	defer db.Close()

	options := VerifyOptions{
		RootDir:    root,
		Split:      "valid",
		Role:       layer.RoleVal,
		DbPath:     dbPath,
		MaxWorkers: 2,
	}
	if err := VerifySplit(db, options); err != nil {
		t.Fatalf("VerifySplit failed: %v", err)
	}

	stats, err := database.GetSplitStats(db, "valid")
	if err != nil {
		t.Fatalf("GetSplitStats failed: %v", err)
	}
	if stats.TotalSamples != 3 {
		t.Errorf("Expected 3 indexed samples, got %d", stats.TotalSamples)
	}
	if stats.VerifiedCount != 2 {
		t.Errorf("Expected 2 verified samples, got %d", stats.VerifiedCount)
	}
	if stats.ErrorCount != 1 {
		t.Errorf("Expected 1 broken sample, got %d", stats.ErrorCount)
	}
}

func TestVerifySplitMissingManifest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	db, err := database.InitDatabase(dbPath)
	if err != nil {
		t.Fatalf("InitDatabase failed: %v", err)
	}
	defer db.Close()

	options := VerifyOptions{
		RootDir: t.TempDir(),
		Split:   "valid",
		Role:    layer.RoleVal,
	}
	if err := VerifySplit(db, options); err == nil {
		t.Errorf("Expected an error for a missing manifest")
	}
}

func TestVerifySplitSkipsIndexedSamples(t *testing.T) {
	root := t.TempDir()
	writeFixtureSplit(t, root, "valid", layer.RoleVal, []string{"good0"}, nil)

	dbPath := filepath.Join(t.TempDir(), "index.db")
	db, err := database.InitDatabase(dbPath)
	if err != nil {
		t.Fatalf("InitDatabase failed: %v", err)
	}
	defer db.Close()

	options := VerifyOptions{
		RootDir: root,
		Split:   "valid",
		Role:    layer.RoleVal,
	}
	if err := VerifySplit(db, options); err != nil {
		t.Fatalf("First VerifySplit failed: %v", err)
	}

	// break the dataset on disk; the second run must still pass because
	// the index already covers the sample
	if err := os.Remove(layer.RoleVal.ImagePath(root, "good0")); err != nil {
		t.Fatalf("Failed to remove image: %v", err)
	}
	if err := VerifySplit(db, options); err != nil {
		t.Fatalf("Second VerifySplit failed: %v", err)
	}

	stats, err := database.GetSplitStats(db, "valid")
	if err != nil {
		t.Fatalf("GetSplitStats failed: %v", err)
	}
	if stats.VerifiedCount != 1 {
		t.Errorf("Expected the indexed sample to stay verified, got %d", stats.VerifiedCount)
	}
}
