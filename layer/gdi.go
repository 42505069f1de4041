package layer

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seehuhn/mt19937"

	"gdiloader/imageprocessor"
	"gdiloader/logging"
	"gdiloader/types"
)

// Role selects which GDI directory pair a data layer reads from. The
// training and validation trees share the same layout and only differ in
// directory names.
type Role int

const (
	RoleTrain Role = iota
	RoleVal
)

func (r Role) String() string {
	if r == RoleVal {
		return "val"
	}
	return "train"
}

func (r Role) imageSubdir() string {
	if r == RoleVal {
		return "gd_val"
	}
	return "gd_train"
}

func (r Role) labelSubdir() string {
	if r == RoleVal {
		return "gd_imp_val"
	}
	return "gd_imp_train"
}

// ImagePath returns the JPEG path for a manifest stem under this role.
func (r Role) ImagePath(rootDir, stem string) string {
	return filepath.Join(rootDir, "GDI", r.imageSubdir(), stem+".jpg")
}

// LabelPath returns the importance-map PNG path for a manifest stem.
func (r Role) LabelPath(rootDir, stem string) string {
	return filepath.Join(rootDir, "GDI", r.labelSubdir(), stem+".png")
}

// RoleForSplit picks the role conventionally paired with a split name.
func RoleForSplit(split string) Role {
	if strings.Contains(split, "train") {
		return RoleTrain
	}
	return RoleVal
}

// ReadManifest loads the sample stems listed in <rootDir>/GDI/<split>.txt,
// one per non-empty line, in file order.
func ReadManifest(rootDir, split string) ([]string, error) {
	path := filepath.Join(rootDir, "GDI", split+".txt")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &MissingManifestError{Path: path, Err: err}
	}

	var stems []string
	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			stems = append(stems, line)
		}
	}
	if len(stems) == 0 {
		return nil, &MissingManifestError{Path: path, Err: fmt.Errorf("manifest lists no samples")}
	}
	return stems, nil
}

// DataLayer feeds (image, importance map) pairs from the GDI dataset
// one at a time, reshaping its tops every step so image dimensions are
// preserved. Use it to feed a fully convolutional network.
type DataLayer struct {
	cfg     Config
	role    Role
	indices []string
	idx     int
	random  bool
	rng     *rand.Rand

	// pair loaded by Reshape, written out by Forward
	data  *types.Tensor
	label *types.Tensor
}

// NewDataLayer creates a data layer for the given role. Setup must run
// before the first step.
func NewDataLayer(cfg Config, role Role) *DataLayer {
	return &DataLayer{cfg: cfg, role: role}
}

// Setup validates the configuration and blob counts, loads the split
// manifest and positions the cursor.
func (l *DataLayer) Setup(bottom, top []*Blob) error {
	if err := l.cfg.Validate(); err != nil {
		return err
	}
	// two tops: data and label
	if len(top) != 2 {
		return newConfigurationError("need exactly two tops (data and label), got %d", len(top))
	}
	// data layers have no bottoms
	if len(bottom) != 0 {
		return newConfigurationError("data layers take no bottoms, got %d", len(bottom))
	}

	indices, err := ReadManifest(l.cfg.RootDir, l.cfg.Split)
	if err != nil {
		return err
	}
	l.indices = indices
	l.idx = 0

	// evaluation splits stay deterministic no matter what the config asks
	l.random = l.cfg.randomize()
	if l.random {
		src := mt19937.New()
		if l.cfg.Seed != nil {
			src.Seed(*l.cfg.Seed)
		} else {
			src.Seed(time.Now().UnixNano())
		}
		l.rng = rand.New(src)
		l.idx = l.rng.Intn(len(l.indices))
	}

	logging.DebugLog("data layer ready: split=%s role=%s samples=%d random=%v",
		l.cfg.Split, l.role, len(l.indices), l.random)
	return nil
}

// Reshape loads and preprocesses the current pair, then sizes the tops to
// match: (3,H,W) for the image, (1,H,W) for the importance map.
func (l *DataLayer) Reshape(bottom, top []*Blob) error {
	stem := l.indices[l.idx]

	data, err := imageprocessor.LoadImageTensor(l.role.ImagePath(l.cfg.RootDir, stem), l.mean())
	if err != nil {
		return err
	}
	label, err := imageprocessor.LoadLabelTensor(l.role.LabelPath(l.cfg.RootDir, stem), *l.cfg.Binarize)
	if err != nil {
		return err
	}
	if data.Shape[1] != label.Shape[1] || data.Shape[2] != label.Shape[2] {
		return fmt.Errorf("sample %s: image %v and label %v disagree on height/width", stem, data.Shape, label.Shape)
	}

	l.data = data
	l.label = label
	top[0].Reshape(data.Shape...)
	top[1].Reshape(label.Shape...)
	return nil
}

// Forward writes the loaded pair into the tops and advances the cursor.
func (l *DataLayer) Forward(bottom, top []*Blob) error {
	if l.data == nil || l.label == nil {
		if err := l.Reshape(bottom, top); err != nil {
			return err
		}
	}
	if err := top[0].SetData(l.data.Data); err != nil {
		return err
	}
	if err := top[1].SetData(l.label.Data); err != nil {
		return err
	}

	l.advance()
	l.data = nil
	l.label = nil
	return nil
}

// Backward is a no-op: a data source has nothing to propagate into.
func (l *DataLayer) Backward(top, bottom []*Blob) error {
	return nil
}

// NumSamples returns the manifest length after Setup.
func (l *DataLayer) NumSamples() int {
	return len(l.indices)
}

// advance picks the next cursor position: a fresh uniform draw when
// randomizing, otherwise the next manifest entry with wraparound.
func (l *DataLayer) advance() {
	if l.random {
		l.idx = l.rng.Intn(len(l.indices))
		return
	}
	l.idx++
	if l.idx == len(l.indices) {
		l.idx = 0
	}
}

func (l *DataLayer) mean() [3]float32 {
	var m [3]float32
	copy(m[:], l.cfg.Mean)
	return m
}
