package scanner

import (
	"sync"
	"time"

	"gdiloader/layer"
)

// VerifyOptions defines the options for verifying a dataset split
type VerifyOptions struct {
	RootDir      string
	Split        string
	Role         layer.Role
	ForceRewrite bool
	FastMode     bool
	DebugMode    bool
	DbPath       string
	MaxWorkers   int
}

// SampleResult holds the outcome of verifying one manifest entry
type SampleResult struct {
	Stem    string
	Success bool
	Skipped bool
	Error   error
}

// ProgressTracker tracks progress of the verification run
type ProgressTracker struct {
	processed    int
	errors       int
	skipped      int
	ticker       *time.Ticker
	done         chan bool
	mu           sync.Mutex
	totalSamples int
	split        string
}
