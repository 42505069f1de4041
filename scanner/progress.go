package scanner

import (
	"fmt"
	"time"

	"gdiloader/logging"
)

// NewProgressTracker initializes the progress tracker
func NewProgressTracker(split string, totalSamples int, resultsChan chan SampleResult) *ProgressTracker {
	tracker := &ProgressTracker{
		ticker:       time.NewTicker(500 * time.Millisecond),
		done:         make(chan bool),
		totalSamples: totalSamples,
		split:        split,
	}

	// Start progress display goroutine
	go tracker.displayProgress()

	// Start result processor goroutine
	go tracker.processResults(resultsChan)

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			p.mu.Lock()
			if p.errors > 0 {
				fmt.Printf("\rVerified: %d/%d (Errors: %d, Skipped: %d)",
					p.processed, p.totalSamples, p.errors, p.skipped)
			} else {
				fmt.Printf("\rVerified: %d/%d (Skipped: %d)",
					p.processed, p.totalSamples, p.skipped)
			}
			p.mu.Unlock()
		}
	}
}

// processResults updates the tracker state based on verification results
func (p *ProgressTracker) processResults(resultsChan chan SampleResult) {
	for result := range resultsChan {
		p.mu.Lock()
		p.processed++

		if result.Skipped {
			p.skipped++
		}
		if !result.Success {
			p.errors++
		}

		p.mu.Unlock()
	}
}

// Stop ends the progress tracking
func (p *ProgressTracker) Stop() {
	p.ticker.Stop()
	p.done <- true
}

// PrintStartupInfo displays information about the run before it starts
func PrintStartupInfo(totalSamples int, options VerifyOptions) {
	fmt.Printf("Starting dataset verification...\n")
	fmt.Printf("Split: %s (role: %s), samples listed: %d\n", options.Split, options.Role, totalSamples)
	fmt.Printf("Force rewrite mode: %v\n", options.ForceRewrite)

	if options.FastMode {
		fmt.Printf("Fast mode: metadata only, no decoding\n")
	}

	if options.DebugMode {
		fmt.Printf("Debug mode: enabled\n")
		logging.DebugLog("Verifying %d samples of split %s (fast=%v)",
			totalSamples, options.Split, options.FastMode)
	}
}

// PrintCompletionStats displays statistics after the run completes
func PrintCompletionStats(tracker *ProgressTracker, startTime time.Time, options VerifyOptions) {
	elapsed := time.Since(startTime)

	if options.DebugMode {
		logging.DebugLog("Verification of %s completed in %v. Processed: %d, Errors: %d, Skipped: %d",
			options.Split, elapsed, tracker.processed, tracker.errors, tracker.skipped)
	}

	fmt.Println("\nVerification complete.")
	fmt.Printf("Checked %d samples in %v.\n", tracker.processed, elapsed.Round(time.Second))

	if tracker.skipped > 0 {
		fmt.Printf("Skipped %d previously verified samples (use --force to recheck).\n", tracker.skipped)
	}

	if tracker.errors > 0 {
		fmt.Printf("Encountered %d broken samples.\n", tracker.errors)
		fmt.Println("Check the log file for details.")
	}
}
