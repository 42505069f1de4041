// Package scanner validates a GDI dataset split against its manifest:
// every listed sample must have a decodable image and importance map with
// matching dimensions. Results land in the sample-index database so later
// runs can skip work.
package scanner

import (
	"database/sql"
	"fmt"
	"os"
	"sync"
	"time"

	"gdiloader/database"
	"gdiloader/imageprocessor"
	"gdiloader/layer"
	"gdiloader/logging"
	"gdiloader/types"
)

// VerifySplit checks every manifest entry of a split and stores the
// results in the sample index.
func VerifySplit(db *sql.DB, options VerifyOptions) error {
	stems, err := layer.ReadManifest(options.RootDir, options.Split)
	if err != nil {
		return err
	}

	workers := options.MaxWorkers
	if workers < 1 {
		workers = 1
	}

	var extractor *imageprocessor.MetaExtractor
	if options.FastMode {
		extractor, err = imageprocessor.NewMetaExtractor()
		if err != nil {
			return fmt.Errorf("fast mode unavailable: %v", err)
		}
		defer extractor.Close()
	}

	var wg sync.WaitGroup
	resultsChan := make(chan SampleResult, 100)
	semaphore := make(chan struct{}, workers)

	tracker := NewProgressTracker(options.Split, len(stems), resultsChan)
	defer tracker.Stop()

	PrintStartupInfo(len(stems), options)
	startTime := time.Now()

	// exiftool sessions and sqlite writes are serialized explicitly;
	// decoding runs in parallel
	var storeMu sync.Mutex
	var metaMu sync.Mutex

	for _, stem := range stems {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(stem string) {
			defer wg.Done()
			defer func() { <-semaphore }()

			if !options.ForceRewrite {
				exists, _, err := database.CheckSampleExists(db, options.Split, stem)
				if err == nil && exists {
					resultsChan <- SampleResult{Stem: stem, Success: true, Skipped: true}
					return
				}
			}

			rec := verifySample(options, extractor, &metaMu, stem)

			storeMu.Lock()
			storeErr := database.StoreSampleRecord(db, rec, options.ForceRewrite)
			storeMu.Unlock()
			if storeErr != nil {
				logging.LogError("Cannot store record for %s: %v", stem, storeErr)
			}

			result := SampleResult{Stem: stem, Success: rec.Verified}
			if !rec.Verified {
				result.Error = fmt.Errorf("%s", rec.Error)
			}
			resultsChan <- result
		}(stem)
	}

	wg.Wait()
	close(resultsChan)

	PrintCompletionStats(tracker, startTime, options)
	return nil
}

// verifySample checks one image/label pair and builds its index record.
func verifySample(options VerifyOptions, extractor *imageprocessor.MetaExtractor, metaMu *sync.Mutex, stem string) types.SampleRecord {
	rec := types.SampleRecord{
		Split:     options.Split,
		Stem:      stem,
		ImagePath: options.Role.ImagePath(options.RootDir, stem),
		LabelPath: options.Role.LabelPath(options.RootDir, stem),
	}
	rec.ImageSize = fileSize(rec.ImagePath)
	rec.LabelSize = fileSize(rec.LabelPath)

	var imgW, imgH, lblW, lblH int
	var err error
	if options.FastMode {
		imgW, imgH, lblW, lblH, err = pairDimsFromMeta(extractor, metaMu, rec.ImagePath, rec.LabelPath)
	} else {
		imgW, imgH, lblW, lblH, err = pairDimsFromDecode(rec.ImagePath, rec.LabelPath)
	}
	if err != nil {
		rec.Error = err.Error()
		logging.LogSampleResult(options.Split, stem, false, rec.Error)
		return rec
	}

	rec.Width = imgW
	rec.Height = imgH
	if imgW != lblW || imgH != lblH {
		rec.Error = fmt.Sprintf("dimension mismatch: image %dx%d, label %dx%d", imgW, imgH, lblW, lblH)
		logging.LogSampleResult(options.Split, stem, false, rec.Error)
		return rec
	}

	rec.Verified = true
	logging.LogSampleResult(options.Split, stem, true, "")
	return rec
}

// pairDimsFromDecode fully decodes both files. A zero mean leaves the
// image tensor untouched apart from layout.
func pairDimsFromDecode(imagePath, labelPath string) (int, int, int, int, error) {
	img, err := imageprocessor.LoadImageTensor(imagePath, [3]float32{})
	if err != nil {
		return 0, 0, 0, 0, err
	}
	label, err := imageprocessor.LoadLabelTensor(labelPath, false)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return img.Shape[2], img.Shape[1], label.Shape[2], label.Shape[1], nil
}

// pairDimsFromMeta reads dimensions from file metadata without decoding.
func pairDimsFromMeta(extractor *imageprocessor.MetaExtractor, metaMu *sync.Mutex, imagePath, labelPath string) (int, int, int, int, error) {
	metaMu.Lock()
	defer metaMu.Unlock()

	imgMeta, err := extractor.Extract(imagePath)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	lblMeta, err := extractor.Extract(labelPath)
	if err != nil {
		return 0, 0, 0, 0, err
	}
	return imgMeta.Width, imgMeta.Height, lblMeta.Width, lblMeta.Height, nil
}

// fileSize returns the file size in bytes, or 0 when unreadable.
func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
