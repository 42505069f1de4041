package database

import (
	"database/sql"
	"fmt"
	"time"

	"gdiloader/logging"
	"gdiloader/types"

	_ "github.com/mattn/go-sqlite3"
)

// InitDatabase initializes and returns a sample-index database connection
func InitDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Create table if it doesn't exist
	createTableSQL := `
	CREATE TABLE IF NOT EXISTS samples (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		split TEXT NOT NULL,
		stem TEXT NOT NULL,
		image_path TEXT,
		label_path TEXT,
		width INTEGER,
		height INTEGER,
		image_size INTEGER,
		label_size INTEGER,
		verified INTEGER,
		error TEXT,
		verified_at TEXT,
		UNIQUE(split, stem)
	);
	CREATE INDEX IF NOT EXISTS idx_split ON samples(split);
	CREATE INDEX IF NOT EXISTS idx_stem ON samples(stem);`

	_, err = db.Exec(createTableSQL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating samples table: %v", err)
	}

	logging.DebugLog("sample index ready at %s", dbPath)
	return db, nil
}

// OpenDatabase opens an existing sample-index database
func OpenDatabase(dbPath string) (*sql.DB, error) {
	return sql.Open("sqlite3", dbPath)
}

// CheckSampleExists reports whether a sample was already verified and when
func CheckSampleExists(db *sql.DB, split, stem string) (bool, string, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM samples WHERE split = ? AND stem = ?", split, stem).Scan(&count)
	if err != nil {
		return false, "", fmt.Errorf("database error for %s/%s: %v", split, stem, err)
	}
	if count == 0 {
		return false, "", nil
	}

	var verifiedAt string
	err = db.QueryRow("SELECT verified_at FROM samples WHERE split = ? AND stem = ?", split, stem).Scan(&verifiedAt)
	if err != nil {
		return true, "", fmt.Errorf("cannot get verification time for %s/%s: %v", split, stem, err)
	}
	return true, verifiedAt, nil
}

// StoreSampleRecord stores one verification result, replacing any earlier
// record for the same split/stem pair when forceRewrite is set.
func StoreSampleRecord(db *sql.DB, rec types.SampleRecord, forceRewrite bool) error {
	now := time.Now().Format(time.RFC3339)

	query := `
		INSERT OR IGNORE INTO samples (
			split, stem, image_path, label_path, width, height, image_size, label_size, verified, error, verified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if forceRewrite {
		query = `
		INSERT OR REPLACE INTO samples (
			split, stem, image_path, label_path, width, height, image_size, label_size, verified, error, verified_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	}

	stmt, err := db.Prepare(query)
	if err != nil {
		return fmt.Errorf("cannot prepare statement for %s/%s: %v", rec.Split, rec.Stem, err)
	}
	defer stmt.Close()

	verified := 0
	if rec.Verified {
		verified = 1
	}
	_, err = stmt.Exec(rec.Split, rec.Stem, rec.ImagePath, rec.LabelPath,
		rec.Width, rec.Height, rec.ImageSize, rec.LabelSize, verified, rec.Error, now)
	if err != nil {
		return fmt.Errorf("cannot store record for %s/%s: %v", rec.Split, rec.Stem, err)
	}
	return nil
}

// GetSplitStats summarizes the stored verification results for a split
func GetSplitStats(db *sql.DB, split string) (*types.SplitStats, error) {
	stats := &types.SplitStats{}

	err := db.QueryRow("SELECT COUNT(*) FROM samples WHERE split = ?", split).Scan(&stats.TotalSamples)
	if err != nil {
		return nil, fmt.Errorf("cannot count samples for %s: %v", split, err)
	}
	err = db.QueryRow("SELECT COUNT(*) FROM samples WHERE split = ? AND verified = 1", split).Scan(&stats.VerifiedCount)
	if err != nil {
		return nil, fmt.Errorf("cannot count verified samples for %s: %v", split, err)
	}
	stats.ErrorCount = stats.TotalSamples - stats.VerifiedCount
	return stats, nil
}
