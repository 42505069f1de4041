package main

import (
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"time"

	"gdiloader/database"
	"gdiloader/imageprocessor"
	"gdiloader/layer"
	"gdiloader/logging"
	"gdiloader/scanner"
	"gdiloader/signalhandler"
	"gdiloader/utils"
)

func main() {
	// Set up proper signal handling
	signalhandler.SetupHandler()

	// Set the optimal number of CPUs to use
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())

	// Parse command line arguments into a map
	args := utils.ParseArguments()

	// Get the command (verify, stats or iterate)
	command, hasCommand := args["command"]

	// Set default database path
	dbPath := utils.GetDefaultDatabasePath()
	if customDB, ok := args["database"]; ok && customDB != "" {
		dbPath = customDB
	} else if customDB, ok := args["db"]; ok && customDB != "" {
		// Allow --db as an alias for --database
		dbPath = customDB
	}

	// Setup debug logging if enabled
	debugMode := false
	if _, ok := args["debug"]; ok {
		debugMode = true
		logPath := "gdiloader.log"
		if customLogPath, ok := args["logfile"]; ok && customLogPath != "" {
			logPath = customLogPath
		}
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
		}
	}

	// Check if required arguments are missing
	showUsage := !hasCommand

	if hasCommand && (command == "verify" || command == "stats") &&
		(args["root"] == "" || args["split"] == "") {
		showUsage = true
	}

	if hasCommand && command == "iterate" && args["config"] == "" {
		showUsage = true
	}

	// Show usage if required arguments are missing
	if showUsage {
		utils.PrintUsage()
		os.Exit(1)
	}

	switch command {
	case "verify":
		handleVerifyCommand(args, dbPath, debugMode)
	case "stats":
		handleStatsCommand(args)
	case "iterate":
		handleIterateCommand(args)
	default:
		fmt.Printf("Unknown command: %s\n", command)
		utils.PrintUsage()
		os.Exit(1)
	}
}

// roleFromArgs resolves the directory-pair role, defaulting to the role
// conventionally paired with the split name.
func roleFromArgs(args map[string]string, split string) layer.Role {
	switch args["role"] {
	case "train":
		return layer.RoleTrain
	case "val":
		return layer.RoleVal
	case "":
		return layer.RoleForSplit(split)
	default:
		log.Fatalf("Unknown role %q (want train or val)", args["role"])
		return layer.RoleTrain
	}
}

func handleVerifyCommand(args map[string]string, dbPath string, debugMode bool) {
	rootDir := args["root"]
	split := args["split"]

	// Verify the data root exists and is a directory
	rootInfo, err := os.Stat(rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Fatalf("Data root does not exist: %s", rootDir)
		} else {
			log.Fatalf("Cannot access data root: %s (%v)", rootDir, err)
		}
	}
	if !rootInfo.IsDir() {
		log.Fatalf("Path is not a directory: %s", rootDir)
	}

	forceRewrite := false
	if _, ok := args["force"]; ok {
		forceRewrite = true
	}
	fastMode := false
	if _, ok := args["fast"]; ok {
		fastMode = true
	}

	// Get log file path if provided
	if logPath, ok := args["logfile"]; ok && logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			log.Fatalf("Failed to open log file: %v", err)
		}
		defer logFile.Close()

		// Use MultiWriter to write logs to both stdout and file
		if debugMode {
			log.SetOutput(io.MultiWriter(os.Stdout, logFile))
		} else {
			log.SetOutput(logFile)
		}
	}

	startTime := time.Now()

	// Initialize the sample index with retry logic
	var db *sql.DB
	const maxRetries = 3
	for i := 0; i < maxRetries; i++ {
		db, err = database.InitDatabase(dbPath)
		if err == nil {
			break
		}

		if i < maxRetries-1 {
			log.Printf("Error initializing database (attempt %d/%d): %v - retrying...",
				i+1, maxRetries, err)
			time.Sleep(time.Second * time.Duration(i+1))
		} else {
			log.Fatalf("Error initializing database after %d attempts: %v", maxRetries, err)
		}
	}
	defer db.Close()

	options := scanner.VerifyOptions{
		RootDir:      rootDir,
		Split:        split,
		Role:         roleFromArgs(args, split),
		ForceRewrite: forceRewrite,
		FastMode:     fastMode,
		DebugMode:    debugMode,
		DbPath:       dbPath,
		MaxWorkers:   signalhandler.GetOptimalProcs(),
	}

	// Run verification with graceful shutdown handling
	errChan := make(chan error, 1)
	doneChan := make(chan bool, 1)

	go func() {
		err := scanner.VerifySplit(db, options)
		if err != nil {
			errChan <- err
		} else {
			doneChan <- true
		}
	}()

	select {
	case err := <-errChan:
		log.Fatalf("Error verifying split: %v", err)
	case <-doneChan:
		duration := time.Since(startTime)
		fmt.Printf("\nVerification finished!\n")
		fmt.Printf("Total execution time: %v\n", duration)
		fmt.Printf("Database: %s\n", dbPath)

		// Print summary statistics if available
		stats, err := database.GetSplitStats(db, split)
		if err == nil && stats != nil {
			fmt.Printf("\nSummary:\n")
			fmt.Printf("- Samples indexed: %d\n", stats.TotalSamples)
			fmt.Printf("- Verified: %d\n", stats.VerifiedCount)
			fmt.Printf("- Broken: %d\n", stats.ErrorCount)
		}
	}
}

func handleStatsCommand(args map[string]string) {
	rootDir := args["root"]
	split := args["split"]
	role := roleFromArgs(args, split)

	stems, err := layer.ReadManifest(rootDir, split)
	if err != nil {
		log.Fatalf("Error reading manifest: %v", err)
	}

	// Optionally cap the sample count; channel means converge quickly
	if countStr, ok := args["samples"]; ok {
		count, err := utils.ParseCount(countStr, len(stems))
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
		if count < len(stems) {
			stems = stems[:count]
		}
	}

	paths := make([]string, len(stems))
	for i, stem := range stems {
		paths[i] = role.ImagePath(rootDir, stem)
	}

	fmt.Printf("Measuring channel statistics over %d images...\n", len(paths))
	startTime := time.Now()

	stats, err := imageprocessor.ComputeChannelStats(paths)
	if err != nil {
		log.Fatalf("Error computing channel stats: %v", err)
	}

	fmt.Printf("\nPer-channel statistics (BGR order):\n")
	channels := []string{"B", "G", "R"}
	for c, name := range channels {
		fmt.Printf("  %s: mean=%.8f stddev=%.8f\n", name, stats.Mean[c], stats.StdDev[c])
	}
	fmt.Printf("\nLayer config mean line:\n  mean: [%.8f, %.8f, %.8f]\n",
		stats.Mean[0], stats.Mean[1], stats.Mean[2])
	fmt.Printf("\nTotal time: %v\n", time.Since(startTime))
}

func handleIterateCommand(args map[string]string) {
	cfg, err := layer.LoadConfig(args["config"])
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	steps := 10
	if stepsStr, ok := args["steps"]; ok {
		parsed, err := utils.ParseCount(stepsStr, steps)
		if err != nil {
			fmt.Printf("Warning: %v\n", err)
		}
		steps = parsed
	}

	l := layer.NewDataLayer(*cfg, roleFromArgs(args, cfg.Split))
	data := layer.NewBlob()
	label := layer.NewBlob()
	tops := []*layer.Blob{data, label}

	if err := l.Setup(nil, tops); err != nil {
		log.Fatalf("Error setting up data layer: %v", err)
	}
	fmt.Printf("Data layer ready: %d samples in split %s\n", l.NumSamples(), cfg.Split)

	startTime := time.Now()
	for step := 1; step <= steps; step++ {
		if err := l.Reshape(nil, tops); err != nil {
			log.Fatalf("Step %d: reshape failed: %v", step, err)
		}
		if err := l.Forward(nil, tops); err != nil {
			log.Fatalf("Step %d: forward failed: %v", step, err)
		}
		fmt.Printf("Step %d: data %v, label %v\n", step, data.Shape(), label.Shape())
	}
	fmt.Printf("\n%d steps in %v\n", steps, time.Since(startTime))
}
