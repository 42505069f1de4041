package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseArguments converts command-line arguments into a map of flags and values
func ParseArguments() map[string]string {
	args := make(map[string]string)

	// First, identify the command (verify/stats/iterate)
	command := ""
	commandIndex := -1
	for i := 1; i < len(os.Args); i++ {
		if os.Args[i] == "verify" || os.Args[i] == "stats" || os.Args[i] == "iterate" {
			command = os.Args[i]
			commandIndex = i
			break
		}
	}

	if command != "" {
		args["command"] = command
	}

	// Process all arguments, skipping the command
	for i := 1; i < len(os.Args); i++ {
		if i == commandIndex {
			continue
		}

		arg := os.Args[i]

		// Handle flags with equals sign (--key=value)
		if strings.HasPrefix(arg, "--") && strings.Contains(arg, "=") {
			parts := strings.SplitN(arg, "=", 2)
			flagName := strings.TrimPrefix(parts[0], "--")
			args[flagName] = parts[1]
			continue
		}

		// Handle flags without equals sign (--key value)
		if strings.HasPrefix(arg, "--") {
			flagName := strings.TrimPrefix(arg, "--")

			// Check if this is a boolean flag (no value)
			if i+1 >= len(os.Args) || strings.HasPrefix(os.Args[i+1], "--") {
				args[flagName] = "true"
			} else {
				args[flagName] = os.Args[i+1]
				i++ // Skip the value in the next iteration
			}
		}
	}

	return args
}

// GetDefaultDatabasePath returns the default path for the sample index
func GetDefaultDatabasePath() string {
	exePath, err := os.Executable()
	if err != nil {
		// Fallback to current directory if executable path can't be determined
		return "gdi_index.db"
	}
	return filepath.Join(filepath.Dir(exePath), "gdi_index.db")
}

// PrintUsage outputs the command-line usage instructions
func PrintUsage() {
	fmt.Printf("Usage:\n")
	fmt.Printf("  %s verify --root=PATH --split=NAME [--role=train|val] [--database=PATH] [--fast] [--force] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("  %s stats --root=PATH --split=NAME [--role=train|val] [--samples=N]\n", os.Args[0])
	fmt.Printf("  %s iterate --config=PATH [--role=train|val] [--steps=N] [--debug] [--logfile=PATH]\n", os.Args[0])
	fmt.Printf("\nParameters:\n")
	fmt.Printf("  --root        : Data root holding the GDI/ directory tree\n")
	fmt.Printf("  --split       : Split name selecting the manifest GDI/<split>.txt\n")
	fmt.Printf("  --role        : Directory pair to read (default: derived from split name)\n")
	fmt.Printf("  --config      : YAML data-layer config for iterate\n")
	fmt.Printf("  --database    : Path to sample index (default: %s)\n", GetDefaultDatabasePath())
	fmt.Printf("  --fast        : Verify via file metadata without decoding\n")
	fmt.Printf("  --force       : Recheck samples already in the index\n")
	fmt.Printf("  --samples     : Limit stats to the first N manifest entries\n")
	fmt.Printf("  --steps       : Number of iterate steps (default: 10)\n")
	fmt.Printf("  --debug       : Enable debug mode (logs detailed information)\n")
	fmt.Printf("  --logfile     : Specify custom log file path (default: gdiloader.log)\n")
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  %s verify --root=/data/visimportance --split=train --debug\n", os.Args[0])
	fmt.Printf("  %s stats --root=/data/visimportance --split=train --samples=200\n", os.Args[0])
	fmt.Printf("  %s iterate --config=train_layer.yaml --steps=5\n", os.Args[0])
}

// ParseCount parses a positive integer flag value
func ParseCount(countStr string, fallback int) (int, error) {
	parsed, err := strconv.Atoi(countStr)
	if err != nil || parsed < 1 {
		return fallback, fmt.Errorf("Invalid count value '%s', using default (%d)", countStr, fallback)
	}
	return parsed, nil
}
