// Command uniformity scores thickness uniformity datasets, either as an HTTP
// service or as a one-shot batch run writing CSV and HTML reports.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/banshee-data/uniformity.report/internal/config"
	"github.com/banshee-data/uniformity.report/internal/fsutil"
	"github.com/banshee-data/uniformity.report/internal/version"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "serve":
		handleServe(args)
	case "score":
		handleScore(args)
	case "version":
		fmt.Printf("uniformity version %s\n", version.Current())
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`uniformity - Thickness uniformity scoring

Usage: uniformity <command> [options]

Commands:
  serve      Run the HTTP API
  score      Score a CSV dataset and write score tables and reports
  version    Show version
  help       Show this help message

Common Flags:
  -config <file>       Analysis config (default: config/analysis.defaults.json if present)

Examples:
  # Serve on the configured address
  uniformity serve -config config/analysis.defaults.json

  # Score a dataset with a custom Pre target and write static reports too
  uniformity score -in data.csv -out results -pre 118 -static`)
}

// loadConfig loads path, or the default config file when path is empty and
// the file exists, or the built-in defaults otherwise.
func loadConfig(fsys fsutil.FileSystem, path string) (*config.AnalysisConfig, error) {
	if path == "" {
		if !fsys.Exists(config.DefaultConfigPath) {
			return config.EmptyAnalysisConfig(), nil
		}
		path = config.DefaultConfigPath
	}
	cfg, err := config.LoadAnalysisConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
