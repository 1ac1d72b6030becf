// Package main provides a performance benchmarking tool for the Repopulse CLI.
// It measures how long the daily series takes to build from local clones,
// running each test multiple times, treating the first successful run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - repopulse binary installed and available in PATH
// - Test repositories cloned to the specified base directory
// - Git repositories: csv-parser, fd, git, kubernetes
//
// Usage: go run benchmark/main.go [repo-base-dir]
//
//	repo-base-dir: Directory containing test repositories
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Repository  string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	RepoBase    string
	Timeout     time.Duration
	MaxCommits  int
	NoCacheRuns int
	CacheRuns   int
	TestRepos   []string
	RepoOwners  map[string]string
	RepoRanges  map[string][2]string
}

// seriesHeader is the first CSV line of a successful series run.
const seriesHeader = "owner,repo,date,count,label"

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [repo-base-dir]\n", os.Args[0])
		os.Exit(1)
	}
	repoBase := os.Args[1]

	config := BenchmarkConfig{
		RepoBase:    repoBase,
		Timeout:     5 * time.Minute,
		MaxCommits:  50000,
		NoCacheRuns: 2,
		CacheRuns:   4,
		TestRepos:   []string{"csv-parser", "fd", "git", "kubernetes"},
		RepoOwners: map[string]string{
			"csv-parser": "huangsam",
			"fd":         "sharkdp",
			"git":        "git",
			"kubernetes": "kubernetes",
		},
		RepoRanges: map[string][2]string{
			"csv-parser": {"2019-01-01", "2020-12-31"},
			"fd":         {"2023-01-01", "2023-12-31"},
			"git":        {"2024-01-01", "2024-12-31"},
			"kubernetes": {"2024-01-01", "2024-12-31"},
		},
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Clearing cache...\n")
	clearCmd := exec.Command("repopulse", "cache", "clear")
	if output, err := clearCmd.CombinedOutput(); err != nil {
		fmt.Printf("Warning: failed to clear cache: %v\nOutput: %s\n", err, string(output))
	} else {
		fmt.Printf("Cache cleared successfully\n")
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the repopulse binary and test repositories exist
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("repopulse"); err != nil {
		return fmt.Errorf("repopulse binary not found in PATH")
	}

	for _, repo := range config.TestRepos {
		repoPath := filepath.Join(config.RepoBase, repo)
		if _, err := os.Stat(repoPath); os.IsNotExist(err) {
			return fmt.Errorf("repository %s not found at %s", repo, repoPath)
		}
	}

	return nil
}

// runBenchmarks executes all benchmark tests across configured repositories
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d repos, %v timeout, %d max commits, no-cache: %d runs, cache: %d runs\n",
		len(config.TestRepos), config.Timeout, config.MaxCommits, config.NoCacheRuns, config.CacheRuns)

	for _, repo := range config.TestRepos {
		fmt.Printf("Benchmarking %s\n", repo)

		repoPath := filepath.Join(config.RepoBase, repo)
		slug := config.RepoOwners[repo] + "/" + repo

		// Whole history
		result := runBenchmarkSuite(config, repo, repoPath, "series", "full series", []string{slug, "--days", "0"})
		results = append(results, result)

		// Bounded range with gaps filled
		if bounds, ok := config.RepoRanges[repo]; ok {
			args := []string{slug, "--start", bounds[0], "--end", bounds[1], "--fill-gaps"}
			desc := fmt.Sprintf("range series (%s -> %s)", bounds[0], bounds[1])
			result = runBenchmarkSuite(config, repo, repoPath, "range", desc, args)
			results = append(results, result)
		}
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a series query
func runBenchmarkSuite(config BenchmarkConfig, repo, repoPath, label, description string, extraArgs []string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, repo)

	runPhase := func(cacheBackend string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, repoPath, extraArgs, cacheBackend, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avgTime = fmt.Sprintf("%.3fs", sum/float64(len(times)))
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase("none", config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase("sqlite", config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Repository:  repo,
		Command:     label,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a series query multiple times with the given cache backend and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, repoPath string, extraArgs []string, cacheBackend string, numRuns int) (coldTime float64, warmTimes []float64) {
	args := []string{
		"series",
		"--source", "git",
		"--repo-path", repoPath,
		"--max-commits", fmt.Sprint(config.MaxCommits),
		"--output", "csv",
		"--log-level", "error",
		"--cache-backend", cacheBackend,
	}
	args = append(args, extraArgs...)

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("repopulse", args...)
		cmd.Dir = repoPath

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.Output()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			if cmd.Process != nil {
				_ = cmd.Process.Kill()
			}
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

// isSuccess checks that the run printed a CSV series
func isSuccess(output []byte) bool {
	return strings.HasPrefix(strings.TrimSpace(string(output)), seriesHeader)
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/repopulse_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write([]string{"repo", "query", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, result := range results {
		if err := writer.Write([]string{result.Repository, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "series", "Full Series:")
	printCommandSummary(results, "range", "Range Series:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific query type
func printCommandSummary(results []BenchmarkResult, label, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == label {
			fmt.Printf("  %-12s: No-cache: %s, Cold: %s, Warm: %s\n", result.Repository, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
