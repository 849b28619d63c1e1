package client

import (
	"fmt"
	"path/filepath"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/afero"
	"github.com/zeebo/blake3"
)

const (
	OperationUpload   = "upload"
	OperationDownload = "download"
)

// StressConfig describes one load run
type StressConfig struct {
	// Operation is OperationUpload or OperationDownload
	Operation string
	// File is the local file to upload or the remote file to download
	File string
	// Workers is the number of simulated users, each performing one transfer
	Workers int
	// Distinct makes every upload worker use its own remote name (<i>_<name>)
	Distinct bool
	// Verify compares the blake3 digest of every transfer with the local file
	Verify bool
}

// StressReport aggregates the results of one load run
type StressReport struct {
	Operation string
	File      string
	FileSize  int64
	Workers   int

	TotalTime  time.Duration
	TotalBytes int64
	// Throughput is the number of bytes of all successful transfers divided by the wall clock time
	Throughput float64

	Successes int
	Failures  int
	// Corrupt counts successful transfers whose digest did not match the local file
	Corrupt int

	LatencyMean time.Duration
	LatencyP50  time.Duration
	LatencyP95  time.Duration
	LatencyMax  time.Duration

	// Errors holds the distinct error messages of failed transfers
	Errors []string
}

// RunStress runs Workers transfers in parallel, one goroutine per simulated user,
// and aggregates the outcome. It only returns an error for an invalid configuration.
func RunStress(c *FileClient, cfg StressConfig) (*StressReport, error) {
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("workers must be at least 1, got %d", cfg.Workers)
	}
	if cfg.File == "" {
		return nil, fmt.Errorf("file is required")
	}

	var transfer func(i int) TransferResult
	switch cfg.Operation {
	case OperationUpload:
		transfer = func(i int) TransferResult {
			remote := filepath.Base(cfg.File)
			if cfg.Distinct {
				remote = fmt.Sprintf("%d_%s", i, remote)
			}
			return c.RemoteUploadAs(cfg.File, remote)
		}
	case OperationDownload:
		transfer = func(int) TransferResult {
			return c.RemoteGet(filepath.Base(cfg.File))
		}
	default:
		return nil, fmt.Errorf("invalid operation %q (expected one of: upload, download)", cfg.Operation)
	}

	report := &StressReport{
		Operation: cfg.Operation,
		File:      cfg.File,
		Workers:   cfg.Workers,
	}

	// The local file is the reference for size and digest
	var reference [32]byte
	hasReference := false
	if content, err := afero.ReadFile(c.fs, c.localPath(cfg.File)); err == nil {
		report.FileSize = int64(len(content))
		reference = blake3.Sum256(content)
		hasReference = true
	}

	registry := gometrics.NewRegistry()
	latency := gometrics.GetOrRegisterTimer("latency", registry)
	defer latency.Stop()

	Logger.Infof("Starting %s of %s with %d workers", cfg.Operation, cfg.File, cfg.Workers)

	start := time.Now()
	p := pool.NewWithResults[TransferResult]().WithMaxGoroutines(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		p.Go(func() TransferResult {
			return transfer(i)
		})
	}
	results := p.Wait()
	report.TotalTime = time.Since(start)

	seen := make(map[string]bool)
	for _, r := range results {
		if !r.Ok {
			report.Failures++
			if r.Err != nil && !seen[r.Err.Error()] {
				seen[r.Err.Error()] = true
				report.Errors = append(report.Errors, r.Err.Error())
			}
			continue
		}

		report.Successes++
		report.TotalBytes += r.Bytes
		latency.Update(r.Elapsed)

		if cfg.Verify && hasReference && r.Digest != reference {
			report.Corrupt++
		}
	}

	if report.TotalTime > 0 {
		report.Throughput = float64(report.TotalBytes) / report.TotalTime.Seconds()
	}
	if latency.Count() > 0 {
		percentiles := latency.Percentiles([]float64{0.5, 0.95})
		report.LatencyMean = time.Duration(latency.Mean())
		report.LatencyP50 = time.Duration(percentiles[0])
		report.LatencyP95 = time.Duration(percentiles[1])
		report.LatencyMax = time.Duration(latency.Max())
	}

	Logger.Infof("Finished %s of %s: %d ok, %d failed in %s",
		cfg.Operation, cfg.File, report.Successes, report.Failures, report.TotalTime)
	return report, nil
}
