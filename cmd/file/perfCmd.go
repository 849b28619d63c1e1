package file

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/ValentinKolb/rfs/cmd/util"
	libUtil "github.com/ValentinKolb/rfs/lib/util"
	"github.com/ValentinKolb/rfs/rpc/client"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Load testing tool for file servers",
		Long:    "Runs parallel uploads or downloads of one file, one goroutine per simulated user, and reports throughput and latency. With --suite every combination of operation, test file and worker count is run.",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	genCmd = &cobra.Command{
		Use:   "gen",
		Short: "Generates the random test files used by perf --suite",
		Args:  cobra.NoArgs,
		RunE:  runGen,
	}
	perfConfig        = client.StressConfig{}
	perfSuiteWorkers  = []int{1, 5, 50}
	perfServerWorkers = 0
)

func init() {
	// add perf flags
	key := "operation"
	perfTestCmd.Flags().String(key, client.OperationUpload, util.WrapString("Operation to test (upload, download)"))
	key = "file"
	perfTestCmd.Flags().String(key, "", util.WrapString("Local file to upload, or remote file to download (a local copy is used to verify downloads)"))
	key = "workers"
	perfTestCmd.Flags().Int(key, 5, util.WrapString("Number of simulated users, each performs one transfer"))
	key = "distinct"
	perfTestCmd.Flags().Bool(key, false, util.WrapString("Upload every transfer under its own name (<i>_<name>) instead of overwriting one file"))
	key = "verify"
	perfTestCmd.Flags().Bool(key, false, util.WrapString("Compare the blake3 digest of every transfer with the local file"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path of a CSV file the results are appended to"))
	key = "suite"
	perfTestCmd.Flags().Bool(key, false, util.WrapString("Run all combinations of operation (upload, download), test file and worker count (1, 5, 50)"))
	key = "dir"
	perfTestCmd.Flags().String(key, "files", util.WrapString("Directory of the test files used by --suite (generated if missing)"))
	key = "server-workers"
	perfTestCmd.Flags().Int(key, 0, util.WrapString("Number of server workers, only recorded in the CSV output"))

	// add gen flags
	key = "dir"
	genCmd.Flags().String(key, "files", util.WrapString("Directory to create the test files in"))
	key = "cleanup"
	genCmd.Flags().Bool(key, false, util.WrapString("Remove all *.dat files in the directory instead of generating them"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfConfig = client.StressConfig{
		Operation: viper.GetString("operation"),
		File:      viper.GetString("file"),
		Workers:   viper.GetInt("workers"),
		Distinct:  viper.GetBool("distinct"),
		Verify:    viper.GetBool("verify"),
	}
	perfServerWorkers = viper.GetInt("server-workers")

	if !viper.GetBool("suite") && perfConfig.File == "" {
		return fmt.Errorf("--file is required unless --suite is set")
	}
	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {
	fmt.Println("Load testing tool for file servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Println()

	var reports []*client.StressReport
	if viper.GetBool("suite") {
		var err error
		if reports, err = runSuite(viper.GetString("dir")); err != nil {
			return err
		}
	} else {
		report, err := client.RunStress(fileClient, perfConfig)
		if err != nil {
			return err
		}
		printReport(report)
		reports = append(reports, report)
	}

	// Append results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := appendReportsToCSV(csvPath, reports); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

func runGen(_ *cobra.Command, _ []string) error {
	dir := viper.GetString("dir")
	fs := afero.NewOsFs()

	if viper.GetBool("cleanup") {
		removed, err := libUtil.CleanupTestFiles(fs, dir)
		if err != nil {
			return err
		}
		fmt.Printf("removed %d test files from %s\n", removed, dir)
		return nil
	}

	paths, err := libUtil.GenerateTestFiles(fs, dir)
	if err != nil {
		return err
	}
	for _, path := range paths {
		fmt.Println(path)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// runSuite runs every combination of operation, test file and worker count
func runSuite(dir string) ([]*client.StressReport, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	paths, err := libUtil.GenerateTestFiles(afero.NewOsFs(), absDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare test files: %w", err)
	}

	total := 2 * len(paths) * len(perfSuiteWorkers)
	fmt.Printf("Running %d tests\n", total)

	var reports []*client.StressReport
	for _, operation := range []string{client.OperationUpload, client.OperationDownload} {
		for _, path := range paths {
			// downloads need the file on the server
			if operation == client.OperationDownload {
				if res := fileClient.RemoteUploadAs(path, filepath.Base(path)); !res.Ok {
					fmt.Printf("failed to upload %s for the download tests: %v\n", path, res.Err)
				}
			}

			for _, workers := range perfSuiteWorkers {
				report, err := client.RunStress(fileClient, client.StressConfig{
					Operation: operation,
					File:      path,
					Workers:   workers,
					Distinct:  perfConfig.Distinct,
					Verify:    perfConfig.Verify,
				})
				if err != nil {
					return reports, err
				}
				printReport(report)
				reports = append(reports, report)
			}
		}
	}
	return reports, nil
}

// printReport prints the result of a load run in a formatted way
func printReport(r *client.StressReport) {
	mb := float64(1024 * 1024)

	fmt.Println()
	fmt.Printf("%s | File: %s | Size: %.2f MB | Workers: %d\n",
		strings.ToUpper(r.Operation), filepath.Base(r.File), float64(r.FileSize)/mb, r.Workers)
	fmt.Printf("%-18s%s\n", "Total Time:", r.TotalTime)
	fmt.Printf("%-18s%.2f MB/s\n", "Throughput:", r.Throughput/mb)
	fmt.Printf("%-18s%d / %d\n", "Success:", r.Successes, r.Workers)
	fmt.Printf("%-18s%d\n", "Failures:", r.Failures)
	if r.Corrupt > 0 {
		fmt.Printf("%-18s%d\n", "Corrupt:", r.Corrupt)
	}
	fmt.Printf("%-18smean %s, p50 %s, p95 %s, max %s\n", "Latency:",
		r.LatencyMean, r.LatencyP50, r.LatencyP95, r.LatencyMax)
	for _, e := range r.Errors {
		fmt.Printf("%-18s%s\n", "Error:", e)
	}
}

var csvHeader = []string{
	"Timestamp", "Operation", "File", "FileSizeBytes", "ClientWorkers", "ServerWorkers",
	"TotalTimeSec", "ThroughputMBps", "Successes", "Failures", "Corrupt",
	"LatencyMeanMs", "LatencyP50Ms", "LatencyP95Ms", "LatencyMaxMs",
	"Endpoint", "Serializer", "Transport", "Framing",
}

// appendReportsToCSV appends one row per report and writes the header if the file is new
func appendReportsToCSV(csvPath string, reports []*client.StressReport) error {
	file, err := os.OpenFile(csvPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open CSV file: %v", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}

	writer := csv.NewWriter(file)

	if info.Size() == 0 {
		if err := writer.Write(csvHeader); err != nil {
			return fmt.Errorf("failed to write CSV header: %v", err)
		}
	}

	config := util.GetClientConfig()
	ms := func(d time.Duration) string {
		return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64)
	}

	for _, r := range reports {
		row := []string{
			time.Now().Format(time.RFC3339),
			r.Operation,
			filepath.Base(r.File),
			strconv.FormatInt(r.FileSize, 10),
			strconv.Itoa(r.Workers),
			strconv.Itoa(perfServerWorkers),
			strconv.FormatFloat(r.TotalTime.Seconds(), 'f', 4, 64),
			strconv.FormatFloat(r.Throughput/(1024*1024), 'f', 2, 64),
			strconv.Itoa(r.Successes),
			strconv.Itoa(r.Failures),
			strconv.Itoa(r.Corrupt),
			ms(r.LatencyMean),
			ms(r.LatencyP50),
			ms(r.LatencyP95),
			ms(r.LatencyMax),
			config.Transport.Endpoint,
			viper.GetString("serializer"),
			viper.GetString("transport"),
			config.Transport.Framing,
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for %s: %v", r.Operation, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
