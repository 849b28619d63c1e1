package util

import (
	"crypto/rand"
	"fmt"
	"path/filepath"

	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/afero"
)

var Logger = logger.GetLogger("util")

const (
	// MiB is the unit of the test file sizes
	MiB = 1024 * 1024

	// chunkSize is the amount of random data generated per write
	chunkSize = MiB
)

// TestFile describes one generated test file
type TestFile struct {
	Name string
	Size int64
}

// TestFiles are the standard files used by the load harness
var TestFiles = []TestFile{
	{Name: "test_1mb.dat", Size: 1 * MiB},
	{Name: "test_10mb.dat", Size: 10 * MiB},
	{Name: "test_50mb.dat", Size: 50 * MiB},
	{Name: "test_100mb.dat", Size: 100 * MiB},
}

// GenerateTestFiles creates the standard test files in dir.
// Existing files with the expected size are kept, files with another size are regenerated.
// It returns the paths of all test files.
func GenerateTestFiles(fs afero.Fs, dir string) ([]string, error) {
	return GenerateFiles(fs, dir, TestFiles)
}

// GenerateFiles creates the given files with random content in dir
func GenerateFiles(fs afero.Fs, dir string, files []TestFile) ([]string, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		paths = append(paths, path)

		info, err := fs.Stat(path)
		switch {
		case err == nil && info.Size() == f.Size:
			Logger.Infof("Test file already exists with correct size: %s", path)
			continue
		case err == nil:
			Logger.Warningf("Existing file %s has wrong size (%d bytes), regenerating", path, info.Size())
		default:
			Logger.Infof("Generating test file: %s", path)
		}

		if err := GenerateFile(fs, path, f.Size); err != nil {
			return nil, err
		}
	}
	return paths, nil
}

// GenerateFile writes size random bytes to path, replacing any existing file
func GenerateFile(fs afero.Fs, path string, size int64) error {
	file, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	chunk := make([]byte, chunkSize)
	for remaining := size; remaining > 0; {
		n := int64(len(chunk))
		if remaining < n {
			n = remaining
		}
		if _, err := rand.Read(chunk[:n]); err != nil {
			return fmt.Errorf("failed to generate random data: %w", err)
		}
		if _, err := file.Write(chunk[:n]); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		remaining -= n
	}

	return file.Close()
}

// CleanupTestFiles removes all *.dat files in dir and returns how many were removed
func CleanupTestFiles(fs afero.Fs, dir string) (int, error) {
	matches, err := afero.Glob(fs, filepath.Join(dir, "*.dat"))
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, path := range matches {
		if err := fs.Remove(path); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", path, err)
		}
		Logger.Infof("Removed test file: %s", path)
		removed++
	}
	return removed, nil
}
