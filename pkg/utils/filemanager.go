// =============================================================================
// Order Export Converter - File Manager Utility
// =============================================================================
//
// This module owns the file-system edges of the pipeline:
//   - Output directory clearing at the start of a run
//   - Export discovery in the input directory
//   - Writing the per-channel report pair (compact + formatted)
//   - Archiving successfully processed exports
//
// ARCHIVAL STRATEGY:
//   - Input exports are moved to the input archive after successful
//     processing; failed files remain where they are so a rerun picks them
//     up again.
//   - Outputs are never archived here; each run clears and repopulates the
//     output directory.
//
// =============================================================================

package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FileManager handles file operations for the converter.
type FileManager struct {
	// InputDir is the directory scanned for order exports.
	InputDir string

	// OutputDir is the directory report pairs are written to.
	OutputDir string

	// InputArchiveDir is the directory processed exports are moved to.
	InputArchiveDir string
}

// NewFileManager creates a FileManager over the configured directories.
func NewFileManager(inputDir, outputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		OutputDir:       outputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// EnsureDirectories creates all managed directories if they don't exist.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.InputDir, fm.OutputDir, fm.InputArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ClearOutputDir removes every file and subdirectory inside the output
// directory, keeping the directory itself. A missing directory is not an
// error; it is simply created.
func (fm *FileManager) ClearOutputDir() error {
	entries, err := os.ReadDir(fm.OutputDir)
	if os.IsNotExist(err) {
		return os.MkdirAll(fm.OutputDir, 0755)
	}
	if err != nil {
		return fmt.Errorf("failed to read output directory: %w", err)
	}

	for _, entry := range entries {
		path := filepath.Join(fm.OutputDir, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("failed to delete %s: %w", path, err)
		}
	}

	return nil
}

// DiscoverInputFiles scans the input directory for order exports with one of
// the given extensions (e.g. ".txt", ".xlsx"). Results are sorted by name so
// runs are deterministic.
func (fm *FileManager) DiscoverInputFiles(extensions ...string) ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	wanted := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		wanted[strings.ToLower(ext)] = true
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if wanted[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(fm.InputDir, entry.Name()))
		}
	}

	sort.Strings(files)
	return files, nil
}

// WriteReportPair writes a channel's compact and formatted documents as
// <channel>.xml and <channel>.formatted.xml in the output directory.
//
// RETURNS:
//   - The path of the compact file.
//   - The path of the formatted file.
//   - An error if either write fails.
func (fm *FileManager) WriteReportPair(channel string, compact, formatted []byte) (string, string, error) {
	name := sanitizeFileName(channel)

	compactPath := filepath.Join(fm.OutputDir, name+".xml")
	if err := os.WriteFile(compactPath, compact, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", compactPath, err)
	}

	formattedPath := filepath.Join(fm.OutputDir, name+".formatted.xml")
	if err := os.WriteFile(formattedPath, formatted, 0644); err != nil {
		return "", "", fmt.Errorf("failed to write %s: %w", formattedPath, err)
	}

	return compactPath, formattedPath, nil
}

// ArchiveInputFile moves a processed export into the input archive and
// returns its new path.
func (fm *FileManager) ArchiveInputFile(path string) (string, error) {
	archivePath := filepath.Join(fm.InputArchiveDir, filepath.Base(path))
	if err := os.Rename(path, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", path, err)
	}
	return archivePath, nil
}

// FileExists checks if a file exists at the given path.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// sanitizeFileName keeps channel names usable as file names. Channels look
// like "Amazon.com"; path separators would break the join.
func sanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, string(os.PathSeparator), "_")
	if name == "" {
		name = "unknown-channel"
	}
	return name
}
