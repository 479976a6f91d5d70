package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrCorruptArchive is returned when the downloaded file cannot be opened as
// a valid zip container. It wraps the underlying format error.
var ErrCorruptArchive = errors.New("downloaded archive is not a valid zip file")

const defaultDirMode os.FileMode = 0o755

// Extract unpacks the zip archive at archivePath into destDir. Extraction is
// all-or-nothing from the caller's perspective: the first failure aborts and
// no partial-extraction recovery is attempted.
func Extract(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}
	defer func() {
		_ = reader.Close()
	}()

	if err := os.MkdirAll(destDir, defaultDirMode); err != nil {
		return fmt.Errorf("create extraction directory: %w", err)
	}

	for _, entry := range reader.File {
		if err := extractEntry(entry, destDir); err != nil {
			return err
		}
	}

	return nil
}

// extractEntry writes a single archive entry under destDir, rejecting paths
// that would escape it.
func extractEntry(entry *zip.File, destDir string) error {
	target, err := securePath(destDir, entry.Name)
	if err != nil {
		return err
	}

	if entry.FileInfo().IsDir() {
		return os.MkdirAll(target, entry.Mode().Perm()|defaultDirMode)
	}

	if err := os.MkdirAll(filepath.Dir(target), defaultDirMode); err != nil {
		return fmt.Errorf("create parent directory for %s: %w", entry.Name, err)
	}

	source, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", entry.Name, err)
	}
	defer func() {
		_ = source.Close()
	}()

	output, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode().Perm())
	if err != nil {
		return fmt.Errorf("create %s: %w", entry.Name, err)
	}

	if _, err := io.Copy(output, source); err != nil {
		_ = output.Close()

		return fmt.Errorf("extract %s: %w", entry.Name, err)
	}

	return output.Close()
}

// securePath joins an entry name onto the destination directory and rejects
// traversal outside it.
func securePath(destDir, name string) (string, error) {
	target := filepath.Join(destDir, filepath.FromSlash(name))

	base := filepath.Clean(destDir)
	if target != base && !strings.HasPrefix(target, base+string(os.PathSeparator)) {
		return "", fmt.Errorf("archive entry %s escapes extraction directory", name)
	}

	return target, nil
}
