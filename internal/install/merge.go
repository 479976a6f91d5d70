package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/rgigli/bedrock-server-updater/internal/logger"
)

// Merge copies the cleaned extracted tree over the live installation,
// top-level entry by top-level entry. Files are replaced in place; a
// directory that already exists at the destination is removed recursively
// and copied wholesale. Destination entries absent from the source are left
// untouched, which is how world data and configuration survive an update.
func Merge(ctx context.Context, sourceDir, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create installation directory: %w", err)
	}

	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		return fmt.Errorf("read extracted tree: %w", err)
	}

	for _, entry := range entries {
		srcPath := filepath.Join(sourceDir, entry.Name())
		dstPath := filepath.Join(destDir, entry.Name())

		if entry.IsDir() {
			if _, err := os.Stat(dstPath); err == nil {
				if err := os.RemoveAll(dstPath); err != nil {
					return fmt.Errorf("remove old directory %s: %w", entry.Name(), err)
				}
			}

			if err := copyTree(srcPath, dstPath, nil); err != nil {
				return err
			}

			logger.DebugKV(ctx, "Copied directory", "name", entry.Name())

			continue
		}

		if err := replaceFile(srcPath, dstPath); err != nil {
			return fmt.Errorf("replace %s: %w", entry.Name(), err)
		}

		logger.DebugKV(ctx, "Copied file", "name", entry.Name())
	}

	return nil
}

// replaceFile swaps a single installation file for its new version, keeping
// the source's permission bits. The swap goes through a staged rename so a
// file that is open for reading is not truncated mid-write.
func replaceFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}
	defer func() {
		_ = source.Close()
	}()

	// Apply renames the target aside before writing, so a file the archive
	// ships for the first time must exist before the swap.
	if _, err := os.Stat(dst); os.IsNotExist(err) {
		placeholder, err := os.Create(filepath.Clean(dst))
		if err != nil {
			return err
		}

		if err := placeholder.Close(); err != nil {
			return err
		}
	}

	options := goupdate.Options{
		TargetPath: dst,
		TargetMode: info.Mode().Perm(),
	}

	if err := goupdate.Apply(source, options); err != nil {
		return err
	}

	// Apply stages the previous file as a dot-prefixed .old sibling; drop it
	// if it survived the swap.
	oldFile := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".old")
	if _, err := os.Stat(oldFile); err == nil {
		_ = os.Remove(oldFile)
	}

	return nil
}
