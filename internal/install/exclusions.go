package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rgigli/bedrock-server-updater/internal/logger"
)

// ApplyExclusions removes the configured top-level directories and files from
// the extracted tree before it is merged into the live installation. Names
// that are absent, or present with the wrong kind, are silently skipped.
// Entries are independent, so removal order is unspecified.
func ApplyExclusions(ctx context.Context, dir string, excludeFiles, excludeDirs map[string]struct{}) error {
	for name := range excludeDirs {
		path := filepath.Join(dir, name)

		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			return fmt.Errorf("remove excluded directory %s: %w", name, err)
		}

		logger.InfoKV(ctx, "Removed excluded directory", "name", name)
	}

	for name := range excludeFiles {
		path := filepath.Join(dir, name)

		info, err := os.Stat(path)
		if err != nil || info.IsDir() {
			continue
		}

		if err := os.Remove(path); err != nil {
			return fmt.Errorf("remove excluded file %s: %w", name, err)
		}

		logger.InfoKV(ctx, "Removed excluded file", "name", name)
	}

	return nil
}
