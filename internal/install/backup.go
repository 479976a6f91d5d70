package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rgigli/bedrock-server-updater/internal/logger"
)

// backupPrefix starts every snapshot directory name.
const backupPrefix = "backup_"

// BackupIfAbsent snapshots the live installation into a sibling directory
// named after the target version and the host. If a snapshot with that name
// already exists the copy is skipped entirely and the existing path is
// returned with created=false. Rotating logs and cached bytecode directories
// are excluded from the copy.
func BackupIfAbsent(ctx context.Context, sourceDir, version string) (string, bool, error) {
	absSource, err := filepath.Abs(sourceDir)
	if err != nil {
		return "", false, fmt.Errorf("resolve installation directory: %w", err)
	}

	hostname, err := os.Hostname()
	if err != nil {
		return "", false, fmt.Errorf("hostname: %w", err)
	}

	name := fmt.Sprintf("%s%s_%s", backupPrefix, version, hostname)
	backupPath := filepath.Join(filepath.Dir(absSource), name)

	if _, err := os.Stat(backupPath); err == nil {
		logger.InfoKV(ctx, "Backup already exists, skipping", "path", backupPath)

		return backupPath, false, nil
	}

	logger.InfoKV(ctx, "Creating backup", "path", backupPath)

	if err := copyTree(absSource, backupPath, skipBackupEntry); err != nil {
		return backupPath, false, fmt.Errorf("create backup: %w", err)
	}

	return backupPath, true, nil
}

// skipBackupEntry filters transient artifacts out of snapshots.
func skipBackupEntry(name string, isDir bool) bool {
	if isDir {
		return name == "__pycache__"
	}

	matched, _ := filepath.Match("*.log", name)

	return matched
}
