package install

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFile creates a file with parent directories as needed.
func writeFile(t *testing.T, path, content string) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// TestApplyExclusions removes named entries and leaves everything else alone.
func TestApplyExclusions(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "server.properties"), "server-port=19132")
	writeFile(t, filepath.Join(dir, "bedrock_server"), "binary")
	writeFile(t, filepath.Join(dir, "config", "default.json"), "{}")
	writeFile(t, filepath.Join(dir, "resource_packs", "vanilla.txt"), "pack")

	err := ApplyExclusions(context.Background(), dir,
		map[string]struct{}{"server.properties": {}},
		map[string]struct{}{"config": {}})
	require.NoError(t, err)

	_, statErr := os.Stat(filepath.Join(dir, "server.properties"))
	require.True(t, os.IsNotExist(statErr))

	_, statErr = os.Stat(filepath.Join(dir, "config"))
	require.True(t, os.IsNotExist(statErr))

	_, statErr = os.Stat(filepath.Join(dir, "bedrock_server"))
	require.NoError(t, statErr)

	_, statErr = os.Stat(filepath.Join(dir, "resource_packs", "vanilla.txt"))
	require.NoError(t, statErr)
}

// TestApplyExclusionsMissingEntries ensures absent names never fail.
func TestApplyExclusionsMissingEntries(t *testing.T) {
	t.Parallel()

	err := ApplyExclusions(context.Background(), t.TempDir(),
		map[string]struct{}{"no-such-file": {}},
		map[string]struct{}{"no-such-dir": {}})
	require.NoError(t, err)
}

// TestMerge checks the top-level merge contract: user data absent from the
// new archive survives, shared files are replaced, shared directories are
// replaced wholesale.
func TestMerge(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	source := filepath.Join(base, "extracted")
	dest := filepath.Join(base, "live")

	writeFile(t, filepath.Join(source, "bedrock_server"), "new binary")
	writeFile(t, filepath.Join(source, "behavior_packs", "vanilla.txt"), "new pack")

	writeFile(t, filepath.Join(dest, "bedrock_server"), "old binary")
	writeFile(t, filepath.Join(dest, "behavior_packs", "stale.txt"), "stale pack")
	writeFile(t, filepath.Join(dest, "worlds", "Bedrock level", "level.dat"), "world data")

	require.NoError(t, Merge(context.Background(), source, dest))

	contents, err := os.ReadFile(filepath.Join(dest, "bedrock_server"))
	require.NoError(t, err)
	require.Equal(t, "new binary", string(contents))

	// Directory replaced wholesale: stale entry is gone.
	_, statErr := os.Stat(filepath.Join(dest, "behavior_packs", "stale.txt"))
	require.True(t, os.IsNotExist(statErr))

	contents, err = os.ReadFile(filepath.Join(dest, "behavior_packs", "vanilla.txt"))
	require.NoError(t, err)
	require.Equal(t, "new pack", string(contents))

	// User data not shipped by the archive is untouched.
	contents, err = os.ReadFile(filepath.Join(dest, "worlds", "Bedrock level", "level.dat"))
	require.NoError(t, err)
	require.Equal(t, "world data", string(contents))

	// No leftovers from the staged file swap under either spelling.
	_, statErr = os.Stat(filepath.Join(dest, "bedrock_server.old"))
	require.True(t, os.IsNotExist(statErr))

	_, statErr = os.Stat(filepath.Join(dest, ".bedrock_server.old"))
	require.True(t, os.IsNotExist(statErr))
}

// TestMergeShipsNewTopLevelFile covers an update whose archive carries a file
// the installation has never seen: the staged swap must not require a
// pre-existing target.
func TestMergeShipsNewTopLevelFile(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	source := filepath.Join(base, "extracted")
	dest := filepath.Join(base, "live")

	writeFile(t, filepath.Join(source, "bedrock_server"), "new binary")
	writeFile(t, filepath.Join(source, "release-notes.txt"), "first shipped in this release")

	writeFile(t, filepath.Join(dest, "bedrock_server"), "old binary")

	require.NoError(t, Merge(context.Background(), source, dest))

	contents, err := os.ReadFile(filepath.Join(dest, "release-notes.txt"))
	require.NoError(t, err)
	require.Equal(t, "first shipped in this release", string(contents))

	_, statErr := os.Stat(filepath.Join(dest, ".release-notes.txt.old"))
	require.True(t, os.IsNotExist(statErr))
}

// TestMergeIntoMissingDestination covers a fresh install into a directory
// that does not exist yet.
func TestMergeIntoMissingDestination(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	source := filepath.Join(base, "extracted")
	dest := filepath.Join(base, "brand-new")

	writeFile(t, filepath.Join(source, "bedrock_server"), "binary")

	require.NoError(t, Merge(context.Background(), source, dest))

	contents, err := os.ReadFile(filepath.Join(dest, "bedrock_server"))
	require.NoError(t, err)
	require.Equal(t, "binary", string(contents))
}

// TestBackupIfAbsent checks snapshot creation, the skip on a second call, and
// the transient-artifact filters.
func TestBackupIfAbsent(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	live := filepath.Join(base, "server")

	writeFile(t, filepath.Join(live, "bedrock_server"), "binary")
	writeFile(t, filepath.Join(live, "updater.log"), "log line")
	writeFile(t, filepath.Join(live, "__pycache__", "junk.pyc"), "bytecode")
	writeFile(t, filepath.Join(live, "worlds", "level.dat"), "world")

	ctx := context.Background()

	backupPath, created, err := BackupIfAbsent(ctx, live, "1.21.120.4")
	require.NoError(t, err)
	require.True(t, created)

	hostname, err := os.Hostname()
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("backup_1.21.120.4_%s", hostname), filepath.Base(backupPath))

	_, statErr := os.Stat(filepath.Join(backupPath, "bedrock_server"))
	require.NoError(t, statErr)

	_, statErr = os.Stat(filepath.Join(backupPath, "worlds", "level.dat"))
	require.NoError(t, statErr)

	_, statErr = os.Stat(filepath.Join(backupPath, "updater.log"))
	require.True(t, os.IsNotExist(statErr))

	_, statErr = os.Stat(filepath.Join(backupPath, "__pycache__"))
	require.True(t, os.IsNotExist(statErr))

	// Second run with the same computed name is a no-op.
	writeFile(t, filepath.Join(live, "added-later.txt"), "should not be copied")

	samePath, created, err := BackupIfAbsent(ctx, live, "1.21.120.4")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, backupPath, samePath)

	_, statErr = os.Stat(filepath.Join(backupPath, "added-later.txt"))
	require.True(t, os.IsNotExist(statErr))
}
