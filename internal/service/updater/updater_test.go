package updater

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rgigli/bedrock-server-updater/internal/catalog"
	"github.com/rgigli/bedrock-server-updater/internal/config"
	"github.com/rgigli/bedrock-server-updater/internal/fetch"
	"github.com/rgigli/bedrock-server-updater/internal/marker"
	"github.com/rgigli/bedrock-server-updater/internal/platform"
)

// fixture bundles a catalog endpoint and an archive endpoint on one test
// server, counting archive hits so tests can prove nothing was downloaded.
type fixture struct {
	server      *httptest.Server
	archiveHits atomic.Int64
}

// newFixture serves a catalog whose Linux and Windows entries both point at a
// zip built from files, published under the provided archive file name.
func newFixture(t *testing.T, archiveName string, files map[string]string) *fixture {
	t.Helper()

	fx := &fixture{}

	archiveBytes := buildZip(t, files)
	archivePath := "/bin/" + archiveName

	mux := http.NewServeMux()
	fx.server = httptest.NewServer(mux)
	t.Cleanup(fx.server.Close)

	archiveURL := fx.server.URL + archivePath

	mux.HandleFunc("/api/links", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"result":{"links":[
			{"downloadType":"serverBedrockLinux","downloadUrl":%q},
			{"downloadType":"serverBedrockWindows","downloadUrl":%q}
		]}}`, archiveURL, archiveURL)
	})

	mux.HandleFunc(archivePath, func(w http.ResponseWriter, _ *http.Request) {
		fx.archiveHits.Add(1)

		_, _ = w.Write(archiveBytes)
	})

	return fx
}

// newTestRunner builds a runner wired to the fixture, with confirmations fed
// from the provided input.
func newTestRunner(fx *fixture, targetDir string, opts *Options, confirmInput string) *runner {
	fetcher := fetch.NewFetcher(1, 5*time.Second)
	fetcher.SetProgressWriter(io.Discard)

	return &runner{
		cfg:        config.Default(),
		opts:       opts,
		plat:       platform.Linux,
		resolver:   catalog.NewResolver([]string{fx.server.URL + "/api/links"}, 1, 5*time.Second),
		fetcher:    fetcher,
		targetDir:  targetDir,
		confirmIn:  strings.NewReader(confirmInput),
		confirmOut: io.Discard,
	}
}

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	writer := zip.NewWriter(&buf)
	for name, contents := range files {
		entry, err := writer.Create(name)
		require.NoError(t, err)

		_, err = entry.Write([]byte(contents))
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	return buf.Bytes()
}

func serverFiles(tag string) map[string]string {
	return map[string]string{
		"bedrock_server":                       "binary " + tag,
		"server.properties":                    "gamemode=survival " + tag,
		"behavior_packs/vanilla/manifest.json": "{}",
	}
}

// TestUpdateShortCircuitsWhenUpToDate proves an up-to-date installation never
// triggers a download.
func TestUpdateShortCircuitsWhenUpToDate(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, "bedrock-server-1.21.120.4.zip", serverFiles("new"))

	targetDir := t.TempDir()
	require.NoError(t, marker.Write(targetDir, "1.21.120.4"))

	r := newTestRunner(fx, targetDir, &Options{Mode: ModeUpdate}, "")
	defer r.cleanup(context.Background())

	require.NoError(t, r.runUpdate(context.Background()))
	require.EqualValues(t, 0, fx.archiveHits.Load())
}

// TestUpdateUnknownVersionsNeverShortCircuit proves that an unrecognizable
// URL plus a missing marker still offers the update instead of skipping it.
func TestUpdateUnknownVersionsNeverShortCircuit(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, "latest.zip", serverFiles("new"))

	targetDir := t.TempDir()

	r := newTestRunner(fx, targetDir, &Options{Mode: ModeUpdate}, "n\n")
	defer r.cleanup(context.Background())

	var out strings.Builder

	r.confirmOut = &out

	require.NoError(t, r.runUpdate(context.Background()))
	require.Contains(t, out.String(), "Proceed with update")
	require.EqualValues(t, 0, fx.archiveHits.Load())
}

// TestCheckNeverMutates proves check mode downloads nothing and writes nothing.
func TestCheckNeverMutates(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, "bedrock-server-1.21.130.1.zip", serverFiles("new"))

	targetDir := t.TempDir()

	r := newTestRunner(fx, targetDir, &Options{Mode: ModeCheck}, "")
	defer r.cleanup(context.Background())

	require.NoError(t, r.runCheck(context.Background()))
	require.EqualValues(t, 0, fx.archiveHits.Load())

	_, ok := marker.Probe(targetDir)
	require.False(t, ok)
}

// TestUpdateDeclinedLeavesInstallationAlone covers refusing the confirmation.
func TestUpdateDeclinedLeavesInstallationAlone(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, "bedrock-server-1.21.130.1.zip", serverFiles("new"))

	targetDir := t.TempDir()
	require.NoError(t, marker.Write(targetDir, "1.21.0.0"))

	r := newTestRunner(fx, targetDir, &Options{Mode: ModeUpdate}, "n\n")
	defer r.cleanup(context.Background())

	require.NoError(t, r.runUpdate(context.Background()))
	require.EqualValues(t, 0, fx.archiveHits.Load())

	version, ok := marker.Probe(targetDir)
	require.True(t, ok)
	require.Equal(t, "1.21.0.0", version)
}

// TestInstallForceDeploys runs the full install pipeline into an empty
// directory without prompting.
func TestInstallForceDeploys(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, "bedrock-server-1.21.130.1.zip", serverFiles("new"))

	targetDir := filepath.Join(t.TempDir(), "server")

	r := newTestRunner(fx, targetDir, &Options{Mode: ModeInstall, Force: true}, "")
	defer r.cleanup(context.Background())

	require.NoError(t, r.runInstall(context.Background()))
	require.EqualValues(t, 1, fx.archiveHits.Load())

	contents, err := os.ReadFile(filepath.Join(targetDir, "bedrock_server"))
	require.NoError(t, err)
	require.Equal(t, "binary new", string(contents))

	version, ok := marker.Probe(targetDir)
	require.True(t, ok)
	require.Equal(t, "1.21.130.1", version)

	// Scratch directory is gone after cleanup.
	r.cleanup(context.Background())
	_, err = os.Stat(r.scratchDir)
	require.Error(t, err)
}

// TestUpdateForcePreservesExcludedFilesAndBacksUp runs the full update
// pipeline: exclusions keep live settings, a backup snapshot appears next to
// the installation, and the binary is replaced.
func TestUpdateForcePreservesExcludedFilesAndBacksUp(t *testing.T) {
	t.Parallel()

	fx := newFixture(t, "bedrock-server-1.21.130.1.zip", serverFiles("new"))

	root := t.TempDir()
	targetDir := filepath.Join(root, "server")
	require.NoError(t, os.MkdirAll(targetDir, 0o755))

	oldProperties := "gamemode=creative old"
	require.NoError(t, os.WriteFile(
		filepath.Join(targetDir, "server.properties"), []byte(oldProperties), 0o644))
	require.NoError(t, os.WriteFile(
		filepath.Join(targetDir, "bedrock_server"), []byte("binary old"), 0o755))
	require.NoError(t, marker.Write(targetDir, "1.21.0.0"))

	r := newTestRunner(fx, targetDir, &Options{Mode: ModeUpdate, Force: true}, "")
	defer r.cleanup(context.Background())

	r.cfg.Files.ExcludeFiles = "server.properties\nallowlist.json\n"

	require.NoError(t, r.runUpdate(context.Background()))

	// Live settings survived the merge.
	contents, err := os.ReadFile(filepath.Join(targetDir, "server.properties"))
	require.NoError(t, err)
	require.Equal(t, oldProperties, string(contents))

	// The binary was replaced and the marker advanced.
	contents, err = os.ReadFile(filepath.Join(targetDir, "bedrock_server"))
	require.NoError(t, err)
	require.Equal(t, "binary new", string(contents))

	version, ok := marker.Probe(targetDir)
	require.True(t, ok)
	require.Equal(t, "1.21.130.1", version)

	// A backup snapshot with the pre-update files exists beside the target.
	hostname, err := os.Hostname()
	require.NoError(t, err)

	backupDir := filepath.Join(root, "backup_1.21.130.1_"+hostname)
	contents, err = os.ReadFile(filepath.Join(backupDir, "bedrock_server"))
	require.NoError(t, err)
	require.Equal(t, "binary old", string(contents))
}

// TestRunRejectsUnknownMode guards the mode switch. The settings file keeps
// the run console-only so the shared logger is left untouched.
func TestRunRejectsUnknownMode(t *testing.T) {
	t.Parallel()

	targetDir := t.TempDir()
	settings := "logging:\n  save_logs: false\n"
	require.NoError(t, os.WriteFile(
		filepath.Join(targetDir, config.DefaultConfigFilename), []byte(settings), 0o644))

	err := Run(context.Background(), &Options{
		Mode:      Mode("reinstall"),
		TargetDir: targetDir,
	})
	require.ErrorIs(t, err, errUnknownMode)
}
