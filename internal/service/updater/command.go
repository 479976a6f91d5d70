package updater

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rgigli/bedrock-server-updater/internal/archive"
	"github.com/rgigli/bedrock-server-updater/internal/catalog"
	"github.com/rgigli/bedrock-server-updater/internal/config"
	"github.com/rgigli/bedrock-server-updater/internal/fetch"
	"github.com/rgigli/bedrock-server-updater/internal/install"
	"github.com/rgigli/bedrock-server-updater/internal/logger"
	"github.com/rgigli/bedrock-server-updater/internal/marker"
	"github.com/rgigli/bedrock-server-updater/internal/platform"
	"github.com/rgigli/bedrock-server-updater/internal/prompt"
)

// Mode selects which top-level operation the runner performs.
type Mode string

const (
	// ModeInstall performs a fresh installation without exclusions or backup.
	ModeInstall Mode = "install"
	// ModeUpdate performs an update with exclusions and a pre-merge backup.
	ModeUpdate Mode = "update"
	// ModeCheck reports the current and available versions without mutating anything.
	ModeCheck Mode = "check"
)

var errUnknownMode = errors.New("unknown operation mode")

// Options are inputs accepted by the updater entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file. When empty,
	// the file is searched in the target directory and beside the executable.
	ConfigPath string
	// TargetDir is the server installation directory (default ".").
	TargetDir string
	// Mode is the operation to perform.
	Mode Mode
	// Preview selects the preview release channel instead of release.
	Preview bool
	// Force skips confirmation and the already-up-to-date short circuit.
	Force bool
}

// runner holds the state and collaborators for a single execution.
// It is intentionally unexported; call Run(ctx, Options) from callers.
type runner struct {
	cfg        *config.Config
	opts       *Options
	plat       platform.Platform
	resolver   *catalog.Resolver
	fetcher    *fetch.Fetcher
	targetDir  string    // Absolute installation directory.
	scratchDir string    // Per-run temp dir, removed by cleanup.
	confirmIn  io.Reader // Confirmation input, os.Stdin outside tests.
	confirmOut io.Writer
}

// Run executes the selected operation and is the public entry point for the CLI.
func Run(ctx context.Context, opts *Options) error {
	r, err := newRunner(ctx, opts)
	if err != nil {
		return err
	}

	ctx = logger.WithName(ctx, "bedrock-updater")

	defer r.cleanup(ctx)

	var runErr error

	switch opts.Mode {
	case ModeInstall:
		runErr = r.runInstall(ctx)
	case ModeUpdate:
		runErr = r.runUpdate(ctx)
	case ModeCheck:
		runErr = r.runCheck(ctx)
	default:
		runErr = fmt.Errorf("%w: %q", errUnknownMode, opts.Mode)
	}

	if runErr != nil {
		logger.ErrorKV(ctx, "Operation failed", "mode", opts.Mode, "error", runErr)
		return runErr
	}

	return nil
}

// newRunner resolves the target directory, loads settings, configures
// logging, and wires the pipeline collaborators.
func newRunner(ctx context.Context, opts *Options) (*runner, error) {
	targetDir := opts.TargetDir
	if targetDir == "" {
		targetDir = "."
	}

	absTarget, err := filepath.Abs(targetDir)
	if err != nil {
		return nil, fmt.Errorf("resolve target directory: %w", err)
	}

	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.Locate(absTarget)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	configureLogging(ctx, cfg, absTarget)

	return &runner{
		cfg:        cfg,
		opts:       opts,
		plat:       platform.Detect(),
		resolver:   catalog.NewResolver(nil, cfg.Download.MaxRetries, cfg.APITimeout()),
		fetcher:    fetch.NewFetcher(cfg.Download.MaxRetries, cfg.DownloadTimeout()),
		targetDir:  absTarget,
		confirmIn:  os.Stdin,
		confirmOut: os.Stdout,
	}, nil
}

// runCheck reports the current and available versions without touching disk.
func (r *runner) runCheck(ctx context.Context) error {
	resolved, newVersion, newKnown, err := r.resolve(ctx)
	if err != nil {
		return err
	}

	current, currentKnown := marker.Probe(r.targetDir)

	currentDisplay := current
	if !currentKnown {
		currentDisplay = "not detected"
	}

	logger.InfoKV(ctx, "Version check",
		"current", currentDisplay, "available", newVersion, "url", resolved.URL)

	if currentKnown && newKnown && current == newVersion {
		logger.Info(ctx, "Server is up to date")
	} else {
		logger.Info(ctx, "Update available")
	}

	return nil
}

// runInstall performs a fresh installation: no exclusions, no backup.
func (r *runner) runInstall(ctx context.Context) error {
	resolved, newVersion, _, err := r.resolve(ctx)
	if err != nil {
		return err
	}

	r.logRunHeader(ctx, newVersion)

	if current, ok := marker.Probe(r.targetDir); ok && !r.opts.Force {
		logger.WarnKV(ctx, "An installation is already present", "version", current)
	}

	if !r.confirmed(fmt.Sprintf("Proceed with installation of version %s?", newVersion)) {
		logger.Info(ctx, "Installation cancelled")
		return nil
	}

	return r.deploy(ctx, resolved.URL, newVersion, false)
}

// runUpdate performs an update, short-circuiting when the installation is
// already at the resolved version. The short circuit requires both versions
// to be genuinely known: an unknown/unknown pair must never silently skip a
// real update.
func (r *runner) runUpdate(ctx context.Context) error {
	resolved, newVersion, newKnown, err := r.resolve(ctx)
	if err != nil {
		return err
	}

	r.logRunHeader(ctx, newVersion)

	current, currentKnown := marker.Probe(r.targetDir)
	if currentKnown {
		logger.InfoKV(ctx, "Current version detected", "version", current)
	} else {
		logger.Info(ctx, "Current version: not detected")
	}

	if currentKnown && newKnown && current == newVersion && !r.opts.Force {
		logger.Info(ctx, "Server is already up to date")
		return nil
	}

	if !r.confirmed(fmt.Sprintf("Proceed with update to version %s?", newVersion)) {
		logger.Info(ctx, "Update cancelled")
		return nil
	}

	return r.deploy(ctx, resolved.URL, newVersion, true)
}

// resolve fetches the download link and recovers the version token from it.
func (r *runner) resolve(ctx context.Context) (catalog.ResolvedLink, string, bool, error) {
	logger.Info(ctx, "Resolving download link")

	resolved, err := r.resolver.ResolveDownloadURL(ctx, r.plat, r.opts.Preview)
	if err != nil {
		return catalog.ResolvedLink{}, "", false, err
	}

	version, known := catalog.ExtractVersion(resolved.URL)
	if !known {
		logger.WarnKV(ctx, "Unable to determine version from download URL", "url", resolved.URL)
	}

	return resolved, version, known, nil
}

// deploy runs the shared tail of install and update: download, extract,
// optionally clean and back up, then merge and record the version. Failures
// after the merge has begun are not rolled back; the backup snapshot is the
// recovery path.
func (r *runner) deploy(ctx context.Context, url, version string, isUpdate bool) error {
	if err := r.ensureServerNotRunning(ctx); err != nil {
		return err
	}

	scratchDir, err := os.MkdirTemp("", "bedrock-updater-")
	if err != nil {
		return fmt.Errorf("create scratch directory: %w", err)
	}

	r.scratchDir = scratchDir

	extractDir := filepath.Join(scratchDir, "extracted")
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return fmt.Errorf("create extraction directory: %w", err)
	}

	logger.InfoKV(ctx, "Downloading server archive", "url", url)

	archivePath, err := r.fetcher.Download(ctx, url, scratchDir)
	if err != nil {
		return err
	}

	logger.Info(ctx, "Extracting server archive")

	if err := archive.Extract(archivePath, extractDir); err != nil {
		return err
	}

	if isUpdate {
		logger.Info(ctx, "Removing preserved names from the extracted tree")

		err := install.ApplyExclusions(ctx, extractDir, r.cfg.ExcludeFileSet(), r.cfg.ExcludeDirSet())
		if err != nil {
			return err
		}

		backupPath, created, err := install.BackupIfAbsent(ctx, r.targetDir, version)
		if err != nil {
			return err
		}

		if created {
			logger.InfoKV(ctx, "Backup created", "path", backupPath)
		}
	}

	logger.InfoKV(ctx, "Merging new files into the installation", "dir", r.targetDir)

	if err := install.Merge(ctx, extractDir, r.targetDir); err != nil {
		return err
	}

	if err := marker.Write(r.targetDir, version); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Operation completed", "version", version)

	return nil
}

// confirmed applies the confirmation policy: force bypasses the prompt.
func (r *runner) confirmed(question string) bool {
	if r.opts.Force {
		return true
	}

	return prompt.Confirm(r.confirmIn, r.confirmOut, question)
}

// logRunHeader announces what is about to happen and on which channel.
func (r *runner) logRunHeader(ctx context.Context, version string) {
	channel := "release"
	if r.opts.Preview {
		channel = "preview"
	}

	logger.InfoKV(ctx, "Server distribution resolved",
		"system", r.plat.String(), "channel", channel, "version", version)
}

// cleanup removes the per-run scratch directory, success or failure.
func (r *runner) cleanup(ctx context.Context) {
	if r.scratchDir == "" {
		return
	}

	if err := os.RemoveAll(r.scratchDir); err != nil {
		logger.WarnKV(ctx, "Unable to remove scratch directory",
			"path", r.scratchDir, "error", err)
		return
	}

	logger.DebugKV(ctx, "Removed scratch directory", "path", r.scratchDir)
}
