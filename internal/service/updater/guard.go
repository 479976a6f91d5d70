package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/mitchellh/go-ps"

	"github.com/rgigli/bedrock-server-updater/internal/logger"
)

// ErrServerRunning is returned when a server process is still alive at
// deployment time. Replacing files under a running server corrupts it.
var ErrServerRunning = errors.New("server process is still running")

// serverProcessNames are the executable names the dedicated server runs as.
var serverProcessNames = map[string]struct{}{
	"bedrock_server":     {},
	"bedrock_server.exe": {},
}

// ensureServerNotRunning scans the process table for a live server instance.
// Enumeration failures are logged and skipped rather than fatal: the check is
// a guard, not a prerequisite.
func (r *runner) ensureServerNotRunning(ctx context.Context) error {
	processes, err := ps.Processes()
	if err != nil {
		logger.WarnKV(ctx, "Unable to enumerate processes, skipping running-server check",
			"error", err)
		return nil
	}

	for _, process := range processes {
		if _, found := serverProcessNames[process.Executable()]; found {
			return fmt.Errorf("%w: %s (pid %d), stop it before replacing its files",
				ErrServerRunning, process.Executable(), process.Pid())
		}
	}

	return nil
}
