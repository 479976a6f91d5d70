package version

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// TestFullContainsParts ensures the full string carries all build metadata.
func TestFullContainsParts(t *testing.T) {
	t.Parallel()

	full := Full()
	require.Contains(t, full, Version)
	require.Contains(t, full, Commit)
	require.Contains(t, full, BuildTime)
	require.Equal(t, Version, Short())
}

// TestAttachCobraVersionCommand checks the subcommand is attached and prints build info.
func TestAttachCobraVersionCommand(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "bedrock-updater"}
	AttachCobraVersionCommand(root)

	cmd, _, err := root.Find([]string{"version"})
	require.NoError(t, err)
	require.Equal(t, "version", cmd.Use)
}
