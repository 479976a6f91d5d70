package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rgigli/bedrock-server-updater/internal/service/updater"
	"github.com/rgigli/bedrock-server-updater/internal/version"
)

var (
	// configPath to the settings YAML file. Empty means auto-discovery in the
	// target directory and next to the executable.
	configPath string

	// targetDir is the server installation directory.
	targetDir string

	// preview selects the preview release channel.
	preview bool

	// force skips confirmation prompts and the up-to-date short circuit.
	force bool

	// rootCmd represents the base command for managing a server installation.
	rootCmd = &cobra.Command{
		Use:   "bedrock-updater",
		Short: "Install and update a Minecraft Bedrock dedicated server",
		Long: "Downloads the official Bedrock dedicated server for this platform " +
			"and installs or updates it in place, preserving worlds and settings.",
	}
)

// Execute runs the bedrock-updater CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"path to settings file (default: auto-discovered)")
	rootCmd.PersistentFlags().StringVarP(&targetDir, "dir", "d", ".",
		"server installation directory")
	rootCmd.PersistentFlags().BoolVar(&preview, "preview", false,
		"use the preview release channel")
	rootCmd.PersistentFlags().BoolVarP(&force, "force", "f", false,
		"skip confirmation prompts and version checks")

	rootCmd.AddCommand(
		newModeCommand(updater.ModeInstall, "install",
			"Install a fresh server into the target directory"),
		newModeCommand(updater.ModeUpdate, "update",
			"Update the server in place, preserving worlds and settings"),
		newModeCommand(updater.ModeCheck, "check",
			"Report the installed and latest available versions"),
	)
}

// newModeCommand builds one subcommand; all three operations share the same
// flag surface and differ only in mode.
func newModeCommand(mode updater.Mode, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			cmd.SilenceUsage = true

			options := &updater.Options{
				ConfigPath: configPath,
				TargetDir:  targetDir,
				Mode:       mode,
				Preview:    preview,
				Force:      force,
			}

			return updater.Run(ctx, options)
		},
	}
}
